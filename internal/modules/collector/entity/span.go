// Package entity holds the collector's persisted and derived domain types.
package entity

import (
	"time"

	"hikari/internal/pkg/apperror"
)

const (
	SpanPipelineNotFound = "COLLECTOR_PIPELINE_NOT_FOUND"
)

var (
	// ErrPipelineNotFound is returned when a cost-breakdown lookup finds no
	// span rows for the requested pipeline_id.
	ErrPipelineNotFound = apperror.New(
		apperror.CodePipelineNotFound,
		"pipeline not found",
		apperror.KindPersistance,
	)
)

// Span is one persisted row of the spans hypertable: one ingested LLM call.
//
// Invariant: TokensInput, TokensOutput, CostInput, CostOutput, CostTotal are
// nullable by design — null means unknown, never zero. A *float64/*int64
// left nil must never be coerced to 0 anywhere downstream; that coercion is
// exactly the bug this type exists to make structurally impossible to write
// by accident (you'd have to explicitly dereference a nil pointer to get it
// wrong, and the compiler/race detector will tell on you).
type Span struct {
	// ID is a surrogate primary key, assigned by the decoder (uid.NewUUID)
	// rather than derived from (time, span_id). A re-delivered OTLP batch
	// carries the same span_id/time pair as the original, which a natural
	// key would reject as a unique-constraint conflict; the surrogate key
	// lets the resubmitted rows insert again, matching the "re-POSTing the
	// same batch inserts again, duplicates do appear" contract.
	ID         string    `gorm:"column:id;type:text;primaryKey"`
	Time       time.Time `gorm:"column:time;type:timestamptz;not null"`
	TraceID    string    `gorm:"column:trace_id;type:text;not null"`
	SpanID     string    `gorm:"column:span_id;type:text;not null"`
	SpanName   string    `gorm:"column:span_name;type:text;not null"`
	PipelineID string    `gorm:"column:pipeline_id;type:text;not null"`
	Stage      string    `gorm:"column:stage;type:text;not null"`
	Model      string    `gorm:"column:model;type:text;not null"`
	Provider   string    `gorm:"column:provider;type:text;not null"`

	TokensInput  *int64 `gorm:"column:tokens_input"`
	TokensOutput *int64 `gorm:"column:tokens_output"`

	CostInput  *float64 `gorm:"column:cost_input"`
	CostOutput *float64 `gorm:"column:cost_output"`
	CostTotal  *float64 `gorm:"column:cost_total"`

	DurationMs int64 `gorm:"column:duration_ms;not null"`
}

func (Span) TableName() string { return "spans" }

// StageKey groups a span into its cost-breakdown bucket per spec §4.4.1.
type StageKey struct {
	Stage    string
	Model    string
	Provider string
}

// StageBreakdown is one row of a pipeline cost breakdown's stages[].
type StageBreakdown struct {
	Stage        string   `json:"stage"`
	Model        string   `json:"model"`
	Provider     string   `json:"provider"`
	TokensInput  *int64   `json:"tokens_input"`
	TokensOutput *int64   `json:"tokens_output"`
	CostTotal    *float64 `json:"cost_total"`
	SpanCount    int64    `json:"span_count"`
}

// PipelineCost is the §4.4.1 response body.
type PipelineCost struct {
	PipelineID    string           `json:"pipeline_id"`
	TotalCost     float64          `json:"total_cost"`
	IsPartial     bool             `json:"is_partial"`
	CoverageRatio float64          `json:"coverage_ratio"`
	Stages        []StageBreakdown `json:"stages"`
	FirstSeen     time.Time        `json:"first_seen"`
	LastSeen      time.Time        `json:"last_seen"`
}

// PipelineSummary is one row of §4.4.2's pipelines[].
type PipelineSummary struct {
	PipelineID string    `json:"pipeline_id"`
	TotalCost  float64   `json:"total_cost"`
	IsPartial  bool      `json:"is_partial"`
	SpanCount  int64     `json:"span_count"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
}

// PipelineList is the §4.4.2 response body.
type PipelineList struct {
	Pipelines []PipelineSummary `json:"pipelines"`
	Total     int64             `json:"total"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
}

// TrendingBreakdownEntry is one entry of a trending bucket's breakdown[].
type TrendingBreakdownEntry struct {
	Key        string  `json:"key"`
	Cost       float64 `json:"cost"`
	Percentage float64 `json:"percentage"`
}

// TrendingBucket is one time-bucketed row of the §4.4.3 response.
type TrendingBucket struct {
	Timestamp         time.Time                `json:"timestamp"`
	TotalCost         float64                  `json:"total_cost"`
	RequestCount      int64                    `json:"request_count"`
	AvgCostPerRequest float64                  `json:"avg_cost_per_request"`
	Breakdown         []TrendingBreakdownEntry `json:"breakdown"`
}

// TrendingInterval enumerates the continuous aggregate §4.4.3 reads from.
type TrendingInterval string

const (
	IntervalHour TrendingInterval = "hour"
	IntervalDay  TrendingInterval = "day"
	IntervalWeek TrendingInterval = "week"
)

// TrendingGroupBy enumerates the §4.4.3 breakdown dimension.
type TrendingGroupBy string

const (
	GroupByModel    TrendingGroupBy = "model"
	GroupByProvider TrendingGroupBy = "provider"
	GroupByStage    TrendingGroupBy = "stage"
)

func (i TrendingInterval) Valid() bool {
	switch i {
	case IntervalHour, IntervalDay, IntervalWeek:
		return true
	}
	return false
}

func (g TrendingGroupBy) Valid() bool {
	switch g {
	case GroupByModel, GroupByProvider, GroupByStage:
		return true
	}
	return false
}

// ContinuousAggregateTable resolves the hypertable name backing each interval,
// matching the three views provisioned in migrations/ per spec §6.
func (i TrendingInterval) ContinuousAggregateTable() string {
	switch i {
	case IntervalHour:
		return "cost_hourly"
	case IntervalDay:
		return "cost_daily"
	case IntervalWeek:
		return "cost_weekly"
	default:
		return ""
	}
}

// Health is the §6 `/v1/health` response body.
type Health struct {
	Status      string  `json:"status"`
	DBConnected bool    `json:"db_connected"`
	BufferUsage float64 `json:"buffer_usage"`
	Version     string  `json:"version"`
}
