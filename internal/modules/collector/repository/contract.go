// Package repository defines the collector's persistence contracts,
// split into command (writes) and query (reads) per the teacher's
// product module layout.
package repository

import (
	"context"
	"time"

	"hikari/internal/modules/collector/entity"
)

// SpanCommandRepository persists ingested spans. The writer is the only
// caller in practice (spec §5: exactly one writer goroutine).
type SpanCommandRepository interface {
	// InsertBatch writes spans with multi-row INSERT statements, one per
	// chunk of up to 500 rows. Returns a
	// *apperror.AppError classified Transient/Persistance/Internal so the
	// caller can decide whether to retry.
	InsertBatch(ctx context.Context, spans []entity.Span) error
}

// CostBreakdownParams scopes a §4.4.1 pipeline cost breakdown lookup.
type CostBreakdownParams struct {
	PipelineID string
}

// PipelineListParams scopes a §4.4.2 pipeline listing.
type PipelineListParams struct {
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}

// TrendingParams scopes a §4.4.3 cost trending query.
type TrendingParams struct {
	Interval  entity.TrendingInterval
	GroupBy   entity.TrendingGroupBy
	Start     time.Time
	End       time.Time
}

// SpanQueryRepository serves the three read paths of §4.4.
type SpanQueryRepository interface {
	// PipelineCostBreakdown returns the per-stage/model/provider breakdown
	// for one pipeline, plus its overall totals. Returns (nil, nil) when the
	// pipeline has no rows at all, letting the usecase translate that into
	// entity.ErrPipelineNotFound.
	PipelineCostBreakdown(ctx context.Context, params CostBreakdownParams) (*entity.PipelineCost, error)

	// ListPipelines returns a page of pipeline summaries ordered by
	// last_seen DESC, pipeline_id ASC, plus the total distinct pipeline
	// count for pagination.
	ListPipelines(ctx context.Context, params PipelineListParams) ([]entity.PipelineSummary, int64, error)

	// CostTrending reads the continuous-aggregate table matching the
	// requested interval and returns time-bucketed totals with a top-20
	// breakdown plus a synthetic "other" bucket.
	CostTrending(ctx context.Context, params TrendingParams) ([]entity.TrendingBucket, error)
}
