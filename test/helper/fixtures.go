package helper

import (
	"time"

	"hikari/internal/modules/collector/entity"
	"hikari/internal/pkg/uid"
)

// SpanFixture provides reusable test data builders for span entities.
type SpanFixture struct {
	ID           string
	Time         time.Time
	TraceID      string
	SpanID       string
	SpanName     string
	PipelineID   string
	Stage        string
	Model        string
	Provider     string
	TokensInput  *int64
	TokensOutput *int64
	CostInput    *float64
	CostOutput   *float64
	CostTotal    *float64
	DurationMs   int64
}

// NewSpanFixture creates a valid span fixture with sensible defaults and
// fully-populated cost fields.
func NewSpanFixture() *SpanFixture {
	tokensIn := int64(120)
	tokensOut := int64(340)
	costIn := 0.0012
	costOut := 0.0034
	costTotal := costIn + costOut

	return &SpanFixture{
		ID:           uid.NewUUID(),
		Time:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		TraceID:      "11111111-1111-1111-1111-111111111111",
		SpanID:       "22222222-2222-2222-2222-222222222222",
		SpanName:     "llm.call",
		PipelineID:   "pipeline-test",
		Stage:        "summarize",
		Model:        "gpt-4o-mini",
		Provider:     "openai",
		TokensInput:  &tokensIn,
		TokensOutput: &tokensOut,
		CostInput:    &costIn,
		CostOutput:   &costOut,
		CostTotal:    &costTotal,
		DurationMs:   420,
	}
}

// WithPipelineID sets a custom pipeline ID.
func (f *SpanFixture) WithPipelineID(id string) *SpanFixture {
	f.PipelineID = id
	return f
}

// WithStage sets a custom stage name.
func (f *SpanFixture) WithStage(stage string) *SpanFixture {
	f.Stage = stage
	return f
}

// WithTime sets a custom span time.
func (f *SpanFixture) WithTime(t time.Time) *SpanFixture {
	f.Time = t
	return f
}

// WithNullCosts clears every cost and token field, exercising the
// unknown-cost path.
func (f *SpanFixture) WithNullCosts() *SpanFixture {
	f.TokensInput = nil
	f.TokensOutput = nil
	f.CostInput = nil
	f.CostOutput = nil
	f.CostTotal = nil
	return f
}

// ToEntity converts the fixture to entity.Span.
func (f *SpanFixture) ToEntity() entity.Span {
	return entity.Span{
		ID:           f.ID,
		Time:         f.Time,
		TraceID:      f.TraceID,
		SpanID:       f.SpanID,
		SpanName:     f.SpanName,
		PipelineID:   f.PipelineID,
		Stage:        f.Stage,
		Model:        f.Model,
		Provider:     f.Provider,
		TokensInput:  f.TokensInput,
		TokensOutput: f.TokensOutput,
		CostInput:    f.CostInput,
		CostOutput:   f.CostOutput,
		CostTotal:    f.CostTotal,
		DurationMs:   f.DurationMs,
	}
}
