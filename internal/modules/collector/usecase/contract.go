package usecase

import (
	"context"
	"time"

	"hikari/internal/modules/collector/entity"
)

const useCaseName = "usecase:collector"

// IngestResult is the outcome of one POST /v1/traces call, shaped so the
// handler can pick the right HTTP status per spec §6 without reaching
// back into the decoder package.
type IngestResult struct {
	Accepted int
	Rejected int
	Errors   []string
}

// IngestTracesUseCase implements §4.1 + §4.2: decode, validate, and
// non-blockingly enqueue accepted spans for the background writer.
type IngestTracesUseCase interface {
	Execute(ctx context.Context, body []byte) (*IngestResult, error)
}

// GetPipelineCostUseCase implements §4.4.1.
type GetPipelineCostUseCase interface {
	Execute(ctx context.Context, pipelineID string) (*entity.PipelineCost, error)
}

// ListPipelinesRequest carries the validated, defaulted query parameters
// for §4.4.2.
type ListPipelinesRequest struct {
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}

// ListPipelinesUseCase implements §4.4.2.
type ListPipelinesUseCase interface {
	Execute(ctx context.Context, req ListPipelinesRequest) (*entity.PipelineList, error)
}

// CostTrendingRequest carries the validated §4.4.3 query parameters.
type CostTrendingRequest struct {
	Start    time.Time
	End      time.Time
	Interval entity.TrendingInterval
	GroupBy  entity.TrendingGroupBy
}

// CostTrendingUseCase implements §4.4.3.
type CostTrendingUseCase interface {
	Execute(ctx context.Context, req CostTrendingRequest) ([]entity.TrendingBucket, error)
}

// HealthUseCase implements the §6 /v1/health contract.
type HealthUseCase interface {
	Execute(ctx context.Context) *entity.Health
}
