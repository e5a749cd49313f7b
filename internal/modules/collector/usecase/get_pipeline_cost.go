package usecase

import (
	"context"

	"hikari/internal/infrastructure/logger"
	"hikari/internal/infrastructure/telemetry/tracer"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/modules/collector/repository"
	"hikari/internal/pkg/utils"
)

type getPipelineCostUseCase struct {
	Log    logger.Logger
	Tracer tracer.Tracer
	Repo   repository.SpanQueryRepository
}

var _ GetPipelineCostUseCase = (*getPipelineCostUseCase)(nil)

func NewGetPipelineCostUseCase(log logger.Logger, trc tracer.Tracer, repo repository.SpanQueryRepository) GetPipelineCostUseCase {
	return &getPipelineCostUseCase{
		Log:    log.WithField("action", useCaseName+".get_pipeline_cost"),
		Tracer: trc,
		Repo:   repo,
	}
}

// Execute implements §4.4.1. A nil, nil result from the repository means
// no rows exist for the pipeline at all, which is translated here into
// entity.ErrPipelineNotFound for the handler to map to HTTP 404.
func (uc *getPipelineCostUseCase) Execute(ctx context.Context, pipelineID string) (*entity.PipelineCost, error) {
	span, ctx := uc.Tracer.StartSpan(ctx, useCaseName+".get_pipeline_cost")
	defer span.Finish()

	cost, err := uc.Repo.PipelineCostBreakdown(ctx, repository.CostBreakdownParams{PipelineID: pipelineID})
	if err != nil {
		utils.RecordSpanError(span, err)
		return nil, err
	}
	if cost == nil {
		return nil, entity.ErrPipelineNotFound
	}
	return cost, nil
}
