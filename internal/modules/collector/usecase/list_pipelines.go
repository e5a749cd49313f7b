package usecase

import (
	"context"

	"hikari/internal/infrastructure/logger"
	"hikari/internal/infrastructure/telemetry/tracer"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/modules/collector/repository"
	"hikari/internal/pkg/utils"
)

type listPipelinesUseCase struct {
	Log    logger.Logger
	Tracer tracer.Tracer
	Repo   repository.SpanQueryRepository
}

var _ ListPipelinesUseCase = (*listPipelinesUseCase)(nil)

func NewListPipelinesUseCase(log logger.Logger, trc tracer.Tracer, repo repository.SpanQueryRepository) ListPipelinesUseCase {
	return &listPipelinesUseCase{
		Log:    log.WithField("action", useCaseName+".list_pipelines"),
		Tracer: trc,
		Repo:   repo,
	}
}

// Execute implements §4.4.2. Limit/offset defaulting and clamping happen
// in the delivery layer, which owns request parsing; by the time a request
// reaches here it is already valid.
func (uc *listPipelinesUseCase) Execute(ctx context.Context, req ListPipelinesRequest) (*entity.PipelineList, error) {
	span, ctx := uc.Tracer.StartSpan(ctx, useCaseName+".list_pipelines")
	defer span.Finish()

	summaries, total, err := uc.Repo.ListPipelines(ctx, repository.PipelineListParams{
		Start:  req.Start,
		End:    req.End,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		utils.RecordSpanError(span, err)
		return nil, err
	}

	if summaries == nil {
		summaries = []entity.PipelineSummary{}
	}

	return &entity.PipelineList{
		Pipelines: summaries,
		Total:     total,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}, nil
}
