package usecase

import (
	"context"

	"hikari/internal/infrastructure/logger"
	"hikari/internal/infrastructure/telemetry/tracer"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/modules/collector/repository"
	"hikari/internal/pkg/utils"
)

type costTrendingUseCase struct {
	Log    logger.Logger
	Tracer tracer.Tracer
	Repo   repository.SpanQueryRepository
}

var _ CostTrendingUseCase = (*costTrendingUseCase)(nil)

func NewCostTrendingUseCase(log logger.Logger, trc tracer.Tracer, repo repository.SpanQueryRepository) CostTrendingUseCase {
	return &costTrendingUseCase{
		Log:    log.WithField("action", useCaseName+".get_cost_trending"),
		Tracer: trc,
		Repo:   repo,
	}
}

// Execute implements §4.4.3. interval/group_by enum validation happens in
// the handler (missing or invalid values are a 400, per spec §6); by the
// time a request reaches here both are already one of the valid values.
func (uc *costTrendingUseCase) Execute(ctx context.Context, req CostTrendingRequest) ([]entity.TrendingBucket, error) {
	span, ctx := uc.Tracer.StartSpan(ctx, useCaseName+".get_cost_trending")
	defer span.Finish()

	buckets, err := uc.Repo.CostTrending(ctx, repository.TrendingParams{
		Interval: req.Interval,
		GroupBy:  req.GroupBy,
		Start:    req.Start,
		End:      req.End,
	})
	if err != nil {
		utils.RecordSpanError(span, err)
		return nil, err
	}
	if buckets == nil {
		buckets = []entity.TrendingBucket{}
	}
	return buckets, nil
}
