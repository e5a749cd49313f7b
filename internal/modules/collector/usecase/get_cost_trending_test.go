package usecase_test

import (
	"context"
	"testing"
	"time"

	"hikari/internal/infrastructure/logger"
	"hikari/internal/infrastructure/telemetry/tracer"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/modules/collector/repository"
	"hikari/internal/modules/collector/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCostTrendingUseCase_Execute_PassesParamsThrough(t *testing.T) {
	repo := new(mockQueryRepo)
	uc := usecase.NewCostTrendingUseCase(logger.NewNoOpLogger(), tracer.NewNoOpTracer(), repo)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	req := usecase.CostTrendingRequest{
		Start: start, End: end,
		Interval: entity.IntervalDay,
		GroupBy:  entity.GroupByModel,
	}

	buckets := []entity.TrendingBucket{{TotalCost: 5}}
	repo.On("CostTrending", mock.Anything, repository.TrendingParams{
		Interval: entity.IntervalDay,
		GroupBy:  entity.GroupByModel,
		Start:    start,
		End:      end,
	}).Return(buckets, nil)

	got, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, buckets, got)
	repo.AssertExpectations(t)
}

func TestCostTrendingUseCase_Execute_NilBucketsBecomeEmptySlice(t *testing.T) {
	repo := new(mockQueryRepo)
	uc := usecase.NewCostTrendingUseCase(logger.NewNoOpLogger(), tracer.NewNoOpTracer(), repo)

	repo.On("CostTrending", mock.Anything, mock.Anything).Return(nil, nil)

	got, err := uc.Execute(context.Background(), usecase.CostTrendingRequest{Interval: entity.IntervalHour, GroupBy: entity.GroupByStage})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
