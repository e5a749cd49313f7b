package usecase_test

import (
	"context"
	"errors"
	"testing"

	"hikari/internal/infrastructure/logger"
	"hikari/internal/infrastructure/telemetry/tracer"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/modules/collector/repository"
	"hikari/internal/modules/collector/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQueryRepo struct {
	mock.Mock
}

func (m *mockQueryRepo) PipelineCostBreakdown(ctx context.Context, params repository.CostBreakdownParams) (*entity.PipelineCost, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PipelineCost), args.Error(1)
}

func (m *mockQueryRepo) ListPipelines(ctx context.Context, params repository.PipelineListParams) ([]entity.PipelineSummary, int64, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.PipelineSummary), args.Get(1).(int64), args.Error(2)
}

func (m *mockQueryRepo) CostTrending(ctx context.Context, params repository.TrendingParams) ([]entity.TrendingBucket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TrendingBucket), args.Error(1)
}

func TestGetPipelineCostUseCase_Execute_Found(t *testing.T) {
	repo := new(mockQueryRepo)
	uc := usecase.NewGetPipelineCostUseCase(logger.NewNoOpLogger(), tracer.NewNoOpTracer(), repo)

	want := &entity.PipelineCost{PipelineID: "p1", TotalCost: 1.23}
	repo.On("PipelineCostBreakdown", mock.Anything, repository.CostBreakdownParams{PipelineID: "p1"}).
		Return(want, nil)

	got, err := uc.Execute(context.Background(), "p1")
	require.NoError(t, err)
	assert.Same(t, want, got)
	repo.AssertExpectations(t)
}

func TestGetPipelineCostUseCase_Execute_NotFound(t *testing.T) {
	repo := new(mockQueryRepo)
	uc := usecase.NewGetPipelineCostUseCase(logger.NewNoOpLogger(), tracer.NewNoOpTracer(), repo)

	repo.On("PipelineCostBreakdown", mock.Anything, repository.CostBreakdownParams{PipelineID: "missing"}).
		Return(nil, nil)

	got, err := uc.Execute(context.Background(), "missing")
	assert.Nil(t, got)
	assert.Equal(t, entity.ErrPipelineNotFound, err)
	repo.AssertExpectations(t)
}

func TestGetPipelineCostUseCase_Execute_RepositoryError(t *testing.T) {
	repo := new(mockQueryRepo)
	uc := usecase.NewGetPipelineCostUseCase(logger.NewNoOpLogger(), tracer.NewNoOpTracer(), repo)

	wantErr := errors.New("db error")
	repo.On("PipelineCostBreakdown", mock.Anything, repository.CostBreakdownParams{PipelineID: "p1"}).
		Return(nil, wantErr)

	got, err := uc.Execute(context.Background(), "p1")
	assert.Nil(t, got)
	assert.Equal(t, wantErr, err)
	repo.AssertExpectations(t)
}
