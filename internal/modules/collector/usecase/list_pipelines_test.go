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

func TestListPipelinesUseCase_Execute_ReturnsPage(t *testing.T) {
	repo := new(mockQueryRepo)
	uc := usecase.NewListPipelinesUseCase(logger.NewNoOpLogger(), tracer.NewNoOpTracer(), repo)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	req := usecase.ListPipelinesRequest{Start: start, End: end, Limit: 50, Offset: 0}

	summaries := []entity.PipelineSummary{{PipelineID: "p1", TotalCost: 10}}
	repo.On("ListPipelines", mock.Anything, repository.PipelineListParams{
		Start: start, End: end, Limit: 50, Offset: 0,
	}).Return(summaries, int64(1), nil)

	got, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, summaries, got.Pipelines)
	assert.Equal(t, int64(1), got.Total)
	assert.Equal(t, 50, got.Limit)
	repo.AssertExpectations(t)
}

func TestListPipelinesUseCase_Execute_NilSummariesBecomeEmptySlice(t *testing.T) {
	repo := new(mockQueryRepo)
	uc := usecase.NewListPipelinesUseCase(logger.NewNoOpLogger(), tracer.NewNoOpTracer(), repo)

	req := usecase.ListPipelinesRequest{Limit: 100}
	repo.On("ListPipelines", mock.Anything, mock.Anything).Return(nil, int64(0), nil)

	got, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.NotNil(t, got.Pipelines)
	assert.Empty(t, got.Pipelines)
}
