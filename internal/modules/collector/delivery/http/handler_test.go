package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"hikari/internal/infrastructure/config"
	server "hikari/internal/infrastructure/http"
	"hikari/internal/infrastructure/logger"
	collectorhttp "hikari/internal/modules/collector/delivery/http"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/modules/collector/usecase"
	"hikari/internal/pkg/apperror"
	"hikari/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngest struct {
	result *usecase.IngestResult
	err    error
}

func (f fakeIngest) Execute(ctx context.Context, body []byte) (*usecase.IngestResult, error) {
	return f.result, f.err
}

type fakeGetPipelineCost struct {
	cost *entity.PipelineCost
	err  error
}

func (f fakeGetPipelineCost) Execute(ctx context.Context, pipelineID string) (*entity.PipelineCost, error) {
	return f.cost, f.err
}

type fakeListPipelines struct {
	list *entity.PipelineList
	err  error
}

func (f fakeListPipelines) Execute(ctx context.Context, req usecase.ListPipelinesRequest) (*entity.PipelineList, error) {
	return f.list, f.err
}

type fakeCostTrending struct {
	buckets []entity.TrendingBucket
	err     error
}

func (f fakeCostTrending) Execute(ctx context.Context, req usecase.CostTrendingRequest) ([]entity.TrendingBucket, error) {
	return f.buckets, f.err
}

type fakeHealth struct {
	health *entity.Health
}

func (f fakeHealth) Execute(ctx context.Context) *entity.Health {
	return f.health
}

func newTestApp(t *testing.T, ucs collectorhttp.HandlerUseCases) *fiber.App {
	t.Helper()
	cfg := &config.Config{}
	srv := server.NewServer(cfg, logger.NewNoOpLogger())

	h := collectorhttp.NewHandler(cfg, logger.NewNoOpLogger(), ucs)
	rc := collectorhttp.RouteConfig{Server: srv.App, Config: cfg, Handler: h}
	rc.Setup()

	return srv.App
}

func decodeHttp(t *testing.T, body []byte) response.Http {
	t.Helper()
	var out response.Http
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestIngestTraces_AllAccepted_Returns200(t *testing.T) {
	app := newTestApp(t, collectorhttp.HandlerUseCases{
		IngestTraces: fakeIngest{result: &usecase.IngestResult{Accepted: 2}},
	})

	req := httptest.NewRequest("POST", "/v1/traces", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestIngestTraces_PartialRejection_Returns207(t *testing.T) {
	app := newTestApp(t, collectorhttp.HandlerUseCases{
		IngestTraces: fakeIngest{result: &usecase.IngestResult{Accepted: 1, Rejected: 1, Errors: []string{"span s1: bad"}}},
	})

	req := httptest.NewRequest("POST", "/v1/traces", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusMultiStatus, resp.StatusCode)
}

func TestIngestTraces_MalformedBody_Returns400(t *testing.T) {
	app := newTestApp(t, collectorhttp.HandlerUseCases{
		IngestTraces: fakeIngest{err: apperror.ErrCodeInvalidRequest},
	})

	req := httptest.NewRequest("POST", "/v1/traces", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetPipelineCost_Found_Returns200(t *testing.T) {
	app := newTestApp(t, collectorhttp.HandlerUseCases{
		GetPipelineCost: fakeGetPipelineCost{cost: &entity.PipelineCost{PipelineID: "p1", TotalCost: 1.5}},
	})

	req := httptest.NewRequest("GET", "/v1/pipelines/p1/cost", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGetPipelineCost_NotFound_Returns404(t *testing.T) {
	app := newTestApp(t, collectorhttp.HandlerUseCases{
		GetPipelineCost: fakeGetPipelineCost{err: entity.ErrPipelineNotFound},
	})

	req := httptest.NewRequest("GET", "/v1/pipelines/missing/cost", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListPipelines_DefaultsLimitAndOffset(t *testing.T) {
	var captured usecase.ListPipelinesRequest
	app := newTestApp(t, collectorhttp.HandlerUseCases{
		ListPipelines: capturingListPipelines{out: &captured, list: &entity.PipelineList{}},
	})

	req := httptest.NewRequest("GET", "/v1/pipelines", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 100, captured.Limit)
	assert.Equal(t, 0, captured.Offset)
}

func TestListPipelines_ClampsLimitToMax(t *testing.T) {
	var captured usecase.ListPipelinesRequest
	app := newTestApp(t, collectorhttp.HandlerUseCases{
		ListPipelines: capturingListPipelines{out: &captured, list: &entity.PipelineList{}},
	})

	req := httptest.NewRequest("GET", "/v1/pipelines?limit=50000", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1000, captured.Limit)
}

func TestListPipelines_InvalidLimit_Returns400(t *testing.T) {
	app := newTestApp(t, collectorhttp.HandlerUseCases{
		ListPipelines: fakeListPipelines{list: &entity.PipelineList{}},
	})

	req := httptest.NewRequest("GET", "/v1/pipelines?limit=abc", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCostTrending_MissingRange_Returns400(t *testing.T) {
	app := newTestApp(t, collectorhttp.HandlerUseCases{
		CostTrending: fakeCostTrending{},
	})

	req := httptest.NewRequest("GET", "/v1/cost/trending?interval=day&group_by=model", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCostTrending_InvalidInterval_Returns400(t *testing.T) {
	app := newTestApp(t, collectorhttp.HandlerUseCases{
		CostTrending: fakeCostTrending{},
	})

	req := httptest.NewRequest("GET", "/v1/cost/trending?start=2026-01-01T00:00:00Z&end=2026-01-02T00:00:00Z&interval=month&group_by=model", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCostTrending_Valid_Returns200(t *testing.T) {
	app := newTestApp(t, collectorhttp.HandlerUseCases{
		CostTrending: fakeCostTrending{buckets: []entity.TrendingBucket{{TotalCost: 10}}},
	})

	req := httptest.NewRequest("GET", "/v1/cost/trending?start=2026-01-01T00:00:00Z&end=2026-01-02T00:00:00Z&interval=day&group_by=model", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealth_Returns200(t *testing.T) {
	app := newTestApp(t, collectorhttp.HandlerUseCases{
		Health: fakeHealth{health: &entity.Health{Status: "healthy"}},
	})

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

type capturingListPipelines struct {
	out  *usecase.ListPipelinesRequest
	list *entity.PipelineList
	err  error
}

func (f capturingListPipelines) Execute(ctx context.Context, req usecase.ListPipelinesRequest) (*entity.PipelineList, error) {
	*f.out = req
	return f.list, f.err
}
