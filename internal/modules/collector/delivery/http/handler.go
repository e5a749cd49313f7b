// Package http is the collector's delivery layer: five endpoints per §6,
// thin over the usecase layer, following the teacher's product handler
// shape (parse/validate, call usecase, wrap in response.*).
package http

import (
	"strconv"
	"time"

	"hikari/internal/infrastructure/config"
	"hikari/internal/infrastructure/logger"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/modules/collector/usecase"
	"hikari/internal/pkg/apperror"
	"hikari/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const handlerName = "http:handler.collector"

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type HandlerUseCases struct {
	IngestTraces    usecase.IngestTracesUseCase
	GetPipelineCost usecase.GetPipelineCostUseCase
	ListPipelines   usecase.ListPipelinesUseCase
	CostTrending    usecase.CostTrendingUseCase
	Health          usecase.HealthUseCase
}

type Handler struct {
	Cfg *config.Config
	Log logger.Logger
	Uc  HandlerUseCases
}

func NewHandler(cfg *config.Config, log logger.Logger, useCases HandlerUseCases) *Handler {
	return &Handler{
		Cfg: cfg,
		Log: log.WithField("component", handlerName),
		Uc:  useCases,
	}
}

// IngestTraces handles POST /v1/traces. The status code it returns is part
// of the contract (200 all-accepted, 207 partial, 400 malformed), not an
// error-path detail, so it builds the response directly rather than
// returning an error for the non-400 cases.
func (h *Handler) IngestTraces(c *fiber.Ctx) error {
	ctx := c.Context()
	log := h.Log.WithContext(ctx).WithField("method", "IngestTraces")
	log.Info("request received")

	result, err := h.Uc.IngestTraces.Execute(ctx, c.Body())
	if err != nil {
		return err
	}

	if result.Rejected == 0 {
		return response.NewHttp(c).OK(response.Http{
			Message: "accepted",
			Data: fiber.Map{
				"accepted": result.Accepted,
			},
		})
	}

	return response.NewHttp(c).MultiStatus(response.Http{
		Message: "partially accepted",
		Data: fiber.Map{
			"accepted": result.Accepted,
			"rejected": result.Rejected,
			"errors":   result.Errors,
		},
	})
}

// GetPipelineCost handles GET /v1/pipelines/:pipeline_id/cost.
func (h *Handler) GetPipelineCost(c *fiber.Ctx) error {
	ctx := c.Context()
	log := h.Log.WithContext(ctx).WithField("method", "GetPipelineCost")
	log.Info("request received")

	pipelineID := c.Params("pipeline_id")
	if pipelineID == "" {
		return apperror.ErrCodeInvalidRequest.WithDetail("field", "pipeline_id")
	}

	cost, err := h.Uc.GetPipelineCost.Execute(ctx, pipelineID)
	if err != nil {
		return err
	}

	return response.NewHttp(c).OK(response.Http{
		Message: "success",
		Data:    cost,
	})
}

// ListPipelines handles GET /v1/pipelines.
func (h *Handler) ListPipelines(c *fiber.Ctx) error {
	ctx := c.Context()
	log := h.Log.WithContext(ctx).WithField("method", "ListPipelines")
	log.Info("request received")

	start, end, err := parseRange(c, false)
	if err != nil {
		return err
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			return apperror.ErrCodeInvalidRequest.WithDetail("field", "limit")
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			return apperror.ErrCodeInvalidRequest.WithDetail("field", "offset")
		}
		offset = n
	}

	list, err := h.Uc.ListPipelines.Execute(ctx, usecase.ListPipelinesRequest{
		Start:  start,
		End:    end,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}

	return response.NewHttp(c).OK(response.Http{
		Message: "success",
		Data:    list,
	})
}

// CostTrending handles GET /v1/cost/trending.
func (h *Handler) CostTrending(c *fiber.Ctx) error {
	ctx := c.Context()
	log := h.Log.WithContext(ctx).WithField("method", "CostTrending")
	log.Info("request received")

	start, end, err := parseRange(c, true)
	if err != nil {
		return err
	}

	interval := entity.TrendingInterval(c.Query("interval"))
	if !interval.Valid() {
		return apperror.New(apperror.CodeTrendingRangeInvalid, "interval must be one of hour, day, week", apperror.KindPersistance)
	}

	groupBy := entity.TrendingGroupBy(c.Query("group_by"))
	if !groupBy.Valid() {
		return apperror.New(apperror.CodeTrendingRangeInvalid, "group_by must be one of model, provider, stage", apperror.KindPersistance)
	}

	buckets, err := h.Uc.CostTrending.Execute(ctx, usecase.CostTrendingRequest{
		Start:    start,
		End:      end,
		Interval: interval,
		GroupBy:  groupBy,
	})
	if err != nil {
		return err
	}

	return response.NewHttp(c).OK(response.Http{
		Message: "success",
		Data:    fiber.Map{"buckets": buckets},
	})
}

// Health handles GET /v1/health.
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx := c.Context()
	health := h.Uc.Health.Execute(ctx)
	return response.NewHttp(c).OK(response.Http{
		Message: "success",
		Data:    health,
	})
}

// parseRange reads the start/end query parameters shared by §4.4.2 and
// §4.4.3. required controls whether missing params are a 400 (trending,
// where both are mandated) or default to a wide-open window (listing,
// where the spec gives no explicit default but an unset range should not
// itself be an error).
func parseRange(c *fiber.Ctx, required bool) (time.Time, time.Time, error) {
	startRaw := c.Query("start")
	endRaw := c.Query("end")

	if required && (startRaw == "" || endRaw == "") {
		return time.Time{}, time.Time{}, apperror.New(apperror.CodeTrendingRangeInvalid, "start and end are required", apperror.KindPersistance)
	}

	start := time.Time{}
	end := time.Now().UTC()

	if startRaw != "" {
		t, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return time.Time{}, time.Time{}, apperror.ErrCodeInvalidRequest.WithDetail("field", "start")
		}
		start = t
	}
	if endRaw != "" {
		t, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return time.Time{}, time.Time{}, apperror.ErrCodeInvalidRequest.WithDetail("field", "end")
		}
		end = t
	}

	return start, end, nil
}
