package http

import (
	"hikari/internal/infrastructure/config"

	"github.com/gofiber/fiber/v2"
)

type RouteConfig struct {
	Config  *config.Config
	Server  *fiber.App
	Handler *Handler
}

func (r *RouteConfig) Setup() {
	v1 := r.Server.Group("/v1")

	v1.Post("/traces", r.Handler.IngestTraces)
	v1.Get("/pipelines/:pipeline_id/cost", r.Handler.GetPipelineCost)
	v1.Get("/pipelines", r.Handler.ListPipelines)
	v1.Get("/cost/trending", r.Handler.CostTrending)
	v1.Get("/health", r.Handler.Health)
}
