// Package collector wires the buffer, writer, repositories, usecases, and
// HTTP handlers that together implement the cost-observability pipeline,
// following the teacher's product module's RegisterModule pattern.
package collector

import (
	"context"
	"time"

	"hikari/internal/infrastructure/config"
	database "hikari/internal/infrastructure/db"
	"hikari/internal/infrastructure/logger"
	"hikari/internal/infrastructure/telemetry/tracer"
	"hikari/internal/modules/collector/buffer"
	"hikari/internal/modules/collector/delivery/http"
	"hikari/internal/modules/collector/repository/command"
	"hikari/internal/modules/collector/repository/query"
	"hikari/internal/modules/collector/usecase"
	"hikari/internal/modules/collector/writer"

	fiberapp "github.com/gofiber/fiber/v2"
)

// ModuleConfig carries everything RegisterModule needs from the
// application bootstrap layer.
type ModuleConfig struct {
	Config  *config.Config
	Server  *fiberapp.App
	DB      database.Database
	Log     logger.Logger
	Tracer  tracer.Tracer
	Version string
}

// Module holds the long-lived pieces the bootstrap layer must start and
// stop alongside the HTTP server: the write buffer (for health/metrics
// readouts), the background writer (for Run/shutdown and db_connected),
// and the optional query cache connection (for graceful shutdown).
type Module struct {
	Buffer *buffer.Buffer
	Writer *writer.Writer
	Cache  database.CacheDatabase
}

// RegisterModule builds the collector's dependency graph and mounts its
// routes onto cfg.Server. The returned Module must have its writer started
// with go module.Writer.Run(ctx) and stopped by cancelling that ctx during
// graceful shutdown.
func RegisterModule(cfg ModuleConfig) *Module {
	ucLogger := cfg.Log.WithField("component", "usecase")
	hdlrLogger := cfg.Log.WithField("component", "handler")
	writerLogger := cfg.Log.WithField("component", "writer")

	buf := buffer.New(cfg.Config.Collector.BufferMaxSize)

	// The query cache is purely a latency optimization (§4.4): no Redis
	// host configured means cache stays nil and every read falls straight
	// through to Postgres.
	var cache database.CacheDatabase
	if cfg.Config.Redis.Host != "" {
		cache = database.NewRedisCache(&cfg.Config.Redis, cfg.Log.WithField("component", "query-cache"))
	}
	cacheTTL := time.Duration(cfg.Config.Collector.QueryCacheTTLSeconds) * time.Second

	spanCmdRepo := command.NewSpanRepository(cfg.DB)
	spanQryRepo := query.NewSpanRepository(cfg.DB, cache, cacheTTL)

	w := writer.New(buf, spanCmdRepo, writerLogger, cfg.Config.Collector)

	ingestTracesUseCase := usecase.NewIngestTracesUseCase(ucLogger, cfg.Tracer, buf)
	getPipelineCostUseCase := usecase.NewGetPipelineCostUseCase(ucLogger, cfg.Tracer, spanQryRepo)
	listPipelinesUseCase := usecase.NewListPipelinesUseCase(ucLogger, cfg.Tracer, spanQryRepo)
	costTrendingUseCase := usecase.NewCostTrendingUseCase(ucLogger, cfg.Tracer, spanQryRepo)
	healthUseCase := usecase.NewHealthUseCase(buf, w, cfg.Version)

	h := http.NewHandler(
		cfg.Config,
		hdlrLogger,
		http.HandlerUseCases{
			IngestTraces:    ingestTracesUseCase,
			GetPipelineCost: getPipelineCostUseCase,
			ListPipelines:   listPipelinesUseCase,
			CostTrending:    costTrendingUseCase,
			Health:          healthUseCase,
		},
	)

	routeConfig := http.RouteConfig{
		Server:  cfg.Server,
		Config:  cfg.Config,
		Handler: h,
	}
	routeConfig.Setup()

	return &Module{Buffer: buf, Writer: w, Cache: cache}
}

// Start launches the background writer. Call once, from the bootstrap
// layer's startup sequence.
func (m *Module) Start(ctx context.Context) {
	go m.Writer.Run(ctx)
}

// Shutdown waits for the writer's bounded drain (triggered by cancelling
// the context passed to Start) to finish, or for ctx to expire first, then
// closes the query cache connection if one was configured.
func (m *Module) Shutdown(ctx context.Context) {
	select {
	case <-m.Writer.Done():
	case <-ctx.Done():
	}

	if m.Cache != nil {
		m.Cache.Close()
	}
}
