package app

import (
	"context"
	"time"

	"hikari/internal/infrastructure/config"
	database "hikari/internal/infrastructure/db"
	"hikari/internal/infrastructure/logger"
	"hikari/internal/infrastructure/middleware"
	"hikari/internal/infrastructure/scheduler"
	"hikari/internal/infrastructure/telemetry/metrics"
	"hikari/internal/infrastructure/telemetry/tracer"
	"hikari/internal/modules/collector"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registryProvider is satisfied by metrics backends that expose their
// underlying prometheus registry for HTTP exposition. Only the prometheus
// backend implements it; every other backend (datadog, otel, noop) skips
// the /metrics route entirely.
type registryProvider interface {
	Registry() *prometheus.Registry
}

// BootstrapConfig wires the collector domain module onto the shared HTTP
// server and owns the lifetime of everything that keeps running after Run
// returns: the domain database connection, the background write buffer
// drainer, and the retention sweep scheduler.
type BootstrapConfig struct {
	App     *fiber.App
	Log     logger.Logger
	Tracer  tracer.Tracer
	Metrics metrics.Metrics

	domainCfg *config.Config
	domainLog logger.Logger
	db        database.Database
	module    *collector.Module
	retention *scheduler.Scheduler

	cancelWriter context.CancelFunc
}

// Run loads the collector domain's configuration, opens its database
// connection, registers its routes, starts the background writer and the
// retention sweep, and mounts the shared health and metrics endpoints.
func (b *BootstrapConfig) Run() {
	b.setupMiddleware()
	b.setupDomain()
	b.setupModule()
	b.setupRetention()
	b.setupHealthRoute()
	b.setupMetricsRoute()
}

// Stop drains the write buffer, stops the retention scheduler, and closes
// the database connection. Waiting for the drain is bounded by whatever
// deadline the caller's ctx carries: once it expires Stop goes on rather
// than blocking shutdown forever, while the writer's own drain stays
// bounded by ShutdownDrainSeconds.
func (b *BootstrapConfig) Stop(ctx context.Context) {
	if b.cancelWriter != nil {
		b.cancelWriter()
	}
	if b.module != nil {
		b.module.Shutdown(ctx)
	}
	if b.retention != nil {
		b.retention.Stop()
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.domainLog.WithFields(map[string]any{
				"component":    "database",
				"error_detail": err.Error(),
			}).Error("Failed to close database connection")
		} else {
			b.domainLog.WithField("component", "database").Info("Database connection closed gracefully")
		}
	}
}

func (b *BootstrapConfig) setupMiddleware() {
	t := middleware.NewTelemetrist(b.Log, b.Tracer, b.Metrics)

	b.App.Use(middleware.RequestID())
	b.App.Use(t.HandleMetrics())
	b.App.Use(t.HandleTrace())
	b.App.Use(t.HandleLog())
}

func (b *BootstrapConfig) setupDomain() {
	domainCfg := config.LoadDomainConfig("config/collector/config.yaml")
	domainCfg.Collector.Defaults()

	domainLogger := logger.
		New(domainCfg, b.Tracer).
		WithFields(map[string]any{
			"service": domainCfg.App.Name,
			"version": domainCfg.App.Version,
			"env":     domainCfg.App.Env,
			"port":    domainCfg.Http.Port,
			"domain":  "collector",
		})

	b.domainCfg = domainCfg
	b.domainLog = domainLogger
	b.db = database.NewDatabase(&domainCfg.Database, domainLogger, b.Tracer)
}

func (b *BootstrapConfig) setupModule() {
	b.module = collector.RegisterModule(collector.ModuleConfig{
		Config:  b.domainCfg,
		Server:  b.App,
		DB:      b.db,
		Log:     b.domainLog,
		Tracer:  b.Tracer,
		Version: b.domainCfg.App.Version,
	})

	ctx, cancel := context.WithCancel(context.Background())
	b.cancelWriter = cancel
	b.module.Start(ctx)
}

func (b *BootstrapConfig) setupRetention() {
	pruner := scheduler.NewPruner(b.db.GetDB(), b.domainLog, b.domainCfg.Collector.RetentionDays)

	sched, err := scheduler.NewScheduler(pruner, b.domainCfg.Collector.RetentionCronSchedule, b.domainLog)
	if err != nil {
		b.domainLog.WithField("error_detail", err.Error()).Error("failed to set up retention scheduler, retention sweeps disabled")
		return
	}

	b.retention = sched
	b.retention.Start()
}

func (b *BootstrapConfig) setupHealthRoute() {
	h := func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "UP",
			"time":   time.Now().Format(time.RFC3339),
		})
	}

	b.App.Get("/", h)
	b.App.Get("/health", h)
}

// setupMetricsRoute mounts promhttp.Handler behind the adaptor bridge when
// the configured metrics backend is prometheus. Any other backend (datadog,
// otel, noop) simply does not get a /metrics route.
func (b *BootstrapConfig) setupMetricsRoute() {
	provider, ok := b.Metrics.(registryProvider)
	if !ok {
		return
	}

	handler := promhttp.HandlerFor(provider.Registry(), promhttp.HandlerOpts{})
	b.App.Get("/metrics", adaptor.HTTPHandler(handler))
}
