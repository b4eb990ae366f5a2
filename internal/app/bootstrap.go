package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/logistock/logistock/internal/inventory"
	jobmetrics "github.com/logistock/logistock/internal/jobs"
	"github.com/logistock/logistock/internal/observability"
	"github.com/logistock/logistock/internal/platform/cache"
	"github.com/logistock/logistock/internal/platform/db"
	"github.com/logistock/logistock/internal/report"
	"github.com/logistock/logistock/internal/shared"
	"github.com/logistock/logistock/jobs"
)

// Runtime holds the collaborators shared by the CLI, the HTTP server and the
// worker. Redis and PostgreSQL are optional and stay nil in test mode.
type Runtime struct {
	Config     *Config
	Logger     *slog.Logger
	Service    *inventory.Service
	Files      *inventory.FileStore
	Mirror     *inventory.Repository
	Cache      *report.Cache
	Metrics    *observability.Metrics
	JobMetrics *jobmetrics.Metrics

	redis *redis.Client
	pool  *pgxpool.Pool
}

// NewRuntime wires the inventory service to its stores.
func NewRuntime(ctx context.Context, cfg *Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	enc, err := inventory.LookupEncoding(cfg.CSVEncoding)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:  cfg,
		Logger:  logger,
		Files:   inventory.NewFileStore(cfg.InventoryFile, enc),
		Metrics: observability.NewMetrics(),
	}
	rt.JobMetrics = jobmetrics.NewMetrics(rt.Metrics.Registerer())

	if !InTestMode() {
		rt.redis, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
			rt.redis = nil
		}
		if cfg.PGDSN != "" {
			rt.pool, err = db.New(ctx, cfg.PGDSN, db.Options{})
			if err != nil {
				rt.Close()
				return nil, err
			}
		}
	}
	rt.Cache = report.NewCache(rt.redis, cfg.ReportCacheTTL, rt.source())

	svcCfg := inventory.ServiceConfig{Logger: logger, Listener: rt.Cache}
	if rt.pool != nil {
		rt.Mirror = inventory.NewRepository(rt.pool)
		if err := rt.Mirror.EnsureSchema(ctx); err != nil {
			rt.Close()
			return nil, err
		}
		audit := shared.NewAuditLogger(rt.pool)
		if err := audit.EnsureSchema(ctx); err != nil {
			rt.Close()
			return nil, err
		}
		svcCfg.Audit = audit
	}
	rt.Service = inventory.NewService(rt.Files, svcCfg)
	rt.Metrics.ObserveLedger(rt.Service.Len)
	return rt, nil
}

// RedisEnabled reports whether Redis backs the cache and the export queue.
func (rt *Runtime) RedisEnabled() bool {
	return rt.redis != nil
}

// source is the absolute inventory path, shared by the report cache scope and
// queued exports read by the worker.
func (rt *Runtime) source() string {
	if abs, err := filepath.Abs(rt.Files.Path()); err == nil {
		return abs
	}
	return rt.Files.Path()
}

// Close releases Redis and PostgreSQL connections.
func (rt *Runtime) Close() {
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			rt.Logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if rt.pool != nil {
		rt.pool.Close()
	}
}

// Server builds the HTTP handler. The returned cleanup waits for in-flight
// report jobs and closes queue connections.
func (rt *Runtime) Server(notifier shared.Notifier) (http.Handler, func()) {
	dispatcher := report.NewDispatcher(report.DispatcherConfig{
		Logger:        rt.Logger,
		Metrics:       rt.JobMetrics,
		Notifier:      notifier,
		ReportDir:     rt.Config.ReportDir,
		MaxConcurrent: 4,
	})

	var (
		queue     report.Enqueuer
		inspector *asynq.Inspector
		client    *jobs.Client
	)
	if rt.redis != nil {
		opts := asynq.RedisClientOpt{Addr: rt.Config.RedisAddr}
		var err error
		client, err = jobs.NewClient(opts)
		if err != nil {
			rt.Logger.Warn("export queue disabled", slog.Any("error", err))
		} else {
			inspector = asynq.NewInspector(opts)
			queue = jobs.NewExportQueue(client, rt.source(), rt.Config.CSVEncoding)
		}
	}

	router := NewRouter(RouterParams{
		Logger:           rt.Logger,
		Config:           rt.Config,
		Metrics:          rt.Metrics,
		InventoryHandler: inventory.NewHandler(rt.Logger, rt.Service),
		ReportHandler:    report.NewHandler(rt.Logger, rt.Service, rt.Cache, dispatcher, queue),
		JobHandler:       jobs.NewHandler(inspector, rt.Logger),
	})

	cleanup := func() {
		if err := dispatcher.Wait(); err != nil {
			rt.Logger.Warn("report jobs", slog.Any("error", err))
		}
		if inspector != nil {
			if err := inspector.Close(); err != nil {
				rt.Logger.Warn("inspector close", slog.Any("error", err))
			}
		}
		if client != nil {
			if err := client.Close(); err != nil {
				rt.Logger.Warn("queue client close", slog.Any("error", err))
			}
		}
	}
	return router, cleanup
}
