package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/comptoir/backoffice/internal/app"
	jobmetrics "github.com/comptoir/backoffice/internal/jobs"
	"github.com/comptoir/backoffice/internal/observability"
	"github.com/comptoir/backoffice/internal/platform/cache"
	"github.com/comptoir/backoffice/internal/platform/db"
	"github.com/comptoir/backoffice/internal/platform/posapi"
	"github.com/comptoir/backoffice/internal/reconcile"
	"github.com/comptoir/backoffice/internal/sales"
	"github.com/comptoir/backoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "worker")

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns, ApplicationName: "backoffice-worker"})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	findingsRepo := reconcile.NewRepository(pool)
	if err := findingsRepo.EnsureSchema(ctx); err != nil {
		logger.Error("ensure findings schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := cfg.Redis()
	redisClient, err := cache.Connect(ctx, redisOpts)
	if err != nil {
		logger.Warn("redis unavailable", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	posClient := posapi.New(posapi.Config{
		BaseURL: cfg.POSAPIURL,
		Token:   cfg.POSAPIToken,
		Timeout: cfg.POSAPITimeout,
	})
	defer func() {
		_ = posClient.Close()
	}()

	metrics := observability.NewMetrics()
	salesService := sales.NewService(posClient, cache.NewVersioned(redisClient, "sales", cfg.SalesCacheTTL), logger, metrics)
	scanner := reconcile.NewScanner(salesService, findingsRepo, reconcile.Options{
		MaxPages: cfg.ReconcileMaxPages,
		Logger:   logger,
		Metrics:  metrics,
	})
	reconcileJob := jobs.NewReconcileJob(scanner, logger, jobmetrics.NewMetrics(metrics.Registerer()))

	var cron []jobs.CronRegistration
	if cfg.ReconcileCron != "" {
		task, err := jobs.NewReconcileTask(jobs.ReconcilePayload{MaxPages: cfg.ReconcileMaxPages})
		if err != nil {
			logger.Error("build reconcile task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.ReconcileCron,
			Task:    task,
			Options: []asynq.Option{asynq.MaxRetry(3), asynq.Queue(jobs.QueueDefault)},
		})
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("resolve timezone", slog.Any("error", err))
		os.Exit(1)
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   jobs.RedisOpt(redisOpts),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    loc,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSalesReconcile, Handler: reconcileJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:              cfg.WorkerMetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("starting worker", slog.String("reconcile_cron", cfg.ReconcileCron))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
