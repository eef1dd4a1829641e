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
	"github.com/comptoir/backoffice/internal/observability"
	"github.com/comptoir/backoffice/internal/platform/cache"
	"github.com/comptoir/backoffice/internal/platform/db"
	"github.com/comptoir/backoffice/internal/platform/posapi"
	"github.com/comptoir/backoffice/internal/reconcile"
	"github.com/comptoir/backoffice/internal/sales"
	saleshttp "github.com/comptoir/backoffice/internal/sales/http"
	"github.com/comptoir/backoffice/internal/sales/listing"
	"github.com/comptoir/backoffice/internal/sales/present"
	"github.com/comptoir/backoffice/internal/shared"
	"github.com/comptoir/backoffice/internal/view"
	"github.com/comptoir/backoffice/jobs"
	"github.com/comptoir/backoffice/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "backoffice")
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("resolve timezone", slog.Any("error", err))
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

	// Findings are optional: the sales pages work without the database.
	var findings saleshttp.FindingsReader
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns, ApplicationName: "backoffice"})
	if err != nil {
		logger.Warn("postgres unavailable, findings disabled", slog.Any("error", err))
	} else {
		defer pool.Close()
		findings = reconcile.NewRepository(pool)
	}

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	posClient := posapi.New(posapi.Config{
		BaseURL: cfg.POSAPIURL,
		Token:   cfg.POSAPIToken,
		Timeout: cfg.POSAPITimeout,
	})
	defer func() {
		_ = posClient.Close()
	}()

	salesCache := cache.NewVersioned(redisClient, "sales", cfg.SalesCacheTTL)
	salesService := sales.NewService(posClient, salesCache, logger, metrics)
	registry := listing.NewRegistry(salesService, listing.Options{
		Limit:   cfg.SalesPageSize,
		Timeout: cfg.POSAPITimeout,
		Logger:  logger,
		Metrics: metrics,
	}, cfg.SalesViewTTL)

	formatter := present.NewFormatter(cfg.CurrencySuffix, loc)
	templates, err := view.NewEngine(formatter)
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	var pdf saleshttp.PDFRenderClient
	if cfg.GotenbergURL != "" {
		reportClient := report.NewClient(cfg.GotenbergURL)
		defer func() {
			_ = reportClient.Close()
		}()
		if err := reportClient.Ping(ctx); err != nil {
			logger.Warn("gotenberg ping", slog.Any("error", err))
		}
		pdf = reportClient
	}

	salesHandler, err := saleshttp.NewHandler(saleshttp.Config{
		Logger:      logger,
		Sales:       salesService,
		Registry:    registry,
		Templates:   templates,
		CSRF:        csrfManager,
		Navigator:   present.Navigator{ProfileBaseURL: cfg.CRMCustomerURL},
		Formatter:   formatter,
		Findings:    findings,
		PDF:         pdf,
		Invalidator: salesService,
		Metrics:     metrics,
	})
	if err != nil {
		logger.Error("init sales handler", slog.Any("error", err))
		os.Exit(1)
	}

	queueOpts := jobs.RedisOpt(redisOpts)
	inspector := asynq.NewInspector(queueOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	var enqueuer jobs.Enqueuer
	if jobClient, err := jobs.NewClient(queueOpts); err != nil {
		logger.Warn("job client unavailable", slog.Any("error", err))
	} else {
		defer func() {
			_ = jobClient.Close()
		}()
		enqueuer = jobClient
	}
	jobHandler := jobs.NewHandler(inspector, enqueuer, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		SalesHandler:   salesHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
