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
	"github.com/redis/go-redis/v9"

	"github.com/quipu-reports/quipu/internal/app"
	"github.com/quipu-reports/quipu/internal/engine"
	"github.com/quipu-reports/quipu/internal/ledger"
	"github.com/quipu-reports/quipu/internal/netted"
	"github.com/quipu-reports/quipu/internal/observability"
	"github.com/quipu-reports/quipu/internal/platform/db"
	"github.com/quipu-reports/quipu/internal/payables"
	"github.com/quipu-reports/quipu/internal/receivables"
	"github.com/quipu-reports/quipu/jobs"
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

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	source, err := ledger.NewClient(ledger.ClientConfig{
		URL:      cfg.LedgerURL,
		Database: cfg.LedgerDatabase,
		Username: cfg.LedgerUsername,
		Password: cfg.LedgerPassword,
		Logger:   logger,
		Observer: metrics.ObserveLedgerCall,
	})
	if err != nil {
		logger.Error("init ledger client", slog.Any("error", err))
		os.Exit(1)
	}

	summaryCache := engine.NewCache(redisClient, cfg.CacheTTL)
	if err := summaryCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	collectionsEngine := engine.New(source, receivables.NewProfile(cfg.HomeCountry), logger)
	treasuryEngine := engine.New(source, payables.NewProfile(cfg.HomeCountry), logger)

	collectionsService := receivables.NewService(collectionsEngine, summaryCache)
	collectionsHandler := receivables.NewHandler(logger, collectionsService)

	treasuryService := payables.NewService(treasuryEngine, source, summaryCache)
	treasuryHandler := payables.NewHandler(logger, treasuryService)

	nettedRepo := netted.NewRepository(dbpool)
	nettedService := netted.NewService(nettedRepo)
	nettedHandler := netted.NewHandler(logger, nettedService)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		CollectionsHandler: collectionsHandler,
		TreasuryHandler:    treasuryHandler,
		NettedHandler:      nettedHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
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
