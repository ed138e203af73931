package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/quipu-reports/quipu/internal/app"
	"github.com/quipu-reports/quipu/internal/engine"
	jobmetrics "github.com/quipu-reports/quipu/internal/jobs"
	"github.com/quipu-reports/quipu/internal/ledger"
	"github.com/quipu-reports/quipu/internal/netted"
	"github.com/quipu-reports/quipu/internal/platform/db"
	"github.com/quipu-reports/quipu/internal/payables"
	"github.com/quipu-reports/quipu/internal/receivables"
	"github.com/quipu-reports/quipu/jobs"
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

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	source, err := ledger.NewClient(ledger.ClientConfig{
		URL:      cfg.LedgerURL,
		Database: cfg.LedgerDatabase,
		Username: cfg.LedgerUsername,
		Password: cfg.LedgerPassword,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("init ledger client", slog.Any("error", err))
		os.Exit(1)
	}

	summaryCache := engine.NewCache(redisClient, cfg.CacheTTL)

	collectionsEngine := engine.New(source, receivables.NewProfile(cfg.HomeCountry), logger)
	treasuryEngine := engine.New(source, payables.NewProfile(cfg.HomeCountry), logger)
	collectionsService := receivables.NewService(collectionsEngine, summaryCache)
	treasuryService := payables.NewService(treasuryEngine, source, summaryCache)

	nettedService := netted.NewService(netted.NewRepository(pool))
	metrics := jobmetrics.NewMetrics(nil)

	syncJob := jobs.NewNettedSyncJob(treasuryEngine, collectionsEngine, nettedService, logger, metrics)
	warmupJob := jobs.NewSummaryWarmupJob(collectionsService, treasuryService, logger, metrics)

	syncTask, err := jobs.NewNettedSyncTask(jobs.NettedSyncPayload{RequestedBy: "scheduler"})
	if err != nil {
		logger.Error("build netted sync task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewSummaryWarmupTask(jobs.SummaryWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskNettedSync, Handler: syncJob.Handle},
			{Type: jobs.TaskSummaryWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.NettedSyncSchedule, Task: syncTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
