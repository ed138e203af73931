package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/quipu-reports/quipu/internal/engine"
	jobmetrics "github.com/quipu-reports/quipu/internal/jobs"
	"github.com/quipu-reports/quipu/internal/payables"
	"github.com/quipu-reports/quipu/internal/receivables"
)

// SummaryWarmupJob pre-populates the summary caches so the first
// dashboard hit of the day does not pay the full composition cost.
type SummaryWarmupJob struct {
	Collections *receivables.Service
	Treasury    *payables.Service
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
}

// NewSummaryWarmupJob wires dependencies for the warmup handler.
func NewSummaryWarmupJob(collections *receivables.Service, treasury *payables.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *SummaryWarmupJob {
	return &SummaryWarmupJob{Collections: collections, Treasury: treasury, Logger: logger, Metrics: metrics}
}

// Handle processes summary warmup tasks.
func (j *SummaryWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("summary warmup: handler not configured")
	}
	var payload SummaryWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	families := payload.Families
	if len(families) == 0 {
		families = []string{"receivables", "payables"}
	}

	tracker := j.metrics().Track(TaskSummaryWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting summary warmup", slog.Any("families", families))
	start := time.Now()

	for _, family := range families {
		// Each family gets its own deadline so one slow export cannot
		// starve the rest of the run.
		famCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		err := j.warmFamily(famCtx, family)
		cancel()
		if err != nil {
			resultErr = err
			logger.Error("warm family", slog.String("family", family), slog.Any("error", err))
			return resultErr
		}
	}

	logger.Info("completed summary warmup", slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *SummaryWarmupJob) warmFamily(ctx context.Context, family string) error {
	f := engine.Filters{}
	switch family {
	case "receivables":
		if j.Collections == nil {
			return nil
		}
		if _, err := j.Collections.SummaryByAccount(ctx, f); err != nil {
			return err
		}
		if _, err := j.Collections.SummaryByAging(ctx, f); err != nil {
			return err
		}
		return nil
	case "payables":
		if j.Treasury == nil {
			return nil
		}
		if _, err := j.Treasury.SummaryByAccount(ctx, f); err != nil {
			return err
		}
		if _, err := j.Treasury.SummaryByAging(ctx, f); err != nil {
			return err
		}
		return nil
	default:
		return errors.New("summary warmup: unknown family " + family)
	}
}

func (j *SummaryWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSummaryWarmup))
	}
	return slog.Default().With(slog.String("job", TaskSummaryWarmup))
}

func (j *SummaryWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
