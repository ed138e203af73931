package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/quipu-reports/quipu/internal/engine"
	jobmetrics "github.com/quipu-reports/quipu/internal/jobs"
	"github.com/quipu-reports/quipu/internal/netted"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// NettedSyncJob rebuilds the stored netted treasury positions: the open
// payables per supplier offset against the receivable credits held on
// the same counterparty.
type NettedSyncJob struct {
	Payables    *engine.Engine
	Receivables *engine.Engine
	Store       *netted.Service
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	clock       func() time.Time
}

// NewNettedSyncJob wires dependencies for the sync handler.
func NewNettedSyncJob(pay, recv *engine.Engine, store *netted.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *NettedSyncJob {
	return &NettedSyncJob{
		Payables:    pay,
		Receivables: recv,
		Store:       store,
		Logger:      logger,
		Metrics:     metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes netted sync tasks.
func (j *NettedSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Payables == nil || j.Receivables == nil || j.Store == nil {
		return errors.New("netted sync: handler not configured")
	}
	var payload NettedSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RunID == "" {
		payload.RunID = uuid.NewString()
	}

	tracker := j.metrics().Track(TaskNettedSync)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("run_id", payload.RunID))
	logger.Info("starting netted sync")
	start := j.now()

	positions, err := j.build(ctx, payload.RunID, start)
	if err != nil {
		resultErr = err
		logger.Error("build netted positions", slog.Any("error", err))
		return resultErr
	}
	if err := j.Store.Replace(ctx, positions); err != nil {
		resultErr = err
		logger.Error("store netted positions", slog.Any("error", err))
		return resultErr
	}

	j.metrics().AddSynced(TaskNettedSync, len(positions))
	logger.Info("completed netted sync",
		slog.Int("suppliers", len(positions)),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

type nettedAccum struct {
	name     string
	taxID    string
	currency string
	payable  float64
	credits  float64
	lines    int
}

// build exports both families with their default scopes and folds the
// rows per counterparty. Only counterparties with an open payable make
// it into the result; pure customers are out of scope.
func (j *NettedSyncJob) build(ctx context.Context, runID string, syncedAt time.Time) ([]netted.Position, error) {
	payRows, err := j.Payables.Export(ctx, engine.Filters{})
	if err != nil {
		return nil, err
	}
	recvRows, err := j.Receivables.Export(ctx, engine.Filters{})
	if err != nil {
		return nil, err
	}

	accum := map[int64]*nettedAccum{}
	for _, row := range payRows {
		if row.CounterpartyID == 0 {
			continue
		}
		a, ok := accum[row.CounterpartyID]
		if !ok {
			a = &nettedAccum{name: row.CounterpartyName, taxID: row.TaxID, currency: row.Currency}
			accum[row.CounterpartyID] = a
		}
		a.payable += row.Residual
		a.lines++
	}
	for _, row := range recvRows {
		a, ok := accum[row.CounterpartyID]
		if !ok {
			continue
		}
		a.credits += row.Residual
	}

	positions := make([]netted.Position, 0, len(accum))
	for id, a := range accum {
		if a.payable <= 0 {
			continue
		}
		positions = append(positions, netted.Position{
			SupplierID:   id,
			SupplierName: a.name,
			TaxID:        a.taxID,
			Payable:      a.payable,
			Receivable:   a.credits,
			Net:          a.payable - a.credits,
			Currency:     a.currency,
			LineCount:    a.lines,
			RunID:        runID,
			SyncedAt:     syncedAt,
		})
	}
	return positions, nil
}

func (j *NettedSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskNettedSync))
	}
	return slog.Default().With(slog.String("job", TaskNettedSync))
}

func (j *NettedSyncJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *NettedSyncJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
