// Package jobs hosts the background task surface: the asynq worker,
// the netted position sync and the summary cache warmup.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNettedSync rebuilds the stored netted treasury positions.
	TaskNettedSync = "treasury:netted_sync"
	// TaskSummaryWarmup pre-populates the summary caches.
	TaskSummaryWarmup = "reports:summary_warmup"
)

// NettedSyncPayload parameterises one netted sync run. RunID is
// assigned at enqueue time so retries keep the same identity.
type NettedSyncPayload struct {
	RunID       string `json:"run_id"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// SummaryWarmupPayload selects which report families to warm. Empty
// means both.
type SummaryWarmupPayload struct {
	Families []string `json:"families,omitempty"`
}

// NewNettedSyncTask constructs an Asynq task for a netted sync run.
func NewNettedSyncTask(payload NettedSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNettedSync, data), nil
}

// NewSummaryWarmupTask constructs an Asynq task for a cache warmup.
func NewSummaryWarmupTask(payload SummaryWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSummaryWarmup, data), nil
}
