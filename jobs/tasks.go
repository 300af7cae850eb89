package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskUploadsSweep removes upload records that were never confirmed.
	TaskUploadsSweep = "uploads:sweep"
)

// SweepPayload overrides the sweeper defaults for one run.
type SweepPayload struct {
	OlderThanSeconds int64 `json:"olderThanSeconds,omitempty"`
	BatchSize        int   `json:"batchSize,omitempty"`
}

// NewSweepTask constructs an Asynq task.
func NewSweepTask(payload SweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskUploadsSweep, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
