package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDelayScan recounts overdue work orders and refreshes the gauge.
	TaskDelayScan = "fason:delay_scan"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "fason:idempotency_cleanup"
)

// DelayScanPayload carries scheduling metadata.
type DelayScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewDelayScanTask constructs an Asynq task for the delay scan.
func NewDelayScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(DelayScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDelayScan, body, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleanupPayload sets how old a key must be before pruning.
type IdempotencyCleanupPayload struct {
	MaxAgeHours int `json:"max_age_hours"`
}

// NewIdempotencyCleanupTask constructs an Asynq task for key pruning.
func NewIdempotencyCleanupTask(maxAgeHours int) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{MaxAgeHours: maxAgeHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
