package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fasontrack/fasontrack/internal/stats"
)

// DelayScanJob recounts overdue work orders so the exported gauge stays
// current even when nobody is hitting the stats endpoint.
type DelayScanJob struct {
	Service *stats.Service
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewDelayScanJob initialises the delay scan handler.
func NewDelayScanJob(service *stats.Service, logger *slog.Logger) *DelayScanJob {
	return &DelayScanJob{
		Service: service,
		Logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the delay scan.
func (j *DelayScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("delay scan: handler not configured")
	}
	var payload DelayScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.clock()
	delayed, err := j.Service.DelayedCount(ctx)
	if err != nil {
		j.Logger.Error("delay scan failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("delay scan complete",
		slog.Int("delayed", delayed),
		slog.Duration("took", j.clock().Sub(start)),
	)
	return nil
}
