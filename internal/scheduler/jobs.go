package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// PurgeEventsJobName names the event log retention job.
const PurgeEventsJobName = "purge_events"

// EventPurger deletes event log rows older than a retention window.
type EventPurger interface {
	PurgeEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// PurgeEventsJob builds the event log retention job.
func PurgeEventsJob(p EventPurger, retention time.Duration, schedule string, logger *slog.Logger) Job {
	if logger == nil {
		logger = slog.Default()
	}
	return Job{
		Name:     PurgeEventsJobName,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			n, err := p.PurgeEvents(ctx, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged old events", "deleted", n, "retention", retention)
			}
			return nil
		},
	}
}
