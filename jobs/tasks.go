// Package jobs runs the gateway's background work on asynq: a periodic
// re-fetch of the current principal so a revoked account loses its
// session without waiting for the next console request.
package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/aicc6/weather-flick-admin-gateway/internal/session"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionRevalidate re-fetches the principal for the ambient
	// session and lets the session store evict on auth failure.
	TaskSessionRevalidate = "session:revalidate"
)

// SessionRevalidator is the slice of the session store the worker needs.
type SessionRevalidator interface {
	Restore(ctx context.Context) session.State
	Revalidate(ctx context.Context)
	IsAuthenticated() bool
}

// NewSessionRevalidateTask constructs the revalidation task. It carries
// no payload; the ambient session is process state, not task input.
func NewSessionRevalidateTask() *asynq.Task {
	return asynq.NewTask(TaskSessionRevalidate, nil)
}

// HandleSessionRevalidate returns the asynq handler for
// TaskSessionRevalidate.
func HandleSessionRevalidate(sessions SessionRevalidator, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if !sessions.IsAuthenticated() {
			// A login in the gateway process shows up here as a newly
			// persisted credential; pick it up before deciding there is
			// nothing to check.
			if state := sessions.Restore(ctx); state == session.StateAuthenticated {
				logger.Info("session picked up from persisted credential")
			}
			return nil
		}
		sessions.Revalidate(ctx)
		logger.Debug("session revalidated", slog.Bool("authenticated", sessions.IsAuthenticated()))
		return nil
	}
}
