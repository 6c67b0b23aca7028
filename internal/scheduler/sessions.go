// internal/scheduler/sessions.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	sessionCleanupJobName = "session_cleanup"
	sessionCleanupCron    = "*/10 * * * *"
)

// SessionPruner deletes operator sessions that expired before now.
type SessionPruner interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// RegisterSessionCleanup registers the periodic removal of expired sessions.
func RegisterSessionCleanup(svc *Service, store SessionPruner) error {
	if store == nil {
		return fmt.Errorf("session cleanup requires a session store")
	}
	jobLogger := log.With().
		Str("component", "session_cleanup_job").
		Str("job_name", sessionCleanupJobName).
		Str("cron", sessionCleanupCron).
		Logger()

	_, err := svc.AddJob(sessionCleanupJobName, sessionCleanupCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		removed, err := store.DeleteExpiredSessions(ctx, time.Now().UTC())
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to delete expired sessions")
			return
		}
		if removed > 0 {
			jobLogger.Info().Int64("removed", removed).Msg("Expired sessions removed")
		}
	})
	return err
}
