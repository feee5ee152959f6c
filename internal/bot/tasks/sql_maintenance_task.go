package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceTask creates the scheduled task that purges old delivered
// reminders and then runs database maintenance.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := logger(deps).With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled SQL maintenance task...")
		startTime := time.Now()

		var retention time.Duration
		if deps.Config != nil {
			retention = deps.Config.Database.Retention
		}
		if retention > 0 {
			cutoff := deps.now().Add(-retention)
			deleted, err := deps.Store.PurgeDelivered(ctx, cutoff)
			if err != nil {
				log.ErrorContext(ctx, "Purging delivered reminders failed", "error", err)
				return fmt.Errorf("purge delivered reminders: %w", err)
			}
			log.InfoContext(ctx, "Purged delivered reminders", "deleted", deleted, "cutoff", cutoff)
		}

		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled SQL maintenance task completed successfully", "duration", time.Since(startTime))
		return nil
	}
}
