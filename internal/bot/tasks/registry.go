package tasks

import (
	"context"

	"github.com/edgard/remindbot/internal/config"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks initializes and returns a map of all registered scheduled tasks.
// The keys match the task names under scheduler.tasks in the config.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	tasks[config.TaskDueReminders] = NewPoller(deps).Tick
	tasks[config.TaskSQLMaintenance] = newSQLMaintenanceTask(deps)

	if deps.Logger != nil {
		deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	}
	return tasks
}
