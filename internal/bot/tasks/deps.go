// Package tasks implements scheduled tasks for the reminder bot.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"log/slog"
	"time"

	"github.com/edgard/remindbot/internal/config"
	"github.com/edgard/remindbot/internal/database"
	"github.com/edgard/remindbot/internal/reminder"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger     *slog.Logger
	Store      database.Store
	Dispatcher *reminder.Dispatcher
	Config     *config.Config

	// Now returns the current time; time.Now when nil.
	Now func() time.Time
}

func (d TaskDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
