package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/remindbot/internal/database"
	"github.com/edgard/remindbot/internal/reminder"
)

// Poller finds the reminders due in the current minute and dispatches them.
//
// The store is queried for an exact minute, so a tick that runs late, after the
// minute has passed, never sees that minute's reminders. There is no catch-up.
type Poller struct {
	store      database.Store
	dispatcher *reminder.Dispatcher
	loc        *time.Location
	timeout    time.Duration // per send; zero means unbounded
	now        func() time.Time
	log        *slog.Logger
}

// NewPoller creates a Poller from deps.
func NewPoller(deps TaskDeps) *Poller {
	loc := time.Local
	var timeout time.Duration
	if deps.Config != nil {
		loc = deps.Config.Location()
		timeout = deps.Config.Telegram.OperationTimeout
	}
	return &Poller{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		loc:        loc,
		timeout:    timeout,
		now:        deps.now,
		log:        logger(deps).With("task", "due_reminders"),
	}
}

// Tick runs one poll. It returns an error only when the store query fails;
// failed sends are logged and leave the reminder undelivered.
func (p *Poller) Tick(ctx context.Context) error {
	dueAt := p.now().In(p.loc).Truncate(time.Minute)

	due, err := p.store.FindDueAt(ctx, dueAt)
	if err != nil {
		return fmt.Errorf("find reminders due at %s: %w", dueAt.Format(database.DueAtLayout), err)
	}
	if len(due) == 0 {
		p.log.DebugContext(ctx, "No reminders due", "due_at", dueAt)
		return nil
	}

	var delivered, failed int
	for _, r := range due {
		if ctx.Err() != nil {
			p.log.WarnContext(ctx, "Poll cancelled before all reminders were sent",
				"delivered", delivered, "remaining", len(due)-delivered-failed)
			break
		}

		if err := p.send(ctx, r); err != nil {
			failed++
			p.log.WarnContext(ctx, "Reminder not delivered", "reminder_id", r.ID, "chat_id", r.ChatID,
				"kind", reminder.KindOf(err), "error", err)
			continue
		}
		delivered++

		if err := p.store.MarkDelivered(ctx, r.ID, p.now()); err != nil {
			p.log.ErrorContext(ctx, "Failed to mark reminder delivered", "reminder_id", r.ID, "error", err)
		}
	}

	p.log.InfoContext(ctx, "Dispatched due reminders", "due_at", dueAt, "found", len(due),
		"delivered", delivered, "failed", failed)
	return nil
}

// send dispatches one reminder. A stalled send is cut off after the
// operation timeout so it cannot hold the tick into the next minute.
func (p *Poller) send(ctx context.Context, r database.Reminder) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.dispatcher.Dispatch(ctx, r.ChatID, r.Body)
}

func logger(deps TaskDeps) *slog.Logger {
	if deps.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return deps.Logger
}
