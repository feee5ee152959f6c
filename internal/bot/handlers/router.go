package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/remindbot/internal/config"
	"github.com/edgard/remindbot/internal/reminder"
)

// Router classifies each inbound update as the greeting command or a reminder
// creation request. Every update that names a chat gets exactly one reply.
type Router struct {
	deps HandlerDeps
	loc  *time.Location
	log  *slog.Logger
}

// NewRouter creates a Router from deps.
func NewRouter(deps HandlerDeps) *Router {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	return &Router{
		deps: deps,
		loc:  deps.Config.Location(),
		log:  deps.Logger.With("handler", "router"),
	}
}

// HandlerFunc adapts the router to the go-telegram handler signature.
// Replies go through the injected Dispatcher, not the calling bot.
func (r *Router) HandlerFunc() bot.HandlerFunc {
	return func(ctx context.Context, _ *bot.Bot, update *models.Update) {
		r.Handle(ctx, update)
	}
}

// HandleBatch processes updates strictly in order. A failing update never
// stops the rest of the batch. The live listener gets the same ordering by
// calling HandlerFunc synchronously for each update it receives.
func (r *Router) HandleBatch(ctx context.Context, updates []*models.Update) {
	for _, update := range updates {
		r.Handle(ctx, update)
	}
}

// Handle processes a single update. It never panics.
func (r *Router) Handle(ctx context.Context, update *models.Update) {
	chatID := chatIDOf(update)
	parent := ctx

	defer func() {
		if p := recover(); p != nil {
			r.log.ErrorContext(parent, "Recovered panic while handling update",
				"chat_id", chatID, "kind", reminder.KindMalformedUpdate, "panic", p)
			if chatID != 0 {
				// The operation context is already cancelled here.
				replyCtx, cancel := r.operationContext(context.WithoutCancel(parent))
				defer cancel()
				r.reply(replyCtx, chatID, r.deps.Config.Messages.MalformedUpdate)
			}
		}
	}()

	ctx, cancel := r.operationContext(ctx)
	defer cancel()

	text, err := messageText(update)
	if err != nil {
		r.log.WarnContext(ctx, "Malformed update", "chat_id", chatID, "kind", reminder.KindOf(err), "error", err)
		if chatID == 0 {
			// Nowhere to reply.
			return
		}
		r.reply(ctx, chatID, r.deps.Config.Messages.MalformedUpdate)
		return
	}

	if text == StartCommand {
		r.greet(ctx, update.Message)
		return
	}

	r.createReminder(ctx, chatID, text)
}

// operationContext bounds ctx with the configured operation timeout.
func (r *Router) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := r.deps.Config.Telegram.OperationTimeout; timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// createReminder validates text, stores the reminder and replies with the outcome.
func (r *Router) createReminder(ctx context.Context, chatID int64, text string) {
	err := r.saveReminder(ctx, chatID, text)

	msgs := r.deps.Config.Messages
	var answer string
	switch kind := reminder.KindOf(err); kind {
	case reminder.KindNone:
		r.log.InfoContext(ctx, "Reminder saved", "chat_id", chatID)
		answer = msgs.Saved
	case reminder.KindMalformedInput:
		r.log.InfoContext(ctx, "Rejected reminder with malformed input", "chat_id", chatID, "kind", kind)
		answer = msgs.MalformedInput
	case reminder.KindInvalidDatetime:
		r.log.InfoContext(ctx, "Rejected reminder with invalid date", "chat_id", chatID, "kind", kind, "error", err)
		answer = msgs.InvalidDate
	case reminder.KindMalformedUpdate, reminder.KindSendFailure, reminder.KindUnknown:
		r.log.ErrorContext(ctx, "Failed to save reminder", "chat_id", chatID, "kind", kind, "error", err)
		answer = msgs.MalformedUpdate
	}

	r.reply(ctx, chatID, answer)
}

func (r *Router) saveReminder(ctx context.Context, chatID int64, text string) error {
	parsed, err := reminder.Parse(text, r.loc)
	if err != nil {
		return err
	}

	if r.deps.Store == nil {
		return fmt.Errorf("no reminder store configured")
	}

	id, err := r.deps.Store.Create(ctx, chatID, parsed.Body, parsed.DueAt)
	if err != nil {
		return fmt.Errorf("failed to store reminder: %w", err)
	}

	r.log.DebugContext(ctx, "Stored reminder", "chat_id", chatID, "reminder_id", id,
		"due_at", parsed.DueAt.Format(time.RFC3339))
	return nil
}

// reply sends text to chatID. Failures are already logged by the Dispatcher.
func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if r.deps.Dispatcher == nil {
		r.log.ErrorContext(ctx, "No dispatcher configured, dropping reply", "chat_id", chatID)
		return
	}
	_ = r.deps.Dispatcher.Dispatch(ctx, chatID, text)
}

// chatIDOf returns the chat id of update, or 0 when there is none.
func chatIDOf(update *models.Update) int64 {
	if update == nil || update.Message == nil {
		return 0
	}
	return update.Message.Chat.ID
}

// messageText returns the text of update or ErrMalformedUpdate.
func messageText(update *models.Update) (string, error) {
	switch {
	case update == nil:
		return "", fmt.Errorf("%w: nil update", reminder.ErrMalformedUpdate)
	case update.Message == nil:
		return "", fmt.Errorf("%w: update %d has no message", reminder.ErrMalformedUpdate, update.ID)
	case update.Message.Chat.ID == 0:
		return "", fmt.Errorf("%w: update %d has no chat", reminder.ErrMalformedUpdate, update.ID)
	case update.Message.Text == "":
		return "", fmt.Errorf("%w: update %d has no text", reminder.ErrMalformedUpdate, update.ID)
	}
	return update.Message.Text, nil
}
