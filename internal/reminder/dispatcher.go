package reminder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender is the outbound half of the chat transport. *bot.Bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Dispatcher sends text to a chat exactly once and reports the outcome.
// It never retries and never panics; a failed send is logged and returned
// as ErrSendFailure for the caller to treat as non-fatal.
type Dispatcher struct {
	sender Sender
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher that sends through sender.
func NewDispatcher(sender Sender, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		sender: sender,
		logger: logger.With("component", "dispatcher"),
	}
}

// Dispatch sends text to chatID.
func (d *Dispatcher) Dispatch(ctx context.Context, chatID int64, text string) (err error) {
	if d == nil {
		return fmt.Errorf("%w: chat %d: no dispatcher configured", ErrSendFailure, chatID)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: chat %d: panic: %v", ErrSendFailure, chatID, r)
			d.logger.ErrorContext(ctx, "Recovered panic while sending message", "chat_id", chatID, "kind", KindSendFailure, "panic", r)
		}
	}()

	if d.sender == nil {
		return fmt.Errorf("%w: chat %d: no sender configured", ErrSendFailure, chatID)
	}

	_, sendErr := d.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if sendErr != nil {
		d.logger.ErrorContext(ctx, "Failed to send message", "chat_id", chatID, "kind", KindSendFailure, "error", sendErr)
		return fmt.Errorf("%w: chat %d: %v", ErrSendFailure, chatID, sendErr)
	}

	d.logger.DebugContext(ctx, "Message sent", "chat_id", chatID)
	return nil
}
