package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot/models"
)

// namePlaceholder is replaced with the user's first name in the greeting.
const namePlaceholder = "{name}"

// greet answers the /start command.
func (r *Router) greet(ctx context.Context, msg *models.Message) {
	name := msg.Chat.FirstName
	if name == "" && msg.From != nil {
		name = msg.From.FirstName
	}

	r.log.InfoContext(ctx, "Handling /start command", "chat_id", msg.Chat.ID)

	welcome := strings.ReplaceAll(r.deps.Config.Messages.Greeting, namePlaceholder, name)
	r.reply(ctx, msg.Chat.ID, welcome)
}
