// Package handlers contains the Telegram update handlers and their registration.
package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// StartCommand is the greeting command literal.
const StartCommand = "/start"

// RegisteredHandler represents a command handler with its match rules and middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns the explicitly routed commands. Everything else
// reaches the router through the bot's default handler.
func RegisterAllCommands(router *Router) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	// Exact match: "/start something" is not the greeting and falls through
	// to the default handler like any other text.
	handlers[StartCommand] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     StartCommand,
		Handler:     router.HandlerFunc(),
		MatchType:   tgbot.MatchTypeExact,
	}

	return handlers
}
