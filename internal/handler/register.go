package handler

import (
	"github.com/go-telegram/bot"
)

// Register wires all command and callback handlers to the bot.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, h.handleHelp)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/models", bot.MatchTypePrefix, h.handleModels)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/new", bot.MatchTypePrefix, h.handleNewSession)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/clear", bot.MatchTypePrefix, h.handleClearSession)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/session", bot.MatchTypePrefix, h.handleSessionSummary)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/ping", bot.MatchTypePrefix, h.handlePing)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/email", bot.MatchTypePrefix, h.handleEmail)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/feedback", bot.MatchTypePrefix, h.handleFeedback)

	// Callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, modelCallbackPrefix, bot.MatchTypePrefix, h.handleModelSelect)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, currentModelCallback, bot.MatchTypeExact, h.handleNoop)
}
