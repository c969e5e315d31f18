package handler

import (
	"github.com/go-telegram/bot"
	"github.com/set-night/swsupport/internal/config"
	"github.com/set-night/swsupport/internal/middleware"
	"github.com/set-night/swsupport/internal/service"
	"github.com/set-night/swsupport/internal/telegram"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot      *bot.Bot
	cfg      *config.Config
	agent    *service.Agent
	forms    *service.FormsService
	chats    *middleware.ChatRegistry
	tgLogger *telegram.TelegramLogger
}

// Deps contains all dependencies required to construct a Handler.
// Forms is nil when feedback submission is disabled.
type Deps struct {
	Bot      *bot.Bot
	Cfg      *config.Config
	Agent    *service.Agent
	Forms    *service.FormsService
	Chats    *middleware.ChatRegistry
	TgLogger *telegram.TelegramLogger
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:      deps.Bot,
		cfg:      deps.Cfg,
		agent:    deps.Agent,
		forms:    deps.Forms,
		chats:    deps.Chats,
		tgLogger: deps.TgLogger,
	}
}
