package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/swsupport/internal/config"
)

func (h *Handler) handlePing(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	reqCtx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
	defer cancel()

	text, _ := h.agent.TestConnection(reqCtx)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text + "\nModel: " + h.agent.CurrentModel(),
	})
}
