package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/set-night/swsupport/internal/telegram"
)

const (
	modelCallbackPrefix = "model_"
	// the selected model's button only acknowledges the tap
	currentModelCallback = "cur"
)

func (h *Handler) handleModels(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        h.modelsText(),
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: h.modelsKeyboard(),
	})
}

func (h *Handler) handleModelSelect(ctx context.Context, b *bot.Bot, update *models.Update) {
	name := strings.TrimPrefix(update.CallbackQuery.Data, modelCallbackPrefix)

	if !h.agent.SwitchModel(name) {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
			Text:            "Unknown model",
		})
		return
	}

	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
		Text:            fmt.Sprintf("Switched to %s", name),
	})

	msg := update.CallbackQuery.Message.Message
	if msg == nil {
		return
	}
	h.tgLogger.LogModelSwitch(msg.Chat.ID, name)

	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        h.modelsText(),
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: h.modelsKeyboard(),
	}); err != nil {
		slog.Warn("edit models message", "error", err)
	}
}

func (h *Handler) modelsText() string {
	return fmt.Sprintf("🤖 *Model*\n\nCurrent: `%s`\n\nThe model is shared by all conversations.", h.agent.CurrentModel())
}

func (h *Handler) modelsKeyboard() *models.InlineKeyboardMarkup {
	current := h.agent.CurrentModel()
	var rows [][]models.InlineKeyboardButton
	for _, m := range h.agent.ListModels() {
		if m == current {
			rows = append(rows, tg.ButtonRow(tg.InlineButton("✅ "+m, currentModelCallback)))
			continue
		}
		rows = append(rows, tg.ButtonRow(tg.InlineButton(m, modelCallbackPrefix+m)))
	}
	return tg.InlineKeyboard(rows...)
}
