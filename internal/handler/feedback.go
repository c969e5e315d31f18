package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/swsupport/internal/middleware"
	"github.com/set-night/swsupport/internal/service"
)

func (h *Handler) handleEmail(ctx context.Context, b *bot.Bot, update *models.Update) {
	chat := middleware.GetChat(ctx)
	if update.Message == nil || chat == nil {
		return
	}

	email := commandArgs(update.Message.Text)
	text := ""
	switch {
	case email == "" && chat.Email != "":
		text = fmt.Sprintf("📧 Your e-mail: %s\nSend /email <address> to change it.", chat.Email)
	case email == "":
		text = "📧 Send /email your.name@company.com"
	case !service.ValidEmail(email):
		text = "❌ Please enter a valid e-mail address"
	default:
		h.chats.SetEmail(chat.ChatID, email)
		text = fmt.Sprintf("✅ E-mail saved: %s", email)
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chat.ChatID,
		Text:   text,
	})
}

func (h *Handler) handleFeedback(ctx context.Context, b *bot.Bot, update *models.Update) {
	chat := middleware.GetChat(ctx)
	if update.Message == nil || chat == nil {
		return
	}

	reply := func(text string) {
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chat.ChatID, Text: text})
	}

	if h.forms == nil {
		reply("Feedback is not enabled on this bot.")
		return
	}
	if chat.Email == "" {
		reply("📧 Please set your e-mail first: /email your.name@company.com")
		return
	}
	message := commandArgs(update.Message.Text)
	if message == "" {
		reply("✍️ Send /feedback followed by your message.")
		return
	}

	form := h.feedbackForm(chat, message, time.Now())
	if _, err := h.forms.SubmitForm(ctx, form); err != nil {
		slog.Error("submit feedback", "error", err, "chat_id", chat.ChatID)
		h.tgLogger.LogError(err, "submit feedback")

		var formErr *service.FormError
		if errors.As(err, &formErr) {
			reply(fmt.Sprintf("❌ Could not send feedback (%s). Please try again later.", formErr.Tag))
			return
		}
		reply("❌ Could not send feedback. Please try again later.")
		return
	}

	h.tgLogger.LogFeedback(chat.ChatID, chat.Email, chat.SessionID)
	reply("✅ Thanks! Your feedback was sent.")
}

func (h *Handler) feedbackForm(chat *middleware.ChatState, message string, now time.Time) service.FormRequest {
	return service.FormRequest{
		TemplateID: h.cfg.FeedbackTemplate,
		DueDate:    now.AddDate(0, 0, h.cfg.FeedbackDueInDays),
		Fields: []service.FieldValue{
			{FieldID: "email", Value: chat.Email},
			{FieldID: "message", Value: message},
			{FieldID: "session_id", Value: chat.SessionID},
			{FieldID: "model", Value: h.agent.CurrentModel()},
		},
	}
}

// commandArgs returns the text after the command word.
func commandArgs(text string) string {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
