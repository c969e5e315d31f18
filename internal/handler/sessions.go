package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/swsupport/internal/domain"
	"github.com/set-night/swsupport/internal/middleware"
)

func (h *Handler) handleNewSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	chat := middleware.GetChat(ctx)
	if update.Message == nil || chat == nil {
		return
	}

	// rotate before deleting so a turn still running on the old id sees
	// the change once it finishes
	sessionID := h.chats.Rotate(chat.ChatID)
	h.agent.DeleteSession(chat.SessionID)
	if _, err := h.agent.CreateSession(sessionID); err != nil {
		slog.Error("create session", "error", err, "session_id", sessionID)
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chat.ChatID,
		Text:   "➕ New conversation started. Ask me anything about SolidWorks.",
	})
}

func (h *Handler) handleClearSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	chat := middleware.GetChat(ctx)
	if update.Message == nil || chat == nil {
		return
	}

	text := "🗑 Conversation cleared."
	if !h.agent.ClearSession(chat.SessionID) {
		text = "Nothing to clear yet."
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chat.ChatID,
		Text:   text,
	})
}

func (h *Handler) handleSessionSummary(ctx context.Context, b *bot.Bot, update *models.Update) {
	chat := middleware.GetChat(ctx)
	if update.Message == nil || chat == nil {
		return
	}

	summary, ok := h.agent.GetSessionSummary(chat.SessionID)
	if !ok {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chat.ChatID,
			Text:   "No conversation yet. Ask a question to start one.",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chat.ChatID,
		Text:      formatSummary(summary),
		ParseMode: models.ParseModeMarkdownV1,
	})
}

func formatSummary(s *domain.SessionSummary) string {
	var sb strings.Builder
	sb.WriteString("📊 *Session*\n\n")
	sb.WriteString(fmt.Sprintf("*ID:* `%s`\n", s.SessionID))
	sb.WriteString(fmt.Sprintf("*Messages:* %d\n", s.MessageCount))
	sb.WriteString(fmt.Sprintf("*Questions:* %d\n", s.UserQuestions))
	sb.WriteString(fmt.Sprintf("*Duration:* %s\n", s.Duration))
	sb.WriteString(fmt.Sprintf("*Started:* %s\n", s.CreatedAt.Format(time.DateTime)))
	sb.WriteString(fmt.Sprintf("*Last activity:* %s\n", s.LastActivity.Format(time.DateTime)))
	sb.WriteString(fmt.Sprintf("*Model:* `%s`", s.CurrentModel))
	if s.TotalCost.IsPositive() {
		sb.WriteString(fmt.Sprintf("\n*Cost:* $%s", s.TotalCost.StringFixed(4)))
	}
	return sb.String()
}
