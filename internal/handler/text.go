package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/swsupport/internal/config"
	"github.com/set-night/swsupport/internal/domain"
	"github.com/set-night/swsupport/internal/middleware"
	tg "github.com/set-night/swsupport/internal/telegram"
)

const maxSourceButtons = 5

// HandleText answers a plain text question through the agent.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message

	// Skip commands
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	chat := middleware.GetChat(ctx)
	if chat == nil {
		return
	}
	chatID := msg.Chat.ID

	stopTyping := tg.StartTyping(ctx, b, chatID)
	defer stopTyping()

	statusMsg, _ := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "⏳ Searching SolidWorks sources...",
	})

	reqCtx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
	defer cancel()

	resp := h.agent.ProcessMessage(reqCtx, chat.SessionID, msg.Text)
	h.releaseStaleSession(chat)

	slog.Info("turn processed",
		"chat_id", chatID,
		"session_id", chat.SessionID,
		"category", resp.Category,
		"model", resp.ModelUsed,
		"processing_time_ms", resp.ProcessingTimeMs,
	)

	if resp.IsError() {
		if resp.Category == domain.CategoryError {
			if detail, ok := resp.Metadata[domain.MetaError].(string); ok {
				h.tgLogger.LogError(fmt.Errorf("%s", detail), "process message")
			}
		}
		if statusMsg != nil {
			if err := tg.EditLongMessage(ctx, b, chatID, statusMsg.ID, resp.Content); err == nil {
				return
			}
		}
		tg.SendLongMessage(ctx, b, chatID, resp.Content, tg.ReplyOptions{ReplyTo: msg.ID})
		return
	}

	if statusMsg != nil {
		b.DeleteMessage(ctx, &bot.DeleteMessageParams{
			ChatID:    chatID,
			MessageID: statusMsg.ID,
		})
	}

	text := resp.Content
	if resp.Category == domain.CategoryContextRequest {
		text = "🔍 *A few details will help me answer precisely:*\n\n" + text
	}

	opts := tg.ReplyOptions{ReplyTo: msg.ID}
	if citations, ok := resp.Metadata[domain.MetaCitations].([]string); ok && len(citations) > 0 {
		opts.Markup = sourcesKeyboard(citations)
	}
	if err := tg.SendLongMessage(ctx, b, chatID, text, opts); err != nil {
		slog.Error("send reply", "error", err, "chat_id", chatID)
	}
}

// releaseStaleSession deletes the turn's session when the chat moved to a
// new one while the turn was running. ProcessMessage may have recreated the
// old id after /new removed it, and no chat would ever reach it again.
func (h *Handler) releaseStaleSession(chat *middleware.ChatState) bool {
	if h.chats.Current(chat.ChatID).SessionID == chat.SessionID {
		return false
	}
	h.agent.DeleteSession(chat.SessionID)
	slog.Info("released stale session", "chat_id", chat.ChatID, "session_id", chat.SessionID)
	return true
}

// sourcesKeyboard links up to maxSourceButtons citations under the answer.
func sourcesKeyboard(citations []string) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for i, url := range citations {
		if i == maxSourceButtons {
			break
		}
		rows = append(rows, tg.ButtonRow(tg.URLButton(sourceLabel(i, url), url)))
	}
	return tg.InlineKeyboard(rows...)
}

// sourceLabel shortens a citation URL to its host and path for a button.
func sourceLabel(i int, url string) string {
	label := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	label = strings.TrimPrefix(label, "www.")
	if r := []rune(label); len(r) > 40 {
		label = string(r[:37]) + "..."
	}
	return fmt.Sprintf("%d. %s", i+1, label)
}
