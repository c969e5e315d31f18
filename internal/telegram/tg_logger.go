package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
)

// TelegramLogger mirrors notable events into an operator chat.
type TelegramLogger struct {
	bot    *bot.Bot
	chatID int64
}

func NewTelegramLogger(b *bot.Bot, chatID int64) *TelegramLogger {
	return &TelegramLogger{bot: b, chatID: chatID}
}

// Attach sets the bot used for delivery. Middlewares are built before the
// bot exists, so the logger is created first and attached afterwards.
func (l *TelegramLogger) Attach(b *bot.Bot) {
	l.bot = b
}

type LogType string

const (
	LogTypeError    LogType = "error"
	LogTypeFeedback LogType = "feedback"
	LogTypeModel    LogType = "model"
)

// Log sends message to the operator chat as plain text. Messages carry raw
// error text and addresses, which must not be parsed as markup.
func (l *TelegramLogger) Log(logType LogType, message string) {
	if l == nil || l.bot == nil || l.chatID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := l.bot.SendMessage(ctx, l.params(message)); err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) params(message string) *bot.SendMessageParams {
	if len([]rune(message)) > MaxMessageLen {
		message = string([]rune(message)[:MaxMessageLen-20]) + "\n\n... (truncated)"
	}
	return &bot.SendMessageParams{
		ChatID: l.chatID,
		Text:   message,
	}
}

func (l *TelegramLogger) LogError(err error, context string) {
	l.Log(LogTypeError, formatError(err, context, time.Now()))
}

func (l *TelegramLogger) LogFeedback(chatID int64, email, sessionID string) {
	l.Log(LogTypeFeedback, formatFeedback(chatID, email, sessionID))
}

func (l *TelegramLogger) LogModelSwitch(chatID int64, model string) {
	l.Log(LogTypeModel, fmt.Sprintf("🔁 Model switched\n\nChat: %d\nModel: %s", chatID, model))
}

func formatError(err error, context string, at time.Time) string {
	return fmt.Sprintf("❌ Error\n\nContext: %s\nError: %s\nTime: %s",
		context, err.Error(), at.Format(time.DateTime))
}

func formatFeedback(chatID int64, email, sessionID string) string {
	return fmt.Sprintf("📝 Feedback submitted\n\nChat: %d\nEmail: %s\nSession: %s",
		chatID, email, sessionID)
}
