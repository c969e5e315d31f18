package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/swsupport/internal/config"
)

const (
	MaxMessageLen  = config.MaxTelegramMessageLen
	typingInterval = 4 * time.Second
	fence          = "```"
)

// ReplyOptions controls how an answer is delivered. ReplyTo threads the first
// part under the user's question; Markup is attached to the last part.
type ReplyOptions struct {
	ReplyTo int
	Markup  models.ReplyMarkup
}

// PrepareReply turns provider output into Telegram-ready parts: stray HTML is
// stripped, markdown is repaired and the text is split so that no part leaves
// a code fence open.
func PrepareReply(text string) []string {
	text = FixMarkdown(StripHTML(text))
	// leave room for the fence lines added when a block is cut
	parts := SplitMessage(text, MaxMessageLen-2*(len(fence)+1))
	return balanceFences(parts)
}

// balanceFences closes a code block at the end of a part and reopens it at
// the start of the next one.
func balanceFences(parts []string) []string {
	open := false
	out := make([]string, len(parts))
	for i, p := range parts {
		if open {
			p = fence + "\n" + p
		}
		if strings.Count(p, fence)%2 != 0 {
			p = strings.TrimRight(p, "\n") + "\n" + fence
			open = true
		} else {
			open = false
		}
		out[i] = p
	}
	return out
}

// SendLongMessage sends an answer, splitting it into parts if needed.
// Each part falls back to plain text if Markdown parsing fails.
func SendLongMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, opts ReplyOptions) error {
	parts := PrepareReply(text)
	for i, part := range parts {
		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      part,
			ParseMode: models.ParseModeMarkdownV1,
		}
		if i == 0 && opts.ReplyTo != 0 {
			params.ReplyParameters = &models.ReplyParameters{
				MessageID:                opts.ReplyTo,
				AllowSendingWithoutReply: true,
			}
		}
		if i == len(parts)-1 && opts.Markup != nil {
			params.ReplyMarkup = opts.Markup
		}
		if err := sendWithFallback(ctx, b, params); err != nil {
			return fmt.Errorf("send part %d/%d: %w", i+1, len(parts), err)
		}
	}
	return nil
}

func sendWithFallback(ctx context.Context, b *bot.Bot, params *bot.SendMessageParams) error {
	_, err := b.SendMessage(ctx, params)
	if err == nil {
		return nil
	}
	slog.Warn("markdown send failed, falling back to plain text", "error", err, "chat_id", params.ChatID)
	params.ParseMode = ""
	_, err = b.SendMessage(ctx, params)
	return err
}

// EditLongMessage replaces a status message with an answer. The first part
// goes into the edited message and any remaining parts follow as new
// messages.
func EditLongMessage(ctx context.Context, b *bot.Bot, chatID int64, messageID int, text string) error {
	parts := PrepareReply(text)

	_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      parts[0],
		ParseMode: models.ParseModeMarkdownV1,
	})
	if err != nil {
		_, err = b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: messageID,
			Text:      parts[0],
		})
	}
	if err != nil {
		return fmt.Errorf("edit message: %w", err)
	}

	for i, part := range parts[1:] {
		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      part,
			ParseMode: models.ParseModeMarkdownV1,
		}
		if err := sendWithFallback(ctx, b, params); err != nil {
			return fmt.Errorf("send part %d/%d: %w", i+2, len(parts), err)
		}
	}
	return nil
}

// StartTyping shows the "typing..." indicator until the returned cancel
// function is called. Telegram clears the indicator after about five
// seconds, so it is refreshed on typingInterval.
func StartTyping(ctx context.Context, b *bot.Bot, chatID int64) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	action := &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	}
	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			b.SendChatAction(ctx, action)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return cancel
}
