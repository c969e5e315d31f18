package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const welcomeText = "🔧 *SolidWorks Support Agent*\n\n" +
	"Powered by Perplexity with real-time SolidWorks knowledge.\n\n" +
	"I can help with:\n" +
	"• *Troubleshooting*: crashes, errors, performance issues\n" +
	"• *Modeling*: 3D techniques, best practices, workflows\n" +
	"• *Assemblies*: large assembly management, configurations\n" +
	"• *Simulation*: analysis setup, mesh settings, results\n" +
	"• *Configuration*: PDM, toolbox, system optimization\n\n" +
	"💡 *Tips for best results:*\n" +
	"• Mention your SolidWorks version\n" +
	"• Include exact error messages\n" +
	"• Describe the steps that lead to the problem\n\n" +
	"I only answer SolidWorks questions, and every answer links its sources.\n\n" +
	helpText

const helpText = "📋 *Commands:*\n" +
	"/models — Choose the Perplexity model\n" +
	"/new — Start a new conversation\n" +
	"/clear — Clear the current conversation\n" +
	"/session — Conversation statistics\n" +
	"/ping — Check the API connection\n" +
	"/email — Set your e-mail for feedback\n" +
	"/feedback — Send feedback to the team"

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      welcomeText,
		ParseMode: models.ParseModeMarkdownV1,
	})
}

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      helpText,
		ParseMode: models.ParseModeMarkdownV1,
	})
}

func (h *Handler) handleNoop(ctx context.Context, b *bot.Bot, update *models.Update) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})
}
