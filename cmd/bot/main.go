package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/swsupport/internal/config"
	"github.com/set-night/swsupport/internal/handler"
	"github.com/set-night/swsupport/internal/middleware"
	"github.com/set-night/swsupport/internal/service"
	"github.com/set-night/swsupport/internal/telegram"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if level := cfg.SlogLevel(); level != slog.LevelInfo {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	formatter := service.NewPromptFormatter(service.DefaultTermLists())
	perplexity, err := service.NewPerplexityService(cfg.PerplexityKey, cfg.PerplexityBaseURL, cfg.PerplexityModel, formatter)
	if err != nil {
		slog.Error("failed to init perplexity", "error", err)
		os.Exit(1)
	}
	agent := service.NewAgent(service.NewSessionStore(), perplexity, service.NewPhraseClassifier(config.ContextPhrases))

	var forms *service.FormsService
	if cfg.FormsEnabled {
		forms, err = service.NewFormsService(service.FormsConfig{
			BaseURL:  cfg.FormsBaseURL,
			Email:    cfg.FormsEmail,
			Password: cfg.FormsPassword,
			TenantID: cfg.FormsTenantID,
		})
		if err != nil {
			slog.Error("failed to init forms", "error", err)
			os.Exit(1)
		}
	}

	chats := middleware.NewChatRegistry()
	tgLogger := telegram.NewTelegramLogger(nil, cfg.LogTelegramChatID)

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(tgLogger),
			middleware.ChatLoader(chats),
			middleware.Logging(),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}
	tgLogger.Attach(b)

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}

	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	// Initialize handler
	h := handler.New(handler.Deps{
		Bot:      b,
		Cfg:      cfg,
		Agent:    agent,
		Forms:    forms,
		Chats:    chats,
		TgLogger: tgLogger,
	})

	// Register all handlers
	h.Register()

	// Register default text handler for support questions
	b.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, h.HandleText)

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID, "model", agent.CurrentModel())
	b.Start(ctx)

	// Graceful shutdown
	slog.Info("bot stopped gracefully")
}
