package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/set-night/swsupport/internal/domain"
)

type Config struct {
	// Core
	BotToken string `env:"BOT_TOKEN"`

	// Perplexity
	PerplexityKey     string `env:"PERPLEXITY_API_KEY"`
	PerplexityModel   string `env:"PERPLEXITY_MODEL" envDefault:"sonar-pro"`
	PerplexityBaseURL string `env:"PERPLEXITY_BASE_URL" envDefault:"https://api.perplexity.ai"`

	// Forms (feedback submission)
	FormsEnabled      bool   `env:"FORMS_ENABLED" envDefault:"false"`
	FormsBaseURL      string `env:"FORMS_BASE_URL"`
	FormsEmail        string `env:"FORMS_EMAIL"`
	FormsPassword     string `env:"FORMS_PASSWORD"`
	FormsTenantID     string `env:"FORMS_TENANT_ID"`
	FeedbackTemplate  string `env:"FORMS_FEEDBACK_TEMPLATE_ID"`
	FeedbackDueInDays int    `env:"FORMS_DUE_DAYS" envDefault:"7"`

	// Logging
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	LogTelegramChatID int64  `env:"LOG_TELEGRAM_CHAT_ID"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every blank required field at once.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.BotToken) == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if strings.TrimSpace(c.PerplexityKey) == "" {
		missing = append(missing, "PERPLEXITY_API_KEY")
	}
	if c.FormsEnabled {
		fields := []struct{ name, value string }{
			{"FORMS_BASE_URL", c.FormsBaseURL},
			{"FORMS_EMAIL", c.FormsEmail},
			{"FORMS_PASSWORD", c.FormsPassword},
			{"FORMS_TENANT_ID", c.FormsTenantID},
			{"FORMS_FEEDBACK_TEMPLATE_ID", c.FeedbackTemplate},
		}
		for _, f := range fields {
			if strings.TrimSpace(f.value) == "" {
				missing = append(missing, f.name)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
