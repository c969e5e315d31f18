package config

import (
	"log/slog"
	"testing"

	"github.com/set-night/swsupport/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "bot")
	t.Setenv("PERPLEXITY_API_KEY", "pplx")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sonar-pro", cfg.PerplexityModel)
	assert.Equal(t, "https://api.perplexity.ai", cfg.PerplexityBaseURL)
	assert.False(t, cfg.FormsEnabled)
	assert.Equal(t, 7, cfg.FeedbackDueInDays)
}

func TestLoadMissingKeys(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("PERPLEXITY_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingConfig)
	assert.Contains(t, err.Error(), "BOT_TOKEN")
	assert.Contains(t, err.Error(), "PERPLEXITY_API_KEY")
}

func TestValidateFormsOnlyWhenEnabled(t *testing.T) {
	cfg := &Config{BotToken: "bot", PerplexityKey: "pplx"}
	require.NoError(t, cfg.Validate())

	cfg.FormsEnabled = true
	cfg.FormsBaseURL = "https://forms.example.com"
	err := cfg.Validate()
	require.ErrorIs(t, err, domain.ErrMissingConfig)
	assert.Contains(t, err.Error(), "FORMS_EMAIL")
	assert.NotContains(t, err.Error(), "FORMS_BASE_URL")
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "DEBUG"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "warning"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "bogus"}).SlogLevel())
}
