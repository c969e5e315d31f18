package middleware

import (
	"context"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
)

func TestRecoverSwallowsPanic(t *testing.T) {
	handler := Recover(nil)(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		handler(context.Background(), nil, &models.Update{})
	})
}
