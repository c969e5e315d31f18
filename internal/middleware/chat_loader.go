package middleware

import (
	"context"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

type ctxKey string

const ChatKey ctxKey = "chat"

// ChatState is the per-chat presentation state: the session the chat is
// currently talking in and the e-mail the user registered for feedback.
type ChatState struct {
	ChatID    int64
	SessionID string
	Email     string
}

// ChatRegistry maps Telegram chats to agent sessions.
type ChatRegistry struct {
	mu    sync.Mutex
	chats map[int64]*ChatState
}

func NewChatRegistry() *ChatRegistry {
	return &ChatRegistry{chats: make(map[int64]*ChatState)}
}

// Current returns the chat's state, assigning a fresh session id on first use.
func (r *ChatRegistry) Current(chatID int64) ChatState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.load(chatID)
}

// Rotate moves the chat to a new session and returns its id.
func (r *ChatRegistry) Rotate(chatID int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.load(chatID)
	st.SessionID = uuid.NewString()
	return st.SessionID
}

func (r *ChatRegistry) SetEmail(chatID int64, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(chatID).Email = email
}

func (r *ChatRegistry) load(chatID int64) *ChatState {
	st, ok := r.chats[chatID]
	if !ok {
		st = &ChatState{ChatID: chatID, SessionID: uuid.NewString()}
		r.chats[chatID] = st
	}
	return st
}

// GetChat extracts the chat state from context.
func GetChat(ctx context.Context) *ChatState {
	st, ok := ctx.Value(ChatKey).(*ChatState)
	if !ok {
		return nil
	}
	return st
}

// ChatLoader returns middleware that loads the chat state into context.
func ChatLoader(registry *ChatRegistry) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var chatID int64
			if update.Message != nil {
				chatID = update.Message.Chat.ID
			} else if update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil {
				chatID = update.CallbackQuery.Message.Message.Chat.ID
			}

			if chatID != 0 {
				st := registry.Current(chatID)
				ctx = context.WithValue(ctx, ChatKey, &st)
			}

			next(ctx, b, update)
		}
	}
}
