package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one utterance of a conversation. Metadata is attached at
// construction and never mutated afterwards.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
	Metadata  map[string]any
}

func NewMessage(role Role, content string, metadata map[string]any) Message {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// HistoryEntry is the role/content pair sent to the completion provider.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Session struct {
	ID           string
	Messages     []Message
	CreatedAt    time.Time
	LastActivity time.Time
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Messages:     []Message{},
		CreatedAt:    now,
		LastActivity: now,
	}
}

// History returns prior non-system messages in conversation order.
func (s *Session) History() []HistoryEntry {
	history := make([]HistoryEntry, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m.Role == RoleSystem {
			continue
		}
		history = append(history, HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return history
}

func (s *Session) UserMessageCount() int {
	count := 0
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			count++
		}
	}
	return count
}

// Clone returns a copy that shares no slices or maps with s.
func (s *Session) Clone() *Session {
	msgs := make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		meta := make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			meta[k] = v
		}
		m.Metadata = meta
		msgs[i] = m
	}
	return &Session{
		ID:           s.ID,
		Messages:     msgs,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
	}
}

type SessionSummary struct {
	SessionID     string
	MessageCount  int
	UserQuestions int
	Duration      time.Duration
	CreatedAt     time.Time
	LastActivity  time.Time
	CurrentModel  string
	TotalCost     decimal.Decimal
}
