package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/set-night/swsupport/internal/domain"
	"github.com/shopspring/decimal"
)

// SessionStore keeps chat sessions in memory. The map lock is held only for
// lookups; each session carries its own lock for mutations.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session *domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*sessionEntry)}
}

// Create registers a new empty session and fails if the id is taken.
func (s *SessionStore) Create(id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; ok {
		return nil, fmt.Errorf("create session %q: %w", id, domain.ErrDuplicateSession)
	}
	sess := domain.NewSession(id)
	s.sessions[id] = &sessionEntry{session: sess}
	return sess.Clone(), nil
}

func (s *SessionStore) Get(id string) (*domain.Session, bool) {
	e := s.entry(id)
	if e == nil {
		return nil, false
	}
	return e.snapshot(), true
}

// GetOrCreate returns the session for id, creating it on first reference.
// The second result reports whether it was created by this call.
func (s *SessionStore) GetOrCreate(id string) (*domain.Session, bool) {
	if e := s.entry(id); e != nil {
		return e.snapshot(), false
	}

	s.mu.Lock()
	e, ok := s.sessions[id]
	if !ok {
		e = &sessionEntry{session: domain.NewSession(id)}
		s.sessions[id] = e
	}
	s.mu.Unlock()

	return e.snapshot(), !ok
}

func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if ok {
		// wait for an in-flight append on this session to finish
		e.mu.Lock()
		e.mu.Unlock()
	}
	return ok
}

// List returns snapshots of all sessions ordered by creation time.
func (s *SessionStore) List() []*domain.Session {
	s.mu.RLock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sessions := make([]*domain.Session, len(entries))
	for i, e := range entries {
		sessions[i] = e.snapshot()
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// Clear drops all messages of a session but keeps the session itself.
func (s *SessionStore) Clear(id string) bool {
	e := s.entry(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Messages = []domain.Message{}
	e.session.LastActivity = time.Now()
	return true
}

// AppendTurn appends a user and an assistant message as one unit and returns
// the resulting number of user messages. It reports false when the session
// no longer exists.
func (s *SessionStore) AppendTurn(id string, user, assistant domain.Message) (int, bool) {
	e := s.entry(id)
	if e == nil {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.entry(id) != e {
		// deleted while we waited for the lock
		return 0, false
	}
	e.session.Messages = append(e.session.Messages, user, assistant)
	e.session.LastActivity = time.Now()
	return e.session.UserMessageCount(), true
}

// Summarize derives statistics for a session. CurrentModel is left for the
// caller to fill.
func (s *SessionStore) Summarize(id string) (*domain.SessionSummary, bool) {
	sess, ok := s.Get(id)
	if !ok {
		return nil, false
	}

	total := decimal.Zero
	for _, m := range sess.Messages {
		if cost, ok := m.Metadata[domain.MetaCostUSD].(string); ok {
			if d, err := decimal.NewFromString(cost); err == nil {
				total = total.Add(d)
			}
		}
	}

	return &domain.SessionSummary{
		SessionID:     sess.ID,
		MessageCount:  len(sess.Messages),
		UserQuestions: sess.UserMessageCount(),
		Duration:      time.Since(sess.CreatedAt).Truncate(time.Second),
		CreatedAt:     sess.CreatedAt,
		LastActivity:  sess.LastActivity,
		TotalCost:     total,
	}, true
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) entry(id string) *sessionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (e *sessionEntry) snapshot() *domain.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone()
}
