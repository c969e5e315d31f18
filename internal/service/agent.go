package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/set-night/swsupport/internal/config"
	"github.com/set-night/swsupport/internal/domain"
)

// CompletionProvider is the outbound completion capability used by Agent.
type CompletionProvider interface {
	SendQuery(ctx context.Context, userText string, history []domain.HistoryEntry) Reply
	SwitchModel(name string) bool
	ListModels() []string
	CurrentModel() string
	TestConnection(ctx context.Context) (string, bool)
}

// Agent runs conversation turns against the session store and the
// completion provider.
type Agent struct {
	store      *SessionStore
	provider   CompletionProvider
	classifier Classifier
}

func NewAgent(store *SessionStore, provider CompletionProvider, classifier Classifier) *Agent {
	if store == nil {
		store = NewSessionStore()
	}
	if classifier == nil {
		classifier = NewPhraseClassifier(nil)
	}
	return &Agent{
		store:      store,
		provider:   provider,
		classifier: classifier,
	}
}

// ProcessMessage answers userText within the given session. It always
// returns a renderable Response; the session gains the user and assistant
// messages only when the provider call succeeded.
func (a *Agent) ProcessMessage(ctx context.Context, sessionID, userText string) (resp *domain.Response) {
	start := time.Now()
	model := ""
	userTurns := 0

	defer func() {
		if r := recover(); r != nil {
			slog.Error("process message panicked", "panic", r, "session_id", sessionID)
			resp = &domain.Response{
				Content:          fmt.Sprintf("An error occurred while processing your request: %v", r),
				Category:         domain.CategoryError,
				ProcessingTimeMs: time.Since(start).Milliseconds(),
				ModelUsed:        model,
				Metadata: map[string]any{
					domain.MetaSessionID:    sessionID,
					domain.MetaMessageCount: userTurns,
					domain.MetaError:        fmt.Sprint(r),
				},
			}
		}
	}()

	model = a.provider.CurrentModel()

	if strings.TrimSpace(userText) == "" {
		if sess, ok := a.store.Get(sessionID); ok {
			userTurns = sess.UserMessageCount()
		}
		return a.respond(sessionID, "Please enter a question about SolidWorks.", domain.CategoryValidationError, start, model, userTurns)
	}

	session, created := a.store.GetOrCreate(sessionID)
	if created {
		slog.Debug("session created", "session_id", sessionID)
	}
	userTurns = session.UserMessageCount()

	reply := a.provider.SendQuery(ctx, userText, session.History())
	if reply.Model != "" {
		model = reply.Model
	}

	if !reply.OK {
		slog.Warn("completion failed", "session_id", sessionID, "model", model)
		return a.respond(sessionID, reply.Text, domain.CategoryError, start, model, userTurns)
	}

	category := a.classifier.Classify(reply.Text)
	elapsed := time.Since(start).Milliseconds()

	userMsg := domain.NewMessage(domain.RoleUser, userText, map[string]any{
		domain.MetaProcessedAt: start.Format(time.RFC3339Nano),
	})
	assistantMeta := map[string]any{
		domain.MetaResponseType:     string(category),
		domain.MetaProcessingTimeMs: elapsed,
		domain.MetaModelUsed:        model,
	}
	if reply.Usage.HasCost() {
		assistantMeta[domain.MetaCostUSD] = reply.Usage.Cost.String()
	}
	if len(reply.Citations) > 0 {
		assistantMeta[domain.MetaCitations] = strings.Join(reply.Citations, "\n")
	}
	assistantMsg := domain.NewMessage(domain.RoleAssistant, reply.Text, assistantMeta)

	if count, ok := a.store.AppendTurn(sessionID, userMsg, assistantMsg); ok {
		userTurns = count
	} else {
		slog.Warn("session deleted before turn was recorded", "session_id", sessionID)
	}

	resp = &domain.Response{
		Content:          reply.Text,
		Category:         category,
		ProcessingTimeMs: elapsed,
		ModelUsed:        model,
		Metadata: map[string]any{
			domain.MetaSessionID:    sessionID,
			domain.MetaMessageCount: userTurns,
		},
	}
	if len(reply.Citations) > 0 {
		resp.Metadata[domain.MetaCitations] = reply.Citations
	}
	return resp
}

func (a *Agent) respond(sessionID, content string, category domain.Category, start time.Time, model string, userTurns int) *domain.Response {
	return &domain.Response{
		Content:          content,
		Category:         category,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		ModelUsed:        model,
		Metadata: map[string]any{
			domain.MetaSessionID:    sessionID,
			domain.MetaMessageCount: userTurns,
		},
	}
}

func (a *Agent) CreateSession(id string) (*domain.Session, error) {
	return a.store.Create(id)
}

func (a *Agent) GetSession(id string) (*domain.Session, bool) {
	return a.store.Get(id)
}

func (a *Agent) DeleteSession(id string) bool {
	return a.store.Delete(id)
}

func (a *Agent) ListSessions() []*domain.Session {
	return a.store.List()
}

func (a *Agent) ClearSession(id string) bool {
	return a.store.Clear(id)
}

func (a *Agent) GetSessionSummary(id string) (*domain.SessionSummary, bool) {
	summary, ok := a.store.Summarize(id)
	if !ok {
		return nil, false
	}
	summary.CurrentModel = a.provider.CurrentModel()
	return summary, true
}

func (a *Agent) SwitchModel(name string) bool {
	ok := a.provider.SwitchModel(name)
	if ok {
		slog.Info("model switched", "model", name)
	}
	return ok
}

func (a *Agent) ListModels() []string {
	return a.provider.ListModels()
}

func (a *Agent) CurrentModel() string {
	return a.provider.CurrentModel()
}

func (a *Agent) TestConnection(ctx context.Context) (msg string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			msg, ok = fmt.Sprintf("%s Connection failed: %v", config.FailureMarker, r), false
		}
	}()
	return a.provider.TestConnection(ctx)
}
