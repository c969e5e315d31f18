package service

import (
	"context"
	"testing"

	"github.com/set-night/swsupport/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply     Reply
	panicWith any
	model     string
	histories [][]domain.HistoryEntry
}

func (f *fakeProvider) SendQuery(_ context.Context, _ string, history []domain.HistoryEntry) Reply {
	f.histories = append(f.histories, history)
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	r := f.reply
	r.Model = f.model
	return r
}

func (f *fakeProvider) SwitchModel(name string) bool {
	if name != "sonar" && name != "sonar-pro" {
		return false
	}
	f.model = name
	return true
}

func (f *fakeProvider) ListModels() []string { return []string{"sonar-pro", "sonar"} }

func (f *fakeProvider) CurrentModel() string { return f.model }

func (f *fakeProvider) TestConnection(context.Context) (string, bool) {
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return "✅ Connection successful!", true
}

func newTestAgent(reply Reply) (*Agent, *fakeProvider) {
	p := &fakeProvider{reply: reply, model: "sonar-pro"}
	return NewAgent(NewSessionStore(), p, nil), p
}

func TestProcessMessageSuccess(t *testing.T) {
	agent, _ := newTestAgent(Reply{
		Text:      "## Fix\n1. Rebuild",
		OK:        true,
		Usage:     domain.Usage{Cost: decimal.RequireFromString("0.002")},
		Citations: []string{"https://help.solidworks.com"},
	})

	resp := agent.ProcessMessage(context.Background(), "s1", "how to rebuild a part")

	assert.Equal(t, domain.CategorySuccess, resp.Category)
	assert.Equal(t, "## Fix\n1. Rebuild", resp.Content)
	assert.Equal(t, "sonar-pro", resp.ModelUsed)
	assert.GreaterOrEqual(t, resp.ProcessingTimeMs, int64(0))
	assert.Equal(t, "s1", resp.Metadata[domain.MetaSessionID])
	assert.Equal(t, 1, resp.Metadata[domain.MetaMessageCount])

	sess, ok := agent.GetSession("s1")
	require.True(t, ok)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, domain.RoleUser, sess.Messages[0].Role)
	assert.Equal(t, "how to rebuild a part", sess.Messages[0].Content)
	assert.Contains(t, sess.Messages[0].Metadata, domain.MetaProcessedAt)
	assert.Equal(t, domain.RoleAssistant, sess.Messages[1].Role)
	assert.Equal(t, "success", sess.Messages[1].Metadata[domain.MetaResponseType])
	assert.Equal(t, "sonar-pro", sess.Messages[1].Metadata[domain.MetaModelUsed])
	assert.Equal(t, "0.002", sess.Messages[1].Metadata[domain.MetaCostUSD])

	summary, ok := agent.GetSessionSummary("s1")
	require.True(t, ok)
	assert.Equal(t, "0.002", summary.TotalCost.String())
	assert.Equal(t, "sonar-pro", summary.CurrentModel)
}

func TestProcessMessageContextRequest(t *testing.T) {
	agent, _ := newTestAgent(Reply{Text: "Thanks! Which version are you using?", OK: true})

	resp := agent.ProcessMessage(context.Background(), "s1", "it crashes")

	assert.Equal(t, domain.CategoryContextRequest, resp.Category)
	sess, _ := agent.GetSession("s1")
	assert.Len(t, sess.Messages, 2)
	assert.Equal(t, "context_request", sess.Messages[1].Metadata[domain.MetaResponseType])
}

func TestProcessMessageProviderFailure(t *testing.T) {
	agent, _ := newTestAgent(Reply{Text: "❌ Rate limit exceeded. Please wait a moment and try again.", OK: false})
	agent.CreateSession("s1")

	resp := agent.ProcessMessage(context.Background(), "s1", "it crashes")

	assert.Equal(t, domain.CategoryError, resp.Category)
	assert.Contains(t, resp.Content, "Rate limit exceeded")
	assert.Equal(t, "s1", resp.Metadata[domain.MetaSessionID])
	assert.Equal(t, 0, resp.Metadata[domain.MetaMessageCount])

	sess, _ := agent.GetSession("s1")
	assert.Empty(t, sess.Messages)
}

func TestProcessMessagePanicIsContained(t *testing.T) {
	agent, p := newTestAgent(Reply{})
	p.panicWith = "boom"

	var resp *domain.Response
	require.NotPanics(t, func() {
		resp = agent.ProcessMessage(context.Background(), "s1", "question")
	})

	assert.Equal(t, domain.CategoryError, resp.Category)
	assert.Contains(t, resp.Content, "boom")
	assert.Equal(t, "boom", resp.Metadata[domain.MetaError])
	assert.Equal(t, "s1", resp.Metadata[domain.MetaSessionID])

	sess, ok := agent.GetSession("s1")
	require.True(t, ok)
	assert.Empty(t, sess.Messages)
}

func TestProcessMessageBlankInput(t *testing.T) {
	agent, p := newTestAgent(Reply{Text: "x", OK: true})

	resp := agent.ProcessMessage(context.Background(), "s1", "   ")

	assert.Equal(t, domain.CategoryValidationError, resp.Category)
	assert.Empty(t, p.histories)
	_, ok := agent.GetSession("s1")
	assert.False(t, ok)
}

func TestProcessMessageHistoryAcrossTurns(t *testing.T) {
	agent, p := newTestAgent(Reply{Text: "answer", OK: true})

	agent.ProcessMessage(context.Background(), "s1", "first question")
	resp := agent.ProcessMessage(context.Background(), "s1", "second question")

	require.Len(t, p.histories, 2)
	assert.Empty(t, p.histories[0])
	require.Len(t, p.histories[1], 2)
	assert.Equal(t, domain.HistoryEntry{Role: domain.RoleUser, Content: "first question"}, p.histories[1][0])
	assert.Equal(t, domain.HistoryEntry{Role: domain.RoleAssistant, Content: "answer"}, p.histories[1][1])
	assert.Equal(t, 2, resp.Metadata[domain.MetaMessageCount])

	for _, h := range p.histories {
		for _, e := range h {
			assert.NotEqual(t, domain.RoleSystem, e.Role)
		}
	}
}

func TestProcessMessageDeterministicClassification(t *testing.T) {
	agent, _ := newTestAgent(Reply{Text: "Could you clarify what happens?", OK: true})
	for i := 0; i < 3; i++ {
		resp := agent.ProcessMessage(context.Background(), "s1", "question")
		assert.Equal(t, domain.CategoryContextRequest, resp.Category)
	}
	sess, _ := agent.GetSession("s1")
	assert.Len(t, sess.Messages, 6)
}

func TestAgentSessionOperations(t *testing.T) {
	agent, _ := newTestAgent(Reply{Text: "a", OK: true})

	_, err := agent.CreateSession("s1")
	require.NoError(t, err)
	_, err = agent.CreateSession("s1")
	assert.ErrorIs(t, err, domain.ErrDuplicateSession)

	agent.ProcessMessage(context.Background(), "s2", "q")
	assert.Len(t, agent.ListSessions(), 2)

	assert.True(t, agent.ClearSession("s2"))
	summary, ok := agent.GetSessionSummary("s2")
	require.True(t, ok)
	assert.Equal(t, 0, summary.MessageCount)
	assert.Equal(t, 0, summary.UserQuestions)

	assert.True(t, agent.DeleteSession("s1"))
	assert.False(t, agent.DeleteSession("s1"))
	_, ok = agent.GetSessionSummary("s1")
	assert.False(t, ok)
}

func TestAgentModelOperations(t *testing.T) {
	agent, _ := newTestAgent(Reply{Text: "a", OK: true})

	assert.False(t, agent.SwitchModel("llama"))
	assert.Equal(t, "sonar-pro", agent.CurrentModel())
	assert.True(t, agent.SwitchModel("sonar"))
	assert.Equal(t, "sonar", agent.CurrentModel())
	assert.Equal(t, []string{"sonar-pro", "sonar"}, agent.ListModels())

	resp := agent.ProcessMessage(context.Background(), "s1", "q")
	assert.Equal(t, "sonar", resp.ModelUsed)
}

func TestAgentTestConnectionRecovers(t *testing.T) {
	agent, p := newTestAgent(Reply{})
	msg, ok := agent.TestConnection(context.Background())
	assert.True(t, ok)
	assert.Contains(t, msg, "successful")

	p.panicWith = "dial failed"
	msg, ok = agent.TestConnection(context.Background())
	assert.False(t, ok)
	assert.Contains(t, msg, "Connection failed: dial failed")
}
