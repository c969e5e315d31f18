package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/set-night/swsupport/internal/config"
	"github.com/set-night/swsupport/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{"model":"sonar-pro","choices":[{"message":{"role":"assistant","content":"## Answer\n1. Step"}}],` +
	`"citations":["https://help.solidworks.com/a"],"related_questions":["q?"],` +
	`"usage":{"prompt_tokens":10,"completion_tokens":20,"total_tokens":30,"cost":{"total_cost":0.0061}}}`

func newTestPerplexity(t *testing.T, handler http.HandlerFunc) *PerplexityService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewPerplexityService("secret", server.URL, "", nil)
	require.NoError(t, err)
	return svc
}

func TestNewPerplexityServiceValidation(t *testing.T) {
	_, err := NewPerplexityService("", "", "", nil)
	assert.ErrorIs(t, err, domain.ErrMissingConfig)

	_, err = NewPerplexityService("key", "", "gpt-4", nil)
	assert.ErrorIs(t, err, domain.ErrModelNotAllowed)

	svc, err := NewPerplexityService("key", "", "sonar", nil)
	require.NoError(t, err)
	assert.Equal(t, "sonar", svc.CurrentModel())
}

func TestSendQueryPayload(t *testing.T) {
	var got chatRequest
	svc := newTestPerplexity(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, okBody)
	})

	history := []domain.HistoryEntry{
		{Role: domain.RoleUser, Content: "first"},
		{Role: domain.RoleSystem, Content: "dropped"},
		{Role: domain.RoleAssistant, Content: "answer"},
	}
	reply := svc.SendQuery(context.Background(), "it crashes", history)

	require.True(t, reply.OK, reply.Text)
	assert.Equal(t, "## Answer\n1. Step", reply.Text)
	assert.Equal(t, "sonar-pro", reply.Model)
	assert.Equal(t, []string{"https://help.solidworks.com/a"}, reply.Citations)
	assert.Equal(t, 30, reply.Usage.TotalTokens)
	assert.Equal(t, "0.0061", reply.Usage.Cost.String())

	assert.Equal(t, "sonar-pro", got.Model)
	assert.Equal(t, config.Temperature, got.Temperature)
	assert.Equal(t, config.MaxTokens, got.MaxTokens)
	assert.False(t, got.Stream)
	assert.True(t, got.ReturnCitations)
	assert.True(t, got.ReturnRelatedQuestions)
	assert.Equal(t, config.SearchDomains, got.SearchDomainFilter)

	require.Len(t, got.Messages, 4)
	assert.Equal(t, domain.RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "first", got.Messages[1].Content)
	assert.Equal(t, domain.RoleAssistant, got.Messages[2].Role)
	assert.Equal(t, domain.RoleUser, got.Messages[3].Role)
	assert.True(t, strings.HasPrefix(got.Messages[3].Content, "it crashes - Before providing solution"))
}

func TestSendQueryFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, "Invalid API key"},
		{"rate limited", http.StatusTooManyRequests, `{}`, "Rate limit exceeded"},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad model"}}`, `{"error":{"message":"bad model"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`, "Invalid API response format"},
		{"no content", http.StatusOK, `{"choices":[{"message":{}}]}`, "Invalid API response format"},
		{"not json", http.StatusOK, `<html>`, "Invalid API response format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestPerplexity(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			reply := svc.SendQuery(context.Background(), "q", nil)
			assert.False(t, reply.OK)
			assert.True(t, strings.HasPrefix(reply.Text, config.FailureMarker))
			assert.Contains(t, reply.Text, tt.want)
			assert.Equal(t, "sonar-pro", reply.Model)
		})
	}
}

func TestSendQueryNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	svc, err := NewPerplexityService("secret", url, "", nil)
	require.NoError(t, err)

	reply := svc.SendQuery(context.Background(), "q", nil)
	assert.False(t, reply.OK)
	assert.Contains(t, reply.Text, "Network error")
}

func TestSwitchModel(t *testing.T) {
	svc, err := NewPerplexityService("key", "", "", nil)
	require.NoError(t, err)

	assert.False(t, svc.SwitchModel("gpt-4"))
	assert.Equal(t, "sonar-pro", svc.CurrentModel())

	assert.True(t, svc.SwitchModel("sonar"))
	assert.Equal(t, "sonar", svc.CurrentModel())

	models := svc.ListModels()
	models[0] = "mutated"
	assert.Equal(t, []string{"sonar-pro", "sonar"}, svc.ListModels())
}

func TestSendQueryUsesModelReadAtStart(t *testing.T) {
	var once sync.Once
	var svc *PerplexityService
	var sent string
	svc = newTestPerplexity(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		sent = req.Model
		once.Do(func() { svc.SwitchModel("sonar") })
		fmt.Fprint(w, okBody)
	})

	reply := svc.SendQuery(context.Background(), "q", nil)
	assert.Equal(t, "sonar-pro", sent)
	assert.Equal(t, "sonar-pro", reply.Model)
	assert.Equal(t, "sonar", svc.CurrentModel())
}

func TestTestConnection(t *testing.T) {
	svc := newTestPerplexity(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, okBody)
	})
	msg, ok := svc.TestConnection(context.Background())
	assert.True(t, ok)
	assert.Contains(t, msg, "Connection successful")

	marker := newTestPerplexity(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"❌ upstream said no"}}]}`)
	})
	_, ok = marker.TestConnection(context.Background())
	assert.False(t, ok)

	failing := newTestPerplexity(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	msg, ok = failing.TestConnection(context.Background())
	assert.False(t, ok)
	assert.Contains(t, msg, "Invalid API key")
}
