package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/set-night/swsupport/internal/config"
	"github.com/set-night/swsupport/internal/domain"
	"github.com/shopspring/decimal"
)

// Reply is the outcome of one completion call. Text and OK form the
// (text, success) pair; on failure Text is a user-facing message starting
// with config.FailureMarker.
type Reply struct {
	Text             string
	OK               bool
	Model            string
	Usage            domain.Usage
	Citations        []string
	RelatedQuestions []string
}

type PerplexityService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	formatter  *PromptFormatter

	mu     sync.RWMutex
	model  string
	models []string
}

func NewPerplexityService(apiKey, baseURL, model string, formatter *PromptFormatter) (*PerplexityService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: perplexity api key", domain.ErrMissingConfig)
	}
	if model == "" {
		model = config.DefaultModel
	}
	if !slices.Contains(config.AllowedModels, model) {
		return nil, fmt.Errorf("%w: %q (allowed: %s)", domain.ErrModelNotAllowed, model, strings.Join(config.AllowedModels, ", "))
	}
	if baseURL == "" {
		baseURL = "https://api.perplexity.ai"
	}
	if formatter == nil {
		formatter = NewPromptFormatter(DefaultTermLists())
	}
	return &PerplexityService{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		formatter:  formatter,
		model:      model,
		models:     slices.Clone(config.AllowedModels),
	}, nil
}

type chatMessage struct {
	Role    domain.Role `json:"role"`
	Content string      `json:"content"`
}

type chatRequest struct {
	Model                  string        `json:"model"`
	Messages               []chatMessage `json:"messages"`
	Temperature            float64       `json:"temperature"`
	MaxTokens              int           `json:"max_tokens"`
	Stream                 bool          `json:"stream"`
	SearchDomainFilter     []string      `json:"search_domain_filter"`
	ReturnRelatedQuestions bool          `json:"return_related_questions"`
	ReturnCitations        bool          `json:"return_citations"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations        []string `json:"citations"`
	RelatedQuestions []string `json:"related_questions"`
	Usage            struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
		Cost             struct {
			TotalCost decimal.Decimal `json:"total_cost"`
		} `json:"cost"`
	} `json:"usage"`
}

// SendQuery sends the system prompt, the prior history and the rewritten
// user text in a single completion request. It never returns an error;
// every failure is mapped to a Reply with OK=false.
func (s *PerplexityService) SendQuery(ctx context.Context, userText string, history []domain.HistoryEntry) (reply Reply) {
	model := s.CurrentModel()
	reply.Model = model

	defer func() {
		if r := recover(); r != nil {
			slog.Error("perplexity request panicked", "panic", r, "model", model)
			reply = failure(model, fmt.Sprintf("Unexpected error: %v", r))
		}
	}()

	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: domain.RoleSystem, Content: s.formatter.SystemPrompt()})
	for _, h := range history {
		if h.Role == domain.RoleSystem {
			continue
		}
		messages = append(messages, chatMessage{Role: h.Role, Content: h.Content})
	}
	messages = append(messages, chatMessage{Role: domain.RoleUser, Content: s.formatter.RewriteQuery(userText)})

	payload, err := json.Marshal(chatRequest{
		Model:                  model,
		Messages:               messages,
		Temperature:            config.Temperature,
		MaxTokens:              config.MaxTokens,
		Stream:                 false,
		SearchDomainFilter:     config.SearchDomains,
		ReturnRelatedQuestions: true,
		ReturnCitations:        true,
	})
	if err != nil {
		return failure(model, fmt.Sprintf("Unexpected error: marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return failure(model, fmt.Sprintf("Unexpected error: create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Warn("perplexity request failed", "error", err, "model", model)
		return failure(model, fmt.Sprintf("Network error: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(model, fmt.Sprintf("Network error: read response: %v", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return failure(model, "Invalid API key. Please check your Perplexity API key.")
	case resp.StatusCode == http.StatusTooManyRequests:
		return failure(model, "Rate limit exceeded. Please wait a moment and try again.")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		slog.Warn("perplexity returned error status", "status", resp.StatusCode, "model", model)
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			detail = resp.Status
		}
		return failure(model, detail)
	}

	parsed, err := parseChatResponse(body)
	if err != nil {
		return failure(model, fmt.Sprintf("Invalid API response format: %v", err))
	}

	return Reply{
		Text:             *parsed.Choices[0].Message.Content,
		OK:               true,
		Model:            model,
		Citations:        parsed.Citations,
		RelatedQuestions: parsed.RelatedQuestions,
		Usage: domain.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
			Cost:             parsed.Usage.Cost.TotalCost,
		},
	}
}

func parseChatResponse(body []byte) (*chatResponse, error) {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("missing choices")
	}
	if parsed.Choices[0].Message == nil || parsed.Choices[0].Message.Content == nil {
		return nil, errors.New("missing message content")
	}
	return &parsed, nil
}

func failure(model, text string) Reply {
	return Reply{
		Text:  config.FailureMarker + " " + text,
		OK:    false,
		Model: model,
	}
}

// SwitchModel changes the model used by subsequent calls. Calls already in
// flight keep the model they started with.
func (s *PerplexityService) SwitchModel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.models, name) {
		return false
	}
	s.model = name
	return true
}

func (s *PerplexityService) ListModels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.models)
}

func (s *PerplexityService) CurrentModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// TestConnection sends a canned query and reports whether a usable answer
// came back.
func (s *PerplexityService) TestConnection(ctx context.Context) (string, bool) {
	reply := s.SendQuery(ctx, config.ConnectionTestQuery, nil)
	if reply.OK && !strings.Contains(reply.Text, config.FailureMarker) {
		return "✅ Connection successful!", true
	}
	return reply.Text, false
}
