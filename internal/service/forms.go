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
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/set-night/swsupport/internal/config"
	"github.com/set-night/swsupport/internal/domain"
)

// Error tags reported by the forms service.
const (
	TagLogin = "LOGIN-ERROR"
	TagToken = "TOKEN-ERROR"
	TagForm  = "FORM-ERROR"
)

// FormError tags a failure with the step of the forms flow that produced it.
type FormError struct {
	Tag string
	Err error
}

func (e *FormError) Error() string {
	return e.Tag + ": " + e.Err.Error()
}

func (e *FormError) Unwrap() error {
	return e.Err
}

type FieldValue struct {
	FieldID string `json:"fieldId" validate:"required"`
	Value   string `json:"value"`
}

type FormRequest struct {
	TemplateID string       `json:"templateId" validate:"required"`
	DueDate    time.Time    `json:"dueDate" validate:"required"`
	Fields     []FieldValue `json:"fieldValues" validate:"required,min=1,dive"`
}

type FormsConfig struct {
	BaseURL  string
	Email    string
	Password string
	TenantID string
}

type authState int

const (
	unauthenticated authState = iota
	authenticated
)

// FormsService submits forms to the DTX forms API. It logs in with the
// configured credentials, exchanges the login token for a tenant token and
// reuses that token until it is about to expire.
type FormsService struct {
	cfg        FormsConfig
	httpClient *http.Client
	validate   *validator.Validate
	now        func() time.Time

	mu          sync.Mutex
	state       authState
	tenantToken string
	expiresAt   time.Time
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func NewFormsService(cfg FormsConfig) (*FormsService, error) {
	var missing []string
	if cfg.BaseURL == "" {
		missing = append(missing, "base url")
	}
	if cfg.Email == "" {
		missing = append(missing, "email")
	}
	if cfg.Password == "" {
		missing = append(missing, "password")
	}
	if cfg.TenantID == "" {
		missing = append(missing, "tenant id")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: forms %s", domain.ErrMissingConfig, strings.Join(missing, ", "))
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &FormsService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: config.FormsTimeout},
		validate:   validate,
		now:        time.Now,
	}, nil
}

// EnsureValidToken returns a tenant token, logging in again when there is
// none or when the current one expires within config.TokenExpiryBuffer.
func (s *FormsService) EnsureValidToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == authenticated && s.now().Add(config.TokenExpiryBuffer).Before(s.expiresAt) {
		return s.tenantToken, nil
	}

	s.state = unauthenticated
	s.tenantToken = ""

	loginToken, err := s.login(ctx)
	if err != nil {
		return "", &FormError{Tag: TagLogin, Err: err}
	}
	tenantToken, err := s.exchange(ctx, loginToken)
	if err != nil {
		return "", &FormError{Tag: TagToken, Err: err}
	}
	expiresAt, err := tokenExpiry(tenantToken)
	if err != nil {
		// usable for this call, refreshed on the next one
		slog.Warn("tenant token expiry unknown", "error", err)
	}

	s.state = authenticated
	s.tenantToken = tenantToken
	s.expiresAt = expiresAt
	slog.Info("forms session established", "expires_at", expiresAt)
	return tenantToken, nil
}

func (s *FormsService) login(ctx context.Context) (string, error) {
	body := map[string]string{
		"email":    s.cfg.Email,
		"password": s.cfg.Password,
	}
	return s.postForMessage(ctx, "/user/login", "", body)
}

func (s *FormsService) exchange(ctx context.Context, loginToken string) (string, error) {
	if loginToken == "" {
		return "", domain.ErrNotLoggedIn
	}
	body := map[string]string{"tenantId": s.cfg.TenantID}
	return s.postForMessage(ctx, "/user/tokenExchange", loginToken, body)
}

// postForMessage posts body and returns the "message" field of the reply.
func (s *FormsService) postForMessage(ctx context.Context, path, bearer string, body any) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	if err := s.post(ctx, path, bearer, body, &result); err != nil {
		return "", err
	}
	if result.Message == "" {
		return "", fmt.Errorf("%s: empty token in response", path)
	}
	return result.Message, nil
}

// SubmitForm creates a form from the given template using the tenant token.
func (s *FormsService) SubmitForm(ctx context.Context, form FormRequest) (map[string]any, error) {
	if err := s.validate.Struct(form); err != nil {
		return nil, &FormError{Tag: TagForm, Err: fmt.Errorf("%w: %v", domain.ErrInvalidForm, err)}
	}

	token, err := s.EnsureValidToken(ctx)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := s.post(ctx, "/forms", token, form, &result); err != nil {
		return nil, &FormError{Tag: TagForm, Err: err}
	}
	return result, nil
}

func (s *FormsService) post(ctx context.Context, path, bearer string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return exp.Time, nil
}

// ValidEmail reports whether addr is a well-formed e-mail address.
func ValidEmail(addr string) bool {
	return validate.Var(addr, "required,email") == nil
}
