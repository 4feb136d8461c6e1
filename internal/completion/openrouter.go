// Package completion talks to an OpenAI/OpenRouter-compatible chat
// completions endpoint.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"finchat/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "deepseek/deepseek-chat"
	DefaultTimeout = 20 * time.Second
	DefaultTitle   = "aryzen-finance-bot"
	DefaultReferer = "http://localhost"
)

// Config holds configuration for the completion client.
type Config struct {
	// APIKey is the bearer token. Empty means the service is not configured.
	APIKey string
	// BaseURL is the API base URL; "/chat/completions" is appended.
	BaseURL string
	Model   string
	Timeout time.Duration
	// Referer and Title are OpenRouter attribution headers.
	Referer string
	Title   string
	// RequestsPerSecond throttles outgoing calls; zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// Client calls the completion endpoint once per Complete.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	referer    string
	title      string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ domain.Completer = (*Client)(nil)

// ErrorKind classifies completion failures.
type ErrorKind int

const (
	// KindTransport covers network errors, timeouts and aborted throttling waits.
	KindTransport ErrorKind = iota
	// KindAPI means the upstream returned an explicit error message.
	KindAPI
	// KindStatus is a non-2xx reply without a usable error message.
	KindStatus
	// KindMalformed is a reply whose body lacks the expected completion shape.
	KindMalformed
)

// Error describes a failed completion. It wraps domain.ErrCompletionFailed.
type Error struct {
	Kind ErrorKind
	// Status is the HTTP status code, when a response was received.
	Status int
	// Message is the upstream error message for KindAPI, the transport
	// error text for KindTransport, and the raw body otherwise.
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTransport:
		return fmt.Sprintf("completion transport error: %s", e.Message)
	case KindAPI:
		return fmt.Sprintf("completion API error (status %d): %s", e.Status, e.Message)
	case KindStatus:
		return fmt.Sprintf("completion HTTP error (status %d): %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("unexpected completion response: %s", e.Message)
	}
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrCompletionFailed, e.Err}
	}
	return []error{domain.ErrCompletionFailed}
}

// NewClient creates a completion client. A zero Config is valid; calls then
// fail with domain.ErrConfigurationMissing.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		referer:    cfg.Referer,
		title:      cfg.Title,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		logger:     logger,
	}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Model returns the model name sent with each request.
func (c *Client) Model() string { return c.model }

type chatRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends messages and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("%w: completion API key", domain.ErrConfigurationMissing)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}

	jsonBody, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", c.referer)
	req.Header.Set("X-Title", c.title)

	c.logger.Debug("sending completion request", "model", c.model, "messages", len(messages))
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Status: resp.StatusCode, Message: err.Error(), Err: err}
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &Error{Kind: KindStatus, Status: resp.StatusCode, Message: string(body)}
		}
		return "", &Error{Kind: KindMalformed, Status: resp.StatusCode, Message: string(body), Err: err}
	}
	// Check for error in response body regardless of status code
	if out.Error != nil && out.Error.Message != "" {
		return "", &Error{Kind: KindAPI, Status: resp.StatusCode, Message: out.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: KindStatus, Status: resp.StatusCode, Message: string(body)}
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return "", &Error{Kind: KindMalformed, Status: resp.StatusCode, Message: string(body)}
	}

	c.logger.Info("completion finished",
		"model", c.model,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"finish_reason", out.Choices[0].FinishReason,
		"total_tokens", out.Usage.TotalTokens,
	)
	return *out.Choices[0].Message.Content, nil
}
