// Package llm sends chat-completion requests and summarizes prompt changes.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/promptpad/internal/metrics"
	"github.com/raphaelgruber/promptpad/internal/models"
)

// slowCompletionThreshold is the duration above which a completion is logged at WARN.
const slowCompletionThreshold = 5 * time.Second

// Completer turns a system prompt, prior turns and a user prompt into reply text.
type Completer interface {
	Complete(ctx context.Context, sel models.ModelSelection, systemPrompt, userPrompt string, history []models.Turn) (string, error)
}

// Client posts OpenAI-compatible chat completion requests to a single endpoint.
type Client struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// Compile-time check that Client implements Completer.
var _ Completer = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.client.Timeout = d }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithMetrics records timings and token usage into m.
func WithMetrics(m *metrics.Collector) Option {
	return func(cl *Client) { cl.metrics = m }
}

// NewClient creates a completion client for endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 2 * time.Minute},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func textMessage(role, text string) chatMessage {
	return chatMessage{Role: role, Content: []contentPart{{Type: "text", Text: text}}}
}

// buildMessages returns system + history (roles preserved) + final user message.
func buildMessages(systemPrompt, userPrompt string, history []models.Turn) []chatMessage {
	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, textMessage("system", systemPrompt))
	for _, turn := range history {
		messages = append(messages, textMessage(string(turn.Role), turn.Content))
	}
	return append(messages, textMessage("user", userPrompt))
}

// Complete sends the conversation and returns the reply text.
// ErrConfiguration is returned as is; every other failure is an *APIError.
func (c *Client) Complete(ctx context.Context, sel models.ModelSelection, systemPrompt, userPrompt string, history []models.Turn) (string, error) {
	if !sel.Ready() {
		return "", ErrConfiguration
	}

	start := time.Now()
	text, u, err := c.complete(ctx, sel, buildMessages(systemPrompt, userPrompt, history))
	duration := time.Since(start)

	if err != nil {
		c.logger.Warn("completion failed", "model", sel.Model.ModelID, "duration_ms", duration.Milliseconds(), "error", err)
		if c.metrics != nil {
			c.metrics.RecordFailure(metrics.OpCompletion)
		}
		return "", wrapAPIError(err)
	}

	if c.metrics != nil {
		c.metrics.RecordLLMUsage(metrics.OpCompletion, duration, u.PromptTokens, u.CompletionTokens)
	}
	if duration > slowCompletionThreshold {
		c.logger.Warn("slow completion", "model", sel.Model.ModelID, "duration_ms", duration.Milliseconds())
	} else {
		c.logger.Debug("completion done", "model", sel.Model.ModelID, "duration_ms", duration.Milliseconds(), "reply_len", len(text))
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, sel models.ModelSelection, messages []chatMessage) (string, usage, error) {
	jsonBody, err := json.Marshal(chatRequest{Model: sel.Model.ModelID, Messages: messages})
	if err != nil {
		return "", usage{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", usage{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sel.APIToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", usage{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", usage{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", usage{}, newHTTPError(resp, body)
	}

	return parseResponse(body)
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		StatusText: strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "),
	}
	if httpErr.StatusText == "" || httpErr.StatusText == resp.Status {
		httpErr.StatusText = http.StatusText(resp.StatusCode)
	}

	// Partial decodes are fine: a mistyped field must not hide a valid one.
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	switch {
	case eb.Message != "":
		httpErr.Message = eb.Message
	case eb.Error != nil && eb.Error.Message != "":
		httpErr.Message = eb.Error.Message
	}
	return httpErr
}

// parseResponse validates a success body in order: empty body, choices,
// first message, content shape, text.
func parseResponse(body []byte) (string, usage, error) {
	if isFalsy(body) {
		return "", usage{}, ErrEmptyResponse
	}

	if !json.Valid(body) {
		return "", usage{}, fmt.Errorf("decode response: invalid JSON body")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", usage{}, ErrMissingChoices
	}

	var choices []json.RawMessage
	if err := json.Unmarshal(fields["choices"], &choices); err != nil || len(choices) == 0 {
		return "", usage{}, ErrMissingChoices
	}

	var choice map[string]json.RawMessage
	if err := json.Unmarshal(choices[0], &choice); err != nil || isFalsy(choice["message"]) {
		return "", usage{}, ErrMissingMessage
	}

	var message map[string]json.RawMessage
	var content MessageContent
	if err := json.Unmarshal(choice["message"], &message); err == nil {
		if raw, ok := message["content"]; ok {
			_ = content.UnmarshalJSON(raw)
		}
	}

	text, err := content.FirstText()
	if err != nil {
		return "", usage{}, err
	}

	var u usage
	if raw, ok := fields["usage"]; ok {
		_ = json.Unmarshal(raw, &u)
	}
	return text, u, nil
}
