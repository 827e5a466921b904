package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/promptpad/internal/config"
	"github.com/raphaelgruber/promptpad/internal/metrics"
	"github.com/raphaelgruber/promptpad/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainCompleter sends completions through a langchaingo provider.
// The model and token come from the selection on every call, so a new
// provider client is built per request.
type LangChainCompleter struct {
	provider   config.Provider
	baseURL    string
	ollamaHost string
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// Compile-time check that LangChainCompleter implements Completer.
var _ Completer = (*LangChainCompleter)(nil)

// NewLangChainCompleter creates a completer for the openai, anthropic or
// ollama provider.
func NewLangChainCompleter(cfg config.Config, logger *slog.Logger, m *metrics.Collector) (*LangChainCompleter, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, config.ProviderAnthropic, config.ProviderOllama:
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &LangChainCompleter{
		provider:   cfg.Provider,
		ollamaHost: cfg.OllamaHost,
		logger:     logger,
		metrics:    m,
	}
	// A custom endpoint only makes sense for OpenAI-compatible servers.
	if cfg.Provider == config.ProviderOpenAI && cfg.Endpoint != config.DefaultEndpoint {
		c.baseURL = cfg.Endpoint
	}
	return c, nil
}

// NewCompleter returns the completer selected by cfg.Provider.
func NewCompleter(cfg config.Config, logger *slog.Logger, m *metrics.Collector) (Completer, error) {
	if cfg.Provider == config.ProviderHTTP || cfg.Provider == "" {
		return NewClient(cfg.Endpoint,
			WithTimeout(cfg.RequestTimeout),
			WithLogger(logger),
			WithMetrics(m),
		), nil
	}
	lc, err := NewLangChainCompleter(cfg, logger, m)
	if err != nil {
		return nil, err
	}
	return lc, nil
}

func (c *LangChainCompleter) newModel(sel models.ModelSelection) (llms.Model, error) {
	switch c.provider {
	case config.ProviderOllama:
		model, err := ollama.New(
			ollama.WithModel(sel.Model.ModelID),
			ollama.WithServerURL(c.ollamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return model, nil

	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(sel.APIToken),
			openai.WithModel(sel.Model.ModelID),
		}
		if c.baseURL != "" {
			opts = append(opts, openai.WithBaseURL(c.baseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return model, nil

	default:
		model, err := anthropic.New(
			anthropic.WithToken(sel.APIToken),
			anthropic.WithModel(sel.Model.ModelID),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return model, nil
	}
}

// langChainMessages maps the conversation onto langchaingo message types.
func langChainMessages(systemPrompt, userPrompt string, history []models.Turn) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == models.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	return append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userPrompt))
}

// Complete implements Completer.
func (c *LangChainCompleter) Complete(ctx context.Context, sel models.ModelSelection, systemPrompt, userPrompt string, history []models.Turn) (string, error) {
	if !sel.Ready() {
		return "", ErrConfiguration
	}

	model, err := c.newModel(sel)
	if err != nil {
		return "", wrapAPIError(err)
	}

	start := time.Now()
	response, err := model.GenerateContent(ctx, langChainMessages(systemPrompt, userPrompt, history))
	duration := time.Since(start)

	if err != nil {
		c.logger.Warn("completion failed", "provider", c.provider, "model", sel.Model.ModelID, "duration_ms", duration.Milliseconds(), "error", err)
		if c.metrics != nil {
			c.metrics.RecordFailure(metrics.OpCompletion)
		}
		return "", wrapAPIError(fmt.Errorf("generate: %w", err))
	}

	if response == nil || len(response.Choices) == 0 {
		return "", wrapAPIError(ErrMissingChoices)
	}

	if c.metrics != nil {
		c.metrics.RecordLLMUsage(metrics.OpCompletion, duration, tokenCount(response.Choices[0].GenerationInfo, "PromptTokens"), tokenCount(response.Choices[0].GenerationInfo, "CompletionTokens"))
	}
	if duration > slowCompletionThreshold {
		c.logger.Warn("slow completion", "provider", c.provider, "model", sel.Model.ModelID, "duration_ms", duration.Milliseconds())
	}
	return response.Choices[0].Content, nil
}

// tokenCount reads a token count from langchaingo generation info, which
// providers fill with differing integer types.
func tokenCount(info map[string]any, key string) int64 {
	switch v := info[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}
