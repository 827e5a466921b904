package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/promptpad/internal/metrics"
	"github.com/raphaelgruber/promptpad/internal/models"
)

const summarizerSystemPrompt = "You are a helpful assistant that describes differences between two versions of text in a concise way, using less than 20 words."

// Summarizer asks the completion service for a one-line description of how
// a prompt changed between two versions.
type Summarizer struct {
	completer Completer
	logger    *slog.Logger
	metrics   *metrics.Collector
}

// NewSummarizer creates a Summarizer. logger and m may be nil.
func NewSummarizer(completer Completer, logger *slog.Logger, m *metrics.Collector) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{completer: completer, logger: logger, metrics: m}
}

// Describe returns a short description of the change from oldContent to
// newContent, or nil. It never fails: configuration, transport and decode
// errors are logged and swallowed. A nil oldContent (first snapshot) makes
// no remote call.
func (s *Summarizer) Describe(ctx context.Context, sel models.ModelSelection, oldContent *string, newContent string) *string {
	if oldContent == nil {
		return nil
	}

	userPrompt := fmt.Sprintf("Describe the difference between these two versions:\n\nOLD VERSION:\n%s\n\nNEW VERSION:\n%s", *oldContent, newContent)

	start := time.Now()
	description, err := s.completer.Complete(ctx, sel, summarizerSystemPrompt, userPrompt, nil)
	duration := time.Since(start)

	if err != nil {
		s.logger.Warn("failed to generate version description", "duration_ms", duration.Milliseconds(), "error", err)
		if s.metrics != nil {
			s.metrics.RecordFailure(metrics.OpSummarize)
		}
		return nil
	}

	if s.metrics != nil {
		s.metrics.RecordTiming(metrics.OpSummarize, duration)
	}
	return &description
}
