// Package tools provides the MCP tool handlers for promptpad.
package tools

import (
	"log/slog"

	"github.com/raphaelgruber/promptpad/internal/metrics"
	"github.com/raphaelgruber/promptpad/internal/service"
)

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Workspace *service.Workspace
	Metrics   *metrics.Collector
	Logger    *slog.Logger
}
