package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/promptpad/internal/metrics"
)

// StatsInput takes no arguments.
type StatsInput struct{}

// StatsResult combines workspace counts with operation metrics.
type StatsResult struct {
	Sessions int              `json:"sessions"`
	Versions int              `json:"versions"`
	Turns    int              `json:"turns"`
	State    string           `json:"state"`
	Metrics  metrics.Snapshot `json:"metrics"`
}

// NewStatsHandler reports workspace counts and completion/store timings.
func NewStatsHandler(deps *Dependencies) mcp.ToolHandlerFor[StatsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatsInput) (*mcp.CallToolResult, any, error) {
		ws := deps.Workspace
		sessions := ws.Sessions.List()

		result := StatsResult{
			Sessions: len(sessions),
			Turns:    len(ws.Log.Turns()),
			State:    string(ws.Orchestrator.State()),
		}
		for _, s := range sessions {
			result.Versions += len(s.Versions)
		}
		if deps.Metrics != nil {
			result.Metrics = deps.Metrics.Snapshot()
		}
		return JSONResult(result), nil, nil
	}
}
