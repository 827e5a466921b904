package tools

import (
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/promptpad/internal/conversation"
	"github.com/raphaelgruber/promptpad/internal/ledger"
	"github.com/raphaelgruber/promptpad/internal/service"
)

// ErrorResult creates a tool error result with optional recovery hint.
// If hint is non-empty, formats as "{msg}. {hint}".
// Returns IsError=true so the calling model can see the error and self-correct.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	text := msg
	if hint != "" {
		text = msg + ". " + hint
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// TextResult creates a success result with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// JSONResult renders v as indented JSON.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult("Failed to encode result", err.Error())
	}
	return TextResult(string(data))
}

// serviceError maps a workspace error to a result with a recovery hint.
func serviceError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return ErrorResult(err.Error(), "Use list_sessions to see session IDs and names")
	case errors.Is(err, ledger.ErrVersionNotFound):
		return ErrorResult(err.Error(), "Use list_versions to see version IDs")
	case errors.Is(err, service.ErrMinimumSessions):
		return ErrorResult(err.Error(), "Create another session first")
	case errors.Is(err, service.ErrInvalidOrder):
		return ErrorResult(err.Error(), "Pass every session ID exactly once")
	case errors.Is(err, conversation.ErrTurnNotFound):
		return ErrorResult(err.Error(), "Use show_conversation to see turn indexes")
	case errors.Is(err, service.ErrSubmitInProgress):
		return ErrorResult(err.Error(), "Wait for the pending reply, then retry")
	case errors.Is(err, service.ErrModelNotFound):
		return ErrorResult(err.Error(), "Use list_models to see configured models")
	case errors.Is(err, service.ErrDuplicateModel), errors.Is(err, service.ErrInvalidModel):
		return ErrorResult(err.Error(), "")
	default:
		return ErrorResult(err.Error(), "The state store may be unavailable")
	}
}
