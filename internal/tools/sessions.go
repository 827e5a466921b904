package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/promptpad/internal/models"
	"github.com/raphaelgruber/promptpad/internal/service"
)

// SessionRef identifies a session by ID or name. Empty means the active session.
type SessionRef struct {
	Session string `json:"session,omitempty" jsonschema:"Session ID or name (defaults to the active session)"`
}

// SessionSummary is the list_sessions view of a session.
type SessionSummary struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	Versions int    `json:"versions"`
}

// resolveSession finds a session by ID, then by name, falling back to the
// active session when ref is empty.
func resolveSession(ws *service.Workspace, ref string) (models.Session, error) {
	if strings.TrimSpace(ref) == "" {
		if active, ok := ws.Sessions.Active(); ok {
			return active, nil
		}
		return models.Session{}, service.ErrSessionNotFound
	}
	if s, err := ws.Sessions.Get(ref); err == nil {
		return s, nil
	}
	for _, s := range ws.Sessions.List() {
		if s.Name == ref {
			return s, nil
		}
	}
	return models.Session{}, fmt.Errorf("%w: %s", service.ErrSessionNotFound, ref)
}

func summarize(sessions []models.Session) []SessionSummary {
	out := make([]SessionSummary, len(sessions))
	for i, s := range sessions {
		out[i] = SessionSummary{
			Position: i + 1,
			ID:       s.ID,
			Name:     s.Name,
			Active:   s.Active,
			Versions: len(s.Versions),
		}
	}
	return out
}

// ListSessionsInput takes no arguments.
type ListSessionsInput struct{}

// NewListSessionsHandler lists sessions in display order.
func NewListSessionsHandler(deps *Dependencies) mcp.ToolHandlerFor[ListSessionsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListSessionsInput) (*mcp.CallToolResult, any, error) {
		return JSONResult(summarize(deps.Workspace.Sessions.List())), nil, nil
	}
}

// NewGetSessionHandler returns a session with its content and versions.
func NewGetSessionHandler(deps *Dependencies) mcp.ToolHandlerFor[SessionRef, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SessionRef) (*mcp.CallToolResult, any, error) {
		s, err := resolveSession(deps.Workspace, input.Session)
		if err != nil {
			return serviceError(err), nil, nil
		}
		return JSONResult(s), nil, nil
	}
}

// CreateSessionInput defines the input schema for create_session.
type CreateSessionInput struct {
	Name    string `json:"name,omitempty" jsonschema:"Session name (defaults to promptN.txt)"`
	Content string `json:"content,omitempty" jsonschema:"Initial system prompt content"`
}

// NewCreateSessionHandler creates a session and makes it active.
func NewCreateSessionHandler(deps *Dependencies) mcp.ToolHandlerFor[CreateSessionInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateSessionInput) (*mcp.CallToolResult, any, error) {
		ws := deps.Workspace
		s, err := ws.Sessions.Create(ctx, input.Name)
		if err != nil {
			deps.Logger.Error("create session failed", "error", err)
			return serviceError(err), nil, nil
		}
		if input.Content != "" {
			if err := ws.Sessions.UpdateContent(ctx, s.ID, input.Content); err != nil {
				return serviceError(err), nil, nil
			}
			if s, err = ws.Orchestrator.Capture(ctx, s.ID); err != nil {
				return serviceError(err), nil, nil
			}
		}
		deps.Logger.Info("session created", "id", s.ID, "name", s.Name)
		return JSONResult(s), nil, nil
	}
}

// NewRemoveSessionHandler removes a session. The last session cannot be removed.
func NewRemoveSessionHandler(deps *Dependencies) mcp.ToolHandlerFor[SessionRef, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SessionRef) (*mcp.CallToolResult, any, error) {
		if input.Session == "" {
			return ErrorResult("session is required", "Pass a session ID or name"), nil, nil
		}
		s, err := resolveSession(deps.Workspace, input.Session)
		if err != nil {
			return serviceError(err), nil, nil
		}
		if err := deps.Workspace.Sessions.Remove(ctx, s.ID); err != nil {
			return serviceError(err), nil, nil
		}
		return TextResult(fmt.Sprintf("Removed %s", s.Name)), nil, nil
	}
}

// RenameSessionInput defines the input schema for rename_session.
type RenameSessionInput struct {
	Session string `json:"session" jsonschema:"Session ID or name"`
	Name    string `json:"name" jsonschema:"New name"`
}

// NewRenameSessionHandler renames a session.
func NewRenameSessionHandler(deps *Dependencies) mcp.ToolHandlerFor[RenameSessionInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RenameSessionInput) (*mcp.CallToolResult, any, error) {
		s, err := resolveSession(deps.Workspace, input.Session)
		if err != nil {
			return serviceError(err), nil, nil
		}
		if err := deps.Workspace.Sessions.Rename(ctx, s.ID, input.Name); err != nil {
			return serviceError(err), nil, nil
		}
		return TextResult(fmt.Sprintf("Renamed %s to %s", s.Name, input.Name)), nil, nil
	}
}

// NewSelectSessionHandler activates a session and resets the conversation.
func NewSelectSessionHandler(deps *Dependencies) mcp.ToolHandlerFor[SessionRef, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SessionRef) (*mcp.CallToolResult, any, error) {
		s, err := resolveSession(deps.Workspace, input.Session)
		if err != nil {
			return serviceError(err), nil, nil
		}
		if err := deps.Workspace.Sessions.Select(ctx, s.ID); err != nil {
			return serviceError(err), nil, nil
		}
		return TextResult(fmt.Sprintf("Active session: %s", s.Name)), nil, nil
	}
}

// ReorderSessionsInput defines the input schema for reorder_sessions.
type ReorderSessionsInput struct {
	IDs []string `json:"ids" jsonschema:"Every session ID in the new order"`
}

// NewReorderSessionsHandler applies a new display order.
func NewReorderSessionsHandler(deps *Dependencies) mcp.ToolHandlerFor[ReorderSessionsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ReorderSessionsInput) (*mcp.CallToolResult, any, error) {
		if err := deps.Workspace.Sessions.Reorder(ctx, input.IDs); err != nil {
			return serviceError(err), nil, nil
		}
		return JSONResult(summarize(deps.Workspace.Sessions.List())), nil, nil
	}
}

// UpdateContentInput defines the input schema for update_content.
type UpdateContentInput struct {
	Session string `json:"session,omitempty" jsonschema:"Session ID or name (defaults to the active session)"`
	Content string `json:"content" jsonschema:"New system prompt content"`
}

// NewUpdateContentHandler replaces a session's content without recording a version.
func NewUpdateContentHandler(deps *Dependencies) mcp.ToolHandlerFor[UpdateContentInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UpdateContentInput) (*mcp.CallToolResult, any, error) {
		s, err := resolveSession(deps.Workspace, input.Session)
		if err != nil {
			return serviceError(err), nil, nil
		}
		if err := deps.Workspace.Sessions.UpdateContent(ctx, s.ID, input.Content); err != nil {
			return serviceError(err), nil, nil
		}
		return TextResult(fmt.Sprintf("Updated %s (%d bytes)", s.Name, len(input.Content))), nil, nil
	}
}
