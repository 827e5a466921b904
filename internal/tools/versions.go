package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewListVersionsHandler lists a session's versions, newest first.
func NewListVersionsHandler(deps *Dependencies) mcp.ToolHandlerFor[SessionRef, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SessionRef) (*mcp.CallToolResult, any, error) {
		s, err := resolveSession(deps.Workspace, input.Session)
		if err != nil {
			return serviceError(err), nil, nil
		}
		return JSONResult(s.Versions), nil, nil
	}
}

// RestoreVersionInput defines the input schema for restore_version.
type RestoreVersionInput struct {
	Session string `json:"session,omitempty" jsonschema:"Session ID or name (defaults to the active session)"`
	Version string `json:"version" jsonschema:"Version ID from list_versions"`
}

// NewRestoreVersionHandler replaces a session's content with a stored version.
// The version list is left unchanged.
func NewRestoreVersionHandler(deps *Dependencies) mcp.ToolHandlerFor[RestoreVersionInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RestoreVersionInput) (*mcp.CallToolResult, any, error) {
		if input.Version == "" {
			return ErrorResult("version is required", "Use list_versions to see version IDs"), nil, nil
		}
		s, err := resolveSession(deps.Workspace, input.Session)
		if err != nil {
			return serviceError(err), nil, nil
		}
		restored, err := deps.Workspace.Sessions.RestoreVersion(ctx, s.ID, input.Version)
		if err != nil {
			return serviceError(err), nil, nil
		}
		return TextResult(fmt.Sprintf("Restored %s to version %s", restored.Name, input.Version)), nil, nil
	}
}

// NewCaptureVersionHandler records a version when the content changed since the newest one.
func NewCaptureVersionHandler(deps *Dependencies) mcp.ToolHandlerFor[SessionRef, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SessionRef) (*mcp.CallToolResult, any, error) {
		s, err := resolveSession(deps.Workspace, input.Session)
		if err != nil {
			return serviceError(err), nil, nil
		}
		updated, err := deps.Workspace.Orchestrator.Capture(ctx, s.ID)
		if err != nil {
			return serviceError(err), nil, nil
		}
		if len(updated.Versions) > 0 {
			return JSONResult(updated.Versions[0]), nil, nil
		}
		return TextResult("No versions recorded"), nil, nil
	}
}
