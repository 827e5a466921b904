package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	// Sessions
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List prompt sessions in display order with their IDs and version counts",
	}, NewListSessionsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_session",
		Description: "Get a session's system prompt content and versions",
	}, NewGetSessionHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_session",
		Description: "Create a session, optionally with initial content, and make it active",
	}, NewCreateSessionHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_session",
		Description: "Remove a session. At least one session always remains",
	}, NewRemoveSessionHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rename_session",
		Description: "Rename a session",
	}, NewRenameSessionHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_session",
		Description: "Make a session active. Resets the conversation",
	}, NewSelectSessionHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reorder_sessions",
		Description: "Reorder sessions by passing every session ID in the new order",
	}, NewReorderSessionsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_content",
		Description: "Replace a session's system prompt content. Does not record a version",
	}, NewUpdateContentHandler(deps))

	// Versions
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_versions",
		Description: "List a session's content versions, newest first (at most 10)",
	}, NewListVersionsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "restore_version",
		Description: "Replace a session's content with a stored version",
	}, NewRestoreVersionHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "capture_version",
		Description: "Record a version with a change description if the content changed",
	}, NewCaptureVersionHandler(deps))

	// Conversation
	mcp.AddTool(server, &mcp.Tool{
		Name:        "show_conversation",
		Description: "Show the conversation turns, submit state and last error",
	}, NewShowConversationHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "edit_turn",
		Description: "Replace the content of a conversation turn by 0-based index",
	}, NewEditTurnHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "submit",
		Description: "Send the conversation up to a user turn to the selected model using the active session as system prompt",
	}, NewSubmitHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_conversation",
		Description: "Reset the conversation to a single empty user turn",
	}, NewClearConversationHandler(deps))

	// Models
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_models",
		Description: "List configured models and the effective selection",
	}, NewListModelsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_model",
		Description: "Add a model configuration",
	}, NewAddModelHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_model",
		Description: "Select the model used for completions",
	}, NewSelectModelHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stats",
		Description: "Report session, version and turn counts with completion and store timings",
	}, NewStatsHandler(deps))
}
