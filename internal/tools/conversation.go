package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/promptpad/internal/models"
)

// ConversationView is the show_conversation response.
type ConversationView struct {
	Session string        `json:"session"`
	State   string        `json:"state"`
	Turns   []models.Turn `json:"turns"`
	Error   string        `json:"error,omitempty"`
}

func conversationView(deps *Dependencies) ConversationView {
	ws := deps.Workspace
	view := ConversationView{
		State: string(ws.Orchestrator.State()),
		Turns: ws.Log.Turns(),
		Error: ws.Log.Err(),
	}
	if active, ok := ws.Sessions.Active(); ok {
		view.Session = active.Name
	}
	return view
}

// ShowConversationInput takes no arguments.
type ShowConversationInput struct{}

// NewShowConversationHandler returns the current conversation.
func NewShowConversationHandler(deps *Dependencies) mcp.ToolHandlerFor[ShowConversationInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ShowConversationInput) (*mcp.CallToolResult, any, error) {
		return JSONResult(conversationView(deps)), nil, nil
	}
}

// EditTurnInput defines the input schema for edit_turn.
type EditTurnInput struct {
	Index   int    `json:"index" jsonschema:"0-based turn index"`
	Content string `json:"content" jsonschema:"New turn content"`
}

// NewEditTurnHandler replaces the content of one turn.
func NewEditTurnHandler(deps *Dependencies) mcp.ToolHandlerFor[EditTurnInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input EditTurnInput) (*mcp.CallToolResult, any, error) {
		if err := deps.Workspace.Log.Edit(ctx, input.Index, input.Content); err != nil {
			return serviceError(err), nil, nil
		}
		return JSONResult(conversationView(deps)), nil, nil
	}
}

// SubmitInput defines the input schema for submit.
type SubmitInput struct {
	Index   *int   `json:"index,omitempty" jsonschema:"0-based user turn to submit (defaults to the last turn)"`
	Message string `json:"message,omitempty" jsonschema:"Text for the trailing user turn before submitting"`
}

// NewSubmitHandler sends the conversation up to a user turn to the
// selected model and waits for the reply. A failed completion is reported
// in the returned conversation's error field. Blank and assistant turns
// are not submitted.
//
// The request context only bounds the tool call. A submit, once started,
// runs to completion even if the client cancels.
func NewSubmitHandler(deps *Dependencies) mcp.ToolHandlerFor[SubmitInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SubmitInput) (*mcp.CallToolResult, any, error) {
		ctx = context.WithoutCancel(ctx)
		ws := deps.Workspace
		last := len(ws.Log.Turns()) - 1

		index := last
		if input.Index != nil {
			index = *input.Index
		}
		if input.Message != "" {
			if input.Index != nil && *input.Index != last {
				return ErrorResult("message can only be combined with the last turn", "Omit index or use edit_turn first"), nil, nil
			}
			if err := ws.Log.Edit(ctx, last, input.Message); err != nil {
				return serviceError(err), nil, nil
			}
		}

		turns := ws.Log.Turns()
		if index >= 0 && index < len(turns) && (turns[index].Role != models.RoleUser || turns[index].IsBlank()) {
			return TextResult("Nothing to submit: the turn is blank or not a user turn"), nil, nil
		}

		if err := ws.Orchestrator.Submit(ctx, index); err != nil {
			return serviceError(err), nil, nil
		}
		view := conversationView(deps)
		if view.Error != "" {
			return &mcp.CallToolResult{
				Content: JSONResult(view).Content,
				IsError: true,
			}, nil, nil
		}
		return JSONResult(view), nil, nil
	}
}

// ClearConversationInput takes no arguments.
type ClearConversationInput struct{}

// NewClearConversationHandler resets the conversation to one empty user turn.
func NewClearConversationHandler(deps *Dependencies) mcp.ToolHandlerFor[ClearConversationInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ClearConversationInput) (*mcp.CallToolResult, any, error) {
		if err := deps.Workspace.Log.Clear(ctx); err != nil {
			return serviceError(err), nil, nil
		}
		return TextResult("Conversation cleared"), nil, nil
	}
}
