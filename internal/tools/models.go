package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/promptpad/internal/models"
)

// ModelsView is the list_models response. Tokens are never returned.
type ModelsView struct {
	Models          []models.ModelConfig `json:"models"`
	SelectedModelID string               `json:"selected_model_id,omitempty"`
	TokenSet        bool                 `json:"token_set"`
	Ready           bool                 `json:"ready"`
}

// ListModelsInput takes no arguments.
type ListModelsInput struct{}

// NewListModelsHandler lists configured models and the effective selection.
func NewListModelsHandler(deps *Dependencies) mcp.ToolHandlerFor[ListModelsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListModelsInput) (*mcp.CallToolResult, any, error) {
		cfg := deps.Workspace.Models.List()
		sel := deps.Workspace.Models.Selection()

		view := ModelsView{
			Models:   cfg.Models,
			TokenSet: sel.APIToken != "",
			Ready:    sel.Ready(),
		}
		for i := range view.Models {
			view.Models[i].APIToken = ""
		}
		if sel.Model != nil {
			view.SelectedModelID = sel.Model.ModelID
		}
		return JSONResult(view), nil, nil
	}
}

// AddModelInput defines the input schema for add_model.
type AddModelInput struct {
	ModelID string `json:"model_id" jsonschema:"Model or endpoint ID sent as the request model"`
	Name    string `json:"name,omitempty" jsonschema:"Display name (defaults to the ID)"`
}

// NewAddModelHandler adds a model configuration.
func NewAddModelHandler(deps *Dependencies) mcp.ToolHandlerFor[AddModelInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AddModelInput) (*mcp.CallToolResult, any, error) {
		m := models.ModelConfig{ModelID: input.ModelID, ModelName: input.Name}
		if err := deps.Workspace.Models.Add(ctx, m); err != nil {
			return serviceError(err), nil, nil
		}
		return TextResult(fmt.Sprintf("Added %s", input.ModelID)), nil, nil
	}
}

// SelectModelInput defines the input schema for select_model.
type SelectModelInput struct {
	ModelID string `json:"model_id" jsonschema:"ID of a configured model"`
}

// NewSelectModelHandler selects the model used for completions.
func NewSelectModelHandler(deps *Dependencies) mcp.ToolHandlerFor[SelectModelInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SelectModelInput) (*mcp.CallToolResult, any, error) {
		if err := deps.Workspace.Models.Select(ctx, input.ModelID); err != nil {
			return serviceError(err), nil, nil
		}
		return TextResult(fmt.Sprintf("Selected %s", input.ModelID)), nil, nil
	}
}
