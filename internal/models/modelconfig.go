package models

// ModelConfig describes one model the completion service can be asked for.
type ModelConfig struct {
	ModelID   string `json:"modelId" yaml:"model_id"`
	ModelName string `json:"modelName" yaml:"model_name"`
	APIToken  string `json:"apiToken" yaml:"-"`
}

// ModelConfigs is the persisted model configuration.
type ModelConfigs struct {
	Models          []ModelConfig `json:"models" yaml:"models"`
	SelectedModelID *string       `json:"selectedModelId" yaml:"selected_model_id"`
	APIToken        string        `json:"apiToken" yaml:"-"`
}

// ModelSelection is what a completion call needs to know about the model.
// Model is nil when nothing is configured.
type ModelSelection struct {
	Model    *ModelConfig
	APIToken string
}

// Ready reports whether a completion request can be issued.
func (s ModelSelection) Ready() bool {
	return s.Model != nil && s.Model.ModelID != "" && s.APIToken != ""
}

// Selection resolves the selected model: the one matching SelectedModelID,
// or the first configured model when no ID is selected. The global token
// wins over the model's own token.
func (c ModelConfigs) Selection() ModelSelection {
	var model *ModelConfig
	if c.SelectedModelID != nil {
		for i := range c.Models {
			if c.Models[i].ModelID == *c.SelectedModelID {
				m := c.Models[i]
				model = &m
				break
			}
		}
	} else if len(c.Models) > 0 {
		m := c.Models[0]
		model = &m
	}

	token := c.APIToken
	if token == "" && model != nil {
		token = model.APIToken
	}
	return ModelSelection{Model: model, APIToken: token}
}
