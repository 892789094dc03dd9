package domain

// ToolResult answers exactly one ActionRequest.
type ToolResult struct {
	ActionID string `json:"action_id" yaml:"action_id" mapstructure:"action_id"` // Must match ActionRequest.ID
	Name     string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Text     string `json:"text" yaml:"text" mapstructure:"text"`
	IsError  bool   `json:"is_error,omitempty" yaml:"is_error,omitempty" mapstructure:"is_error"`
	IsDenied bool   `json:"is_denied,omitempty" yaml:"is_denied,omitempty" mapstructure:"is_denied"`
}

// Tool defines metadata about a tool offered to a controller.
// Parameters is a JSON Schema object, as expected by tool-calling models.
type Tool struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description string         `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}
