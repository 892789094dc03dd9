package loam

// ControllerMetadata is the front matter of a controller document.
// The document body is the prompt template.
type ControllerMetadata struct {
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
	EntryTool   string `json:"entry_tool" mapstructure:"entry_tool"`

	// Safe and Sensitive are shorthands for safe_tools and sensitive_tools.
	SafeTools      []string `json:"safe_tools" mapstructure:"safe_tools"`
	Safe           []string `json:"safe" mapstructure:"safe"`
	SensitiveTools []string `json:"sensitive_tools" mapstructure:"sensitive_tools"`
	Sensitive      []string `json:"sensitive" mapstructure:"sensitive"`
}
