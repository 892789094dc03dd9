package domain

import (
	"fmt"
	"slices"
)

// Descriptor is the immutable configuration of one controller.
// A single instance is shared, read-only, by every session.
type Descriptor struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description" yaml:"description" mapstructure:"description"`

	// Prompt is a text/template rendered with PromptData before each reasoning call.
	Prompt string `json:"prompt" yaml:"prompt" mapstructure:"prompt"`

	// EntryTool is the action name the primary controller uses to delegate here.
	// It is empty for the primary controller.
	EntryTool string `json:"entry_tool,omitempty" yaml:"entry_tool,omitempty" mapstructure:"entry_tool"`

	SafeTools      []string `json:"safe_tools,omitempty" yaml:"safe_tools,omitempty" mapstructure:"safe_tools"`
	SensitiveTools []string `json:"sensitive_tools,omitempty" yaml:"sensitive_tools,omitempty" mapstructure:"sensitive_tools"`
}

// PromptData is the data available to a controller prompt template.
type PromptData struct {
	UserInfo string
	Time     string
}

// IsSafe reports whether name may run without approval.
func (d Descriptor) IsSafe(name string) bool {
	return slices.Contains(d.SafeTools, name)
}

// IsSensitive reports whether name requires approval.
func (d Descriptor) IsSensitive(name string) bool {
	return slices.Contains(d.SensitiveTools, name)
}

// Specialized reports whether the controller can be entered from the primary one.
func (d Descriptor) Specialized() bool {
	return d.EntryTool != ""
}

// Tools returns the declared tool names, safe first.
func (d Descriptor) Tools() []string {
	out := make([]string, 0, len(d.SafeTools)+len(d.SensitiveTools))
	out = append(out, d.SafeTools...)
	return append(out, d.SensitiveTools...)
}

// Clone returns a copy that shares no slices with d.
func (d Descriptor) Clone() Descriptor {
	d.SafeTools = slices.Clone(d.SafeTools)
	d.SensitiveTools = slices.Clone(d.SensitiveTools)
	return d
}

// Validate checks the descriptor is self-consistent.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("controller descriptor: name is required")
	}
	for _, name := range d.SafeTools {
		if d.IsSensitive(name) {
			return fmt.Errorf("controller %q: tool %q is declared both safe and sensitive", d.Name, name)
		}
	}
	for _, name := range d.Tools() {
		if name == EscalationTool {
			return fmt.Errorf("controller %q: %s is reserved", d.Name, EscalationTool)
		}
	}
	return nil
}
