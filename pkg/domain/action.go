package domain

// ActionRequest is a structured intent produced by a controller.
// Name is a concrete tool name, an entry tool of a specialized controller,
// or EscalationTool.
type ActionRequest struct {
	ID        string         `json:"id" yaml:"id" mapstructure:"id"`
	Name      string         `json:"name" yaml:"name" mapstructure:"name"`
	Arguments map[string]any `json:"arguments,omitempty" yaml:"arguments,omitempty" mapstructure:"arguments"`
}

// Clone returns a deep copy of the request.
func (a ActionRequest) Clone() ActionRequest {
	a.Arguments = copyMap(a.Arguments)
	return a
}

// IsEscalation reports whether the request hands control back to the primary controller.
func (a ActionRequest) IsEscalation() bool {
	return a.Name == EscalationTool
}

// ActionNames returns the names of the requests, in order.
func ActionNames(actions []ActionRequest) []string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.Name
	}
	return names
}

func cloneActions(actions []ActionRequest) []ActionRequest {
	if actions == nil {
		return nil
	}
	out := make([]ActionRequest, len(actions))
	for i, a := range actions {
		out[i] = a.Clone()
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
