package domain

import "strings"

// Role tags which variant a Message carries.
type Role string

const (
	RoleUser       Role = "user"
	RoleController Role = "controller"
	RoleTool       Role = "tool"
)

// Message is one entry of a conversation.
//
//   - RoleUser: Text holds what the user typed.
//   - RoleController: Text and/or Actions hold the controller reply.
//   - RoleTool: Result answers a previous ActionRequest.
type Message struct {
	Role       Role            `json:"role"`
	Text       string          `json:"text,omitempty"`
	Controller string          `json:"controller,omitempty"`
	Actions    []ActionRequest `json:"actions,omitempty"`
	Result     *ToolResult     `json:"result,omitempty"`
}

// UserMessage builds a user entry.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// ReplyMessage builds a controller reply.
func ReplyMessage(text string, actions ...ActionRequest) Message {
	return Message{Role: RoleController, Text: text, Actions: actions}
}

// ResultMessage wraps a ToolResult as a conversation entry.
func ResultMessage(result ToolResult) Message {
	return Message{Role: RoleTool, Text: result.Text, Result: &result}
}

// IsDegenerate reports a controller reply with no text and no actions.
func (m Message) IsDegenerate() bool {
	return m.Role == RoleController && strings.TrimSpace(m.Text) == "" && len(m.Actions) == 0
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	m.Actions = cloneActions(m.Actions)
	if m.Result != nil {
		r := *m.Result
		m.Result = &r
	}
	return m
}

// CloneConversation deep copies a conversation.
func CloneConversation(conv []Message) []Message {
	if conv == nil {
		return nil
	}
	out := make([]Message, len(conv))
	for i, m := range conv {
		out[i] = m.Clone()
	}
	return out
}

// Unanswered returns the action requests that have no matching ToolResult yet.
func Unanswered(conv []Message) []ActionRequest {
	answered := make(map[string]bool)
	for _, m := range conv {
		if m.Role == RoleTool && m.Result != nil {
			answered[m.Result.ActionID] = true
		}
	}
	var open []ActionRequest
	for _, m := range conv {
		if m.Role != RoleController {
			continue
		}
		for _, a := range m.Actions {
			if !answered[a.ID] {
				open = append(open, a)
			}
		}
	}
	return open
}

// LastReply returns the most recent controller reply, if any.
func LastReply(conv []Message) (Message, bool) {
	for i := len(conv) - 1; i >= 0; i-- {
		if conv[i].Role == RoleController {
			return conv[i], true
		}
	}
	return Message{}, false
}
