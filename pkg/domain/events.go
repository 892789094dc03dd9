package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnStart  EventType = "turn_start"
	EventTurnEnd    EventType = "turn_end"
	EventToolCall   EventType = "tool_call"
	EventToolReturn EventType = "tool_return"
	EventApproval   EventType = "approval"
	EventHandoff    EventType = "handoff"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// TurnEvent marks the start or end of a SubmitTurn/ResumeTurn call.
type TurnEvent struct {
	EventBase
	Controller string        `json:"controller"`
	Outcome    Outcome       `json:"outcome,omitempty"`
	Steps      int           `json:"steps,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// ToolEvent represents a tool execution.
type ToolEvent struct {
	EventBase
	Controller string         `json:"controller"`
	ActionID   string         `json:"action_id"`
	ToolName   string         `json:"tool_name"`
	Input      map[string]any `json:"input,omitempty"`
	Output     string         `json:"output,omitempty"`
	IsError    bool           `json:"is_error,omitempty"`
}

// ApprovalEvent records the host decision on a suspended batch.
type ApprovalEvent struct {
	EventBase
	Controller string   `json:"controller"`
	Tools      []string `json:"tools"`
	Approved   bool     `json:"approved"`
	Reason     string   `json:"reason,omitempty"`
}

// HandoffDirection distinguishes entry from escalation.
type HandoffDirection string

const (
	HandoffEnter    HandoffDirection = "enter"
	HandoffEscalate HandoffDirection = "escalate"
)

// HandoffEvent represents a dialog stack push or pop.
type HandoffEvent struct {
	EventBase
	From      string           `json:"from"`
	To        string           `json:"to"`
	Direction HandoffDirection `json:"direction"`
}

// LifecycleHooks defines callbacks for router observability.
type LifecycleHooks struct {
	OnTurnStart  func(context.Context, *TurnEvent)
	OnTurnEnd    func(context.Context, *TurnEvent)
	OnToolCall   func(context.Context, *ToolEvent)
	OnToolReturn func(context.Context, *ToolEvent)
	OnApproval   func(context.Context, *ApprovalEvent)
	OnHandoff    func(context.Context, *HandoffEvent)
}

// MergeHooks fans every callback out to each non-nil hook in order.
func MergeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range hooks {
		merged.OnTurnStart = chain(merged.OnTurnStart, h.OnTurnStart)
		merged.OnTurnEnd = chain(merged.OnTurnEnd, h.OnTurnEnd)
		merged.OnToolCall = chain(merged.OnToolCall, h.OnToolCall)
		merged.OnToolReturn = chain(merged.OnToolReturn, h.OnToolReturn)
		merged.OnApproval = chain(merged.OnApproval, h.OnApproval)
		merged.OnHandoff = chain(merged.OnHandoff, h.OnHandoff)
	}
	return merged
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
