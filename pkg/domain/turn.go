package domain

import "strings"

// Outcome is the variant of a TurnResult.
type Outcome string

const (
	OutcomeReply            Outcome = "reply"
	OutcomeAwaitingApproval Outcome = "awaiting_approval"
	OutcomeFatal            Outcome = "fatal_error"
)

// ApprovalRequest names the sensitive batch the host must approve or deny.
type ApprovalRequest struct {
	Controller string          `json:"controller"`
	Actions    []ActionRequest `json:"actions"`
}

// ActionName returns the pending action name(s) for display.
func (a ApprovalRequest) ActionName() string {
	return strings.Join(ActionNames(a.Actions), ", ")
}

// Arguments returns the arguments of the first pending action.
func (a ApprovalRequest) Arguments() map[string]any {
	if len(a.Actions) == 0 {
		return nil
	}
	return a.Actions[0].Arguments
}

// TurnResult is what the Turn API hands back to the host.
// Exactly one of Reply, Approval or Error is meaningful, selected by Outcome.
type TurnResult struct {
	SessionID  string           `json:"session_id"`
	Outcome    Outcome          `json:"outcome"`
	Controller string           `json:"controller"`
	Reply      string           `json:"reply,omitempty"`
	Approval   *ApprovalRequest `json:"awaiting_approval,omitempty"`
	Error      string           `json:"fatal_error,omitempty"`

	// Err carries the typed cause of a fatal outcome.
	Err error `json:"-"`
}

// ReplyResult builds a reply outcome.
func ReplyResult(controller, text string) TurnResult {
	return TurnResult{Outcome: OutcomeReply, Controller: controller, Reply: text}
}

// ApprovalResult builds an awaiting-approval outcome.
func ApprovalResult(pending *PendingApproval) TurnResult {
	return TurnResult{
		Outcome:    OutcomeAwaitingApproval,
		Controller: pending.Controller,
		Approval: &ApprovalRequest{
			Controller: pending.Controller,
			Actions:    cloneActions(pending.Actions),
		},
	}
}

// FatalResult builds a fatal outcome.
func FatalResult(controller string, err error) TurnResult {
	return TurnResult{Outcome: OutcomeFatal, Controller: controller, Error: err.Error(), Err: err}
}

// TurnOptions carries per-call settings of SubmitTurn.
type TurnOptions struct {
	UserID string
}

// TurnOption configures a single SubmitTurn call.
type TurnOption func(*TurnOptions)

// WithUserID binds the user identity to the session on its first turn.
func WithUserID(id string) TurnOption {
	return func(o *TurnOptions) {
		o.UserID = id
	}
}

// ApplyTurnOptions folds opts into a TurnOptions value.
func ApplyTurnOptions(opts ...TurnOption) TurnOptions {
	var o TurnOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
