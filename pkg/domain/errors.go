package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNoPendingApproval is returned by a resume when nothing is awaiting approval.
var ErrNoPendingApproval = errors.New("no action is awaiting approval")

// ErrApprovalPending is returned when a user turn arrives while a sensitive batch is suspended.
var ErrApprovalPending = errors.New("session is awaiting an approval decision")

var (
	ErrMissingUserID      = errors.New("no user identity bound to the session")
	ErrMissingSessionID   = errors.New("session id is required")
	ErrEmptyConversation  = errors.New("conversation is empty")
	ErrDegenerateReply    = errors.New("controller produced no text and no actions")
	ErrStepLimitExceeded  = errors.New("tool-call loop exceeded the step limit")
	ErrUnknownController  = errors.New("unknown controller")
	ErrDuplicateTool      = errors.New("tool already registered")
	ErrInvalidDescriptors = errors.New("invalid controller set")
)

// ErrorKind classifies fatal turn errors.
type ErrorKind string

const (
	KindConfig     ErrorKind = "config"
	KindDegenerate ErrorKind = "degenerate_reply"
	KindLoop       ErrorKind = "loop_overrun"
	KindReasoning  ErrorKind = "reasoning"
	KindTimeout    ErrorKind = "timeout"
)

// TurnError is a fatal turn error. The session stays usable for the next turn.
type TurnError struct {
	Kind ErrorKind
	Err  error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// NewTurnError wraps err as a fatal turn error of the given kind.
func NewTurnError(kind ErrorKind, err error) *TurnError {
	return &TurnError{Kind: kind, Err: err}
}
