package domain

import "time"

// SessionStatus defines whether a session can take a new user turn.
type SessionStatus string

const (
	StatusActive           SessionStatus = "active"            // Ready for the next user turn
	StatusAwaitingApproval SessionStatus = "awaiting_approval" // Suspended on a sensitive batch
)

// Session context keys.
const (
	ContextUserID = "user_id"
)

// PendingApproval exists only between the suspend point and the approve/deny decision.
type PendingApproval struct {
	Controller string          `json:"controller"`
	Actions    []ActionRequest `json:"actions"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Session is the durable state bound to one session key.
type Session struct {
	ID           string           `json:"id"`
	Status       SessionStatus    `json:"status"`
	Conversation []Message        `json:"conversation"`
	Stack        DialogStack      `json:"stack"`
	Pending      *PendingApproval `json:"pending,omitempty"`

	// Context holds read-only session context (user identity, locale, ...).
	Context map[string]any `json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an empty, active session.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Status:    StatusActive,
		Context:   make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UserID returns the bound user identity, or "".
func (s *Session) UserID() string {
	id, _ := s.Context[ContextUserID].(string)
	return id
}

// ActiveController returns the top of the stack, or primary when it is empty.
func (s *Session) ActiveController(primary string) string {
	if top, ok := s.Stack.Top(); ok {
		return top
	}
	return primary
}

// Snapshot creates a deep copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Conversation = CloneConversation(s.Conversation)
	out.Stack = s.Stack.Clone()
	out.Context = copyMap(s.Context)
	if s.Pending != nil {
		p := *s.Pending
		p.Actions = cloneActions(s.Pending.Actions)
		out.Pending = &p
	}
	return &out
}
