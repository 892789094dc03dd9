package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// TurnEngine is the Turn API exposed to hosts (HTTP, MCP, chat).
type TurnEngine interface {
	// SubmitTurn appends a user message and runs the session until it replies,
	// suspends for approval, or fails fatally.
	SubmitTurn(ctx context.Context, sessionID, text string, opts ...domain.TurnOption) (domain.TurnResult, error)

	// ResumeTurn applies the approve/deny decision for the suspended batch.
	ResumeTurn(ctx context.Context, sessionID string, approved bool, reason string) (domain.TurnResult, error)

	// Session returns a snapshot of the stored session.
	Session(ctx context.Context, sessionID string) (*domain.Session, error)

	// Reset discards the session.
	Reset(ctx context.Context, sessionID string) error
}
