package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// ReasoningRequest is everything a reasoning engine sees for one call.
type ReasoningRequest struct {
	Controller   string
	Prompt       string // Rendered system prompt
	Conversation []domain.Message
	Tools        []domain.Tool
}

// Reasoner is the black-box decision engine behind every controller.
// It must report tool calls as structured ActionRequests, never as free text.
type Reasoner interface {
	Reason(ctx context.Context, req ReasoningRequest) (domain.Message, error)
}

// ReasonerFunc adapts a function to the Reasoner interface.
type ReasonerFunc func(ctx context.Context, req ReasoningRequest) (domain.Message, error)

func (f ReasonerFunc) Reason(ctx context.Context, req ReasoningRequest) (domain.Message, error) {
	return f(ctx, req)
}
