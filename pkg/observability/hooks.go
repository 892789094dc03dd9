package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/switchboard/pkg/domain"
)

// LogHooks logs every router event at Info (tool calls at Debug).
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn_start", "session_id", e.SessionID, "controller", e.Controller)
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			logger.InfoContext(ctx, "turn_end",
				"session_id", e.SessionID,
				"controller", e.Controller,
				"outcome", e.Outcome,
				"steps", e.Steps,
				"duration", e.Duration,
			)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_call", "session_id", e.SessionID, "tool_name", e.ToolName, "action_id", e.ActionID)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_return",
				"session_id", e.SessionID,
				"tool_name", e.ToolName,
				"action_id", e.ActionID,
				"is_error", e.IsError,
			)
		},
		OnApproval: func(ctx context.Context, e *domain.ApprovalEvent) {
			logger.InfoContext(ctx, "approval",
				"session_id", e.SessionID,
				"controller", e.Controller,
				"tools", e.Tools,
				"approved", e.Approved,
			)
		},
		OnHandoff: func(ctx context.Context, e *domain.HandoffEvent) {
			logger.InfoContext(ctx, "handoff", "session_id", e.SessionID, "from", e.From, "to", e.To, "direction", e.Direction)
		},
	}
}

// Combine fans each event out to every hook set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			for _, h := range sets {
				if h.OnTurnStart != nil {
					h.OnTurnStart(ctx, e)
				}
			}
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			for _, h := range sets {
				if h.OnTurnEnd != nil {
					h.OnTurnEnd(ctx, e)
				}
			}
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			for _, h := range sets {
				if h.OnToolCall != nil {
					h.OnToolCall(ctx, e)
				}
			}
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			for _, h := range sets {
				if h.OnToolReturn != nil {
					h.OnToolReturn(ctx, e)
				}
			}
		},
		OnApproval: func(ctx context.Context, e *domain.ApprovalEvent) {
			for _, h := range sets {
				if h.OnApproval != nil {
					h.OnApproval(ctx, e)
				}
			}
		},
		OnHandoff: func(ctx context.Context, e *domain.HandoffEvent) {
			for _, h := range sets {
				if h.OnHandoff != nil {
					h.OnHandoff(ctx, e)
				}
			}
		},
	}
}
