package runtime

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

func (r *Router) base(s *domain.Session, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: r.clock().UTC(), Type: t, SessionID: s.ID}
}

func (r *Router) emitTurnStart(ctx context.Context, s *domain.Session) {
	if r.hooks.OnTurnStart == nil {
		return
	}
	r.hooks.OnTurnStart(ctx, &domain.TurnEvent{
		EventBase:  r.base(s, domain.EventTurnStart),
		Controller: s.ActiveController(r.primary),
	})
}

func (r *Router) emitToolCall(ctx context.Context, s *domain.Session, controller string, a domain.ActionRequest) {
	if r.hooks.OnToolCall == nil {
		return
	}
	r.hooks.OnToolCall(ctx, &domain.ToolEvent{
		EventBase:  r.base(s, domain.EventToolCall),
		Controller: controller,
		ActionID:   a.ID,
		ToolName:   a.Name,
		Input:      a.Arguments,
	})
}

func (r *Router) emitToolReturn(ctx context.Context, s *domain.Session, controller string, res domain.ToolResult) {
	if r.hooks.OnToolReturn == nil {
		return
	}
	r.hooks.OnToolReturn(ctx, &domain.ToolEvent{
		EventBase:  r.base(s, domain.EventToolReturn),
		Controller: controller,
		ActionID:   res.ActionID,
		ToolName:   res.Name,
		Output:     res.Text,
		IsError:    res.IsError,
	})
}

func (r *Router) emitApproval(ctx context.Context, s *domain.Session, p *domain.PendingApproval, approved bool, reason string) {
	if r.hooks.OnApproval == nil {
		return
	}
	r.hooks.OnApproval(ctx, &domain.ApprovalEvent{
		EventBase:  r.base(s, domain.EventApproval),
		Controller: p.Controller,
		Tools:      domain.ActionNames(p.Actions),
		Approved:   approved,
		Reason:     reason,
	})
}

func (r *Router) emitHandoff(ctx context.Context, s *domain.Session, from, to string, dir domain.HandoffDirection) {
	if r.hooks.OnHandoff == nil {
		return
	}
	r.hooks.OnHandoff(ctx, &domain.HandoffEvent{
		EventBase: r.base(s, domain.EventHandoff),
		From:      from,
		To:        to,
		Direction: dir,
	})
}
