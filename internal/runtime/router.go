package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
)

// Executor runs a batch of action requests. results[i] must answer reqs[i].
type Executor interface {
	ExecuteBatch(ctx context.Context, reqs []domain.ActionRequest) []domain.ToolResult
}

// RouterConfig tunes a Router.
type RouterConfig struct {
	// MaxSteps bounds controller invocations per Submit/Resume call.
	MaxSteps int
	Hooks    domain.LifecycleHooks
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Router drives one session through its controllers until the turn yields a
// reply, suspends on a sensitive batch, or fails.
//
// The router is stateless: everything it touches lives in the *domain.Session
// passed in, and callers serialize access per session.
type Router struct {
	primary     string
	controllers map[string]*Controller
	entries     map[string]string
	order       []string
	executor    Executor
	maxSteps    int
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	clock       func() time.Time
}

// NewRouter wires controllers under primary. Every specialized controller needs
// a distinct entry tool.
func NewRouter(primary string, controllers []*Controller, exec Executor, cfg RouterConfig) (*Router, error) {
	if exec == nil {
		return nil, fmt.Errorf("%w: executor is required", domain.ErrInvalidDescriptors)
	}
	r := &Router{
		primary:     primary,
		controllers: make(map[string]*Controller, len(controllers)),
		entries:     make(map[string]string),
		executor:    exec,
		maxSteps:    cfg.MaxSteps,
		hooks:       cfg.Hooks,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
	}
	if r.maxSteps < 1 {
		r.maxSteps = domain.DefaultMaxSteps
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.clock == nil {
		r.clock = time.Now
	}

	for _, c := range controllers {
		name := c.Name()
		if _, dup := r.controllers[name]; dup {
			return nil, fmt.Errorf("%w: duplicate controller %q", domain.ErrInvalidDescriptors, name)
		}
		r.controllers[name] = c
		r.order = append(r.order, name)

		desc := c.Descriptor()
		if !desc.Specialized() {
			continue
		}
		if prev, dup := r.entries[desc.EntryTool]; dup {
			return nil, fmt.Errorf("%w: entry tool %q used by %q and %q", domain.ErrInvalidDescriptors, desc.EntryTool, prev, name)
		}
		r.entries[desc.EntryTool] = name
	}

	root, ok := r.controllers[primary]
	if !ok {
		return nil, fmt.Errorf("%w: primary controller %q", domain.ErrUnknownController, primary)
	}
	if root.Descriptor().Specialized() {
		return nil, fmt.Errorf("%w: primary controller %q must not declare an entry tool", domain.ErrInvalidDescriptors, primary)
	}
	return r, nil
}

// Primary returns the name of the controller active on an empty stack.
func (r *Router) Primary() string {
	return r.primary
}

// Descriptors returns the registered controller descriptors in registration order.
func (r *Router) Descriptors() []domain.Descriptor {
	out := make([]domain.Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.controllers[name].Descriptor())
	}
	return out
}

// Controller looks a controller up by name.
func (r *Router) Controller(name string) (*Controller, bool) {
	c, ok := r.controllers[name]
	return c, ok
}

// Submit appends the user message and runs the turn. A non-nil error means the
// call was rejected and s is unchanged; turn failures are reported as a fatal
// TurnResult instead.
func (r *Router) Submit(ctx context.Context, s *domain.Session, text string) (domain.TurnResult, error) {
	if s.Status == domain.StatusAwaitingApproval || s.Pending != nil {
		return domain.TurnResult{}, domain.ErrApprovalPending
	}

	start := r.clock()
	r.emitTurnStart(ctx, s)

	var (
		res   domain.TurnResult
		steps int
	)
	if s.UserID() == "" {
		res = domain.FatalResult(s.ActiveController(r.primary), domain.NewTurnError(domain.KindConfig, domain.ErrMissingUserID))
	} else {
		s.Conversation = append(s.Conversation, domain.UserMessage(text))
		res, steps = r.run(ctx, s)
	}

	return r.finish(ctx, s, res, steps, start), nil
}

// Resume applies the host decision on the suspended batch and continues the
// turn. Denied actions are answered with error results carrying the reason.
func (r *Router) Resume(ctx context.Context, s *domain.Session, approved bool, reason string) (domain.TurnResult, error) {
	if s.Status != domain.StatusAwaitingApproval || s.Pending == nil {
		return domain.TurnResult{}, domain.ErrNoPendingApproval
	}

	start := r.clock()
	r.emitTurnStart(ctx, s)

	pending := s.Pending
	r.emitApproval(ctx, s, pending, approved, reason)

	var results []domain.ToolResult
	if approved {
		r.logger.Info("sensitive actions approved", "session_id", s.ID, "controller", pending.Controller, "tools", domain.ActionNames(pending.Actions))
		results = r.execute(ctx, s, pending.Controller, pending.Actions)
	} else {
		r.logger.Info("sensitive actions denied", "session_id", s.ID, "controller", pending.Controller, "tools", domain.ActionNames(pending.Actions), "reason", reason)
		results = denials(pending.Actions, reason)
	}

	s.Pending = nil
	s.Status = domain.StatusActive
	appendResults(s, results)

	res, steps := r.run(ctx, s)
	return r.finish(ctx, s, res, steps, start), nil
}

func (r *Router) run(ctx context.Context, s *domain.Session) (domain.TurnResult, int) {
	sc := SessionContext{UserID: s.UserID()}

	for step := 0; ; step++ {
		name := s.ActiveController(r.primary)
		ctrl, ok := r.controllers[name]
		if !ok {
			return domain.FatalResult(name, domain.NewTurnError(domain.KindConfig, fmt.Errorf("%w: %q", domain.ErrUnknownController, name))), step
		}
		if step >= r.maxSteps {
			r.logger.Error("step limit exceeded", "session_id", s.ID, "controller", name, "max_steps", r.maxSteps)
			return domain.FatalResult(name, domain.NewTurnError(domain.KindLoop, fmt.Errorf("%w after %d controller calls", domain.ErrStepLimitExceeded, r.maxSteps))), step
		}
		if err := ctx.Err(); err != nil {
			return domain.FatalResult(name, domain.NewTurnError(domain.KindTimeout, err)), step
		}

		sc.Now = r.clock()
		reply, err := ctrl.Invoke(ctx, s.Conversation, sc)
		if err != nil {
			r.logger.Error("controller failed", "session_id", s.ID, "controller", name, "error", err)
			return domain.FatalResult(name, domain.NewTurnError(errorKind(ctx, err), err)), step + 1
		}
		s.Conversation = append(s.Conversation, reply)

		route := NextRoute(ctrl.desc, reply.Actions, r.entries)
		r.logger.Debug("controller replied", "session_id", s.ID, "controller", name, "step", step, "actions", len(reply.Actions), "route", route.String())

		switch route {
		case RouteReply:
			return domain.ReplyResult(name, reply.Text), step + 1
		case RouteEscalate:
			r.escalate(ctx, s, name, reply)
		case RouteEnter:
			r.enter(ctx, s, name, reply)
		case RouteSafe:
			appendResults(s, r.execute(ctx, s, name, reply.Actions))
		case RouteSensitive:
			s.Pending = &domain.PendingApproval{
				Controller: name,
				Actions:    cloneActions(reply.Actions),
				CreatedAt:  r.clock().UTC(),
			}
			s.Status = domain.StatusAwaitingApproval
			r.logger.Info("turn suspended for approval", "session_id", s.ID, "controller", name, "tools", domain.ActionNames(reply.Actions))
			return domain.ApprovalResult(s.Pending), step + 1
		}
	}
}

func (r *Router) escalate(ctx context.Context, s *domain.Session, from string, reply domain.Message) {
	ack := Escalate(s.Conversation, &s.Stack)
	to := s.ActiveController(r.primary)

	handled := ""
	if ack != nil {
		handled = ack.ActionID
	}
	results := make([]domain.ToolResult, 0, len(reply.Actions))
	for _, a := range reply.Actions {
		if a.ID == handled {
			results = append(results, *ack)
			continue
		}
		results = append(results, skipped(a, domain.EscalationTool))
	}
	appendResults(s, results)

	r.logger.Info("controller escalated", "session_id", s.ID, "from", from, "to", to)
	r.emitHandoff(ctx, s, from, to, domain.HandoffEscalate)
}

func (r *Router) enter(ctx context.Context, s *domain.Session, from string, reply domain.Message) {
	idx, target, _ := entryTarget(reply.Actions, r.entries)
	entry := reply.Actions[idx]
	desc := r.controllers[target].desc

	s.Stack.Push(target)

	results := make([]domain.ToolResult, 0, len(reply.Actions))
	for i, a := range reply.Actions {
		if i == idx {
			results = append(results, domain.ToolResult{
				ActionID: a.ID,
				Name:     a.Name,
				Text:     fmt.Sprintf(domain.EntryAnnouncement, desc.Description),
			})
			continue
		}
		results = append(results, skipped(a, entry.Name))
	}
	appendResults(s, results)

	r.logger.Info("controller entered", "session_id", s.ID, "from", from, "to", target)
	r.emitHandoff(ctx, s, from, target, domain.HandoffEnter)
}

func (r *Router) execute(ctx context.Context, s *domain.Session, controller string, actions []domain.ActionRequest) []domain.ToolResult {
	for _, a := range actions {
		r.emitToolCall(ctx, s, controller, a)
	}
	results := r.executor.ExecuteBatch(domain.ContextWithUserID(ctx, s.UserID()), actions)
	for _, res := range results {
		if res.IsError {
			r.logger.Warn("tool returned error", "session_id", s.ID, "controller", controller, "tool", res.Name, "action_id", res.ActionID)
		}
		r.emitToolReturn(ctx, s, controller, res)
	}
	return results
}

func (r *Router) finish(ctx context.Context, s *domain.Session, res domain.TurnResult, steps int, start time.Time) domain.TurnResult {
	res.SessionID = s.ID
	s.UpdatedAt = r.clock().UTC()
	if r.hooks.OnTurnEnd != nil {
		r.hooks.OnTurnEnd(ctx, &domain.TurnEvent{
			EventBase:  r.base(s, domain.EventTurnEnd),
			Controller: res.Controller,
			Outcome:    res.Outcome,
			Steps:      steps,
			Duration:   r.clock().Sub(start),
		})
	}
	return res
}

func appendResults(s *domain.Session, results []domain.ToolResult) {
	for _, res := range results {
		s.Conversation = append(s.Conversation, domain.ResultMessage(res))
	}
}

func denials(actions []domain.ActionRequest, reason string) []domain.ToolResult {
	text := domain.DenialNoReason
	if reason != "" {
		text = fmt.Sprintf(domain.DenialWithReason, reason)
	}
	out := make([]domain.ToolResult, len(actions))
	for i, a := range actions {
		out[i] = domain.ToolResult{ActionID: a.ID, Name: a.Name, Text: text, IsError: true, IsDenied: true}
	}
	return out
}

func skipped(a domain.ActionRequest, handledBy string) domain.ToolResult {
	return domain.ToolResult{
		ActionID: a.ID,
		Name:     a.Name,
		Text:     fmt.Sprintf(domain.SkippedAction, handledBy),
		IsError:  true,
	}
}

func cloneActions(actions []domain.ActionRequest) []domain.ActionRequest {
	out := make([]domain.ActionRequest, len(actions))
	for i, a := range actions {
		out[i] = a.Clone()
	}
	return out
}

func errorKind(ctx context.Context, err error) domain.ErrorKind {
	switch {
	case errors.Is(err, domain.ErrDegenerateReply):
		return domain.KindDegenerate
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return domain.KindTimeout
	default:
		return domain.KindReasoning
	}
}
