package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// DefaultSessionID is used when no session is configured.
const DefaultSessionID = "default"

// Runner handles the chat loop against a TurnEngine using the provided IO.
type Runner struct {
	// Handler is the strategy for IO. If nil, a Text or JSON handler is
	// built over Input/Output depending on Headless.
	Handler IOHandler

	// Policy decides on approval requests. If nil, the user is asked.
	Policy ApprovalPolicy

	Logger    *slog.Logger
	SessionID string
	UserID    string

	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:     os.Stdin,
		Output:    os.Stdout,
		Logger:    logging.NewNop(),
		SessionID: DefaultSessionID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads user lines and submits them as turns until EOF, "exit"/"quit",
// an interrupt at the prompt, or ctx is done. An interrupt while a turn is
// running aborts only that turn.
// A session left awaiting approval by a previous run is settled first.
func (r *Runner) Run(ctx context.Context, engine ports.TurnEngine) error {
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.SessionID == "" {
		r.SessionID = DefaultSessionID
	}
	handler := r.resolveHandler()
	policy := r.resolvePolicy(handler)

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	if err := r.settlePending(signals.Context(), engine, handler, policy); err != nil {
		if signals.Interrupted() {
			return nil
		}
		return err
	}

	for {
		text, err := handler.Input(signals.Context())
		if err != nil {
			signals.CheckRace()
			if signals.Interrupted() {
				r.Logger.Debug("chat interrupted at prompt", "session_id", r.SessionID)
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		switch text {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := r.turn(signals.Context(), engine, handler, policy, text); err != nil {
			if !signals.Interrupted() {
				return err
			}
		}
		if signals.Interrupted() {
			if ctx.Err() != nil {
				return nil
			}
			_ = handler.SystemOutput(ctx, "turn interrupted")
			signals.Reset()
		}
	}
}

func (r *Runner) turn(ctx context.Context, engine ports.TurnEngine, handler IOHandler, policy ApprovalPolicy, text string) error {
	var opts []domain.TurnOption
	if r.UserID != "" {
		opts = append(opts, domain.WithUserID(r.UserID))
	}
	res, err := engine.SubmitTurn(ctx, r.SessionID, text, opts...)
	switch {
	case errors.Is(err, domain.ErrApprovalPending):
		return r.settlePending(ctx, engine, handler, policy)
	case err != nil:
		return fmt.Errorf("submit turn: %w", err)
	}
	return r.settle(ctx, engine, handler, policy, res)
}

// settlePending resumes a session that is already suspended, if any.
func (r *Runner) settlePending(ctx context.Context, engine ports.TurnEngine, handler IOHandler, policy ApprovalPolicy) error {
	sess, err := engine.Session(ctx, r.SessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess.Status != domain.StatusAwaitingApproval || sess.Pending == nil {
		return nil
	}
	res := domain.ApprovalResult(sess.Pending)
	res.SessionID = sess.ID
	return r.settle(ctx, engine, handler, policy, res)
}

// settle prints res and keeps resuming while the engine asks for approval.
func (r *Runner) settle(ctx context.Context, engine ports.TurnEngine, handler IOHandler, policy ApprovalPolicy, res domain.TurnResult) error {
	for {
		if err := handler.Output(ctx, res); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		if res.Outcome != domain.OutcomeAwaitingApproval || res.Approval == nil {
			return nil
		}

		d, err := policy(ctx, *res.Approval)
		if err != nil {
			return fmt.Errorf("approval policy: %w", err)
		}
		r.Logger.Info("approval decided", "session_id", r.SessionID, "actions", res.Approval.ActionName(), "approved", d.Approved)

		res, err = engine.ResumeTurn(ctx, r.SessionID, d.Approved, d.Reason)
		if err != nil {
			return fmt.Errorf("resume turn: %w", err)
		}
	}
}

func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	if r.Headless {
		r.Handler = NewJSONHandler(r.Input, r.Output)
	} else {
		r.Handler = NewTextHandler(r.Input, r.Output, WithTextHandlerRenderer(r.Renderer))
	}
	return r.Handler
}

func (r *Runner) resolvePolicy(h IOHandler) ApprovalPolicy {
	if r.Policy != nil {
		return r.Policy
	}
	return ConfirmationMiddleware(h)
}
