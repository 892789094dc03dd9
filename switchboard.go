package switchboard

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/adapters/loam"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/aretw0/switchboard/pkg/session"
)

var _ ports.TurnEngine = (*Engine)(nil)

// Engine is the Turn API. It owns the router, the tool registry and the
// session manager, and serializes turns per session.
type Engine struct {
	router   *runtime.Router
	sessions *session.Manager
	registry *registry.Registry

	source   ports.DescriptorSource
	reasoner ports.Reasoner
	store    ports.StateStore
	locker   ports.DistributedLocker
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	clock    func() time.Time

	maxSteps      int
	maxAttempts   int
	fallbackReply string
	turnTimeout   time.Duration
	defaultUserID string
	lockTTL       time.Duration

	// Name labels the controller set, usually the directory it was loaded from.
	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithReasoner sets the reasoning engine behind every controller. Required.
func WithReasoner(r ports.Reasoner) Option {
	return func(e *Engine) {
		e.reasoner = r
	}
}

// WithRegistry provides the domain tools. Every tool a descriptor declares must be registered.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithDescriptorSource injects a custom descriptor source, bypassing the default Loam directory.
func WithDescriptorSource(src ports.DescriptorSource) Option {
	return func(e *Engine) {
		e.source = src
	}
}

// WithDescriptors uses a fixed set of controllers.
func WithDescriptors(descs ...domain.Descriptor) Option {
	return func(e *Engine) {
		e.source = memory.NewSource(descs...)
	}
}

// WithStore persists sessions in store instead of memory.
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed session locking for multi-replica hosts.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL bounds how long a distributed session lock is held.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithMaxSteps caps reasoning calls per turn (default 25).
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithMaxAttempts caps reasoning attempts on degenerate replies (default 3).
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		e.maxAttempts = n
	}
}

// WithFallbackReply turns exhausted degenerate retries into this reply instead of a fatal error.
func WithFallbackReply(text string) Option {
	return func(e *Engine) {
		e.fallbackReply = text
	}
}

// WithTurnTimeout bounds each SubmitTurn and ResumeTurn call.
func WithTurnTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.turnTimeout = d
	}
}

// WithDefaultUserID binds id to sessions that start without domain.WithUserID.
func WithDefaultUserID(id string) Option {
	return func(e *Engine) {
		e.defaultUserID = id
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// New initializes an Engine.
// By default controllers are loaded from the Loam directory at repoPath.
// With WithDescriptors or WithDescriptorSource, repoPath is only a label and may be empty.
func New(ctx context.Context, repoPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.reasoner == nil {
		return nil, fmt.Errorf("a reasoner is required (use WithReasoner)")
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.clock == nil {
		eng.clock = time.Now
	}

	if eng.source == nil {
		if repoPath == "" {
			return nil, fmt.Errorf("repoPath is required when no descriptor source is provided")
		}
		src, err := loam.Open(repoPath)
		if err != nil {
			return nil, err
		}
		eng.source = src
	}
	if repoPath != "" {
		eng.Name = filepath.Base(repoPath)
		eng.logger = eng.logger.With("controllers", eng.Name)
	}

	if eng.registry == nil {
		eng.registry = registry.New(registry.WithLogger(eng.logger))
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	descs, err := eng.source.Descriptors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}

	eng.router, err = runtime.Build(descs, eng.reasoner, eng.registry, runtime.Config{
		MaxSteps:      eng.maxSteps,
		MaxAttempts:   eng.maxAttempts,
		FallbackReply: eng.fallbackReply,
		Hooks:         eng.hooks,
		Logger:        eng.logger.With("component", "router"),
		Clock:         eng.clock,
	})
	if err != nil {
		return nil, err
	}

	sessionOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithClock(eng.clock),
		session.WithLockTTL(eng.lockTTL),
	}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)
	return eng, nil
}

// SubmitTurn appends the user's text to the session (creating it on first use)
// and runs it until it replies, suspends for approval, or fails fatally.
// A Go error means nothing was persisted: a usage error such as
// domain.ErrApprovalPending, or an infrastructure failure.
func (e *Engine) SubmitTurn(ctx context.Context, sessionID, text string, opts ...domain.TurnOption) (domain.TurnResult, error) {
	o := domain.ApplyTurnOptions(opts...)
	ctx, cancel := e.turnContext(ctx)
	defer cancel()

	var res domain.TurnResult
	_, err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, s *domain.Session) error {
		e.bindUser(s, o.UserID)
		var err error
		res, err = e.router.Submit(ctx, s, text)
		return err
	})
	if err != nil {
		return domain.TurnResult{}, err
	}
	e.logTurn(sessionID, res)
	return res, nil
}

// ResumeTurn applies the host's decision on the suspended batch of sessionID.
// A denial reason, if any, is shown to the controller verbatim.
func (e *Engine) ResumeTurn(ctx context.Context, sessionID string, approved bool, reason string) (domain.TurnResult, error) {
	ctx, cancel := e.turnContext(ctx)
	defer cancel()

	var res domain.TurnResult
	_, err := e.sessions.Modify(ctx, sessionID, func(ctx context.Context, s *domain.Session) error {
		var err error
		res, err = e.router.Resume(ctx, s, approved, reason)
		return err
	})
	if err != nil {
		return domain.TurnResult{}, err
	}
	e.logTurn(sessionID, res)
	return res, nil
}

// Session returns the stored state of sessionID.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Start creates an empty session bound to userID (or the default user).
// Starting an existing session returns it unchanged.
func (e *Engine) Start(ctx context.Context, sessionID, userID string) (*domain.Session, error) {
	return e.sessions.Update(ctx, sessionID, func(_ context.Context, s *domain.Session) error {
		e.bindUser(s, userID)
		return nil
	})
}

// Reset discards the session.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// Sessions lists the stored session ids.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Descriptors returns the loaded controllers.
func (e *Engine) Descriptors() []domain.Descriptor {
	return e.router.Descriptors()
}

// Primary is the name of the controller active on an empty stack.
func (e *Engine) Primary() string {
	return e.router.Primary()
}

// Registry exposes the tool registry, mostly for listing tools.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

func (e *Engine) turnContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.turnTimeout > 0 {
		return context.WithTimeout(ctx, e.turnTimeout)
	}
	return context.WithCancel(ctx)
}

// bindUser fixes the session identity on first use; later turns cannot change it.
func (e *Engine) bindUser(s *domain.Session, userID string) {
	if s.UserID() != "" {
		return
	}
	if userID == "" {
		userID = e.defaultUserID
	}
	if userID == "" {
		return
	}
	if s.Context == nil {
		s.Context = make(map[string]any)
	}
	s.Context[domain.ContextUserID] = userID
}

func (e *Engine) logTurn(sessionID string, res domain.TurnResult) {
	if res.Outcome == domain.OutcomeFatal {
		e.logger.Error("turn failed", "session_id", sessionID, "controller", res.Controller, "err", res.Err)
		return
	}
	e.logger.Debug("turn finished", "session_id", sessionID, "controller", res.Controller, "outcome", res.Outcome)
}
