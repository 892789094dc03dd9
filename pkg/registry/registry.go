package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/sync/errgroup"
)

// ToolFunction is the signature of a domain tool. The returned text is fed back
// to the controller verbatim.
type ToolFunction func(ctx context.Context, args map[string]any) (string, error)

type entry struct {
	spec domain.Tool
	fn   ToolFunction
}

// Registry maps action names to tools and executes them.
// Execution never fails: every outcome becomes a ToolResult.
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]entry
	concurrency int
	logger      *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithConcurrency bounds how many tools of one batch run at the same time.
// Values below 1 run the batch sequentially.
func WithConcurrency(n int) Option {
	return func(r *Registry) {
		r.concurrency = n
	}
}

// WithLogger configures a logger for recovered tool failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		tools:       make(map[string]entry),
		concurrency: 4,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool. Names are validated here so lookups cannot be ambiguous later.
func (r *Registry) Register(spec domain.Tool, fn ToolFunction) error {
	if spec.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if spec.Name == domain.EscalationTool {
		return fmt.Errorf("%s is reserved", domain.EscalationTool)
	}
	if fn == nil {
		return fmt.Errorf("tool %q: nil function", spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[spec.Name]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateTool, spec.Name)
	}
	r.tools[spec.Name] = entry{spec: spec, fn: fn}
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func (r *Registry) MustRegister(spec domain.Tool, fn ToolFunction) {
	if err := r.Register(spec, fn); err != nil {
		panic(err)
	}
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Specs returns the metadata of the named tools, in order. Unknown names are skipped.
func (r *Registry) Specs(names ...string) []domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Tool, 0, len(names))
	for _, name := range names {
		if e, ok := r.tools[name]; ok {
			out = append(out, e.spec)
		}
	}
	return out
}

// Names lists all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one action request and normalizes every failure into an error result.
func (r *Registry) Execute(ctx context.Context, req domain.ActionRequest) (result domain.ToolResult) {
	result = domain.ToolResult{ActionID: req.ID, Name: req.Name}

	r.mu.RLock()
	e, ok := r.tools[req.Name]
	r.mu.RUnlock()
	if !ok {
		result.IsError = true
		result.Text = fmt.Sprintf("Error: tool %q is not available. Please fix your mistakes.", req.Name)
		r.logger.Warn("unknown tool requested", "tool", req.Name, "action_id", req.ID)
		return result
	}

	defer func() {
		if p := recover(); p != nil {
			result.IsError = true
			result.Text = fmt.Sprintf("Error: tool %q crashed: %v\n please fix your mistakes.", req.Name, p)
			r.logger.Error("tool panicked", "tool", req.Name, "action_id", req.ID, "panic", p)
		}
	}()

	if err := ctx.Err(); err != nil {
		result.IsError = true
		result.Text = fmt.Sprintf("Error: %v\n please fix your mistakes.", err)
		return result
	}

	text, err := e.fn(ctx, req.Arguments)
	if err != nil {
		result.IsError = true
		result.Text = fmt.Sprintf("Error: %v\n please fix your mistakes.", err)
		r.logger.Warn("tool returned error", "tool", req.Name, "action_id", req.ID, "err", err)
		return result
	}
	result.Text = text
	return result
}

// ExecuteBatch runs independent requests, possibly concurrently.
// results[i] always answers reqs[i].
func (r *Registry) ExecuteBatch(ctx context.Context, reqs []domain.ActionRequest) []domain.ToolResult {
	results := make([]domain.ToolResult, len(reqs))
	if r.concurrency < 2 || len(reqs) < 2 {
		for i, req := range reqs {
			results[i] = r.Execute(ctx, req)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = r.Execute(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Decode copies loosely typed arguments (as produced by JSON tool calls) into out.
// Numbers given as strings or floats are converted to the target field type.
func Decode(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// Typed adapts a function over a typed argument struct into a ToolFunction.
func Typed[T any](fn func(ctx context.Context, args T) (string, error)) ToolFunction {
	return func(ctx context.Context, raw map[string]any) (string, error) {
		var args T
		if err := Decode(raw, &args); err != nil {
			return "", err
		}
		return fn(ctx, args)
	}
}
