package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/google/uuid"
)

// SessionContext is the read-only context a controller sees besides the conversation.
type SessionContext struct {
	UserID string
	Now    time.Time
}

// ControllerConfig tunes a Controller.
type ControllerConfig struct {
	// MaxAttempts bounds reasoning calls per invocation. Defaults to domain.DefaultMaxAttempts.
	MaxAttempts int

	// FallbackReply, when set, is returned instead of ErrDegenerateReply once attempts run out.
	FallbackReply string

	Logger *slog.Logger
}

// Controller wraps the reasoning engine with one domain prompt and a fixed tool set.
type Controller struct {
	desc     domain.Descriptor
	reasoner ports.Reasoner
	tools    []domain.Tool
	prompt   *template.Template
	cfg      ControllerConfig
	logger   *slog.Logger
}

// NewController compiles the descriptor prompt. tools is the full tool surface
// offered to the model (declared tools plus meta actions).
func NewController(desc domain.Descriptor, reasoner ports.Reasoner, tools []domain.Tool, cfg ControllerConfig) (*Controller, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if reasoner == nil {
		return nil, fmt.Errorf("controller %q: reasoner is required", desc.Name)
	}
	tmpl, err := template.New(desc.Name).Option("missingkey=zero").Parse(desc.Prompt)
	if err != nil {
		return nil, fmt.Errorf("controller %q: invalid prompt template: %w", desc.Name, err)
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = domain.DefaultMaxAttempts
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		desc:     desc.Clone(),
		reasoner: reasoner,
		tools:    slices.Clone(tools),
		prompt:   tmpl,
		cfg:      cfg,
		logger:   logger.With("controller", desc.Name),
	}, nil
}

// Name returns the controller identifier.
func (c *Controller) Name() string {
	return c.desc.Name
}

// Descriptor returns a copy of the controller descriptor.
func (c *Controller) Descriptor() domain.Descriptor {
	return c.desc.Clone()
}

// Tools returns the tool surface offered to the reasoning engine.
func (c *Controller) Tools() []domain.Tool {
	return slices.Clone(c.tools)
}

// Invoke asks the reasoning engine for the next reply. The returned reply always
// carries text or at least one action request. Empty replies are retried with a
// corrective note that is never written back to the caller's conversation.
func (c *Controller) Invoke(ctx context.Context, conv []domain.Message, sc SessionContext) (domain.Message, error) {
	if len(conv) == 0 {
		return domain.Message{}, domain.ErrEmptyConversation
	}

	prompt, err := c.renderPrompt(sc)
	if err != nil {
		return domain.Message{}, err
	}

	working := slices.Clip(conv)
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		reply, err := c.reasoner.Reason(ctx, ports.ReasoningRequest{
			Controller:   c.desc.Name,
			Prompt:       prompt,
			Conversation: working,
			Tools:        c.tools,
		})
		if err != nil {
			return domain.Message{}, fmt.Errorf("controller %s: %w", c.desc.Name, err)
		}

		reply = normalizeReply(c.desc.Name, reply)
		if !reply.IsDegenerate() {
			return reply, nil
		}

		c.logger.Warn("empty reply from reasoning engine", "attempt", attempt, "max_attempts", c.cfg.MaxAttempts)
		working = append(working, domain.UserMessage(domain.CorrectiveNote))
	}

	if c.cfg.FallbackReply != "" {
		return domain.Message{Role: domain.RoleController, Controller: c.desc.Name, Text: c.cfg.FallbackReply}, nil
	}
	return domain.Message{}, fmt.Errorf("controller %s gave up after %d attempts: %w", c.desc.Name, c.cfg.MaxAttempts, domain.ErrDegenerateReply)
}

func (c *Controller) renderPrompt(sc SessionContext) (string, error) {
	now := sc.Now
	if now.IsZero() {
		now = time.Now()
	}
	var b strings.Builder
	err := c.prompt.Execute(&b, domain.PromptData{
		UserInfo: sc.UserID,
		Time:     now.Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("controller %s: render prompt: %w", c.desc.Name, err)
	}
	return b.String(), nil
}

// normalizeReply stamps role and controller and gives every action request an id.
func normalizeReply(controller string, reply domain.Message) domain.Message {
	reply.Role = domain.RoleController
	reply.Controller = controller
	reply.Result = nil
	seen := make(map[string]bool, len(reply.Actions))
	for i := range reply.Actions {
		if reply.Actions[i].ID == "" || seen[reply.Actions[i].ID] {
			reply.Actions[i].ID = "call_" + uuid.NewString()
		}
		seen[reply.Actions[i].ID] = true
	}
	return reply
}
