package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// Toolbox is the tool registry seen by the router.
type Toolbox interface {
	Executor
	Has(name string) bool
	Specs(names ...string) []domain.Tool
}

// Config assembles a Router from descriptors.
type Config struct {
	// Primary defaults to domain.PrimaryController.
	Primary       string
	MaxSteps      int
	MaxAttempts   int
	FallbackReply string
	Hooks         domain.LifecycleHooks
	Logger        *slog.Logger
	Clock         func() time.Time
}

// Build creates one controller per descriptor and wires them into a Router.
// Every declared tool must be present in tools.
func Build(descs []domain.Descriptor, reasoner ports.Reasoner, tools Toolbox, cfg Config) (*Router, error) {
	if len(descs) == 0 {
		return nil, fmt.Errorf("%w: no controllers", domain.ErrInvalidDescriptors)
	}
	if cfg.Primary == "" {
		cfg.Primary = domain.PrimaryController
	}

	var specialized []domain.Descriptor
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDescriptors, err)
		}
		for _, name := range d.Tools() {
			if !tools.Has(name) {
				return nil, fmt.Errorf("%w: controller %q declares unregistered tool %q", domain.ErrInvalidDescriptors, d.Name, name)
			}
		}
		if d.Specialized() {
			specialized = append(specialized, d)
		}
	}

	ccfg := ControllerConfig{
		MaxAttempts:   cfg.MaxAttempts,
		FallbackReply: cfg.FallbackReply,
		Logger:        cfg.Logger,
	}

	controllers := make([]*Controller, 0, len(descs))
	for _, d := range descs {
		surface := tools.Specs(d.Tools()...)
		if d.Specialized() {
			surface = append(surface, EscalationSpec())
		} else if d.Name == cfg.Primary {
			for _, s := range specialized {
				surface = append(surface, EntrySpec(s))
			}
		}
		c, err := NewController(d, reasoner, surface, ccfg)
		if err != nil {
			return nil, err
		}
		controllers = append(controllers, c)
	}

	return NewRouter(cfg.Primary, controllers, tools, RouterConfig{
		MaxSteps: cfg.MaxSteps,
		Hooks:    cfg.Hooks,
		Logger:   cfg.Logger,
		Clock:    cfg.Clock,
	})
}

// EscalationSpec describes the CompleteOrEscalate meta action.
func EscalationSpec() domain.Tool {
	return domain.Tool{
		Name: domain.EscalationTool,
		Description: "A tool to mark the current task as completed and/or to escalate control of the dialog to the main assistant, " +
			"who can re-route the dialog based on the user's needs.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"cancel": map[string]any{"type": "boolean"},
				"reason": map[string]any{"type": "string"},
			},
		},
	}
}

// EntrySpec describes the entry action the primary controller uses to delegate to d.
func EntrySpec(d domain.Descriptor) domain.Tool {
	return domain.Tool{
		Name:        d.EntryTool,
		Description: fmt.Sprintf("Transfers work to a specialized assistant: the %s.", d.Description),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"request": map[string]any{
					"type":        "string",
					"description": "Any necessary follow-up questions the specialized assistant should clarify before proceeding.",
				},
			},
		},
	}
}
