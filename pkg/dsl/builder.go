package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
)

// Builder collects controller descriptors in declaration order.
type Builder struct {
	controllers map[string]*ControllerBuilder
	order       []string
}

// New creates a new descriptor builder.
func New() *Builder {
	return &Builder{
		controllers: make(map[string]*ControllerBuilder),
	}
}

// Add declares a controller.
// If the controller already exists, it returns the existing builder.
func (b *Builder) Add(name string) *ControllerBuilder {
	if cb, ok := b.controllers[name]; ok {
		return cb
	}
	cb := &ControllerBuilder{desc: domain.Descriptor{Name: name}}
	b.controllers[name] = cb
	b.order = append(b.order, name)
	return cb
}

// Descriptors validates and returns the declared descriptors.
func (b *Builder) Descriptors() ([]domain.Descriptor, error) {
	out := make([]domain.Descriptor, 0, len(b.order))
	var errs []error
	for _, name := range b.order {
		d := b.controllers[name].desc.Clone()
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, d)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDescriptors, err)
	}
	return out, nil
}

// Build compiles the declarations into a memory.Source.
func (b *Builder) Build() (*memory.Source, error) {
	descs, err := b.Descriptors()
	if err != nil {
		return nil, err
	}
	return memory.NewSource(descs...), nil
}

// ControllerBuilder configures one descriptor.
type ControllerBuilder struct {
	desc domain.Descriptor
}

// Describe sets the human readable description used in handoff announcements.
func (cb *ControllerBuilder) Describe(text string) *ControllerBuilder {
	cb.desc.Description = text
	return cb
}

// Prompt sets the prompt template.
func (cb *ControllerBuilder) Prompt(tmpl string) *ControllerBuilder {
	cb.desc.Prompt = tmpl
	return cb
}

// Entry makes the controller specialized, entered through the given action name.
func (cb *ControllerBuilder) Entry(tool string) *ControllerBuilder {
	cb.desc.EntryTool = tool
	return cb
}

// Safe appends tools that run without approval.
func (cb *ControllerBuilder) Safe(tools ...string) *ControllerBuilder {
	cb.desc.SafeTools = append(cb.desc.SafeTools, tools...)
	return cb
}

// Sensitive appends tools that require approval.
func (cb *ControllerBuilder) Sensitive(tools ...string) *ControllerBuilder {
	cb.desc.SensitiveTools = append(cb.desc.SensitiveTools, tools...)
	return cb
}
