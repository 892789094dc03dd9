package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Source implements ports.DescriptorSource over a fixed set of descriptors.
type Source struct {
	descriptors []domain.Descriptor
}

// NewSource serves the given descriptors in order.
func NewSource(descs ...domain.Descriptor) *Source {
	out := make([]domain.Descriptor, len(descs))
	for i, d := range descs {
		out[i] = d.Clone()
	}
	return &Source{descriptors: out}
}

// NewSourceFromYAML parses raw YAML documents, one descriptor each.
// This keeps table-driven tests short.
func NewSourceFromYAML(docs ...string) (*Source, error) {
	descs := make([]domain.Descriptor, 0, len(docs))
	for i, doc := range docs {
		var d domain.Descriptor
		if err := yaml.Unmarshal([]byte(doc), &d); err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
		descs = append(descs, d)
	}
	return NewSource(descs...), nil
}

// Descriptors returns copies of the configured descriptors.
func (s *Source) Descriptors(ctx context.Context) ([]domain.Descriptor, error) {
	out := make([]domain.Descriptor, len(s.descriptors))
	for i, d := range s.descriptors {
		out[i] = d.Clone()
	}
	return out, nil
}
