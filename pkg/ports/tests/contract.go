package tests

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// DescriptorSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.DescriptorSource.
// expected maps controller names to their entry tool ("" for the primary controller).
func DescriptorSourceContractTest(t *testing.T, source ports.DescriptorSource, expected map[string]string) {
	t.Helper()

	descriptors, err := source.Descriptors(context.Background())
	if err != nil {
		t.Fatalf("unexpected error loading descriptors: %v", err)
	}

	byName := make(map[string]domain.Descriptor, len(descriptors))
	for _, d := range descriptors {
		if _, dup := byName[d.Name]; dup {
			t.Fatalf("duplicate controller %q", d.Name)
		}
		byName[d.Name] = d
	}

	t.Run("Expected_Controllers", func(t *testing.T) {
		for name, entry := range expected {
			d, ok := byName[name]
			if !ok {
				t.Errorf("controller %q missing", name)
				continue
			}
			if d.EntryTool != entry {
				t.Errorf("controller %q: expected entry tool %q, got %q", name, entry, d.EntryTool)
			}
		}
	})

	t.Run("Descriptors_Valid", func(t *testing.T) {
		for _, d := range descriptors {
			if err := d.Validate(); err != nil {
				t.Errorf("invalid descriptor: %v", err)
			}
		}
	})

	t.Run("Prompts_Loaded", func(t *testing.T) {
		for _, d := range descriptors {
			if strings.TrimSpace(d.Prompt) == "" {
				t.Errorf("controller %q: prompt body was not loaded", d.Name)
			}
		}
	})

	t.Run("Single_Primary", func(t *testing.T) {
		primaries := 0
		for _, d := range descriptors {
			if !d.Specialized() {
				primaries++
			}
		}
		if primaries != 1 {
			t.Errorf("expected exactly one primary controller, got %d", primaries)
		}
	})
}
