// Package loam loads controller descriptors from a directory of Markdown
// documents managed by Loam. Front matter holds the descriptor fields and
// the body is the prompt template.
package loam

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/switchboard/pkg/domain"
)

// Source adapts a Loam repository to ports.DescriptorSource.
type Source struct {
	Repo *loam.TypedRepository[ControllerMetadata]
}

// New creates a Source over an existing typed repository.
func New(repo *loam.TypedRepository[ControllerMetadata]) *Source {
	return &Source{Repo: repo}
}

// Open initializes a read-only Loam repository at dir.
func Open(dir string) (*Source, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict keeps numbers as json.Number; read-only stops Loam from creating a sandbox.
	repo, err := loam.Init(abs,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ControllerMetadata](repo)), nil
}

// Descriptors lists every controller document, sorted by name.
// A missing name falls back to the file name without extension.
func (s *Source) Descriptors(ctx context.Context) ([]domain.Descriptor, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	out := make([]domain.Descriptor, 0, len(docs))
	var errs []error
	for _, entry := range docs {
		// List carries metadata only; the prompt body needs a Get.
		doc, err := s.Repo.Get(ctx, entry.ID)
		if err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", entry.ID, err)
		}
		meta := doc.Data
		name := meta.Name
		if name == "" {
			name = trimExtension(doc.ID)
		}
		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: controller '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID

		d := domain.Descriptor{
			Name:           name,
			Description:    meta.Description,
			Prompt:         strings.TrimSpace(doc.Content),
			EntryTool:      meta.EntryTool,
			SafeTools:      append(meta.SafeTools, meta.Safe...),
			SensitiveTools: append(meta.SensitiveTools, meta.Sensitive...),
		}
		if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", doc.ID, err))
			continue
		}
		out = append(out, d)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDescriptors, errors.Join(errs...))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Watch reports the id of every changed controller document until ctx ends.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	events, err := s.Repo.Watch(ctx, "**/*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}
