package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// DescriptorSource supplies the controller descriptors the router is built from.
type DescriptorSource interface {
	Descriptors(ctx context.Context) ([]domain.Descriptor, error)
}
