package ports

import (
	"context"

	"github.com/arborflow/arbor/pkg/domain"
)

// ConfigLoader resolves node configuration by ID. The source format (YAML
// files, in-memory fixtures, a remote service) is an adapter concern; the
// engine only reads the typed accessor.
type ConfigLoader interface {
	// GetNode returns the configuration for the given node ID, or
	// domain.ErrNodeNotFound (possibly wrapped) when the ID is unknown.
	GetNode(id string) (*domain.NodeConfig, error)

	// ListNodes returns the IDs of every node in the graph, for
	// introspection and validation tooling.
	ListNodes() ([]string, error)
}

// Watchable is implemented by loaders that can signal backend changes,
// typically for hot-reload in dev mode.
type Watchable interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}
