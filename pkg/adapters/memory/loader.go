// Package memory provides in-memory adapters: a ConfigLoader seeded
// programmatically (tests, embedded graphs) and a ContextStore for
// single-process hosts.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/arborflow/arbor/pkg/domain"
)

// Loader implements ports.ConfigLoader over a map. Safe for concurrent
// reads after seeding.
type Loader struct {
	mu    sync.RWMutex
	nodes map[string]*domain.NodeConfig
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{nodes: make(map[string]*domain.NodeConfig)}
}

// AddNode seeds or replaces a node configuration.
func (l *Loader) AddNode(cfg *domain.NodeConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nodes[cfg.ID] = cfg
}

// GetNode returns the configuration for id.
func (l *Loader) GetNode(id string) (*domain.NodeConfig, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cfg, ok := l.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", id, domain.ErrNodeNotFound)
	}
	return cfg, nil
}

// ListNodes returns all node IDs, sorted.
func (l *Loader) ListNodes() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.nodes))
	for id := range l.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
