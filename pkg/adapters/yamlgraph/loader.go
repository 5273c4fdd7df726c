// Package yamlgraph loads node configuration from YAML documents on disk.
// Each file holds either a single node mapping or a top-level "nodes" list;
// the engine core never sees the source format, only typed NodeConfig.
package yamlgraph

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/arborflow/arbor/pkg/domain"
)

// Loader implements ports.ConfigLoader over a directory of YAML files.
// The whole graph is read once at construction; loaders are immutable after
// that, matching the engine's read-only view of configuration.
type Loader struct {
	nodes map[string]*domain.NodeConfig
}

// LoadDir reads every .yaml/.yml file under dir (non-recursive) and indexes
// the nodes they declare.
func LoadDir(dir string) (*Loader, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph directory: %w", err)
	}

	l := &Loader{nodes: make(map[string]*domain.NodeConfig)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := l.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LoadFile reads a single YAML graph file.
func LoadFile(path string) (*Loader, error) {
	l := &Loader{nodes: make(map[string]*domain.NodeConfig)}
	if err := l.loadFile(path); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loader) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// A file is either {"nodes": [...]} or one node mapping.
	if rawNodes, ok := doc["nodes"]; ok {
		list, ok := rawNodes.([]any)
		if !ok {
			return fmt.Errorf("%s: \"nodes\" must be a list", path)
		}
		for i, rawNode := range list {
			nodeDoc, ok := rawNode.(map[string]any)
			if !ok {
				return fmt.Errorf("%s: node %d is not a mapping", path, i)
			}
			if err := l.addNode(nodeDoc, path); err != nil {
				return err
			}
		}
		return nil
	}
	return l.addNode(doc, path)
}

func (l *Loader) addNode(doc map[string]any, path string) error {
	cfg, err := decodeNode(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if cfg.ID == "" {
		return fmt.Errorf("%s: node is missing an id", path)
	}
	if _, dup := l.nodes[cfg.ID]; dup {
		return fmt.Errorf("%s: duplicate node id %q", path, cfg.ID)
	}
	l.nodes[cfg.ID] = cfg
	return nil
}

// decodeNode maps the generic YAML document onto the typed configuration.
func decodeNode(doc map[string]any) (*domain.NodeConfig, error) {
	var cfg domain.NodeConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("invalid node configuration: %w", err)
	}
	if cfg.Type == "" {
		cfg.Type = domain.NodeTypeSimple
	}
	return &cfg, nil
}

// GetNode returns the configuration for id.
func (l *Loader) GetNode(id string) (*domain.NodeConfig, error) {
	cfg, ok := l.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", id, domain.ErrNodeNotFound)
	}
	return cfg, nil
}

// ListNodes returns all node IDs, sorted.
func (l *Loader) ListNodes() ([]string, error) {
	ids := make([]string, 0, len(l.nodes))
	for id := range l.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
