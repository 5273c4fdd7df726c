package domain

import "time"

// Snapshot is the persisted-state document for one conversation. It bundles
// the ToMap forms of the execution context and the history manager, so a
// store only ever sees nested maps of primitive/collection types.
type Snapshot struct {
	Execution map[string]any `json:"execution,omitempty"`
	History   map[string]any `json:"history,omitempty"`
	SavedAt   time.Time      `json:"saved_at"`
}
