package session

import (
	"time"

	"github.com/arborflow/arbor/pkg/domain"
	"github.com/arborflow/arbor/pkg/history"
)

// Session is the materialized per-conversation state: the execution context
// the DAG executor mutates and the history manager interruptions go through.
type Session struct {
	ID      string
	Context *domain.ExecutionContext
	History *history.Manager
}

// Snapshot serializes the session for persistence.
func (s *Session) Snapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Execution: s.Context.ToMap(),
		History:   s.History.ToMap(),
		SavedAt:   time.Now().UTC(),
	}
}
