// Package history tracks interrupted-flow state per region so a conversation
// can wander off-topic and later resume exactly where it left.
//
// A shallow save remembers only the most recent state of a region; deep
// saves additionally stack entries (bounded, oldest evicted first) so nested
// interruptions unwind in LIFO order. Everything serializes to primitive
// maps, because history must survive a process restart between turns.
package history

import (
	"log/slog"
	"sort"
	"time"

	"github.com/arborflow/arbor/internal/logging"
	"github.com/arborflow/arbor/pkg/domain"
)

// DefaultMaxDeepHistory bounds each region's deep stack unless overridden.
const DefaultMaxDeepHistory = 10

// Manager owns the shallow slots, deep stacks and interrupted flags of every
// region in one conversation. Not internally synchronized: single writer per
// conversation, like the execution context.
type Manager struct {
	shallow     map[string]string
	shallowData map[string]map[string]any
	deep        map[string][]domain.HistoryEntry
	interrupted map[string]bool
	maxDeep     int
	logger      *slog.Logger
	emit        func(domain.Event)
}

// Option configures the Manager.
type Option func(*Manager)

// WithMaxDepth bounds each region's deep history. Values below 1 keep the
// default.
func WithMaxDepth(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.maxDeep = n
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithEventSink forwards a history_saved / history_restored event for every
// save and successful restore, so history activity shows up in the same
// audit log as the rest of the run.
func WithEventSink(sink func(domain.Event)) Option {
	return func(m *Manager) {
		m.emit = sink
	}
}

// NewManager creates an empty history manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		shallow:     make(map[string]string),
		shallowData: make(map[string]map[string]any),
		deep:        make(map[string][]domain.HistoryEntry),
		interrupted: make(map[string]bool),
		maxDeep:     DefaultMaxDeepHistory,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save records an interruption of a region at the given state. The shallow
// slot and data snapshot always update and the region is marked interrupted;
// a deep save additionally appends to the region's bounded stack, evicting
// the oldest entry on overflow.
func (m *Manager) Save(regionID, state string, historyType domain.HistoryType, data map[string]any) {
	if historyType == domain.HistoryNone {
		return
	}

	m.shallow[regionID] = state
	m.shallowData[regionID] = copyData(data)
	m.interrupted[regionID] = true

	if historyType == domain.HistoryDeep {
		entry := domain.HistoryEntry{
			State:     state,
			RegionID:  regionID,
			Timestamp: time.Now().UTC(),
			Data:      copyData(data),
		}
		stack := append(m.deep[regionID], entry)
		if len(stack) > m.maxDeep {
			stack = stack[len(stack)-m.maxDeep:]
		}
		m.deep[regionID] = stack
	}

	m.logger.Debug("history saved", "region_id", regionID, "state", state, "type", string(historyType))
	if m.emit != nil {
		m.emit(domain.NewEvent(domain.EventHistorySaved, regionID, map[string]any{
			"state": state,
			"type":  string(historyType),
		}))
	}
}

// Restore returns the remembered state of a region. Shallow restores read
// the single saved slot; deep restores read the most recent stack entry
// (LIFO). With pop=true a shallow restore clears the interrupted flag and a
// deep restore removes the entry it returned.
func (m *Manager) Restore(regionID string, historyType domain.HistoryType, pop bool) (string, bool) {
	state, _, ok := m.RestoreWithData(regionID, historyType, pop)
	return state, ok
}

// RestoreWithData is Restore plus the data snapshot taken at save time.
func (m *Manager) RestoreWithData(regionID string, historyType domain.HistoryType, pop bool) (string, map[string]any, bool) {
	switch historyType {
	case domain.HistoryShallow:
		state, ok := m.shallow[regionID]
		if !ok {
			return "", nil, false
		}
		data := copyData(m.shallowData[regionID])
		if pop {
			m.interrupted[regionID] = false
		}
		m.logger.Debug("history restored", "region_id", regionID, "state", state, "type", "shallow")
		m.emitRestored(regionID, state, domain.HistoryShallow, pop)
		return state, data, true

	case domain.HistoryDeep:
		stack := m.deep[regionID]
		if len(stack) == 0 {
			return "", nil, false
		}
		entry := stack[len(stack)-1]
		if pop {
			m.deep[regionID] = stack[:len(stack)-1]
			if len(m.deep[regionID]) == 0 {
				m.interrupted[regionID] = false
			}
		}
		m.logger.Debug("history restored", "region_id", regionID, "state", entry.State, "type", "deep")
		m.emitRestored(regionID, entry.State, domain.HistoryDeep, pop)
		return entry.State, copyData(entry.Data), true

	default:
		return "", nil, false
	}
}

func (m *Manager) emitRestored(regionID, state string, historyType domain.HistoryType, pop bool) {
	if m.emit == nil {
		return
	}
	m.emit(domain.NewEvent(domain.EventHistoryRestored, regionID, map[string]any{
		"state": state,
		"type":  string(historyType),
		"pop":   pop,
	}))
}

// HasHistory reports whether a region has anything to restore at the given
// depth.
func (m *Manager) HasHistory(regionID string, historyType domain.HistoryType) bool {
	switch historyType {
	case domain.HistoryShallow:
		_, ok := m.shallow[regionID]
		return ok
	case domain.HistoryDeep:
		return len(m.deep[regionID]) > 0
	default:
		return false
	}
}

// IsInterrupted reports whether the region is currently marked interrupted.
func (m *Manager) IsInterrupted(regionID string) bool {
	return m.interrupted[regionID]
}

// ClearInterrupted unmarks a region without touching its history.
func (m *Manager) ClearInterrupted(regionID string) {
	m.interrupted[regionID] = false
}

// DeepHistory returns a copy of a region's deep stack, oldest first.
func (m *Manager) DeepHistory(regionID string) []domain.HistoryEntry {
	src := m.deep[regionID]
	out := make([]domain.HistoryEntry, len(src))
	copy(out, src)
	return out
}

// HistoryDepth returns the number of retained deep entries for a region.
func (m *Manager) HistoryDepth(regionID string) int {
	return len(m.deep[regionID])
}

// ClearRegion drops everything remembered about one region.
func (m *Manager) ClearRegion(regionID string) {
	delete(m.shallow, regionID)
	delete(m.shallowData, regionID)
	delete(m.deep, regionID)
	delete(m.interrupted, regionID)
}

// ClearAll resets the manager.
func (m *Manager) ClearAll() {
	m.shallow = make(map[string]string)
	m.shallowData = make(map[string]map[string]any)
	m.deep = make(map[string][]domain.HistoryEntry)
	m.interrupted = make(map[string]bool)
}

// InterruptedRegions lists the regions currently marked interrupted, sorted.
func (m *Manager) InterruptedRegions() []string {
	var out []string
	for id, flagged := range m.interrupted {
		if flagged {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func copyData(src map[string]any) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
