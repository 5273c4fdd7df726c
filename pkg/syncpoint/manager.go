// Package syncpoint provides named ad hoc rendezvous barriers, independent of
// the fork/join graph. Branches arrive at a point by ID; the point's policy
// decides when they have rendezvoused.
//
// There is no background timer. A configured timeout is evaluated
// cooperatively, inside Arrive and CheckStatus, and is fail-open: once the
// wall clock passes it, the next call in reports the point synced with
// TimedOut set. Callers that need prompt timeout detection must call in.
package syncpoint

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/arborflow/arbor/internal/logging"
	"github.com/arborflow/arbor/pkg/domain"
)

// Callback fires once when a point becomes satisfied. Panics and misbehavior
// inside the callback are recovered and logged, never rethrown.
type Callback func(ctx context.Context, arrived []string)

// Status is the outcome of an arrival or status check.
type Status struct {
	// IsSynced is true once the policy is met or the timeout has passed.
	IsSynced bool `json:"is_synced"`
	// Completed lists expected branches that have arrived, sorted.
	Completed []string `json:"completed,omitempty"`
	// Pending lists expected branches still missing, sorted.
	Pending []string `json:"pending,omitempty"`
	// TimedOut marks a fail-open sync caused by elapsed time, not arrivals.
	TimedOut bool `json:"timed_out,omitempty"`
	// Reason names what satisfied (or is still blocking) the point.
	Reason string `json:"reason"`
}

// ConfigError reports an unusable sync point registration.
type ConfigError struct {
	SyncID string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("sync point %q: %s", e.SyncID, e.Reason)
}

// ErrUnknownSyncPoint wraps lookups of unregistered IDs.
type UnknownSyncPointError struct {
	SyncID string
}

func (e *UnknownSyncPointError) Error() string {
	return fmt.Sprintf("sync point %q is not registered", e.SyncID)
}

// point is one registered barrier. arrived maps branch ID to the optional
// payload it carried; arrival is idempotent, so a repeat arrival only
// refreshes the payload.
type point struct {
	id           string
	policy       domain.JoinCondition
	expected     map[string]struct{}
	n            int
	timeout      time.Duration
	onSync       Callback
	arrived      map[string]map[string]any
	registeredAt time.Time
	fired        bool
}

// Manager registers and evaluates sync points. Like the other per
// conversation types it is single-writer: hosts isolate one Manager per
// conversation rather than sharing one under a lock.
type Manager struct {
	points map[string]*point
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		points: make(map[string]*point),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterOption configures one sync point.
type RegisterOption func(*point)

// WithN sets the N of an n_of_m policy.
func WithN(n int) RegisterOption {
	return func(p *point) {
		p.n = n
	}
}

// WithTimeout arms the cooperative fail-open timeout.
func WithTimeout(d time.Duration) RegisterOption {
	return func(p *point) {
		p.timeout = d
	}
}

// WithCallback registers the on-sync callback.
func WithCallback(cb Callback) RegisterOption {
	return func(p *point) {
		p.onSync = cb
	}
}

// Register creates (or overwrites) a sync point. Registering n_of_m without
// an explicit N is a configuration error; registering majority over exactly
// two branches logs a degeneracy warning but is accepted.
func (m *Manager) Register(id string, expectedBranches []string, policy domain.JoinCondition, opts ...RegisterOption) error {
	p := &point{
		id:           id,
		policy:       policy,
		expected:     make(map[string]struct{}, len(expectedBranches)),
		arrived:      make(map[string]map[string]any),
		registeredAt: m.now(),
	}
	for _, b := range expectedBranches {
		p.expected[b] = struct{}{}
	}
	for _, opt := range opts {
		opt(p)
	}

	switch policy {
	case domain.JoinAllComplete, domain.JoinAnyComplete, domain.JoinMajority, domain.JoinNofM, domain.JoinTimeout:
	default:
		return &ConfigError{SyncID: id, Reason: fmt.Sprintf("unknown policy %q", policy)}
	}
	if policy == domain.JoinNofM && p.n <= 0 {
		return &ConfigError{SyncID: id, Reason: "n_of_m requires an explicit n > 0"}
	}
	if policy == domain.JoinNofM && p.n > len(p.expected) {
		return &ConfigError{SyncID: id, Reason: fmt.Sprintf("n=%d exceeds the %d expected branches", p.n, len(p.expected))}
	}
	if policy == domain.JoinTimeout && p.timeout <= 0 {
		return &ConfigError{SyncID: id, Reason: "timeout policy requires a timeout duration"}
	}
	if policy == domain.JoinMajority && len(p.expected) == 2 {
		m.logger.Warn("majority over 2 branches degenerates to all_complete",
			"sync_id", id)
	}

	m.points[id] = p
	return nil
}

// Arrive marks a branch's arrival at the point and re-evaluates it. Arrival
// is idempotent: arriving twice has the same effect as once, with no double
// counting. The optional data payload is stored per branch (a repeat arrival
// with a payload refreshes it).
func (m *Manager) Arrive(ctx context.Context, id, branchID string, data map[string]any) (Status, error) {
	p, ok := m.points[id]
	if !ok {
		return Status{}, &UnknownSyncPointError{SyncID: id}
	}

	if _, expected := p.expected[branchID]; !expected {
		m.logger.Debug("arrival from unexpected branch ignored",
			"sync_id", id, "branch_id", branchID)
		return m.evaluate(ctx, p), nil
	}

	if _, already := p.arrived[branchID]; !already || data != nil {
		p.arrived[branchID] = data
	}

	return m.evaluate(ctx, p), nil
}

// CheckStatus re-evaluates a point without arriving, which is also the
// opportunistic moment a timed-out point gets noticed.
func (m *Manager) CheckStatus(ctx context.Context, id string) (Status, error) {
	p, ok := m.points[id]
	if !ok {
		return Status{}, &UnknownSyncPointError{SyncID: id}
	}
	return m.evaluate(ctx, p), nil
}

// ArrivedData returns the payload a branch carried when it arrived.
func (m *Manager) ArrivedData(id, branchID string) (map[string]any, bool) {
	p, ok := m.points[id]
	if !ok {
		return nil, false
	}
	data, ok := p.arrived[branchID]
	return data, ok
}

// Reset clears arrivals but keeps policy and expected set, re-arming the
// barrier for reuse in loops. The timeout clock restarts.
func (m *Manager) Reset(id string) error {
	p, ok := m.points[id]
	if !ok {
		return &UnknownSyncPointError{SyncID: id}
	}
	p.arrived = make(map[string]map[string]any)
	p.registeredAt = m.now()
	p.fired = false
	return nil
}

// Remove deletes a point entirely.
func (m *Manager) Remove(id string) {
	delete(m.points, id)
}

// IDs returns the registered point IDs, sorted.
func (m *Manager) IDs() []string {
	out := make([]string, 0, len(m.points))
	for id := range m.points {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// evaluate applies the policy (and the cooperative timeout) and fires the
// callback exactly once on the evaluation that first satisfies the point.
func (m *Manager) evaluate(ctx context.Context, p *point) Status {
	status := Status{
		Completed: sortedSetKeys(p.arrived),
		Pending:   p.pending(),
	}

	if p.timedOut(m.now()) {
		// Fail-open: elapsed time forces the sync, whatever the policy says.
		status.IsSynced = true
		status.TimedOut = true
		status.Reason = "timeout"
	} else {
		met, err := p.policy.Satisfied(len(p.arrived), len(p.expected), p.n)
		if err != nil {
			// Registration validates the policy; reaching this means the
			// point was mutated out from under us. Report unmet.
			m.logger.Error("sync policy evaluation failed", "sync_id", p.id, "err", err)
			status.Reason = "policy_error"
			return status
		}
		status.IsSynced = met
		if met {
			status.Reason = string(p.policy)
		} else {
			status.Reason = "waiting"
		}
	}

	if status.IsSynced && !p.fired {
		p.fired = true
		m.fireCallback(ctx, p, status.Completed)
	}
	return status
}

// fireCallback isolates callback faults: they are logged, never rethrown.
func (m *Manager) fireCallback(ctx context.Context, p *point, arrived []string) {
	if p.onSync == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("sync callback recovered", "sync_id", p.id, "panic", r)
		}
	}()
	p.onSync(ctx, arrived)
}

func (p *point) pending() []string {
	var out []string
	for id := range p.expected {
		if _, ok := p.arrived[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (p *point) timedOut(now time.Time) bool {
	return p.timeout > 0 && now.Sub(p.registeredAt) > p.timeout
}

func sortedSetKeys(set map[string]map[string]any) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
