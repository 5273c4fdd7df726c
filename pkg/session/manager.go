package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arborflow/arbor/internal/logging"
	"github.com/arborflow/arbor/pkg/domain"
	"github.com/arborflow/arbor/pkg/history"
	"github.com/arborflow/arbor/pkg/ports"
)

// lockEntry holds one session's mutex and its reference count.
type lockEntry struct {
	mu     sync.Mutex
	refs   int
	unlock ports.UnlockFunc
}

// Manager orchestrates session access, ensuring single-writer semantics per
// conversation. Lock entries are reference counted and removed at zero refs.
type Manager struct {
	store ports.ContextStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.Locker
	lockTTL time.Duration
	logger  *slog.Logger

	historyOpts []history.Option
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.Locker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for internal events such as deferred errors.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithHistoryOptions forwards options to the history manager materialized
// for each session (e.g. history.WithMaxDepth).
func WithHistoryOptions(opts ...history.Option) Option {
	return func(m *Manager) {
		m.historyOpts = opts
	}
}

// NewManager creates a session manager over the given store.
func NewManager(store ports.ContextStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count, deleting the entry at zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock runs fn while holding the session's in-process lock and, when a
// distributed locker is configured, its cross-replica lock.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(ctx context.Context) error) error {
	entry := m.acquire(sessionID)
	defer m.release(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock", "session_id", sessionID, "err", err)
			}
		}()
	}

	return fn(ctx)
}

// Load retrieves and materializes an existing session.
func (m *Manager) Load(ctx context.Context, sessionID string) (*Session, error) {
	var sess *Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		snap, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		sess, err = m.materialize(sessionID, snap)
		return err
	})
	return sess, err
}

// LoadOrStart loads a session, initializing (and persisting) a fresh one
// when it does not exist yet.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (*Session, error) {
	var sess *Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		snap, err := m.store.Load(ctx, sessionID)
		if err == nil {
			sess, err = m.materialize(sessionID, snap)
			return err
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		sess = m.fresh(sessionID)
		return m.store.Save(ctx, sessionID, sess.Snapshot())
	})
	return sess, err
}

// Update is the turn primitive: it loads (or starts) the session, runs fn
// against the materialized state under the session lock, and persists the
// result iff fn succeeded.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(ctx context.Context, sess *Session) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var sess *Session
		snap, err := m.store.Load(ctx, sessionID)
		switch {
		case err == nil:
			if sess, err = m.materialize(sessionID, snap); err != nil {
				return err
			}
		case errors.Is(err, domain.ErrSessionNotFound):
			sess = m.fresh(sessionID)
		default:
			return err
		}

		if err := fn(ctx, sess); err != nil {
			return err
		}
		return m.store.Save(ctx, sessionID, sess.Snapshot())
	})
}

// Delete removes a session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List returns the stored session IDs.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

func (m *Manager) fresh(sessionID string) *Session {
	sess := &Session{
		ID:      sessionID,
		Context: domain.NewExecutionContext(),
	}
	// The sink reads sess.Context at emit time, so it follows the restored
	// context when materialize swaps it in.
	opts := make([]history.Option, 0, len(m.historyOpts)+1)
	opts = append(opts, m.historyOpts...)
	opts = append(opts, history.WithEventSink(func(e domain.Event) {
		sess.Context.AppendEvent(e)
	}))
	sess.History = history.NewManager(opts...)
	return sess
}

func (m *Manager) materialize(sessionID string, snap *domain.Snapshot) (*Session, error) {
	sess := m.fresh(sessionID)
	if snap.Execution != nil {
		ec, err := domain.ExecutionContextFromMap(snap.Execution)
		if err != nil {
			return nil, fmt.Errorf("failed to restore execution context: %w", err)
		}
		sess.Context = ec
	}
	if snap.History != nil {
		if err := sess.History.FromMap(snap.History); err != nil {
			return nil, fmt.Errorf("failed to restore history: %w", err)
		}
	}
	return sess, nil
}
