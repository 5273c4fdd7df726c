// Package routing decides which single active branch receives the next input
// when several are concurrently active, and fans intents out to all of them.
package routing

import (
	"context"
	"log/slog"
	"sort"

	"github.com/arborflow/arbor/internal/logging"
	"github.com/arborflow/arbor/pkg/domain"
)

// Strategy selects how the router picks among active branches when no
// explicit handler claims the intent.
type Strategy string

const (
	// StrategyRoundRobin cycles a monotonically increasing counter modulo
	// the active-branch count. Fair, but not intent-aware.
	StrategyRoundRobin Strategy = "round_robin"
	// StrategyPriority sorts active branches by externally assigned
	// priority, descending, with a stable tie-break on creation order.
	StrategyPriority Strategy = "priority"
	// StrategyFirstActive deterministically picks the first branch in
	// creation order. Best for flows with at most two branches.
	StrategyFirstActive Strategy = "first_active"
)

// Decision is the routing outcome for one intent.
type Decision struct {
	// BranchID and State identify the chosen branch, empty when AllWaiting.
	BranchID string `json:"branch_id,omitempty"`
	State    string `json:"state,omitempty"`
	// Reason names which rule chose the branch.
	Reason string `json:"reason"`
	// AllWaiting is true when no branch is active; the caller must hold the
	// input until one is.
	AllWaiting bool `json:"all_waiting,omitempty"`
}

// Routing reasons.
const (
	ReasonExplicitHandler = "explicit_handler"
	ReasonRoundRobin      = "round_robin"
	ReasonPriority        = "priority"
	ReasonFirstActive     = "first_active"
	ReasonAllWaiting      = "all_waiting"
)

// BroadcastHandler delivers one intent to one branch and returns that
// branch's outcome.
type BroadcastHandler func(ctx context.Context, branch *domain.Branch, intent string) (any, error)

// Router picks the receiving branch for each turn. Only the round-robin
// strategy holds mutable state (its counter); the router must therefore be
// confined to a single conversation like the context it routes over.
type Router struct {
	strategy Strategy
	counter  int
	logger   *slog.Logger
}

// Option configures the Router.
type Option func(*Router)

// WithLogger sets a structured logger for the router.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRouter creates a router with the given strategy. An unrecognized
// strategy falls back to first_active.
func NewRouter(strategy Strategy, opts ...Option) *Router {
	switch strategy {
	case StrategyRoundRobin, StrategyPriority, StrategyFirstActive:
	default:
		strategy = StrategyFirstActive
	}
	r := &Router{
		strategy: strategy,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strategy returns the configured strategy.
func (r *Router) Strategy() Strategy {
	return r.strategy
}

// Route chooses the single active branch that receives the intent.
//
// Precedence: when explicitHandlers (branch ID → intents it claims) names
// exactly one active branch for the intent, that branch wins regardless of
// strategy. Otherwise the configured strategy applies over the active
// branches in creation order. With no active branches the decision is
// AllWaiting and carries no branch.
func (r *Router) Route(ec *domain.ExecutionContext, intent string, explicitHandlers map[string][]string) Decision {
	active := ec.ActiveBranches()
	if len(active) == 0 {
		return Decision{Reason: ReasonAllWaiting, AllWaiting: true}
	}

	if b, ok := r.explicitMatch(active, intent, explicitHandlers); ok {
		return Decision{BranchID: b.ID, State: b.CurrentState, Reason: ReasonExplicitHandler}
	}

	switch r.strategy {
	case StrategyRoundRobin:
		b := active[r.counter%len(active)]
		r.counter++
		return Decision{BranchID: b.ID, State: b.CurrentState, Reason: ReasonRoundRobin}

	case StrategyPriority:
		sorted := make([]*domain.Branch, len(active))
		copy(sorted, active)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Priority > sorted[j].Priority
		})
		b := sorted[0]
		return Decision{BranchID: b.ID, State: b.CurrentState, Reason: ReasonPriority}

	default:
		b := active[0]
		return Decision{BranchID: b.ID, State: b.CurrentState, Reason: ReasonFirstActive}
	}
}

// explicitMatch applies the explicit-handler rule: exactly one active branch
// claiming the intent wins; zero or several claimants fall through to the
// strategy.
func (r *Router) explicitMatch(active []*domain.Branch, intent string, handlers map[string][]string) (*domain.Branch, bool) {
	if len(handlers) == 0 || intent == "" {
		return nil, false
	}

	var match *domain.Branch
	for _, b := range active {
		for _, claimed := range handlers[b.ID] {
			if claimed != intent {
				continue
			}
			if match != nil {
				r.logger.Debug("intent claimed by several branches, falling back to strategy",
					"intent", intent, "first", match.ID, "second", b.ID)
				return nil, false
			}
			match = b
			break
		}
	}
	return match, match != nil
}

// Broadcast fans an intent to every active branch. A failing handler
// contributes an {"error": ...} entry for its branch instead of aborting
// delivery to the rest.
func (r *Router) Broadcast(ctx context.Context, ec *domain.ExecutionContext, intent string, handler BroadcastHandler) map[string]any {
	results := make(map[string]any)
	for _, b := range ec.ActiveBranches() {
		out, err := handler(ctx, b, intent)
		if err != nil {
			r.logger.Debug("broadcast delivery failed", "branch_id", b.ID, "intent", intent, "err", err)
			results[b.ID] = map[string]any{"error": err.Error()}
			continue
		}
		results[b.ID] = out
	}
	return results
}
