package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arborflow/arbor/internal/logging"
	"github.com/arborflow/arbor/pkg/domain"
	"github.com/arborflow/arbor/pkg/ports"
)

// handlerFunc executes one node type. Returned errors are configuration
// faults only; anything else is recovered at the dispatch boundary.
type handlerFunc func(ctx context.Context, cfg *domain.NodeConfig, evalCtx map[string]any, ec *domain.ExecutionContext) (*domain.ExecutionResult, error)

// Executor dispatches a node by type to its handler and returns a normalized
// result. It holds no per-run state: everything mutable lives on the
// ExecutionContext passed into Execute.
type Executor struct {
	loader    ports.ConfigLoader
	evaluator ports.ConditionEvaluator
	logger    *slog.Logger
	handlers  map[domain.NodeType]handlerFunc
}

// Option configures the Executor.
type Option func(*Executor)

// WithLogger sets a structured logger for the executor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor over the given configuration source and
// condition-evaluation capability. A nil evaluator makes every guard false,
// which degrades choices to their default transition and forks to all-skip.
func NewExecutor(loader ports.ConfigLoader, evaluator ports.ConditionEvaluator, opts ...Option) *Executor {
	e := &Executor{
		loader:    loader,
		evaluator: evaluator,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.handlers = map[domain.NodeType]handlerFunc{
		domain.NodeTypeChoice:   e.executeChoice,
		domain.NodeTypeFork:     e.executeFork,
		domain.NodeTypeJoin:     e.executeJoin,
		domain.NodeTypeParallel: e.executeParallel,
	}
	return e
}

// Execute runs one node against the execution context.
//
// Nodes the loader does not know, and node types outside the handler table,
// return a pass-through result (IsDAG=false, PrimaryState=nodeID) so callers
// need no special-casing for ordinary states or forward-incompatible
// configuration. Configuration faults surface as named errors. Every other
// handler failure, panics included, becomes a terminal dag_error result.
func (e *Executor) Execute(ctx context.Context, nodeID, intent string, evalCtx map[string]any, ec *domain.ExecutionContext) (result *domain.ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("dag handler recovered", "node_id", nodeID, "panic", r)
			result, err = e.dagError(nodeID, fmt.Sprintf("handler panic: %v", r), ec), nil
		}
	}()

	cfg, lerr := e.loader.GetNode(nodeID)
	if lerr != nil {
		// Unknown node: deliberate pass-through. Anything else from the
		// loader is a runtime fault the caller should not crash on.
		if isNotFound(lerr) {
			return domain.PassThroughResult(nodeID), nil
		}
		e.logger.Error("config load failed", "node_id", nodeID, "err", lerr)
		return e.dagError(nodeID, lerr.Error(), ec), nil
	}

	handler, ok := e.handlers[cfg.Type]
	if !ok {
		return domain.PassThroughResult(nodeID), nil
	}

	return handler(ctx, cfg, withIntent(evalCtx, intent), ec)
}

// evalGuard invokes the external evaluator. Evaluator failures are recovered
// locally: they count as false for that one guard and never propagate.
func (e *Executor) evalGuard(ctx context.Context, condition string, evalCtx map[string]any, nodeID string) bool {
	if e.evaluator == nil {
		e.logger.Debug("no evaluator configured, guard treated as false",
			"node_id", nodeID, "condition", condition)
		return false
	}
	ok, err := e.evaluator(ctx, condition, evalCtx)
	if err != nil {
		e.logger.Debug("guard evaluation failed, treated as false",
			"node_id", nodeID, "condition", condition, "err", err)
		return false
	}
	return ok
}

// dagError converts a fault into the terminal, non-throwing result contract.
func (e *Executor) dagError(nodeID, msg string, ec *domain.ExecutionContext) *domain.ExecutionResult {
	ev := domain.NewEvent(domain.EventTransition, nodeID, map[string]any{
		"action": domain.ActionDAGError,
		"error":  msg,
	})
	ec.AppendEvent(ev)
	return &domain.ExecutionResult{
		IsDAG:          true,
		Action:         domain.ActionDAGError,
		PrimaryState:   nodeID,
		Event:          &ev,
		ShouldContinue: false,
	}
}

// withIntent exposes the routed intent to guard expressions without mutating
// the caller's evaluation context.
func withIntent(evalCtx map[string]any, intent string) map[string]any {
	out := make(map[string]any, len(evalCtx)+1)
	for k, v := range evalCtx {
		out[k] = v
	}
	if intent != "" {
		out["intent"] = intent
	}
	return out
}
