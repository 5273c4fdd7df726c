package arbor

import (
	"context"
	"io"
	"log/slog"

	"github.com/arborflow/arbor/internal/runtime"
	"github.com/arborflow/arbor/pkg/domain"
	"github.com/arborflow/arbor/pkg/observability"
	"github.com/arborflow/arbor/pkg/ports"
	"github.com/arborflow/arbor/pkg/routing"
)

// Finding is a graph validation diagnostic. See ValidateGraph.
type Finding = runtime.Finding

// Engine is the high-level entry point for the Arbor library.
// It wraps the internal executor and branch router and provides a
// simplified API for consumers.
type Engine struct {
	executor  *runtime.Executor
	router    *routing.Router
	loader    ports.ConfigLoader
	evaluator ports.ConditionEvaluator
	strategy  routing.Strategy
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithEvaluator sets the condition evaluator used for choice conditions
// and fork branch guards. Without one, every condition evaluates false.
func WithEvaluator(eval ports.ConditionEvaluator) Option {
	return func(e *Engine) {
		e.evaluator = eval
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRoutingStrategy selects how turn input is dispatched among active
// branches (default: routing.StrategyPriority).
func WithRoutingStrategy(s routing.Strategy) Option {
	return func(e *Engine) {
		e.strategy = s
	}
}

// WithMetrics attaches Prometheus instrumentation to every Execute call.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New initializes an Arbor Engine on top of the given node configuration
// loader.
func New(loader ports.ConfigLoader, opts ...Option) *Engine {
	eng := &Engine{
		loader:   loader,
		strategy: routing.StrategyPriority,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	eng.executor = runtime.NewExecutor(loader, eng.evaluator,
		runtime.WithLogger(eng.logger),
	)
	eng.router = routing.NewRouter(eng.strategy,
		routing.WithLogger(eng.logger),
	)

	return eng
}

// Execute runs one turn of DAG dispatch for the node the conversation is
// currently at. Non-DAG nodes pass through untouched (IsDAG=false on the
// result); DAG nodes mutate the execution context and report what happened.
//
// An error return signals a configuration fault (for example a choice node
// with no matching condition and no default). Runtime faults surface as a
// terminal dag_error result instead.
func (e *Engine) Execute(ctx context.Context, nodeID, intent string, evalCtx map[string]any, ec *domain.ExecutionContext) (*domain.ExecutionResult, error) {
	res, err := e.executor.Execute(ctx, nodeID, intent, evalCtx, ec)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.ObserveResult(res, ec)
	}
	return res, nil
}

// Route decides which active branch should handle the given intent.
func (e *Engine) Route(ec *domain.ExecutionContext, intent string, explicitHandlers map[string][]string) routing.Decision {
	return e.router.Route(ec, intent, explicitHandlers)
}

// Broadcast delivers an intent to every active branch, collecting each
// handler's result (or error) keyed by branch ID.
func (e *Engine) Broadcast(ctx context.Context, ec *domain.ExecutionContext, intent string, handler routing.BroadcastHandler) map[string]any {
	return e.router.Broadcast(ctx, ec, intent, handler)
}

// ValidateGraph statically checks every node the loader exposes and returns
// the findings. Fault-severity findings indicate configurations Execute
// would reject at runtime.
func (e *Engine) ValidateGraph() ([]Finding, error) {
	return e.executor.ValidateGraph()
}

// Loader returns the underlying ConfigLoader used by the engine.
func (e *Engine) Loader() ports.ConfigLoader {
	return e.loader
}
