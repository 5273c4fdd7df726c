package domain

// Action values carried by ExecutionResult. OnJoin configuration may replace
// ActionJoinComplete with a custom action name.
const (
	ActionTransition      = "transition"
	ActionForkStarted     = "fork_started"
	ActionParallelStarted = "parallel_started"
	ActionJoinWaiting     = "join_waiting"
	ActionJoinComplete    = "join_complete"
	ActionPassThrough     = "pass_through"
	ActionDAGError        = "dag_error"
)

// ExecutionResult is the sole return contract of the DAG executor,
// normalized across all node types.
type ExecutionResult struct {
	// IsDAG is false when the node had no DAG semantics (ordinary state or
	// forward-incompatible type); the orchestrator then falls back to
	// simple-state handling with PrimaryState echoing the node ID.
	IsDAG bool `json:"is_dag"`

	// Action names what happened: a transition, a fork, a join outcome, or
	// the configured on-join action.
	Action string `json:"action"`

	// PrimaryState is the single next state for callers that track one
	// state. After a fork it is the first active branch's state, or the
	// fork's join target when every branch was skipped.
	PrimaryState string `json:"primary_state"`

	// NextStates lists every state made current by this operation.
	NextStates []string `json:"next_states,omitempty"`

	// ActiveBranches lists the branch IDs activated or still active.
	ActiveBranches []string `json:"active_branches,omitempty"`

	// AggregatedData holds each terminal branch's collected data keyed by
	// branch ID, populated when a join is satisfied.
	AggregatedData map[string]any `json:"aggregated_data,omitempty"`

	// Event is the primary audit entry this operation appended.
	Event *Event `json:"event,omitempty"`

	// ShouldContinue is false when the run must park (unmet join) and wait
	// for the next external event instead of processing further this turn.
	ShouldContinue bool `json:"should_continue"`
}

// PassThroughResult is the deliberate non-DAG fallback: callers need no
// special-casing for ordinary states or unknown node types.
func PassThroughResult(nodeID string) *ExecutionResult {
	return &ExecutionResult{
		IsDAG:          false,
		Action:         ActionPassThrough,
		PrimaryState:   nodeID,
		ShouldContinue: true,
	}
}
