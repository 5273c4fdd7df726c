package domain

// NodeType classifies a node by its control-flow behavior.
type NodeType string

const (
	// NodeTypeSimple is an ordinary state with no DAG semantics.
	NodeTypeSimple NodeType = "simple"
	// NodeTypeChoice follows exactly one outgoing path (XOR), chosen by
	// ordered guard evaluation.
	NodeTypeChoice NodeType = "choice"
	// NodeTypeFork splits execution into multiple concurrently active branches.
	NodeTypeFork NodeType = "fork"
	// NodeTypeJoin waits for forked branches to terminate before continuing.
	NodeTypeJoin NodeType = "join"
	// NodeTypeParallel is a compound state: one branch per declared region,
	// all activated immediately.
	NodeTypeParallel NodeType = "parallel"
)

// String returns the string representation of the node type.
func (t NodeType) String() string {
	return string(t)
}

// IsDAG reports whether the node type carries DAG semantics.
// Unknown types are not DAG nodes: they degrade to simple pass-through.
func (t NodeType) IsDAG() bool {
	switch t {
	case NodeTypeChoice, NodeTypeFork, NodeTypeJoin, NodeTypeParallel:
		return true
	default:
		return false
	}
}

// HistoryType defines how much of an interrupted region is remembered.
type HistoryType string

const (
	// HistoryNone disables history for a region.
	HistoryNone HistoryType = "none"
	// HistoryShallow remembers only the most recent state of a region.
	HistoryShallow HistoryType = "shallow"
	// HistoryDeep keeps an ordered stack of states per region for
	// multi-level resume.
	HistoryDeep HistoryType = "deep"
)

// JoinCondition selects the policy a join (or sync point) uses to decide
// whether its expected branches have rendezvoused.
type JoinCondition string

const (
	// JoinAllComplete is satisfied when every expected branch is terminal.
	JoinAllComplete JoinCondition = "all_complete"
	// JoinAnyComplete is satisfied when at least one expected branch is terminal.
	JoinAnyComplete JoinCondition = "any_complete"
	// JoinMajority is satisfied when strictly more than half of the expected
	// branches are terminal. For two branches this degenerates to requiring
	// both; the validator flags that at configuration time.
	JoinMajority JoinCondition = "majority"
	// JoinNofM is satisfied when at least N expected branches are terminal.
	// N must be configured explicitly.
	JoinNofM JoinCondition = "n_of_m"
	// JoinTimeout is never satisfied by arrivals, only by elapsed wall-clock
	// time. It is valid only on sync points, which are the sole holders of a
	// timeout clock.
	JoinTimeout JoinCondition = "timeout"
)

// Satisfied evaluates the policy given the size of the expected set and how
// many of those expected branches are terminal. The terminal count must
// already be intersected with the expected set by the caller.
//
// Majority is a strict majority (> expected/2, not >=): over two branches it
// degenerates to requiring both. That formula is intentional and flagged at
// configuration time rather than special-cased here.
func (c JoinCondition) Satisfied(terminal, expected, n int) (bool, error) {
	switch c {
	case JoinAllComplete:
		return terminal >= expected, nil
	case JoinAnyComplete:
		return terminal > 0, nil
	case JoinMajority:
		return terminal*2 > expected, nil
	case JoinNofM:
		if n <= 0 {
			return false, &PolicyError{Policy: c, Reason: "n_of_m requires an explicit n > 0"}
		}
		return terminal >= n, nil
	case JoinTimeout:
		// Only elapsed time satisfies a timeout policy.
		return false, nil
	default:
		return false, &PolicyError{Policy: c, Reason: "unknown join policy"}
	}
}
