package domain

// ForkFrame records one open fork on the context's fork stack.
// The top of the stack is always the innermost open fork.
type ForkFrame struct {
	// ForkID is the fork node's ID, or a synthetic ID for parallel regions.
	ForkID string `json:"fork_id"`
	// JoinNodeID is the join this fork converges on, when declared.
	JoinNodeID string `json:"join_node_id,omitempty"`
	// BranchIDs lists every branch the fork created, skipped ones included.
	BranchIDs []string `json:"branch_ids"`
}

// ExecutionContext is the aggregate root of one DAG run. It owns every
// branch it creates: a branch ID is a member of at most one of the active or
// completed collections at any time, and moves to completed exactly once,
// on termination.
//
// The context is not internally synchronized. The design assumes a single
// writer per conversation within a turn; concurrent hosts isolate one
// context per conversation instead of locking.
type ExecutionContext struct {
	active    map[string]*Branch
	completed map[string]*Branch
	// order preserves branch creation order, so "first active branch" is
	// deterministic even though the maps are not.
	order []string

	forkStack []ForkFrame

	shallowHistory map[string]string
	deepHistory    map[string][]string

	events []Event
}

// NewExecutionContext creates an empty context.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{
		active:         make(map[string]*Branch),
		completed:      make(map[string]*Branch),
		shallowHistory: make(map[string]string),
		deepHistory:    make(map[string][]string),
	}
}

// AddBranch registers a new branch under the context's ownership.
func (ec *ExecutionContext) AddBranch(b *Branch) error {
	if _, ok := ec.active[b.ID]; ok {
		return ErrBranchExists
	}
	if _, ok := ec.completed[b.ID]; ok {
		return ErrBranchExists
	}
	if b.Status.Terminal() {
		ec.completed[b.ID] = b
	} else {
		ec.active[b.ID] = b
	}
	ec.order = append(ec.order, b.ID)
	return nil
}

// Branch looks up a branch in either collection.
func (ec *ExecutionContext) Branch(id string) (*Branch, bool) {
	if b, ok := ec.active[id]; ok {
		return b, true
	}
	b, ok := ec.completed[id]
	return b, ok
}

// ActiveBranches returns the non-terminal branches in creation order.
func (ec *ExecutionContext) ActiveBranches() []*Branch {
	out := make([]*Branch, 0, len(ec.active))
	for _, id := range ec.order {
		if b, ok := ec.active[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// ActiveBranchIDs returns the IDs of non-terminal branches in creation order.
func (ec *ExecutionContext) ActiveBranchIDs() []string {
	branches := ec.ActiveBranches()
	ids := make([]string, len(branches))
	for i, b := range branches {
		ids[i] = b.ID
	}
	return ids
}

// CompletedBranches returns the terminal branches in creation order.
func (ec *ExecutionContext) CompletedBranches() []*Branch {
	out := make([]*Branch, 0, len(ec.completed))
	for _, id := range ec.order {
		if b, ok := ec.completed[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// ActivateBranch moves a pending branch to active.
func (ec *ExecutionContext) ActivateBranch(id string) error {
	b, ok := ec.active[id]
	if !ok {
		return ErrBranchNotFound
	}
	return b.SetStatus(BranchActive)
}

// CompleteBranch terminates a branch successfully, recording its result and
// moving it to the completed collection.
func (ec *ExecutionContext) CompleteBranch(id string, result any) error {
	return ec.terminate(id, BranchCompleted, result)
}

// SkipBranch terminates a branch without it ever having run.
func (ec *ExecutionContext) SkipBranch(id string) error {
	return ec.terminate(id, BranchSkipped, nil)
}

// FailBranch terminates a branch with a failure result.
func (ec *ExecutionContext) FailBranch(id string, result any) error {
	return ec.terminate(id, BranchFailed, result)
}

func (ec *ExecutionContext) terminate(id string, status BranchStatus, result any) error {
	b, ok := ec.active[id]
	if !ok {
		if _, done := ec.completed[id]; done {
			return ErrInvalidBranchTransition
		}
		return ErrBranchNotFound
	}
	if err := b.SetStatus(status); err != nil {
		return err
	}
	if result != nil {
		b.Result = result
	}
	delete(ec.active, id)
	ec.completed[id] = b
	return nil
}

// PushFork opens a fork frame.
func (ec *ExecutionContext) PushFork(f ForkFrame) {
	ec.forkStack = append(ec.forkStack, f)
}

// CurrentFork returns the innermost open fork without removing it.
func (ec *ExecutionContext) CurrentFork() (ForkFrame, bool) {
	if len(ec.forkStack) == 0 {
		return ForkFrame{}, false
	}
	return ec.forkStack[len(ec.forkStack)-1], true
}

// PopFork closes the innermost open fork.
func (ec *ExecutionContext) PopFork() (ForkFrame, bool) {
	if len(ec.forkStack) == 0 {
		return ForkFrame{}, false
	}
	top := ec.forkStack[len(ec.forkStack)-1]
	ec.forkStack = ec.forkStack[:len(ec.forkStack)-1]
	return top, true
}

// ForkDepth returns the number of open forks.
func (ec *ExecutionContext) ForkDepth() int {
	return len(ec.forkStack)
}

// SetShallowHistory records the most recent state of a region.
func (ec *ExecutionContext) SetShallowHistory(regionID, state string) {
	ec.shallowHistory[regionID] = state
}

// ShallowHistory returns a region's remembered state.
func (ec *ExecutionContext) ShallowHistory(regionID string) (string, bool) {
	s, ok := ec.shallowHistory[regionID]
	return s, ok
}

// PushDeepHistory appends a state to a region's deep history.
func (ec *ExecutionContext) PushDeepHistory(regionID, state string) {
	ec.deepHistory[regionID] = append(ec.deepHistory[regionID], state)
}

// DeepHistory returns a copy of a region's deep history, oldest first.
func (ec *ExecutionContext) DeepHistory(regionID string) []string {
	src := ec.deepHistory[regionID]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// AppendEvent adds one entry to the audit log. The log is append-only;
// entries are never rewritten or removed.
func (ec *ExecutionContext) AppendEvent(e Event) {
	ec.events = append(ec.events, e)
}

// Events returns a copy of the event log in insertion order.
func (ec *ExecutionContext) Events() []Event {
	out := make([]Event, len(ec.events))
	copy(out, ec.events)
	return out
}

// EventCount returns the current length of the event log.
func (ec *ExecutionContext) EventCount() int {
	return len(ec.events)
}

// ToMap serializes the context into nested maps of primitive/collection
// types, suitable for JSON/YAML persistence between turns.
func (ec *ExecutionContext) ToMap() map[string]any {
	active := make(map[string]any, len(ec.active))
	for id, b := range ec.active {
		active[id] = b.toMap()
	}
	completed := make(map[string]any, len(ec.completed))
	for id, b := range ec.completed {
		completed[id] = b.toMap()
	}

	forks := make([]any, len(ec.forkStack))
	for i, f := range ec.forkStack {
		forks[i] = map[string]any{
			"fork_id":      f.ForkID,
			"join_node_id": f.JoinNodeID,
			"branch_ids":   append([]string(nil), f.BranchIDs...),
		}
	}

	shallow := make(map[string]any, len(ec.shallowHistory))
	for k, v := range ec.shallowHistory {
		shallow[k] = v
	}
	deep := make(map[string]any, len(ec.deepHistory))
	for k, v := range ec.deepHistory {
		deep[k] = append([]string(nil), v...)
	}

	events := make([]any, len(ec.events))
	for i, e := range ec.events {
		events[i] = e.toMap()
	}

	return map[string]any{
		"active_branches":    active,
		"completed_branches": completed,
		"branch_order":       append([]string(nil), ec.order...),
		"fork_stack":         forks,
		"shallow_history":    shallow,
		"deep_history":       deep,
		"events":             events,
	}
}

// ExecutionContextFromMap reconstructs a context from its ToMap form.
func ExecutionContextFromMap(m map[string]any) (*ExecutionContext, error) {
	ec := NewExecutionContext()

	loadBranches := func(raw any, dst map[string]*Branch) error {
		entries, ok := raw.(map[string]any)
		if !ok {
			return nil
		}
		for id, entry := range entries {
			bm, ok := entry.(map[string]any)
			if !ok {
				return ErrMalformedSnapshot
			}
			b, err := branchFromMap(bm)
			if err != nil {
				return err
			}
			dst[id] = b
		}
		return nil
	}

	if err := loadBranches(m["active_branches"], ec.active); err != nil {
		return nil, err
	}
	if err := loadBranches(m["completed_branches"], ec.completed); err != nil {
		return nil, err
	}
	ec.order = asStringSlice(m["branch_order"])

	if frames, ok := m["fork_stack"].([]any); ok {
		for _, raw := range frames {
			fm, ok := raw.(map[string]any)
			if !ok {
				return nil, ErrMalformedSnapshot
			}
			ec.forkStack = append(ec.forkStack, ForkFrame{
				ForkID:     asString(fm["fork_id"]),
				JoinNodeID: asString(fm["join_node_id"]),
				BranchIDs:  asStringSlice(fm["branch_ids"]),
			})
		}
	}

	if shallow, ok := m["shallow_history"].(map[string]any); ok {
		for k, v := range shallow {
			ec.shallowHistory[k] = asString(v)
		}
	}
	if deep, ok := m["deep_history"].(map[string]any); ok {
		for k, v := range deep {
			ec.deepHistory[k] = asStringSlice(v)
		}
	}

	if events, ok := m["events"].([]any); ok {
		for _, raw := range events {
			em, ok := raw.(map[string]any)
			if !ok {
				return nil, ErrMalformedSnapshot
			}
			ec.events = append(ec.events, eventFromMap(em))
		}
	}

	return ec, nil
}
