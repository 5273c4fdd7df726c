package routing

import "sort"

// IntentBranchMapping is a bidirectional index between intents and the
// branches that claim them, pre-built so explicit-handler lookup is O(1)
// instead of scanning the handler table per turn.
type IntentBranchMapping struct {
	byIntent map[string]map[string]struct{}
	byBranch map[string]map[string]struct{}
}

// NewIntentBranchMapping creates an empty index.
func NewIntentBranchMapping() *IntentBranchMapping {
	return &IntentBranchMapping{
		byIntent: make(map[string]map[string]struct{}),
		byBranch: make(map[string]map[string]struct{}),
	}
}

// BuildIntentBranchMapping indexes an explicit-handler table
// (branch ID → intents it claims).
func BuildIntentBranchMapping(handlers map[string][]string) *IntentBranchMapping {
	m := NewIntentBranchMapping()
	for branchID, intents := range handlers {
		for _, intent := range intents {
			m.Bind(intent, branchID)
		}
	}
	return m
}

// Bind records that a branch claims an intent.
func (m *IntentBranchMapping) Bind(intent, branchID string) {
	if m.byIntent[intent] == nil {
		m.byIntent[intent] = make(map[string]struct{})
	}
	m.byIntent[intent][branchID] = struct{}{}

	if m.byBranch[branchID] == nil {
		m.byBranch[branchID] = make(map[string]struct{})
	}
	m.byBranch[branchID][intent] = struct{}{}
}

// Unbind removes one claim, cleaning up empty buckets.
func (m *IntentBranchMapping) Unbind(intent, branchID string) {
	if set, ok := m.byIntent[intent]; ok {
		delete(set, branchID)
		if len(set) == 0 {
			delete(m.byIntent, intent)
		}
	}
	if set, ok := m.byBranch[branchID]; ok {
		delete(set, intent)
		if len(set) == 0 {
			delete(m.byBranch, branchID)
		}
	}
}

// BranchesFor returns the branches claiming an intent, sorted for
// deterministic iteration.
func (m *IntentBranchMapping) BranchesFor(intent string) []string {
	return sortedKeys(m.byIntent[intent])
}

// IntentsFor returns the intents a branch claims, sorted.
func (m *IntentBranchMapping) IntentsFor(branchID string) []string {
	return sortedKeys(m.byBranch[branchID])
}

// Claims reports whether the branch claims the intent.
func (m *IntentBranchMapping) Claims(intent, branchID string) bool {
	_, ok := m.byIntent[intent][branchID]
	return ok
}

// Handlers renders the index back into an explicit-handler table usable with
// Router.Route.
func (m *IntentBranchMapping) Handlers() map[string][]string {
	out := make(map[string][]string, len(m.byBranch))
	for branchID := range m.byBranch {
		out[branchID] = m.IntentsFor(branchID)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
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
