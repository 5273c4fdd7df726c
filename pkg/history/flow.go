package history

import "github.com/arborflow/arbor/pkg/domain"

// FlowTracker layers an explicit flow stack over the history manager,
// modeling "interrupt the current topic, handle a side topic, resume":
// starting a flow pushes the one being interrupted; completing or popping a
// flow restores the previous one and its saved state.
type FlowTracker struct {
	history *Manager
	current string
	stack   []string
}

// NewFlowTracker wraps a history manager. A nil manager gets a default one.
func NewFlowTracker(history *Manager) *FlowTracker {
	if history == nil {
		history = NewManager()
	}
	return &FlowTracker{history: history}
}

// History exposes the underlying manager.
func (f *FlowTracker) History() *Manager {
	return f.history
}

// CurrentFlow returns the flow currently in progress, empty when idle.
func (f *FlowTracker) CurrentFlow() string {
	return f.current
}

// Depth returns how many flows are suspended beneath the current one.
func (f *FlowTracker) Depth() int {
	return len(f.stack)
}

// StartFlow switches to flowID. If a flow is already in progress it is
// pushed onto the stack and its position saved as deep history under the
// flow's own ID, so nested interruptions unwind in order.
func (f *FlowTracker) StartFlow(flowID, interruptedState string, data map[string]any) {
	if f.current != "" {
		f.stack = append(f.stack, f.current)
		f.history.Save(f.current, interruptedState, domain.HistoryDeep, data)
	}
	f.current = flowID
}

// CompleteFlow ends the current flow, clearing its history, and resumes the
// most recently interrupted one. It returns the resumed flow's saved state.
func (f *FlowTracker) CompleteFlow() (flowID, state string, ok bool) {
	if f.current != "" {
		f.history.ClearRegion(f.current)
	}
	return f.PopFlow()
}

// PopFlow abandons the current flow without clearing its history and resumes
// the most recently interrupted one, restoring (and popping) its saved state.
func (f *FlowTracker) PopFlow() (flowID, state string, ok bool) {
	if len(f.stack) == 0 {
		f.current = ""
		return "", "", false
	}

	flowID = f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	f.current = flowID

	state, _ = f.history.Restore(flowID, domain.HistoryDeep, true)
	return flowID, state, true
}

// ToMap serializes the tracker (without its manager, which serializes
// separately) into primitive types.
func (f *FlowTracker) ToMap() map[string]any {
	return map[string]any{
		"current": f.current,
		"stack":   append([]string(nil), f.stack...),
	}
}

// FromMap reconstructs the tracker from its ToMap form.
func (f *FlowTracker) FromMap(data map[string]any) {
	f.current, _ = data["current"].(string)
	f.stack = nil
	switch stack := data["stack"].(type) {
	case []string:
		f.stack = append(f.stack, stack...)
	case []any:
		for _, raw := range stack {
			if s, ok := raw.(string); ok {
				f.stack = append(f.stack, s)
			}
		}
	}
}
