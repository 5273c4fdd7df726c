package domain

import "time"

// BranchStatus describes where a branch is in its lifecycle.
// Transitions are monotonic: Pending -> Active -> one terminal status.
type BranchStatus string

const (
	BranchPending   BranchStatus = "pending"
	BranchActive    BranchStatus = "active"
	BranchCompleted BranchStatus = "completed"
	BranchSkipped   BranchStatus = "skipped"
	BranchFailed    BranchStatus = "failed"
)

// Terminal reports whether the status is final.
func (s BranchStatus) Terminal() bool {
	switch s {
	case BranchCompleted, BranchSkipped, BranchFailed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is a legal lifecycle step.
func (s BranchStatus) CanTransition(next BranchStatus) bool {
	switch s {
	case BranchPending:
		return next == BranchActive || next == BranchSkipped
	case BranchActive:
		return next.Terminal()
	default:
		return false
	}
}

// Branch is one forked sub-flow with its own state and locally collected data.
// It is exclusively owned by the ExecutionContext that created it.
type Branch struct {
	ID           string         `json:"id"`
	StartState   string         `json:"start_state"`
	CurrentState string         `json:"current_state"`
	Status       BranchStatus   `json:"status"`
	Data         map[string]any `json:"data,omitempty"`
	Result       any            `json:"result,omitempty"`

	// Priority is externally assigned and consulted by the priority routing
	// strategy. Default 0.
	Priority int `json:"priority,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// NewBranch creates a pending branch positioned at its start state.
func NewBranch(id, startState string) *Branch {
	return &Branch{
		ID:           id,
		StartState:   startState,
		CurrentState: startState,
		Status:       BranchPending,
		Data:         make(map[string]any),
		CreatedAt:    time.Now().UTC(),
	}
}

// SetStatus applies a lifecycle transition, stamping CompletedAt on terminal
// statuses. It returns ErrInvalidBranchTransition if the step is not legal.
func (b *Branch) SetStatus(next BranchStatus) error {
	if !b.Status.CanTransition(next) {
		return ErrInvalidBranchTransition
	}
	b.Status = next
	if next.Terminal() {
		b.CompletedAt = time.Now().UTC()
	}
	return nil
}

// SetData records a locally collected value on the branch.
func (b *Branch) SetData(key string, value any) {
	if b.Data == nil {
		b.Data = make(map[string]any)
	}
	b.Data[key] = value
}

// toMap serializes the branch into primitive/collection types only.
func (b *Branch) toMap() map[string]any {
	m := map[string]any{
		"id":            b.ID,
		"start_state":   b.StartState,
		"current_state": b.CurrentState,
		"status":        string(b.Status),
		"data":          copyMap(b.Data),
		"priority":      b.Priority,
		"created_at":    b.CreatedAt.Format(time.RFC3339Nano),
	}
	if b.Result != nil {
		m["result"] = b.Result
	}
	if !b.CompletedAt.IsZero() {
		m["completed_at"] = b.CompletedAt.Format(time.RFC3339Nano)
	}
	return m
}

// branchFromMap reconstructs a branch from its toMap form.
func branchFromMap(m map[string]any) (*Branch, error) {
	id, _ := m["id"].(string)
	if id == "" {
		return nil, ErrMalformedSnapshot
	}
	b := &Branch{
		ID:     id,
		Status: BranchStatus(asString(m["status"])),
		Data:   asMap(m["data"]),
		Result: m["result"],
	}
	b.StartState = asString(m["start_state"])
	b.CurrentState = asString(m["current_state"])
	b.Priority = asInt(m["priority"])
	b.CreatedAt = parseTime(m["created_at"])
	b.CompletedAt = parseTime(m["completed_at"])
	if b.Data == nil {
		b.Data = make(map[string]any)
	}
	return b, nil
}
