package domain

import "time"

// EventType categorizes a logged transition.
type EventType string

const (
	EventChoiceEvaluated EventType = "choice_evaluated"
	EventChoiceTaken     EventType = "choice_taken"
	EventChoiceDefault   EventType = "choice_default"
	EventForkStarted     EventType = "fork_started"
	EventBranchActivated EventType = "branch_activated"
	EventBranchCompleted EventType = "branch_completed"
	EventBranchSkipped   EventType = "branch_skipped"
	EventJoinWaiting     EventType = "join_waiting"
	EventJoinComplete    EventType = "join_complete"
	EventTransition      EventType = "transition"
	EventHistorySaved    EventType = "history_saved"
	EventHistoryRestored EventType = "history_restored"
)

// Event is one immutable entry of the append-only audit log. Events are
// created once per state-changing operation and never rewritten; replaying
// the log in insertion order reproduces the run for debugging.
type Event struct {
	Type      EventType      `json:"type"`
	NodeID    string         `json:"node_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent stamps a new event with the current time.
func NewEvent(t EventType, nodeID string, data map[string]any) Event {
	return Event{
		Type:      t,
		NodeID:    nodeID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func (e Event) toMap() map[string]any {
	return map[string]any{
		"type":      string(e.Type),
		"node_id":   e.NodeID,
		"timestamp": e.Timestamp.Format(time.RFC3339Nano),
		"data":      copyMap(e.Data),
	}
}

func eventFromMap(m map[string]any) Event {
	return Event{
		Type:      EventType(asString(m["type"])),
		NodeID:    asString(m["node_id"]),
		Timestamp: parseTime(m["timestamp"]),
		Data:      asMap(m["data"]),
	}
}
