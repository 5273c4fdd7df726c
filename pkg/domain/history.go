package domain

import "time"

// HistoryEntry is one retained deep-history snapshot for a region.
// Entries are appended per region and evicted oldest-first when the region's
// bound is exceeded.
type HistoryEntry struct {
	State     string         `json:"state"`
	RegionID  string         `json:"region_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// ToMap serializes the entry into primitive/collection types only.
func (h HistoryEntry) ToMap() map[string]any {
	return map[string]any{
		"state":     h.State,
		"region_id": h.RegionID,
		"timestamp": h.Timestamp.Format(time.RFC3339Nano),
		"data":      copyMap(h.Data),
	}
}

// HistoryEntryFromMap reconstructs an entry from its ToMap form.
func HistoryEntryFromMap(m map[string]any) HistoryEntry {
	return HistoryEntry{
		State:     asString(m["state"]),
		RegionID:  asString(m["region_id"]),
		Timestamp: parseTime(m["timestamp"]),
		Data:      asMap(m["data"]),
	}
}
