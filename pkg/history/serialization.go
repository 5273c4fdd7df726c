package history

import (
	"github.com/arborflow/arbor/pkg/domain"
)

// ToMap serializes the manager into nested maps of primitive/collection
// types. Every field round-trips exactly: a restore after FromMap observes
// the same shallow slots, deep stacks, interrupted flags and bound.
func (m *Manager) ToMap() map[string]any {
	shallow := make(map[string]any, len(m.shallow))
	for k, v := range m.shallow {
		shallow[k] = v
	}

	shallowData := make(map[string]any, len(m.shallowData))
	for k, v := range m.shallowData {
		shallowData[k] = copyData(v)
	}

	deep := make(map[string]any, len(m.deep))
	for region, stack := range m.deep {
		entries := make([]any, len(stack))
		for i, e := range stack {
			entries[i] = e.ToMap()
		}
		deep[region] = entries
	}

	var interrupted []string
	for region, flagged := range m.interrupted {
		if flagged {
			interrupted = append(interrupted, region)
		}
	}

	return map[string]any{
		"shallow":          shallow,
		"shallow_data":     shallowData,
		"deep":             deep,
		"interrupted":      interrupted,
		"max_deep_history": m.maxDeep,
	}
}

// FromMap reconstructs a manager from its ToMap form. Options already
// applied to m (logger) are preserved; persisted fields win over defaults.
func (m *Manager) FromMap(data map[string]any) error {
	m.ClearAll()

	if shallow, ok := data["shallow"].(map[string]any); ok {
		for region, v := range shallow {
			if s, ok := v.(string); ok {
				m.shallow[region] = s
			}
		}
	}

	if shallowData, ok := data["shallow_data"].(map[string]any); ok {
		for region, v := range shallowData {
			if dm, ok := v.(map[string]any); ok {
				m.shallowData[region] = copyData(dm)
			}
		}
	}

	if deep, ok := data["deep"].(map[string]any); ok {
		for region, v := range deep {
			entries, ok := v.([]any)
			if !ok {
				return domain.ErrMalformedSnapshot
			}
			stack := make([]domain.HistoryEntry, 0, len(entries))
			for _, raw := range entries {
				em, ok := raw.(map[string]any)
				if !ok {
					return domain.ErrMalformedSnapshot
				}
				stack = append(stack, domain.HistoryEntryFromMap(em))
			}
			m.deep[region] = stack
		}
	}

	switch interrupted := data["interrupted"].(type) {
	case []string:
		for _, region := range interrupted {
			m.interrupted[region] = true
		}
	case []any:
		for _, raw := range interrupted {
			if region, ok := raw.(string); ok {
				m.interrupted[region] = true
			}
		}
	}

	if maxDeep, ok := data["max_deep_history"]; ok {
		switch n := maxDeep.(type) {
		case int:
			if n >= 1 {
				m.maxDeep = n
			}
		case int64:
			if n >= 1 {
				m.maxDeep = int(n)
			}
		case float64:
			if n >= 1 {
				m.maxDeep = int(n)
			}
		}
	}

	return nil
}
