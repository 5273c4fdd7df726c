package observability_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/arborflow/arbor/pkg/domain"
	"github.com/arborflow/arbor/pkg/observability"
)

func TestObserveEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.ObserveEvent(domain.NewEvent(domain.EventChoiceTaken, "n1", nil))
	m.ObserveEvent(domain.NewEvent(domain.EventChoiceTaken, "n2", nil))
	m.ObserveEvent(domain.NewEvent(domain.EventJoinWaiting, "j1", nil))

	families, err := reg.Gather()
	assert.NoError(t, err)

	byName := make(map[string]bool)
	for _, f := range families {
		byName[f.GetName()] = true
	}
	assert.True(t, byName["arbor_events_total"])
	assert.True(t, byName["arbor_join_waits_total"])
}

func TestObserveResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	ec := domain.NewExecutionContext()
	assert.NoError(t, ec.AddBranch(domain.NewBranch("a", "s1")))
	assert.NoError(t, ec.ActivateBranch("a"))

	ev := domain.NewEvent(domain.EventTransition, "n1", map[string]any{"action": domain.ActionDAGError})
	m.ObserveResult(&domain.ExecutionResult{
		IsDAG:  true,
		Action: domain.ActionDAGError,
		Event:  &ev,
	}, ec)

	count, err := testutil.GatherAndCount(reg, "arbor_dag_errors_total", "arbor_active_branches")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	// A nil result is ignored without panicking.
	m.ObserveResult(nil, ec)
}
