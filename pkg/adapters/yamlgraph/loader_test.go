package yamlgraph_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arborflow/arbor/pkg/adapters/yamlgraph"
	"github.com/arborflow/arbor/pkg/domain"
	"github.com/arborflow/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tripGraph = `
nodes:
  - id: plan_trip
    type: fork
    join_target: summarize
    branches:
      - id: budget
        start_state: ask_budget
        priority: 2
      - id: visa
        start_state: ask_visa
        guard: needs_visa
  - id: summarize
    type: join
    join_policy: n_of_m
    n: 1
    expected_branches: [budget, visa]
    on_join: present_summary
`

const singleNode = `
id: route_request
type: choice
default: clarify
choices:
  - condition: wants_refund
    to: refund_flow
history: shallow
`

func writeGraph(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeGraph(t, dir, "trip.yaml", tripGraph)
	writeGraph(t, dir, "routing.yml", singleNode)
	writeGraph(t, dir, "notes.txt", "not yaml, ignored")

	loader, err := yamlgraph.LoadDir(dir)
	require.NoError(t, err)

	ports.RunConfigLoaderContract(t, loader, []string{"plan_trip", "summarize", "route_request"})

	fork, err := loader.GetNode("plan_trip")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeTypeFork, fork.Type)
	require.Len(t, fork.Branches, 2)
	assert.Equal(t, "budget", fork.Branches[0].ID)
	assert.Equal(t, 2, fork.Branches[0].Priority)
	assert.Equal(t, "needs_visa", fork.Branches[1].Guard)
	assert.Equal(t, "summarize", fork.JoinTarget)

	join, err := loader.GetNode("summarize")
	require.NoError(t, err)
	assert.Equal(t, domain.JoinNofM, join.JoinPolicy)
	assert.Equal(t, 1, join.N)
	assert.Equal(t, []string{"budget", "visa"}, join.ExpectedBranches)
	assert.Equal(t, "present_summary", join.OnJoin)

	choice, err := loader.GetNode("route_request")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeTypeChoice, choice.Type)
	assert.Equal(t, "clarify", choice.Default)
	assert.Equal(t, domain.HistoryShallow, choice.History)
}

func TestLoadFileDefaultsType(t *testing.T) {
	dir := t.TempDir()
	writeGraph(t, dir, "plain.yaml", "id: greeting\n")

	loader, err := yamlgraph.LoadFile(filepath.Join(dir, "plain.yaml"))
	require.NoError(t, err)

	cfg, err := loader.GetNode("greeting")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeTypeSimple, cfg.Type)
}

func TestLoadDirRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeGraph(t, dir, "a.yaml", "id: same\n")
	writeGraph(t, dir, "b.yaml", "id: same\n")

	_, err := yamlgraph.LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node id")
}

func TestLoadDirRejectsMissingID(t *testing.T) {
	dir := t.TempDir()
	writeGraph(t, dir, "anon.yaml", "type: choice\n")

	_, err := yamlgraph.LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing an id")
}
