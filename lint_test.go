package buildgraph

import (
	"testing"

	"github.com/jward/buildgraph/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLint_CleanGraph(t *testing.T) {
	t.Parallel()
	issues := Lint(scenarioGraph())
	assert.Empty(t, issues)
	assert.NotNil(t, issues)
	assert.Empty(t, Lint(nil))
}

func TestLint_DanglingTarget(t *testing.T) {
	t.Parallel()
	g := scenarioGraph()
	g.DependOn("/App", "App", node("/Gone", "Ghost"))

	issues := Lint(g)
	require.Len(t, issues, 1)
	assert.Equal(t, IssueDanglingTarget, issues[0].Kind)
	assert.Equal(t, []string{"target:/Gone:Ghost"}, issues[0].Nodes)
	assert.Contains(t, issues[0].Message, "Ghost")
}

func TestLint_Cycle(t *testing.T) {
	t.Parallel()
	g := model.NewGraph("w", "/P")
	for _, n := range []string{"A", "B", "C", "D"} {
		g.AddTarget("/P", tgt(n, model.Framework))
	}
	g.DependOn("/P", "A", node("/P", "B"))
	g.DependOn("/P", "B", node("/P", "C"))
	g.DependOn("/P", "C", node("/P", "A"))
	g.DependOn("/P", "D", node("/P", "D"))

	issues := Lint(g)
	require.Len(t, issues, 2)
	assert.Equal(t, IssueCycle, issues[0].Kind)
	assert.Len(t, issues[0].Nodes, 4)
	assert.Equal(t, issues[0].Nodes[0], issues[0].Nodes[3])
	assert.ElementsMatch(t, []string{"target:/P:A", "target:/P:B", "target:/P:C"}, issues[0].Nodes[:3])
	assert.Equal(t, []string{"target:/P:D", "target:/P:D"}, issues[1].Nodes)
}

func TestLint_CycleFollowsRealEdges(t *testing.T) {
	t.Parallel()
	g := model.NewGraph("w", "/P")
	for _, n := range []string{"A", "B", "C"} {
		g.AddTarget("/P", tgt(n, model.Framework))
	}
	// One component; C -> B exists but C -> A and A -> C do not.
	g.DependOn("/P", "A", node("/P", "B"))
	g.DependOn("/P", "B", node("/P", "A"), node("/P", "C"))
	g.DependOn("/P", "C", node("/P", "B"))

	issues := Lint(g)
	require.Len(t, issues, 1)
	assert.Equal(t, []string{"target:/P:A", "target:/P:B", "target:/P:A"}, issues[0].Nodes)
	assert.Contains(t, issues[0].Message, "1 more nodes")

	for i := 0; i+1 < len(issues[0].Nodes); i++ {
		from, to := issues[0].Nodes[i], issues[0].Nodes[i+1]
		found := false
		for _, d := range g.Nodes() {
			if d.String() != from {
				continue
			}
			for _, e := range g.Edges(d) {
				found = found || e.String() == to
			}
		}
		assert.True(t, found, "no edge %s -> %s", from, to)
	}
}
