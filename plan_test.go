package buildgraph

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingTraverser records how many projects the planner asked for.
type countingTraverser struct {
	*Traverser
	projects atomic.Int32
}

func (c *countingTraverser) Targets(path string) []Target {
	c.projects.Add(1)
	return c.Traverser.Targets(path)
}

func TestPlan_Workspace(t *testing.T) {
	t.Parallel()
	tr := NewTraverser(linkGraph())
	p := NewPlanner(tr)

	plan, err := p.Plan(context.Background(), PlanOptions{Paths: []string{"/Lib", "/App", "/Lib"}, Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, plan.Projects, 2)
	assert.Equal(t, "/App", plan.Projects[0].Path)
	assert.Equal(t, "/Lib", plan.Projects[1].Path)

	app := plan.Projects[0].Targets[0]
	assert.Equal(t, "App", app.Name)
	assert.Equal(t, tr.LinkableDependencies("/App", "App"), app.Link)
	assert.Equal(t, tr.EmbeddableFrameworks("/App", "App"), app.Embed)
	assert.Equal(t, []string{"CoreResources"}, app.ResourceBundles)
	assert.Equal(t, []string{"/Libs/include"}, app.HeaderSearchPaths)
	assert.Equal(t, []string{"AppTests"}, app.DependentTests)
	assert.Empty(t, app.Host)

	tests := plan.Projects[0].Targets[1]
	assert.Equal(t, "AppTests", tests.Name)
	assert.Equal(t, "App", tests.Host)

	names := make([]string, 0, len(plan.Projects[1].Targets))
	for _, tp := range plan.Projects[1].Targets {
		names = append(names, tp.Name)
	}
	assert.Equal(t, []string{"Core", "CoreResources", "CoreTests", "Inner", "Kit", "Mock", "Net", "Util"}, names)
}

func TestPlan_DeterministicAcrossConcurrency(t *testing.T) {
	t.Parallel()
	tr := NewTraverser(linkGraph())
	paths := tr.Graph().ProjectPaths()

	serial, err := NewPlanner(tr).Plan(context.Background(), PlanOptions{Paths: paths, Concurrency: 1})
	require.NoError(t, err)
	parallel, err := NewPlanner(tr).Plan(context.Background(), PlanOptions{Paths: paths, Concurrency: 8})
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)
}

func TestPlan_UsesTraverserInterface(t *testing.T) {
	t.Parallel()
	ct := &countingTraverser{Traverser: NewTraverser(linkGraph())}

	_, err := NewPlanner(ct).Plan(context.Background(), PlanOptions{Paths: []string{"/App", "/Lib"}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), ct.projects.Load())
}

func TestPlan_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPlanner(NewTraverser(linkGraph())).Plan(ctx, PlanOptions{Paths: []string{"/App"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPlan_NoPaths(t *testing.T) {
	t.Parallel()
	plan, err := NewPlanner(NewTraverser(nil)).Plan(context.Background(), PlanOptions{})
	require.NoError(t, err)
	assert.Empty(t, plan.Projects)
}
