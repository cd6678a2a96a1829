package buildgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jward/buildgraph/internal/graphfile"
	"github.com/jward/buildgraph/internal/model"
	"github.com/jward/buildgraph/scripts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	e, err := New(dbPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestNew_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := New(filepath.Join(t.TempDir(), "missing", "db.sqlite"))
	require.Error(t, err)
}

func TestClose(t *testing.T) {
	t.Parallel()
	e, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

// =============================================================================
// Import / Export
// =============================================================================

func TestImport_SkipsUnchangedGraph(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Import(ctx, scenarioGraph())
	require.NoError(t, err)
	assert.False(t, res.Unchanged)
	assert.Equal(t, 2, res.Projects)
	assert.Equal(t, 3, res.Targets)
	assert.Equal(t, 3, res.Edges)
	assert.NotEmpty(t, res.Hash)

	again, err := e.Import(ctx, scenarioGraph())
	require.NoError(t, err)
	assert.True(t, again.Unchanged)
	assert.Equal(t, res.Hash, again.Hash)

	st, err := e.Stats()
	require.NoError(t, err)
	assert.Equal(t, res.Hash, st.Hash)
	assert.Equal(t, 3, st.Targets)
}

func TestImport_SourceListChangeIsNotUnchanged(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	joined := NewGraph("Workspace", "/App")
	joined.AddTarget("/App", Target{Name: "App", Product: model.Application, Sources: []string{"a,b"}})
	_, err := e.Import(ctx, joined)
	require.NoError(t, err)

	split := NewGraph("Workspace", "/App")
	split.AddTarget("/App", Target{Name: "App", Product: model.Application, Sources: []string{"a", "b"}})
	res, err := e.Import(ctx, split)
	require.NoError(t, err)
	assert.False(t, res.Unchanged)

	g, err := e.Export()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, g.Targets["/App"]["App"].Sources)
}

func TestImport_CancelledContext(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Import(ctx, scenarioGraph())
	require.ErrorIs(t, err, context.Canceled)
	_, err = e.Stats()
	assert.ErrorIs(t, err, ErrNoGraph)
}

func TestImportFile_ExportFile(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	dir := t.TempDir()

	in := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(in, []byte(`
name: Workspace
entry_path: App
projects:
  - path: App
    targets:
      - name: App
        platform: iOS
        product: app
        dependencies:
          - target: Core
            path: Lib
          - sdk: {name: UIKit.framework}
  - path: Lib
    targets:
      - name: Core
        platform: iOS
        product: staticLibrary
`), 0o644))

	res, err := e.ImportFile(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Edges)

	out := filepath.Join(dir, "out.yaml")
	require.NoError(t, e.ExportFile(out))

	original, err := graphfile.Load(in)
	require.NoError(t, err)
	exported, err := graphfile.Load(out)
	require.NoError(t, err)
	assert.Equal(t, original.Dependencies, exported.Dependencies)
	assert.Equal(t, original.Targets, exported.Targets)
	assert.Equal(t, filepath.Join(dir, "App"), exported.EntryPath)
}

func TestImportFile_Invalid(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	_, err := e.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestExport_NoGraph(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	_, err := e.Export()
	assert.ErrorIs(t, err, ErrNoGraph)
	assert.ErrorIs(t, e.ExportFile(filepath.Join(t.TempDir(), "x.yaml")), ErrNoGraph)
}

// =============================================================================
// Traverser cache
// =============================================================================

func TestTraverser_NoGraph(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	_, err := e.Traverser()
	assert.ErrorIs(t, err, ErrNoGraph)
	_, err = e.Plan(context.Background())
	assert.ErrorIs(t, err, ErrNoGraph)
	_, err = e.Lint()
	assert.ErrorIs(t, err, ErrNoGraph)
}

func TestTraverser_CachedUntilReimport(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.Import(ctx, scenarioGraph())
	require.NoError(t, err)

	first, err := e.Traverser()
	require.NoError(t, err)
	second, err := e.Traverser()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, []string{"Core"}, names(first.StaticTargets("/App", "App")))

	g := scenarioGraph()
	g.AddTarget("/App", tgt("AppTests", model.UnitTests))
	_, err = e.Import(ctx, g)
	require.NoError(t, err)

	third, err := e.Traverser()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Len(t, third.Targets("/App"), 3)
}

// =============================================================================
// Plan, Lint, Scripts
// =============================================================================

func TestEngine_Plan(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithConcurrency(2))
	_, err := e.Import(context.Background(), scenarioGraph())
	require.NoError(t, err)

	plan, err := e.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Projects, 2)
	assert.Equal(t, "/App", plan.Projects[0].Path)
	assert.Equal(t, "/Lib", plan.Projects[1].Path)

	only, err := e.Plan(context.Background(), "/Lib")
	require.NoError(t, err)
	require.Len(t, only.Projects, 1)
	assert.Equal(t, "Core", only.Projects[0].Targets[0].Name)
}

func TestEngine_Lint(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	g := scenarioGraph()
	g.DependOn("/App", "App", node("/Gone", "Ghost"))
	_, err := e.Import(context.Background(), g)
	require.NoError(t, err)

	issues, err := e.Lint()
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, IssueDanglingTarget, issues[0].Kind)
}

func TestEngine_RunScript_BundledReport(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithScriptsFS(scripts.FS))
	_, err := e.Import(context.Background(), scenarioGraph())
	require.NoError(t, err)

	// "project" defaults to the entry path.
	got, err := e.RunScript(context.Background(), scripts.ReportPath("static_link"), nil)
	require.NoError(t, err)
	report, ok := got.(map[string]any)
	require.True(t, ok, "expected map, got %T", got)
	assert.Len(t, report, 2)
	app := report["App"].(map[string]any)
	assert.Equal(t, []any{"Core"}, app["static_targets"])

	got, err = e.RunScript(context.Background(), scripts.ReportPath("static_link"), map[string]any{"project": "/Lib"})
	require.NoError(t, err)
	assert.Len(t, got.(map[string]any), 1)
}

func TestEngine_RunScript_FromDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "name.risor"), []byte(`graph_name`), 0o644))

	e := newTestEngine(t, WithScriptsDir(dir))
	_, err := e.Import(context.Background(), scenarioGraph())
	require.NoError(t, err)

	got, err := e.RunScript(context.Background(), "name.risor", nil)
	require.NoError(t, err)
	assert.Equal(t, "Workspace", got)
}

func TestEngine_RunSource_WithoutGraph(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	got, err := e.RunSource(context.Background(), `len(targets("/App")) + 1`, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
