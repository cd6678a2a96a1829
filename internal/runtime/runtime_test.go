package runtime_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/buildgraph"
	"github.com/jward/buildgraph/internal/model"
	"github.com/jward/buildgraph/internal/runtime"
)

// testRuntime serves testGraph.
func testRuntime(t *testing.T, opts ...runtime.RuntimeOption) *runtime.Runtime {
	t.Helper()
	return runtime.NewRuntime(buildgraph.NewTraverser(testGraph()), "", opts...)
}

// testGraph holds an app with an extension, a unit test bundle, a static
// library from a second project and one SDK.
func testGraph() *model.Graph {
	g := model.NewGraph("Workspace", "/App")
	g.AddTarget("/App", model.Target{Name: "App", Platform: model.IOS, Product: model.Application})
	g.AddTarget("/App", model.Target{Name: "Ext", Platform: model.IOS, Product: model.AppExtension})
	g.AddTarget("/App", model.Target{Name: "AppTests", Platform: model.IOS, Product: model.UnitTests})
	g.AddTarget("/Lib", model.Target{Name: "Core", Platform: model.IOS, Product: model.StaticLibrary})
	g.DependOn("/App", "App",
		model.TargetDependency{Name: "Ext", Path: "/App"},
		model.TargetDependency{Name: "Core", Path: "/Lib"},
		model.SDKDependency{Name: "UIKit.framework", SDKKind: model.SDKFramework, Status: model.Required},
	)
	g.DependOn("/App", "AppTests", model.TargetDependency{Name: "App", Path: "/App"})
	return g
}

// =============================================================================
// Query builtins
// =============================================================================

func TestRunSource_Queries(t *testing.T) {
	t.Parallel()
	rt := testRuntime(t)

	script := `
exts := app_extensions("/App", "App")
assert(len(exts) == 1, 'expected 1 extension, got {len(exts)}')
assert(exts[0]["name"] == "Ext", "expected Ext")

statics := static_targets("/App", "App")
assert(len(statics) == 1, 'expected 1 static target, got {len(statics)}')
assert(statics[0]["product_file"] == "libCore.a", 'got {statics[0]["product_file"]}')

tests := tests_depending_on("/App", "App")
assert(tests[0]["name"] == "AppTests", "expected AppTests")

host := host_application("/App", "AppTests")
assert(host["name"] == "App", "expected App host")

assert(target("/App", "Missing") == nil, "expected nil for unknown target")
assert(len(targets("/App")) == 3, "expected 3 targets")
len(all_dependencies("/App"))
`
	got, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
	// App (through AppTests), Ext, Core and UIKit.
	assert.Equal(t, int64(4), got)
}

func TestRunSource_ReturnsReferences(t *testing.T) {
	t.Parallel()
	rt := testRuntime(t)

	got, err := rt.RunSource(context.Background(), `linkable_dependencies("/App", "App")`, nil)
	require.NoError(t, err)

	refs, ok := got.([]any)
	require.True(t, ok, "expected list, got %T", got)
	require.Len(t, refs, 2)

	sdk := refs[0].(map[string]any)
	assert.Equal(t, "sdk", sdk["kind"])
	assert.Equal(t, "UIKit.framework", sdk["path"])
	assert.Equal(t, "required", sdk["status"])

	core := refs[1].(map[string]any)
	assert.Equal(t, "product", core["kind"])
	assert.Equal(t, "Core", core["target"])
	assert.Equal(t, "libCore.a", core["product_name"])
}

func TestRunSource_WrongArgs(t *testing.T) {
	t.Parallel()
	rt := testRuntime(t)

	_, err := rt.RunSource(context.Background(), `static_targets("/App")`, nil)
	assert.Error(t, err)

	_, err = rt.RunSource(context.Background(), `static_targets("/App", 1)`, nil)
	assert.Error(t, err)
}

// =============================================================================
// filter_dependencies
// =============================================================================

func TestFilterDependencies_ScriptPredicate(t *testing.T) {
	t.Parallel()
	rt := testRuntime(t)

	script := `
sdks := filter_dependencies("/App", "App", func(d) { return d["kind"] == "sdk" })
assert(len(sdks) == 1, 'expected 1 sdk, got {len(sdks)}')
sdks[0]["name"]
`
	got, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
	assert.Equal(t, "UIKit.framework", got)
}

func TestFilterDependencies_SkipPrunes(t *testing.T) {
	t.Parallel()
	rt := testRuntime(t)

	// Starting at the test bundle, pruning App hides everything behind it.
	script := `
pruned := filter_dependencies("/App", "AppTests", nil, func(d) { return d["kind"] == "target" && d["name"] == "App" })
[len(filter_dependencies("/App", "AppTests")), len(pruned)]
`
	got, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(4), int64(1)}, got)
}

func TestFilterDependencies_NotAFunction(t *testing.T) {
	t.Parallel()
	rt := testRuntime(t)

	_, err := rt.RunSource(context.Background(), `filter_dependencies("/App", "App", 42)`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected function")
}

// =============================================================================
// Script loading
// =============================================================================

func TestRunScript_LoadsFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sum.risor"), []byte(`1 + 1`), 0o644))

	got, err := runtime.NewRuntime(nil, dir).RunScript(context.Background(), "sum.risor", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestRunScript_FromFS(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"reports/count.risor": &fstest.MapFile{Data: []byte(`len(targets(project))`)},
	}
	rt := testRuntime(t, runtime.WithRuntimeFS(fsys))

	got, err := rt.RunScript(context.Background(), "/reports/count.risor", map[string]any{"project": "/App"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
}

func TestRunScript_MissingFile(t *testing.T) {
	t.Parallel()
	rt := runtime.NewRuntime(nil, t.TempDir())
	_, err := rt.RunScript(context.Background(), "missing.risor", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading script")
}

func TestLoadScript_FromFS_NotFound(t *testing.T) {
	t.Parallel()
	rt := runtime.NewRuntime(nil, "", runtime.WithRuntimeFS(fstest.MapFS{}))
	_, err := rt.LoadScript("nope.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

// =============================================================================
// Imports and globals
// =============================================================================

func TestImport_FSImporterSeesGraphGlobals(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"helpers.risor": &fstest.MapFile{Data: []byte(`
func static_names(path, name) {
	out := []
	for _, t := range static_targets(path, name) {
		out.append(t["name"])
	}
	log.Debug('found {len(out)} static targets')
	return out
}
`)},
	}
	rt := testRuntime(t, runtime.WithRuntimeFS(fsys))

	script := `
import helpers
helpers.static_names("/App", "App")
`
	got, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"Core"}, got)
}

func TestImport_LocalImporter(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0o644))

	rt := runtime.NewRuntime(nil, dir)
	got, err := rt.RunSource(context.Background(), "import math_utils\nmath_utils.double(21)", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestImport_LocalModuleUsesBuiltins(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "counts.risor"), []byte(`
func count_targets(path) {
	return len(targets(path)) + len(sorted([3, 1, 2]))
}
`), 0o644))

	rt := runtime.NewRuntime(buildgraph.NewTraverser(testGraph()), dir)
	got, err := rt.RunSource(context.Background(), "import counts\ncounts.count_targets('/App')", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)
}
