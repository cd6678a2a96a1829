package scripts_test

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/buildgraph"
	"github.com/jward/buildgraph/internal/model"
	"github.com/jward/buildgraph/internal/runtime"
	"github.com/jward/buildgraph/scripts"
)

func runReport(t *testing.T, name string) map[string]any {
	t.Helper()
	g := model.NewGraph("Workspace", "/App")
	g.AddTarget("/App", model.Target{Name: "App", Platform: model.IOS, Product: model.Application})
	g.AddTarget("/App", model.Target{Name: "Ext", Platform: model.IOS, Product: model.AppExtension})
	g.AddTarget("/App", model.Target{Name: "AppTests", Platform: model.IOS, Product: model.UnitTests})
	g.AddTarget("/Lib", model.Target{Name: "Core", Platform: model.IOS, Product: model.StaticLibrary})
	g.AddTarget("/Lib", model.Target{Name: "Kit", Platform: model.IOS, Product: model.Framework})
	g.DependOn("/App", "App",
		model.TargetDependency{Name: "Ext", Path: "/App"},
		model.TargetDependency{Name: "Core", Path: "/Lib"},
		model.TargetDependency{Name: "Kit", Path: "/Lib"},
		model.SDKDependency{Name: "UIKit.framework", SDKKind: model.SDKFramework, Status: model.Required},
	)
	g.DependOn("/App", "AppTests", model.TargetDependency{Name: "App", Path: "/App"})

	rt := runtime.NewRuntime(buildgraph.NewTraverser(g), "", runtime.WithRuntimeFS(scripts.FS))
	got, err := rt.RunScript(context.Background(), scripts.ReportPath(name), map[string]any{"project": "/App"})
	require.NoError(t, err)
	report, ok := got.(map[string]any)
	require.True(t, ok, "expected map, got %T", got)
	return report
}

func TestFS_ContainsReports(t *testing.T) {
	t.Parallel()
	names, err := fs.Glob(scripts.FS, "reports/*.risor")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"reports/embeds.risor",
		"reports/static_link.risor",
		"reports/test_impact.risor",
	}, names)
}

func TestStaticLinkReport(t *testing.T) {
	t.Parallel()
	report := runReport(t, "static_link")
	require.Len(t, report, 3)

	app := report["App"].(map[string]any)
	assert.Equal(t, "app", app["product"])
	assert.Equal(t, []any{"Core"}, app["static_targets"])
	assert.Equal(t, []any{"UIKit.framework", "libCore.a", "Kit.framework"}, app["links"])

	// Hosted by App, the test bundle absorbs nothing of its own.
	tests := report["AppTests"].(map[string]any)
	assert.Empty(t, tests["static_targets"])
	assert.Empty(t, tests["links"])
}

func TestTestImpactReport(t *testing.T) {
	t.Parallel()
	report := runReport(t, "test_impact")
	assert.Equal(t, map[string]any{
		"/App:App":  []any{"AppTests"},
		"/App:Ext":  []any{"AppTests"},
		"/Lib:Core": []any{"AppTests"},
		"/Lib:Kit":  []any{"AppTests"},
	}, report)
}

func TestEmbedsReport(t *testing.T) {
	t.Parallel()
	report := runReport(t, "embeds")
	assert.Equal(t, map[string]any{
		"App": map[string]any{
			"frameworks": []any{"Kit.framework"},
			"extensions": []any{"Ext.appex"},
		},
	}, report)
}
