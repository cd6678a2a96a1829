package main

import (
	"bytes"
	"testing"

	"github.com/jward/buildgraph"
	"github.com/jward/buildgraph/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputResultText_References(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	refs := []buildgraph.DependencyReference{
		{Kind: model.RefSDK, Path: "UIKit.framework", Status: model.Required},
		{Kind: model.RefProduct, Target: "Core", ProductName: "libCore.a"},
	}
	require.NoError(t, outputResultText(&buf, newResult("query linkable", refs)))

	out := buf.String()
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "UIKit.framework")
	assert.Contains(t, out, "libCore.a")
	assert.NotContains(t, out, "Core ")
}

func TestOutputResultText_Targets(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	targets := []CLITarget{{Path: "/App", Name: "App", Platform: "iOS", Product: "app", ProductFile: "App.app"}}
	require.NoError(t, outputResultText(&buf, newResult("query targets", targets)))
	assert.Contains(t, buf.String(), "App.app")
	assert.Contains(t, buf.String(), "/App")
}

func TestOutputResultText_Plan(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	plan := &buildgraph.WorkspacePlan{Projects: []buildgraph.ProjectPlan{{
		Path: "/App",
		Targets: []buildgraph.TargetPlan{{
			Name:    "App",
			Product: model.Application,
			Link:    []buildgraph.DependencyReference{{Kind: model.RefProduct, Target: "Core", ProductName: "libCore.a"}},
		}, {
			Name:    "AppTests",
			Product: model.UnitTests,
			Host:    "App",
		}},
	}}}
	require.NoError(t, outputResultText(&buf, CLIResult{Command: "plan", Results: plan}))

	assert.Equal(t, "/App\n"+
		"  App (app)\n"+
		"    link: libCore.a\n"+
		"  AppTests (unitTests)\n"+
		"    host: App\n", buf.String())
}

func TestOutputResultText_Lint(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, outputResultText(&buf, newResult("lint", []buildgraph.LintIssue{})))
	assert.Equal(t, "No issues found.\n", buf.String())
}

func TestOutputResultText_Script(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, outputResultText(&buf, CLIResult{Results: CLIScript{Value: "hello"}}))
	assert.Equal(t, "hello\n", buf.String())

	buf.Reset()
	value := map[string]any{"App": []any{"Core"}}
	require.NoError(t, outputResultText(&buf, CLIResult{Results: CLIScript{Value: value}}))
	assert.Equal(t, "App:\n  - Core\n", buf.String())
}

func TestOutputResultText_Nil(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, outputResultText(&buf, CLIResult{Results: nil}))
	assert.Empty(t, buf.String())
}

func TestOutputResultText_Unsupported(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.Error(t, outputResultText(&buf, CLIResult{Results: 42}))
}

func TestNewResult_TotalCount(t *testing.T) {
	t.Parallel()
	r := newResult("query run-path-search-paths", []string{"a", "b"})
	require.NotNil(t, r.TotalCount)
	assert.Equal(t, 2, *r.TotalCount)

	single := newResult("query target", CLITarget{Name: "App"})
	assert.Nil(t, single.TotalCount)
}
