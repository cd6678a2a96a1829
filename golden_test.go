package buildgraph

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jward/buildgraph/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden test format: project path (relative to the case directory) to
// target name to expected query results. Empty results are omitted.
type goldenFile struct {
	Projects map[string]map[string]goldenTarget `json:"projects"`
}

type goldenTarget struct {
	StaticTargets []string `json:"static_targets,omitempty"`
	Link          []string `json:"link,omitempty"`
	Embed         []string `json:"embed,omitempty"`
	RunPaths      []string `json:"run_paths,omitempty"`
	Host          string   `json:"host,omitempty"`
}

// TestGolden imports testdata/{case}/graph.yaml through the engine and
// compares the plan of every target with testdata/{case}/golden.json.
func TestGolden(t *testing.T) {
	cases, err := os.ReadDir("testdata")
	if err != nil {
		t.Skip("no testdata directory found")
	}

	for _, c := range cases {
		if !c.IsDir() {
			continue
		}
		dir, err := filepath.Abs(filepath.Join("testdata", c.Name()))
		require.NoError(t, err)
		if _, err := os.Stat(filepath.Join(dir, "golden.json")); err != nil {
			continue
		}
		t.Run(c.Name(), func(t *testing.T) {
			t.Parallel()
			runGoldenTest(t, dir)
		})
	}
}

func runGoldenTest(t *testing.T, dir string) {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, "golden.json"))
	require.NoError(t, err)
	var golden goldenFile
	require.NoError(t, json.Unmarshal(data, &golden))

	e := newTestEngine(t)
	ctx := context.Background()
	_, err = e.ImportFile(ctx, filepath.Join(dir, "graph.yaml"))
	require.NoError(t, err)

	issues, err := e.Lint()
	require.NoError(t, err)
	assert.Empty(t, issues)

	plan, err := e.Plan(ctx)
	require.NoError(t, err)
	tr, err := e.Traverser()
	require.NoError(t, err)

	got := goldenFile{Projects: map[string]map[string]goldenTarget{}}
	for _, p := range plan.Projects {
		rel, err := filepath.Rel(dir, p.Path)
		require.NoError(t, err)
		targets := map[string]goldenTarget{}
		for _, tp := range p.Targets {
			targets[tp.Name] = goldenTarget{
				StaticTargets: orNil(names(tr.StaticTargets(p.Path, tp.Name))),
				Link:          orNil(goldenRefs(dir, tp.Link)),
				Embed:         orNil(goldenRefs(dir, tp.Embed)),
				RunPaths:      orNil(relPaths(dir, tp.RunPathSearchPaths)),
				Host:          tp.Host,
			}
		}
		got.Projects[rel] = targets
	}
	assert.Equal(t, golden, got)
}

// goldenRefs renders references as "kind:name", where name is the product
// file for products and the path relative to dir otherwise.
func goldenRefs(dir string, refs []DependencyReference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		name := r.ProductName
		if r.Kind != model.RefProduct {
			name = strings.TrimPrefix(r.Path, dir+string(filepath.Separator))
		}
		out[i] = string(r.Kind) + ":" + name
	}
	return out
}

func relPaths(dir string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if rel, err := filepath.Rel(dir, p); err == nil {
			p = rel
		}
		out[i] = p
	}
	return out
}

func orNil(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
