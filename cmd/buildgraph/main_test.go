package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	assert.Equal(t, root, findRepoRoot(root))
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	deep := filepath.Join(root, "sub", "deep")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, root, findRepoRoot(deep))
}

func TestFindRepoRoot_ConfigFile(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".buildgraph.yaml"), []byte("format: text\n"), 0o644))
	sub := filepath.Join(root, "Apps")
	require.NoError(t, os.Mkdir(sub, 0o755))

	assert.Equal(t, root, findRepoRoot(sub))
}

func TestFindRepoRoot_NoMarker(t *testing.T) {
	t.Parallel()
	// Assumes no ancestor of the temp dir is a repository.
	dir := t.TempDir()

	assert.Equal(t, dir, findRepoRoot(dir))
}

func TestResolveDBPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("/repo", "buildgraph.db"), resolveDBPath("/repo", "buildgraph.db"))
	assert.Equal(t, filepath.Join("/repo", ".cache", "g.db"), resolveDBPath("/repo", ".cache/g.db"))
	assert.Equal(t, "/tmp/g.db", resolveDBPath("/repo", "/tmp/g.db"))
}

func TestScriptLocation(t *testing.T) {
	t.Parallel()

	dir, path, err := scriptLocation("/abs/reports/x.risor", "")
	require.NoError(t, err)
	assert.Equal(t, "/abs/reports", dir)
	assert.Equal(t, "x.risor", path)

	dir, path, err = scriptLocation("sub/x.risor", "/scripts")
	require.NoError(t, err)
	assert.Equal(t, "/scripts", dir)
	assert.Equal(t, "sub/x.risor", path)

	// Absolute files ignore the configured directory.
	dir, path, err = scriptLocation("/abs/x.risor", "/scripts")
	require.NoError(t, err)
	assert.Equal(t, "/abs", dir)
	assert.Equal(t, "x.risor", path)
}

func TestQueries_UniqueNames(t *testing.T) {
	t.Parallel()
	seen := map[string]bool{"reachable": true}
	for _, q := range queries {
		assert.False(t, seen[q.name], "duplicate query %s", q.name)
		seen[q.name] = true
		assert.NotEmpty(t, q.short, q.name)
	}
}
