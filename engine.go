package buildgraph

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/jward/buildgraph/internal/ctxlog"
	"github.com/jward/buildgraph/internal/graphfile"
	bgrt "github.com/jward/buildgraph/internal/runtime"
	"github.com/jward/buildgraph/internal/store"
)

// ErrNoGraph is returned by Engine methods that need a graph before any
// has been imported.
var ErrNoGraph = store.ErrNoGraph

// GraphStats summarises the stored graph.
type GraphStats = store.GraphStats

// Engine ties the pieces together: it imports graphs into a SQLite store
// and answers queries, plans, lint runs and scripts against the stored
// snapshot.
type Engine struct {
	store       *store.Store
	scriptsDir  string
	scriptsFS   fs.FS
	concurrency int

	// mu guards the cached traverser, which is rebuilt when the stored
	// graph hash changes.
	mu        sync.Mutex
	traverser *Traverser
	hash      string
}

// Option configures an Engine.
type Option func(*Engine)

// WithScriptsDir sets the directory relative script paths resolve against.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithScriptsFS loads scripts from fsys instead of from disk. It takes
// precedence over WithScriptsDir.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithConcurrency bounds how many projects Plan works on at once. Zero or
// less means one per CPU.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("buildgraph: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("buildgraph: migrate: %w", err)
	}

	e := &Engine{store: s}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// ImportResult describes what Import did.
type ImportResult struct {
	Hash      string        `json:"hash"`
	Unchanged bool          `json:"unchanged"`
	Projects  int           `json:"projects"`
	Targets   int           `json:"targets"`
	Edges     int           `json:"edges"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Import stores g as the current snapshot. A graph identical to the stored
// one is not written again.
func (e *Engine) Import(ctx context.Context, g *Graph) (*ImportResult, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash := store.ComputeGraphHash(g)
	res := &ImportResult{
		Hash:     hash,
		Projects: len(g.ProjectPaths()),
		Targets:  g.TargetCount(),
		Edges:    g.EdgeCount(),
	}

	stored, err := e.store.GraphHash()
	if err != nil {
		return nil, fmt.Errorf("buildgraph: import: %w", err)
	}
	if stored == hash {
		res.Unchanged = true
		res.Elapsed = time.Since(start)
		logger.Info("graph unchanged, skipping import", "hash", hash)
		return res, nil
	}

	if err := e.store.SaveGraph(g); err != nil {
		return nil, fmt.Errorf("buildgraph: import: %w", err)
	}
	res.Elapsed = time.Since(start)
	logger.Info("imported graph",
		"name", g.Name,
		"projects", res.Projects,
		"targets", res.Targets,
		"edges", res.Edges,
		"elapsed", res.Elapsed)
	return res, nil
}

// ImportFile reads a YAML graph file and imports it.
func (e *Engine) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	g, err := graphfile.Load(path)
	if err != nil {
		return nil, fmt.Errorf("buildgraph: %w", err)
	}
	return e.Import(ctx, g)
}

// Export returns the stored graph.
func (e *Engine) Export() (*Graph, error) {
	g, err := e.store.LoadGraph()
	if err != nil {
		return nil, fmt.Errorf("buildgraph: export: %w", err)
	}
	return g, nil
}

// ExportFile writes the stored graph to path as YAML.
func (e *Engine) ExportFile(path string) error {
	g, err := e.Export()
	if err != nil {
		return err
	}
	if err := graphfile.Write(path, g); err != nil {
		return fmt.Errorf("buildgraph: export: %w", err)
	}
	return nil
}

// Stats summarises the stored graph.
func (e *Engine) Stats() (*GraphStats, error) {
	st, err := e.store.Stats()
	if err != nil {
		return nil, fmt.Errorf("buildgraph: stats: %w", err)
	}
	return st, nil
}

// Traverser returns a Traverser over the stored graph. The traverser is
// cached until a different graph is imported.
func (e *Engine) Traverser() (*Traverser, error) {
	hash, err := e.store.GraphHash()
	if err != nil {
		return nil, fmt.Errorf("buildgraph: %w", err)
	}
	if hash == "" {
		return nil, ErrNoGraph
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.traverser != nil && e.hash == hash {
		return e.traverser, nil
	}
	g, err := e.store.LoadGraph()
	if err != nil {
		return nil, fmt.Errorf("buildgraph: load graph: %w", err)
	}
	e.traverser, e.hash = NewTraverser(g), hash
	return e.traverser, nil
}

// Plan computes build plans for the given project paths, or for every
// stored project when paths is empty.
func (e *Engine) Plan(ctx context.Context, paths ...string) (*WorkspacePlan, error) {
	t, err := e.Traverser()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		paths = t.Graph().ProjectPaths()
	}
	return NewPlanner(t).Plan(ctx, PlanOptions{Paths: paths, Concurrency: e.concurrency})
}

// Lint checks the stored graph for dangling target references and cycles.
func (e *Engine) Lint() ([]LintIssue, error) {
	t, err := e.Traverser()
	if err != nil {
		return nil, err
	}
	return Lint(t.Graph()), nil
}

// RunScript runs a Risor script against the stored graph and returns the
// value of its final expression. The global "project" defaults to the
// graph's entry path; globals may override it.
func (e *Engine) RunScript(ctx context.Context, path string, globals map[string]any) (any, error) {
	rt, extra, err := e.scriptRuntime(globals)
	if err != nil {
		return nil, err
	}
	return rt.RunScript(ctx, path, extra)
}

// RunSource is RunScript for inline source.
func (e *Engine) RunSource(ctx context.Context, source string, globals map[string]any) (any, error) {
	rt, extra, err := e.scriptRuntime(globals)
	if err != nil {
		return nil, err
	}
	return rt.RunSource(ctx, source, extra)
}

func (e *Engine) scriptRuntime(globals map[string]any) (*bgrt.Runtime, map[string]any, error) {
	t, err := e.Traverser()
	if err != nil && !errors.Is(err, ErrNoGraph) {
		return nil, nil, err
	}
	if t == nil {
		t = NewTraverser(nil)
	}

	var opts []bgrt.RuntimeOption
	if e.scriptsFS != nil {
		opts = append(opts, bgrt.WithRuntimeFS(e.scriptsFS))
	}
	extra := map[string]any{
		"project":    t.Graph().EntryPath,
		"graph_name": t.Graph().Name,
	}
	for k, v := range globals {
		extra[k] = v
	}
	return bgrt.NewRuntime(t, e.scriptsDir, opts...), extra, nil
}
