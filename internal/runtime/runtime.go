package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/buildgraph/internal/ctxlog"
	"github.com/jward/buildgraph/internal/model"
)

// Graph is the query surface exposed to scripts. *buildgraph.Traverser
// satisfies it.
type Graph interface {
	Target(path, name string) *model.Target
	Targets(path string) []model.Target
	DirectTargetDependencies(path, name string) []model.Target
	AppExtensionDependencies(path, name string) []model.Target
	ResourceBundleDependencies(path, name string) []model.Target
	TestTargetsDependingOn(path, name string) []model.Target
	DirectStaticDependencies(path, name string) []model.DependencyReference
	StaticTargets(path, name string) []model.Target
	AllDependencies(path string) []model.Dependency
	HostTarget(path, name string) *model.Target
	HostApplication(path, name string) *model.Target

	LinkableDependencies(path, name string) []model.DependencyReference
	EmbeddableFrameworks(path, name string) []model.DependencyReference
	CopyProductDependencies(path string, target model.Target) []model.DependencyReference
	AllDependencyReferences(path string) []model.DependencyReference
	LibrariesPublicHeadersFolders(path, name string) []string
	LibrariesSearchPaths(path, name string) []string
	LibrariesSwiftIncludePaths(path, name string) []string
	RunPathSearchPaths(path, name string) []string

	FilterDependencies(root model.Dependency, test, skip func(model.Dependency) bool) []model.Dependency
}

// Runtime embeds a Risor VM and exposes graph queries to report scripts.
type Runtime struct {
	graph      Graph
	scriptsDir string
	fsys       fs.FS
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts, and resolve
// import statements, from an fs.FS instead of from disk.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// NewRuntime creates a Runtime answering queries from g. A nil graph
// exposes only the non-graph globals.
func NewRuntime(g Graph, scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		graph:      g,
		scriptsDir: scriptsDir,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript loads and executes a Risor script and returns the Go value of
// its final expression.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) (any, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) (any, error) {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (any, error) {
	globals := r.buildGlobals(ctx, extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	// Imported modules compile against the same names as the script: the
	// host globals plus Risor's own builtins and modules.
	names := risor.NewConfig(opts...).GlobalNames()
	if imp := r.buildImporter(names); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	ctxlog.FromContext(ctx).Debug("running script", "script", label)
	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	if result == nil || result == object.Nil {
		return nil, nil
	}
	return result.Interface(), nil
}

// buildImporter returns nil if neither an fs.FS nor a scripts directory is
// configured.
func (r *Runtime) buildImporter(globalNames []string) importer.Importer {
	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file. With an fs.FS configured the path is
// relative to the FS root; otherwise relative paths join scriptsDir.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

func (r *Runtime) buildGlobals(ctx context.Context, extra map[string]any) map[string]any {
	globals := map[string]any{
		"log": mustProxy(&logObject{logger: ctxlog.FromContext(ctx).With("component", "script")}),
	}
	if r.graph != nil {
		for name, fn := range graphBuiltins(r.graph) {
			globals[name] = fn
		}
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
