package buildgraph

import (
	"slices"

	"github.com/jward/buildgraph/internal/model"
)

// GraphTraversing is the read-only query surface over a value graph.
// Every method is total: unknown paths, unknown targets and dangling edges
// yield empty results. Slice results are sorted and never nil.
type GraphTraversing interface {
	Target(path, name string) *Target
	Targets(path string) []Target
	DirectTargetDependencies(path, name string) []Target
	AppExtensionDependencies(path, name string) []Target
	ResourceBundleDependencies(path, name string) []Target
	TestTargetsDependingOn(path, name string) []Target
	DirectStaticDependencies(path, name string) []DependencyReference
	StaticTargets(path, name string) []Target
	AllDependencies(path string) []Dependency
	HostTarget(path, name string) *Target
	HostApplication(path, name string) *Target

	LinkableDependencies(path, name string) []DependencyReference
	EmbeddableFrameworks(path, name string) []DependencyReference
	CopyProductDependencies(path string, target Target) []DependencyReference
	AllDependencyReferences(path string) []DependencyReference
	LibrariesPublicHeadersFolders(path, name string) []string
	LibrariesSearchPaths(path, name string) []string
	LibrariesSwiftIncludePaths(path, name string) []string
	RunPathSearchPaths(path, name string) []string

	FilterDependencies(root Dependency, test, skip func(Dependency) bool) []Dependency
}

// Traverser answers GraphTraversing queries against one immutable Graph.
// It holds no state besides the graph, so a single Traverser can serve
// concurrent callers.
type Traverser struct {
	graph *model.Graph
}

var _ GraphTraversing = (*Traverser)(nil)

// NewTraverser returns a Traverser over g. A nil graph behaves like an empty one.
func NewTraverser(g *model.Graph) *Traverser {
	if g == nil {
		g = model.NewGraph("", "")
	}
	return &Traverser{graph: g}
}

// Graph returns the graph the traverser reads.
func (t *Traverser) Graph() *model.Graph { return t.graph }

// FilterDependencies walks everything reachable from root depth-first and
// returns the nodes accepted by test. Children of a node accepted by skip
// are not visited through that node. The root itself is never part of the
// result, even when a cycle leads back to it. A nil test accepts every node
// and a nil skip prunes nothing.
//
// Each node is expanded at most once, so the walk terminates on cycles and
// visits a node shared by a diamond only once. The result is sorted.
func (t *Traverser) FilterDependencies(root Dependency, test, skip func(Dependency) bool) []Dependency {
	if test == nil {
		test = func(Dependency) bool { return true }
	}
	if skip == nil {
		skip = func(Dependency) bool { return false }
	}

	var result []Dependency
	visited := map[Dependency]struct{}{}
	stack := []Dependency{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[node]; ok {
			continue
		}
		visited[node] = struct{}{}

		if node != root {
			if test(node) {
				result = append(result, node)
			}
			if skip(node) {
				continue
			}
		}
		for child := range t.graph.Dependencies[node] {
			if _, ok := visited[child]; !ok {
				stack = append(stack, child)
			}
		}
	}

	if result == nil {
		result = []Dependency{}
	}
	slices.SortFunc(result, model.CompareDependencies)
	return result
}

// targetsOf resolves the target nodes among deps, dropping dangling ones,
// and returns them sorted.
func (t *Traverser) targetsOf(deps []Dependency) []Target {
	out := make([]Target, 0, len(deps))
	for _, d := range deps {
		if tg, ok := t.graph.Resolve(d); ok {
			out = append(out, tg)
		}
	}
	model.SortTargets(out)
	return out
}

// isStaticDependency reports whether d is linked statically into its consumer.
// Package products, SDKs and pods are never treated as static.
func (t *Traverser) isStaticDependency(d Dependency) bool {
	if linking, ok := model.LinkingOf(d); ok {
		return linking == model.Static
	}
	if tg, ok := t.graph.Resolve(d); ok {
		return tg.Product.IsStatic()
	}
	return false
}

// canAbsorbStaticDependencies reports whether d already carries the static
// code beneath it. Precompiled binaries always do.
func (t *Traverser) canAbsorbStaticDependencies(d Dependency) bool {
	if model.IsPrecompiled(d) {
		return true
	}
	if tg, ok := t.graph.Resolve(d); ok {
		return tg.CanLinkStaticProducts()
	}
	return false
}

func (t *Traverser) canEmbedProducts(d Dependency) bool {
	tg, ok := t.graph.Resolve(d)
	return ok && tg.Product.CanEmbedProducts()
}

// isDynamicAndLinkable reports whether d is a precompiled framework or
// xcframework that must be embedded at runtime.
func isDynamicAndLinkable(d Dependency) bool {
	switch v := d.(type) {
	case model.FrameworkDependency:
		return v.Linking == model.Dynamic
	case model.XCFrameworkDependency:
		return v.Linking == model.Dynamic
	}
	return false
}

func (t *Traverser) hasProduct(products ...Product) func(Dependency) bool {
	return func(d Dependency) bool {
		tg, ok := t.graph.Resolve(d)
		return ok && slices.Contains(products, tg.Product)
	}
}

func targetNode(path, name string) Dependency {
	return model.TargetDependency{Name: name, Path: path}
}
