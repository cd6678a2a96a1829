package buildgraph

import (
	"slices"

	"github.com/jward/buildgraph/internal/model"
)

// Target looks up a target by project path and name. It returns nil when
// either is unknown.
func (t *Traverser) Target(path, name string) *Target {
	tg, ok := t.graph.Lookup(path, name)
	if !ok {
		return nil
	}
	return &tg
}

// Targets returns every target of the project at path.
func (t *Traverser) Targets(path string) []Target {
	byName := t.graph.Targets[path]
	out := make([]Target, 0, len(byName))
	for _, tg := range byName {
		out = append(out, tg)
	}
	model.SortTargets(out)
	return out
}

// DirectTargetDependencies returns the targets the subject has a direct edge
// to. Dangling edges are dropped.
func (t *Traverser) DirectTargetDependencies(path, name string) []Target {
	return t.targetsOf(t.graph.Edges(targetNode(path, name)))
}

// AppExtensionDependencies returns the direct target dependencies that are
// app extensions.
func (t *Traverser) AppExtensionDependencies(path, name string) []Target {
	return slices.DeleteFunc(t.DirectTargetDependencies(path, name), func(tg Target) bool {
		return !tg.Product.IsExtension()
	})
}

// ResourceBundleDependencies returns the bundle targets whose resources the
// subject must embed. The walk stops at any target that can host resources
// itself, since those bundles are that target's responsibility.
func (t *Traverser) ResourceBundleDependencies(path, name string) []Target {
	subject, ok := t.graph.Lookup(path, name)
	if !ok || !subject.SupportsResources() {
		return []Target{}
	}
	isBundle := t.hasProduct(model.Bundle)
	hostsResources := func(d Dependency) bool {
		tg, ok := t.graph.Resolve(d)
		return ok && tg.SupportsResources()
	}
	return t.targetsOf(t.FilterDependencies(targetNode(path, name), isBundle, hostsResources))
}

// TestTargetsDependingOn returns the test bundles at path with a direct edge
// to the subject.
func (t *Traverser) TestTargetsDependingOn(path, name string) []Target {
	subject := targetNode(path, name)
	out := []Target{}
	for _, tg := range t.graph.Targets[path] {
		if !tg.Product.IsTestBundle() {
			continue
		}
		if _, ok := t.graph.Dependencies[targetNode(path, tg.Name)][subject]; ok {
			out = append(out, tg)
		}
	}
	model.SortTargets(out)
	return out
}

// DirectStaticDependencies returns product references for the static
// targets the subject depends on directly.
func (t *Traverser) DirectStaticDependencies(path, name string) []DependencyReference {
	refs := []DependencyReference{}
	for _, tg := range t.DirectTargetDependencies(path, name) {
		if tg.Product.IsStatic() {
			refs = append(refs, model.ProductReference(tg))
		}
	}
	return model.UniqueReferences(refs)
}

// StaticTargets returns the static targets linked into the subject. The walk
// stops at any node that absorbs static code itself: its consumers link
// against it, not against what it already contains.
func (t *Traverser) StaticTargets(path, name string) []Target {
	found := t.FilterDependencies(targetNode(path, name), t.isStaticDependency, t.canAbsorbStaticDependencies)
	return t.targetsOf(found)
}

// AllDependencies returns the union of the transitive closures of every
// target at path.
func (t *Traverser) AllDependencies(path string) []Dependency {
	seen := map[Dependency]struct{}{}
	for name := range t.graph.Targets[path] {
		for _, d := range t.FilterDependencies(targetNode(path, name), nil, nil) {
			seen[d] = struct{}{}
		}
	}
	out := make([]Dependency, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	slices.SortFunc(out, model.CompareDependencies)
	return out
}

// HostTarget returns the target at the same path that depends directly on
// the subject, such as the application embedding an extension. When several
// do, the first by name wins.
func (t *Traverser) HostTarget(path, name string) *Target {
	subject := targetNode(path, name)
	for _, tg := range t.Targets(path) {
		if _, ok := t.graph.Dependencies[targetNode(path, tg.Name)][subject]; ok {
			return &tg
		}
	}
	return nil
}

// HostApplication returns the first application among the subject's direct
// target dependencies. Test bundles use it to find the app they run in.
func (t *Traverser) HostApplication(path, name string) *Target {
	node, ok := t.hostApplicationNode(targetNode(path, name))
	if !ok {
		return nil
	}
	tg, _ := t.graph.Resolve(node)
	return &tg
}
