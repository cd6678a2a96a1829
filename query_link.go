package buildgraph

import (
	"path/filepath"
	"slices"

	"github.com/jward/buildgraph/internal/model"
)

// LinkableDependencies returns what the subject's link phase needs: its
// direct SDKs and precompiled binaries, the static targets it absorbs (with
// their SDKs and dynamic dependencies), and its direct dynamic targets.
//
// A unit test bundle hosted by an application does not relink the static
// code the application already contains.
func (t *Traverser) LinkableDependencies(path, name string) []DependencyReference {
	subject, ok := t.graph.Lookup(path, name)
	if !ok {
		return []DependencyReference{}
	}
	node := targetNode(path, name)
	var refs []DependencyReference

	for _, d := range t.graph.Edges(node) {
		if ref, ok := model.ReferenceFor(d); ok {
			refs = append(refs, ref)
		}
	}

	if subject.CanLinkStaticProducts() {
		statics := t.staticTargetNodes(node)
		if subject.Product == model.UnitTests {
			if host, ok := t.hostApplicationNode(node); ok {
				hosted := t.staticTargetNodes(host)
				statics = slices.DeleteFunc(statics, func(d Dependency) bool {
					return slices.Contains(hosted, d)
				})
			}
		}
		for _, s := range statics {
			st, _ := t.graph.Resolve(s)
			refs = append(refs, model.ProductReference(st))
			for _, d := range t.graph.Edges(s) {
				if sdk, ok := d.(model.SDKDependency); ok {
					ref, _ := model.ReferenceFor(sdk)
					refs = append(refs, ref)
					continue
				}
				if tg, ok := t.graph.Resolve(d); ok && isDynamicProduct(tg.Product) {
					refs = append(refs, model.ProductReference(tg))
				}
			}
		}
	}

	for _, tg := range t.DirectTargetDependencies(path, name) {
		if isDynamicProduct(tg.Product) {
			refs = append(refs, model.ProductReference(tg))
		}
	}
	return model.UniqueReferences(refs)
}

// EmbeddableFrameworks returns the dynamic frameworks an embedding product
// (application, watch extension, test bundle) has to copy into its bundle.
// The walk does not cross another embedding product.
func (t *Traverser) EmbeddableFrameworks(path, name string) []DependencyReference {
	subject, ok := t.graph.Lookup(path, name)
	if !ok || !subject.Product.CanEmbedProducts() {
		return []DependencyReference{}
	}
	node := targetNode(path, name)
	refs := t.embeddables(node)

	if subject.Product == model.UnitTests {
		if host, ok := t.hostApplicationNode(node); ok {
			hosted := t.embeddables(host)
			refs = slices.DeleteFunc(refs, func(r DependencyReference) bool {
				return slices.Contains(hosted, r)
			})
		}
	}
	return model.UniqueReferences(refs)
}

func (t *Traverser) embeddables(node Dependency) []DependencyReference {
	isFramework := t.hasProduct(model.Framework)
	found := t.FilterDependencies(node, func(d Dependency) bool {
		return isDynamicAndLinkable(d) || isFramework(d)
	}, t.canEmbedProducts)

	refs := make([]DependencyReference, 0, len(found))
	for _, d := range found {
		if tg, ok := t.graph.Resolve(d); ok {
			refs = append(refs, model.ProductReference(tg))
		} else if ref, ok := model.ReferenceFor(d); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// RunPathSearchPaths returns the directories of the dynamic frameworks a
// unit test bundle loads at runtime. Only hostless unit tests need them;
// everything else gets its frameworks embedded.
func (t *Traverser) RunPathSearchPaths(path, name string) []string {
	subject, ok := t.graph.Lookup(path, name)
	if !ok || subject.Product != model.UnitTests {
		return []string{}
	}
	node := targetNode(path, name)
	if _, hosted := t.hostApplicationNode(node); hosted {
		return []string{}
	}
	var dirs []string
	for _, d := range t.FilterDependencies(node, isDynamicAndLinkable, t.canEmbedProducts) {
		if ref, ok := model.ReferenceFor(d); ok {
			dirs = append(dirs, filepath.Dir(ref.Path))
		}
	}
	return uniqueSorted(dirs)
}

// LibrariesPublicHeadersFolders returns the public header directories of the
// subject's direct library dependencies.
func (t *Traverser) LibrariesPublicHeadersFolders(path, name string) []string {
	return t.libraryPaths(path, name, func(l model.LibraryDependency) string {
		return l.PublicHeaders
	})
}

// LibrariesSearchPaths returns the directories holding the subject's direct
// library dependencies.
func (t *Traverser) LibrariesSearchPaths(path, name string) []string {
	return t.libraryPaths(path, name, func(l model.LibraryDependency) string {
		return filepath.Dir(l.Path)
	})
}

// LibrariesSwiftIncludePaths returns the directories of the Swift module
// maps of the subject's direct library dependencies.
func (t *Traverser) LibrariesSwiftIncludePaths(path, name string) []string {
	return t.libraryPaths(path, name, func(l model.LibraryDependency) string {
		if l.SwiftModuleMap == "" {
			return ""
		}
		return filepath.Dir(l.SwiftModuleMap)
	})
}

func (t *Traverser) libraryPaths(path, name string, pick func(model.LibraryDependency) string) []string {
	var out []string
	for _, d := range t.graph.Edges(targetNode(path, name)) {
		if lib, ok := d.(model.LibraryDependency); ok {
			if p := pick(lib); p != "" {
				out = append(out, p)
			}
		}
	}
	return uniqueSorted(out)
}

// CopyProductDependencies returns the products that must be built before
// target and copied next to it: the direct static dependencies of a static
// target, and the resource bundles of any target.
func (t *Traverser) CopyProductDependencies(path string, target Target) []DependencyReference {
	var refs []DependencyReference
	if target.Product.IsStatic() {
		refs = append(refs, t.DirectStaticDependencies(path, target.Name)...)
	}
	for _, b := range t.ResourceBundleDependencies(path, target.Name) {
		refs = append(refs, model.ProductReference(b))
	}
	return model.UniqueReferences(refs)
}

// AllDependencyReferences returns every linkable, embeddable and copied
// reference of every target at path.
func (t *Traverser) AllDependencyReferences(path string) []DependencyReference {
	var refs []DependencyReference
	for _, tg := range t.Targets(path) {
		refs = append(refs, t.LinkableDependencies(path, tg.Name)...)
		refs = append(refs, t.EmbeddableFrameworks(path, tg.Name)...)
		refs = append(refs, t.CopyProductDependencies(path, tg)...)
	}
	return model.UniqueReferences(refs)
}

// staticTargetNodes is StaticTargets keeping the nodes, so that callers can
// follow the edges of each result.
func (t *Traverser) staticTargetNodes(node Dependency) []Dependency {
	found := t.FilterDependencies(node, t.isStaticDependency, t.canAbsorbStaticDependencies)
	return slices.DeleteFunc(found, func(d Dependency) bool {
		_, ok := t.graph.Resolve(d)
		return !ok
	})
}

func (t *Traverser) hostApplicationNode(node Dependency) (Dependency, bool) {
	for _, d := range t.graph.Edges(node) {
		if tg, ok := t.graph.Resolve(d); ok && tg.Product == model.Application {
			return d, true
		}
	}
	return nil, false
}

func isDynamicProduct(p Product) bool {
	return p == model.Framework || p == model.DynamicLibrary
}

func uniqueSorted(in []string) []string {
	out := make([]string, 0, len(in))
	out = append(out, in...)
	slices.Sort(out)
	return slices.Compact(out)
}
