package model

import (
	"path/filepath"
	"slices"
)

// Graph is the value graph of a workspace: the targets of every project and
// the adjacency between dependency nodes. A key missing from Dependencies
// means the node has no outgoing edges.
//
// A Graph is built once and must not be mutated while queries run against it.
type Graph struct {
	Name         string
	EntryPath    string
	Projects     map[string]Project
	Targets      map[string]map[string]Target
	Dependencies map[Dependency]map[Dependency]struct{}
}

// NewGraph returns an empty graph rooted at entryPath.
func NewGraph(name, entryPath string) *Graph {
	return &Graph{
		Name:         name,
		EntryPath:    entryPath,
		Projects:     map[string]Project{},
		Targets:      map[string]map[string]Target{},
		Dependencies: map[Dependency]map[Dependency]struct{}{},
	}
}

// AddProject registers p and all of its targets. A project already stored
// at the same path is replaced.
func (g *Graph) AddProject(p Project) {
	p.Targets = slices.Clone(p.Targets)
	g.Projects[p.Path] = p
	byName := make(map[string]Target, len(p.Targets))
	for _, t := range p.Targets {
		byName[t.Name] = t
	}
	g.Targets[p.Path] = byName
}

// AddTarget adds t to the project at path, creating the project if needed.
// A target with the same name is replaced.
func (g *Graph) AddTarget(path string, t Target) {
	p, ok := g.Projects[path]
	if !ok {
		p = Project{Path: path, Name: filepath.Base(path)}
	}
	p.Targets = slices.Clone(p.Targets)
	i := slices.IndexFunc(p.Targets, func(x Target) bool { return x.Name == t.Name })
	if i >= 0 {
		p.Targets[i] = t
	} else {
		p.Targets = append(p.Targets, t)
	}
	g.Projects[path] = p
	if g.Targets[path] == nil {
		g.Targets[path] = map[string]Target{}
	}
	g.Targets[path][t.Name] = t
}

// AddEdge records that from depends on to.
func (g *Graph) AddEdge(from, to Dependency) {
	set := g.Dependencies[from]
	if set == nil {
		set = map[Dependency]struct{}{}
		g.Dependencies[from] = set
	}
	set[to] = struct{}{}
}

// DependOn is AddEdge for the common case of a target depending on other
// nodes.
func (g *Graph) DependOn(path, name string, to ...Dependency) {
	from := TargetDependency{Name: name, Path: path}
	for _, d := range to {
		g.AddEdge(from, d)
	}
}

// Lookup resolves a target by project path and name.
func (g *Graph) Lookup(path, name string) (Target, bool) {
	t, ok := g.Targets[path][name]
	return t, ok
}

// Resolve resolves a target node. Non-target nodes and dangling references
// report false.
func (g *Graph) Resolve(d Dependency) (Target, bool) {
	td, ok := d.(TargetDependency)
	if !ok {
		return Target{}, false
	}
	return g.Lookup(td.Path, td.Name)
}

// Edges returns the outgoing edges of from, sorted.
func (g *Graph) Edges(from Dependency) []Dependency {
	set := g.Dependencies[from]
	out := make([]Dependency, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	slices.SortFunc(out, CompareDependencies)
	return out
}

// Nodes returns every node that appears in the adjacency, as a source or a
// destination, sorted.
func (g *Graph) Nodes() []Dependency {
	seen := map[Dependency]struct{}{}
	for from, set := range g.Dependencies {
		seen[from] = struct{}{}
		for to := range set {
			seen[to] = struct{}{}
		}
	}
	out := make([]Dependency, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	slices.SortFunc(out, CompareDependencies)
	return out
}

// EdgeCount is the total number of edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, set := range g.Dependencies {
		n += len(set)
	}
	return n
}

// ProjectPaths returns the path of every project holding targets, sorted.
func (g *Graph) ProjectPaths() []string {
	seen := map[string]struct{}{}
	for p := range g.Projects {
		seen[p] = struct{}{}
	}
	for p := range g.Targets {
		seen[p] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// TargetCount is the number of targets across all projects.
func (g *Graph) TargetCount() int {
	n := 0
	for _, byName := range g.Targets {
		n += len(byName)
	}
	return n
}
