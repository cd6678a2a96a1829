package buildgraph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jward/buildgraph/internal/model"
)

// Lint issue kinds.
const (
	IssueDanglingTarget = "dangling-target"
	IssueCycle          = "cycle"
)

// LintIssue is a structural defect of a graph. Queries tolerate both kinds;
// the linter exists so that a constructor can reject them early.
type LintIssue struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Nodes   []string `json:"nodes"`
}

// Lint reports every target reference missing from the targets map and
// every dependency cycle. Returns an empty list (not nil) for a clean graph.
func Lint(g *model.Graph) []LintIssue {
	issues := []LintIssue{}
	if g == nil {
		return issues
	}

	for _, d := range g.Nodes() {
		td, ok := d.(model.TargetDependency)
		if !ok {
			continue
		}
		if _, ok := g.Resolve(td); !ok {
			issues = append(issues, LintIssue{
				Kind:    IssueDanglingTarget,
				Message: fmt.Sprintf("target %q is referenced but not defined at %s", td.Name, td.Path),
				Nodes:   []string{td.String()},
			})
		}
	}

	for _, c := range dependencyCycles(g) {
		msg := "dependency cycle: " + strings.Join(c.path, " -> ")
		if extra := c.size - (len(c.path) - 1); extra > 0 {
			msg += fmt.Sprintf(" (%d more nodes in the same strongly connected component)", extra)
		}
		issues = append(issues, LintIssue{
			Kind:    IssueCycle,
			Message: msg,
			Nodes:   c.path,
		})
	}
	return issues
}

// cycle is one shortest cycle through the smallest node of a strongly
// connected component. path repeats its first node at the end.
type cycle struct {
	start Dependency
	path  []string
	size  int
}

// dependencyCycles finds strongly connected components with Tarjan's
// algorithm and traces a real cycle through each.
func dependencyCycles(g *model.Graph) []cycle {
	type nodeInfo struct {
		index   int
		lowlink int
		onStack bool
	}
	info := map[Dependency]*nodeInfo{}
	index := 0
	var stack []Dependency
	var result []cycle

	var strongconnect func(v Dependency)
	strongconnect = func(v Dependency) {
		ni := &nodeInfo{index: index, lowlink: index, onStack: true}
		info[v] = ni
		index++
		stack = append(stack, v)

		for _, w := range g.Edges(v) {
			wInfo, visited := info[w]
			if !visited {
				strongconnect(w)
				wInfo = info[w]
				ni.lowlink = min(ni.lowlink, wInfo.lowlink)
			} else if wInfo.onStack {
				ni.lowlink = min(ni.lowlink, wInfo.index)
			}
		}

		if ni.lowlink != ni.index {
			return
		}
		members := map[Dependency]bool{}
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			info[w].onStack = false
			members[w] = true
			if w == v {
				break
			}
		}
		if _, selfLoop := g.Dependencies[v][v]; len(members) == 1 && !selfLoop {
			return
		}

		start := v
		for d := range members {
			if model.CompareDependencies(d, start) < 0 {
				start = d
			}
		}
		nodes := traceCycle(g, members, start)
		path := make([]string, len(nodes))
		for i, d := range nodes {
			path[i] = d.String()
		}
		result = append(result, cycle{start: start, path: path, size: len(members)})
	}

	for _, d := range g.Nodes() {
		if _, visited := info[d]; !visited {
			strongconnect(d)
		}
	}

	slices.SortFunc(result, func(a, b cycle) int {
		return model.CompareDependencies(a.start, b.start)
	})
	return result
}

// traceCycle finds the shortest path from start back to itself that stays
// inside members. Every consecutive pair of the result is an edge.
func traceCycle(g *model.Graph, members map[Dependency]bool, start Dependency) []Dependency {
	parent := map[Dependency]Dependency{}
	queue := []Dependency{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range g.Edges(v) {
			if !members[w] {
				continue
			}
			if w == start {
				var path []Dependency
				for x := v; x != start; x = parent[x] {
					path = append(path, x)
				}
				path = append(path, start)
				slices.Reverse(path)
				return append(path, start)
			}
			if _, seen := parent[w]; seen {
				continue
			}
			parent[w] = v
			queue = append(queue, w)
		}
	}
	return []Dependency{start, start}
}
