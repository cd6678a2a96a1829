package main

import (
	"time"

	"github.com/jward/buildgraph"
	"github.com/jward/buildgraph/internal/model"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLITarget is a JSON-friendly target representation.
type CLITarget struct {
	Path        string `json:"path,omitempty"`
	Name        string `json:"name"`
	Platform    string `json:"platform"`
	Product     string `json:"product"`
	ProductFile string `json:"product_file"`
	BundleID    string `json:"bundle_id,omitempty"`
}

// CLIDependency is a graph node with its kind and identity string.
type CLIDependency struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// CLIImport reports the outcome of an import.
type CLIImport struct {
	File      string  `json:"file"`
	Hash      string  `json:"hash"`
	Unchanged bool    `json:"unchanged"`
	Projects  int     `json:"projects"`
	Targets   int     `json:"targets"`
	Edges     int     `json:"edges"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

// CLIExport reports where an export was written.
type CLIExport struct {
	Path string `json:"path"`
}

// CLIScript wraps the value a script evaluated to.
type CLIScript struct {
	Script string `json:"script"`
	Value  any    `json:"value"`
}

func targetToCLI(path string, t buildgraph.Target) CLITarget {
	return CLITarget{
		Path:        path,
		Name:        t.Name,
		Platform:    string(t.Platform),
		Product:     string(t.Product),
		ProductFile: t.ProductNameWithExtension(),
		BundleID:    t.BundleID,
	}
}

// targetsToCLI converts targets. path is left empty for results that may
// span projects.
func targetsToCLI(path string, targets []buildgraph.Target) []CLITarget {
	out := make([]CLITarget, len(targets))
	for i, t := range targets {
		out[i] = targetToCLI(path, t)
	}
	return out
}

// targetPtrToCLI returns nil for a missing target so the envelope carries
// "results": null.
func targetPtrToCLI(path string, t *buildgraph.Target) any {
	if t == nil {
		return nil
	}
	return targetToCLI(path, *t)
}

func dependenciesToCLI(deps []buildgraph.Dependency) []CLIDependency {
	out := make([]CLIDependency, len(deps))
	for i, d := range deps {
		out[i] = CLIDependency{Kind: string(d.Kind()), ID: d.String()}
	}
	return out
}

func importToCLI(file string, r *buildgraph.ImportResult) CLIImport {
	return CLIImport{
		File:      file,
		Hash:      r.Hash,
		Unchanged: r.Unchanged,
		Projects:  r.Projects,
		Targets:   r.Targets,
		Edges:     r.Edges,
		ElapsedMS: float64(r.Elapsed) / float64(time.Millisecond),
	}
}

// targetNodes resolves the target nodes among deps, keeping their project
// path. Dangling nodes and non-target nodes are dropped.
func targetNodes(g *buildgraph.Graph, deps []buildgraph.Dependency) []CLITarget {
	out := []CLITarget{}
	for _, d := range deps {
		td, ok := d.(model.TargetDependency)
		if !ok {
			continue
		}
		if t, ok := g.Lookup(td.Path, td.Name); ok {
			out = append(out, targetToCLI(td.Path, t))
		}
	}
	return out
}
