package store

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jward/buildgraph/internal/model"
)

// hashRecord is one line of the hash input. Each record is JSON-encoded so
// that field values cannot run into each other.
type hashRecord struct {
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	Path     string          `json:"path,omitempty"`
	Settings *model.Settings `json:"settings,omitempty"`
	Target   *model.Target   `json:"target,omitempty"`
	From     string          `json:"from,omitempty"`
	To       string          `json:"to,omitempty"`
}

// ComputeGraphHash computes a deterministic hash of a graph's content.
// Covers: name, entry path, projects, targets (including settings) and
// edges. Map iteration order does NOT affect the hash.
func ComputeGraphHash(g *model.Graph) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	write := func(r hashRecord) {
		// Encoding plain strings, slices and string maps cannot fail.
		_ = enc.Encode(r)
	}

	write(hashRecord{Type: "graph", Name: g.Name, Path: g.EntryPath})

	for _, path := range g.ProjectPaths() {
		p := g.Projects[path]
		write(hashRecord{Type: "project", Name: p.Name, Path: path, Settings: &p.Settings})

		names := make([]string, 0, len(g.Targets[path]))
		for name := range g.Targets[path] {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			t := g.Targets[path][name]
			write(hashRecord{Type: "target", Path: path, Target: &t})
		}
	}

	for _, from := range g.Nodes() {
		for _, to := range g.Edges(from) {
			write(hashRecord{Type: "edge", From: model.Identity(from), To: model.Identity(to)})
		}
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
