package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jward/buildgraph"
	"github.com/jward/buildgraph/internal/graphfile"
	"gopkg.in/yaml.v3"
)

// formatTargetsText formats CLITarget results as aligned columns.
func formatTargetsText(w io.Writer, targets []CLITarget) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPRODUCT\tPLATFORM\tFILE\tPATH")
	for _, t := range targets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Name, t.Product, t.Platform, t.ProductFile, t.Path)
	}
	tw.Flush()
}

// formatReferencesText formats dependency references as aligned columns.
// Products show their file name, everything else its path.
func formatReferencesText(w io.Writer, refs []buildgraph.DependencyReference) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tREFERENCE\tLINKING\tSTATUS")
	for _, r := range refs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Kind, referenceName(r), r.Linking, r.Status)
	}
	tw.Flush()
}

func referenceName(r buildgraph.DependencyReference) string {
	if r.ProductName != "" {
		return r.ProductName
	}
	return r.Path
}

// formatDependenciesText formats graph nodes as aligned columns.
func formatDependenciesText(w io.Writer, deps []CLIDependency) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID")
	for _, d := range deps {
		fmt.Fprintf(tw, "%s\t%s\n", d.Kind, d.ID)
	}
	tw.Flush()
}

// formatLintText formats lint issues, one per line.
func formatLintText(w io.Writer, issues []buildgraph.LintIssue) {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}
	for _, is := range issues {
		fmt.Fprintf(w, "%s: %s\n", is.Kind, is.Message)
	}
}

// formatStatsText formats graph statistics as readable text.
func formatStatsText(w io.Writer, st buildgraph.GraphStats) {
	fmt.Fprintf(w, "Graph:    %s\n", st.Name)
	fmt.Fprintf(w, "Entry:    %s\n", st.EntryPath)
	fmt.Fprintf(w, "Hash:     %s\n", st.Hash)
	fmt.Fprintf(w, "Imported: %s\n", st.ImportedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Projects: %d\n", st.Projects)
	fmt.Fprintf(w, "Targets:  %d\n", st.Targets)
	fmt.Fprintf(w, "Nodes:    %d\n", st.Nodes)
	fmt.Fprintf(w, "Edges:    %d\n", st.Edges)
}

// formatImportText formats the outcome of an import.
func formatImportText(w io.Writer, imp CLIImport) {
	if imp.Unchanged {
		fmt.Fprintf(w, "%s unchanged (%s)\n", imp.File, shortHash(imp.Hash))
		return
	}
	fmt.Fprintf(w, "Imported %s (%s): %d projects, %d targets, %d edges in %.1fms\n",
		imp.File, shortHash(imp.Hash), imp.Projects, imp.Targets, imp.Edges, imp.ElapsedMS)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// formatPlanText formats a workspace plan as an indented outline. Empty
// sections are omitted.
func formatPlanText(w io.Writer, plan *buildgraph.WorkspacePlan) {
	for i, p := range plan.Projects {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, p.Path)
		for _, t := range p.Targets {
			fmt.Fprintf(w, "  %s (%s)\n", t.Name, t.Product)
			if t.Host != "" {
				fmt.Fprintf(w, "    host: %s\n", t.Host)
			}
			planSection(w, "link", refNames(t.Link))
			planSection(w, "embed", refNames(t.Embed))
			planSection(w, "copy", refNames(t.Copy))
			planSection(w, "resource bundles", t.ResourceBundles)
			planSection(w, "app extensions", t.AppExtensions)
			planSection(w, "header search paths", t.HeaderSearchPaths)
			planSection(w, "library search paths", t.LibrarySearchPaths)
			planSection(w, "swift include paths", t.SwiftIncludePaths)
			planSection(w, "runpath search paths", t.RunPathSearchPaths)
			planSection(w, "dependent tests", t.DependentTests)
		}
	}
}

func planSection(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "    %s: %s\n", title, strings.Join(items, ", "))
}

func refNames(refs []buildgraph.DependencyReference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = referenceName(r)
	}
	return out
}

// formatScriptText writes a script's value as YAML, or as-is when it is a
// plain string.
func formatScriptText(w io.Writer, s CLIScript) error {
	switch v := s.Value.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.Value); err != nil {
		return fmt.Errorf("encoding script result: %w", err)
	}
	return enc.Close()
}

// writeGraphYAML writes g in the graph file format.
func writeGraphYAML(w io.Writer, g *buildgraph.Graph) error {
	data, err := graphfile.Encode(g)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// outputResultText dispatches to the type-specific text formatter.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLITarget:
		formatTargetsText(w, v)
	case CLITarget:
		formatTargetsText(w, []CLITarget{v})
	case []buildgraph.DependencyReference:
		formatReferencesText(w, v)
	case []CLIDependency:
		formatDependenciesText(w, v)
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
	case []buildgraph.LintIssue:
		formatLintText(w, v)
	case buildgraph.GraphStats:
		formatStatsText(w, v)
	case CLIImport:
		formatImportText(w, v)
	case CLIExport:
		fmt.Fprintf(w, "Exported to %s\n", v.Path)
	case *buildgraph.WorkspacePlan:
		formatPlanText(w, v)
	case CLIScript:
		return formatScriptText(w, v)
	case nil:
		// No output for nil results (e.g., host-target with no host).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// resultLen returns the length of a list result.
func resultLen(v any) (int, bool) {
	switch r := v.(type) {
	case []CLITarget:
		return len(r), true
	case []CLIDependency:
		return len(r), true
	case []buildgraph.DependencyReference:
		return len(r), true
	case []buildgraph.LintIssue:
		return len(r), true
	case []string:
		return len(r), true
	}
	return 0, false
}
