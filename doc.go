// Package buildgraph resolves the build relationships of a workspace of
// Xcode-style projects: which targets a target links, which frameworks it
// embeds, which resource bundles and app extensions it copies, and which
// search paths it needs.
//
// # Model
//
// A [Graph] holds projects keyed by path, their targets, and a set of
// directed edges between [Dependency] nodes. A node is a target (by project
// path and name) or an external artifact: a precompiled framework,
// xcframework or library, a package product, an SDK, or a CocoaPods
// installation. Graphs are plain values and are not modified once built.
//
// # Queries
//
// A [Traverser] answers the [GraphTraversing] queries. All of them are built
// on one primitive, [Traverser.FilterDependencies], a depth-first walk with
// an inclusion predicate and a pruning predicate:
//
//	t := buildgraph.NewTraverser(g)
//	statics := t.StaticTargets("/App", "App")
//	refs := t.LinkableDependencies("/App", "App")
//
// Queries never fail. Unknown projects, unknown targets and dangling edges
// produce empty results, and every slice result is sorted.
//
// # Engine
//
// [Engine] persists a graph in SQLite and serves queries, plans, lint runs
// and Risor scripts from the stored snapshot:
//
//	e, err := buildgraph.New("buildgraph.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	_, err = e.ImportFile(ctx, "graph.yaml")
//	plan, err := e.Plan(ctx)
//	issues, err := e.Lint()
//
// [Planner] computes a [TargetPlan] for every target, working on projects
// concurrently. [Lint] reports dangling target references and dependency
// cycles.
//
// # Scripts
//
// Scripts get one builtin per query plus filter_dependencies, which takes
// Risor functions as predicates. Bundled reports live in the scripts
// package; see internal/runtime for the full set of globals.
package buildgraph
