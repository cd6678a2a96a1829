package buildgraph

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/jward/buildgraph/internal/ctxlog"
	"github.com/jward/buildgraph/internal/model"
	"golang.org/x/sync/errgroup"
)

// TargetPlan is everything a project generator needs to emit the build
// phases and search paths of one target.
type TargetPlan struct {
	Name               string                `json:"name"`
	Product            Product               `json:"product"`
	Link               []DependencyReference `json:"link"`
	Embed              []DependencyReference `json:"embed"`
	Copy               []DependencyReference `json:"copy"`
	ResourceBundles    []string              `json:"resource_bundles"`
	HeaderSearchPaths  []string              `json:"header_search_paths"`
	LibrarySearchPaths []string              `json:"library_search_paths"`
	SwiftIncludePaths  []string              `json:"swift_include_paths"`
	RunPathSearchPaths []string              `json:"run_path_search_paths"`
	Host               string                `json:"host,omitempty"`
	DependentTests     []string              `json:"dependent_tests"`
	AppExtensions      []string              `json:"app_extensions"`
}

// ProjectPlan holds the plans of every target of one project, by name.
type ProjectPlan struct {
	Path    string       `json:"path"`
	Targets []TargetPlan `json:"targets"`
}

// WorkspacePlan is the result of Planner.Plan, ordered by project path.
type WorkspacePlan struct {
	Projects []ProjectPlan `json:"projects"`
}

// PlanOptions configures a planning run.
type PlanOptions struct {
	// Paths lists the project paths to plan.
	Paths []string
	// Concurrency bounds how many projects are planned at once.
	// Zero or less means one per CPU.
	Concurrency int
}

// Planner turns query results into per-target build plans. It reads the
// graph only through GraphTraversing.
type Planner struct {
	traverser GraphTraversing
}

// NewPlanner returns a Planner backed by t.
func NewPlanner(t GraphTraversing) *Planner {
	return &Planner{traverser: t}
}

// Plan computes a plan for every target of every project in opts.Paths.
// Projects are planned concurrently; the result does not depend on
// scheduling. Cancelling ctx stops planning and returns its error.
func (p *Planner) Plan(ctx context.Context, opts PlanOptions) (*WorkspacePlan, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	paths := slices.Clone(opts.Paths)
	slices.Sort(paths)
	paths = slices.Compact(paths)

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	projects := make([]ProjectPlan, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			plan, err := p.planProject(gCtx, path)
			if err != nil {
				return fmt.Errorf("plan %s: %w", path, err)
			}
			projects[i] = plan
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("planned workspace",
		"projects", len(projects),
		"concurrency", limit,
		"elapsed", time.Since(start))
	return &WorkspacePlan{Projects: projects}, nil
}

func (p *Planner) planProject(ctx context.Context, path string) (ProjectPlan, error) {
	targets := p.traverser.Targets(path)
	plan := ProjectPlan{Path: path, Targets: make([]TargetPlan, 0, len(targets))}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return ProjectPlan{}, err
		}
		plan.Targets = append(plan.Targets, p.PlanTarget(path, t))
	}
	ctxlog.FromContext(ctx).Debug("planned project", "path", path, "targets", len(targets))
	return plan, nil
}

// PlanTarget computes the plan of a single target.
func (p *Planner) PlanTarget(path string, t Target) TargetPlan {
	q := p.traverser
	plan := TargetPlan{
		Name:               t.Name,
		Product:            t.Product,
		Link:               q.LinkableDependencies(path, t.Name),
		Embed:              q.EmbeddableFrameworks(path, t.Name),
		Copy:               q.CopyProductDependencies(path, t),
		ResourceBundles:    targetNames(q.ResourceBundleDependencies(path, t.Name)),
		HeaderSearchPaths:  q.LibrariesPublicHeadersFolders(path, t.Name),
		LibrarySearchPaths: q.LibrariesSearchPaths(path, t.Name),
		SwiftIncludePaths:  q.LibrariesSwiftIncludePaths(path, t.Name),
		RunPathSearchPaths: q.RunPathSearchPaths(path, t.Name),
		DependentTests:     targetNames(q.TestTargetsDependingOn(path, t.Name)),
		AppExtensions:      targetNames(q.AppExtensionDependencies(path, t.Name)),
	}

	// Only embedded products have a host.
	var host *Target
	switch {
	case t.Product.IsTestBundle():
		host = q.HostApplication(path, t.Name)
	case t.Product.IsExtension(), t.Product == model.Watch2App, t.Product == model.AppClip:
		host = q.HostTarget(path, t.Name)
	}
	if host != nil {
		plan.Host = host.Name
	}
	return plan
}

func targetNames(targets []Target) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = t.Name
	}
	return out
}
