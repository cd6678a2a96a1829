package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/jward/buildgraph"
	"github.com/jward/buildgraph/internal/model"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the stored graph",
	Long:  "Answer a single question about a project or target of the stored graph. Project paths may be given relative to the working directory.",
}

var reachableCmd = &cobra.Command{
	Use:   "reachable <path> <target>",
	Short: "List targets reachable from a target",
	Long:  "Walks the dependencies of a target depth-first. --product keeps only targets with one of the given products; --stop-at does not walk past targets with one of the given products.",
	Args:  cobra.ExactArgs(2),
	RunE:  runReachable,
}

var (
	flagProducts []string
	flagStopAt   []string
)

// queryDef describes one table-driven query subcommand. Queries with
// target set take a project path and a target name; the others take only a
// project path.
type queryDef struct {
	name   string
	short  string
	target bool
	run    func(t *buildgraph.Traverser, path, name string) (any, error)
}

var queries = []queryDef{
	{name: "targets", short: "List the targets of a project", run: func(t *buildgraph.Traverser, path, _ string) (any, error) {
		return targetsToCLI(path, t.Targets(path)), nil
	}},
	{name: "target", short: "Show one target", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		tg := t.Target(path, name)
		if tg == nil {
			return nil, fmt.Errorf("target %q not found in %s", name, path)
		}
		return targetToCLI(path, *tg), nil
	}},
	{name: "direct-dependencies", short: "List the targets a target depends on directly", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return targetsToCLI("", t.DirectTargetDependencies(path, name)), nil
	}},
	{name: "app-extensions", short: "List the app extensions a target depends on", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return targetsToCLI(path, t.AppExtensionDependencies(path, name)), nil
	}},
	{name: "resource-bundles", short: "List the resource bundles a target copies", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return targetsToCLI("", t.ResourceBundleDependencies(path, name)), nil
	}},
	{name: "dependent-tests", short: "List the test targets that depend on a target", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return targetsToCLI(path, t.TestTargetsDependingOn(path, name)), nil
	}},
	{name: "direct-static", short: "List the static products a target depends on directly", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return t.DirectStaticDependencies(path, name), nil
	}},
	{name: "static-targets", short: "List the static targets a target absorbs", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return targetsToCLI("", t.StaticTargets(path, name)), nil
	}},
	{name: "all-dependencies", short: "List every node reachable from the targets of a project", run: func(t *buildgraph.Traverser, path, _ string) (any, error) {
		return dependenciesToCLI(t.AllDependencies(path)), nil
	}},
	{name: "host-target", short: "Show the target at the same path that depends on a target", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return targetPtrToCLI(path, t.HostTarget(path, name)), nil
	}},
	{name: "host-application", short: "Show the application a test target runs in", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return targetPtrToCLI("", t.HostApplication(path, name)), nil
	}},
	{name: "linkable", short: "List what a target links", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return t.LinkableDependencies(path, name), nil
	}},
	{name: "embeddable", short: "List the frameworks a target embeds", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return t.EmbeddableFrameworks(path, name), nil
	}},
	{name: "copy-products", short: "List the products a target copies", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		tg := t.Target(path, name)
		if tg == nil {
			return nil, fmt.Errorf("target %q not found in %s", name, path)
		}
		return t.CopyProductDependencies(path, *tg), nil
	}},
	{name: "all-references", short: "List the references of everything a project depends on", run: func(t *buildgraph.Traverser, path, _ string) (any, error) {
		return t.AllDependencyReferences(path), nil
	}},
	{name: "header-search-paths", short: "List the public header folders of linked libraries", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return t.LibrariesPublicHeadersFolders(path, name), nil
	}},
	{name: "library-search-paths", short: "List the folders of linked libraries", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return t.LibrariesSearchPaths(path, name), nil
	}},
	{name: "swift-include-paths", short: "List the Swift module folders of linked libraries", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return t.LibrariesSwiftIncludePaths(path, name), nil
	}},
	{name: "run-path-search-paths", short: "List the runpath folders of embedded precompiled frameworks", target: true, run: func(t *buildgraph.Traverser, path, name string) (any, error) {
		return t.RunPathSearchPaths(path, name), nil
	}},
}

func init() {
	for _, q := range queries {
		queryCmd.AddCommand(newQueryCmd(q))
	}
	reachableCmd.Flags().StringSliceVar(&flagProducts, "product", nil, "only report targets with these products")
	reachableCmd.Flags().StringSliceVar(&flagStopAt, "stop-at", nil, "do not walk past targets with these products")
	queryCmd.AddCommand(reachableCmd)
}

func newQueryCmd(q queryDef) *cobra.Command {
	use, args := q.name+" <path>", cobra.ExactArgs(1)
	if q.target {
		use, args = q.name+" <path> <target>", cobra.ExactArgs(2)
	}
	return &cobra.Command{
		Use:   use,
		Short: q.short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "query " + q.name
			path, err := resolveFilePath(args[0])
			if err != nil {
				return outputError(command, err)
			}
			var name string
			if q.target {
				name = args[1]
			}

			t, closeFn, err := openTraverser()
			if err != nil {
				return outputError(command, err)
			}
			defer closeFn()

			res, err := q.run(t, path, name)
			if err != nil {
				return outputError(command, err)
			}
			return outputResult(newResult(command, res))
		},
	}
}

func runReachable(cmd *cobra.Command, args []string) error {
	const command = "query reachable"
	path, err := resolveFilePath(args[0])
	if err != nil {
		return outputError(command, err)
	}
	t, closeFn, err := openTraverser()
	if err != nil {
		return outputError(command, err)
	}
	defer closeFn()

	g := t.Graph()
	hasProduct := func(products []string) func(buildgraph.Dependency) bool {
		return func(d buildgraph.Dependency) bool {
			tg, ok := g.Resolve(d)
			return ok && slices.Contains(products, string(tg.Product))
		}
	}
	test := func(d buildgraph.Dependency) bool {
		_, ok := g.Resolve(d)
		return ok
	}
	if len(flagProducts) > 0 {
		test = hasProduct(flagProducts)
	}
	var skip func(buildgraph.Dependency) bool
	if len(flagStopAt) > 0 {
		skip = hasProduct(flagStopAt)
	}

	root := model.TargetDependency{Name: args[1], Path: path}
	deps := t.FilterDependencies(root, test, skip)
	return outputResult(newResult(command, targetNodes(g, deps)))
}

// openTraverser opens the engine and returns a traverser over the stored
// graph along with a function that closes the engine.
func openTraverser() (*buildgraph.Traverser, func(), error) {
	e, err := openEngine()
	if err != nil {
		return nil, nil, err
	}
	t, err := e.Traverser()
	if err != nil {
		e.Close()
		return nil, nil, err
	}
	return t, func() { e.Close() }, nil
}

// newResult builds an envelope, setting total_count for list results.
func newResult(command string, res any) CLIResult {
	r := CLIResult{Command: command, Results: res}
	if n, ok := resultLen(res); ok {
		r.TotalCount = &n
	}
	return r
}

// outputResult writes a CLIResult in the selected format.
func outputResult(result CLIResult) error {
	if outputFormat() == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if outputFormat() == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// outputFormat is the configured format, or the raw flag when config
// loading failed.
func outputFormat() string {
	if cfg != nil {
		return cfg.Format
	}
	return flagFormat
}
