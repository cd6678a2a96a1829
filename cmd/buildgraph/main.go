package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jward/buildgraph"
	"github.com/jward/buildgraph/internal/config"
	"github.com/jward/buildgraph/internal/ctxlog"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagDB        string
	flagFormat    string
	flagLogLevel  string
	flagLogFormat string
)

// cfg is the resolved configuration, loaded before any command runs.
var cfg *config.Config

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "buildgraph",
	Short:             "Resolve link, embed and copy relationships of a build graph",
	Long:              "buildgraph stores a workspace's target graph in SQLite and answers the queries a project generator needs: what each target links, embeds and copies, and which search paths it uses.",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	// No Run: prints help by default.
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default: .buildgraph.yaml in the repo root)")
	pf.StringVar(&flagDB, "db", "", "database path (default: buildgraph.db relative to repo root)")
	pf.StringVar(&flagFormat, "format", "json", "output format: json|text")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "log level: debug|info|warn|error")
	pf.StringVar(&flagLogFormat, "log-format", "text", "log format: text|json")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(scriptCmd)
}

// setup loads the configuration and installs the logger on the command's
// context.
func setup(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting cwd: %w", err)
	}
	repoRoot := findRepoRoot(cwd)

	c, err := config.Load(flagConfig, repoRoot, cmd.Flags())
	if err != nil {
		return err
	}
	c.DB = resolveDBPath(repoRoot, c.DB)
	cfg = c

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := ctxlog.New(c.Log.Level, c.Log.Format, os.Stderr)
	cmd.SetContext(ctxlog.WithLogger(ctx, logger))
	logger.Debug("loaded config", "db", c.DB, "format", c.Format, "repo_root", repoRoot)
	return nil
}

var importCmd = &cobra.Command{
	Use:   "import <graph.yaml>",
	Short: "Import a graph file into the database",
	Long:  "Reads a YAML graph file and replaces the stored graph with it. An identical graph is not written again.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the stored graph as YAML",
	Long:  "Writes the stored graph as a YAML graph file, to stdout when no file is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the stored graph",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runImport(cmd *cobra.Command, args []string) error {
	path, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("import", err)
	}
	e, err := openEngine()
	if err != nil {
		return outputError("import", err)
	}
	defer e.Close()

	res, err := e.ImportFile(cmd.Context(), path)
	if err != nil {
		return outputError("import", err)
	}
	return outputResult(CLIResult{Command: "import", Results: importToCLI(path, res)})
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return outputError("export", err)
	}
	defer e.Close()

	if len(args) == 0 {
		g, err := e.Export()
		if err != nil {
			return outputError("export", err)
		}
		return writeGraphYAML(os.Stdout, g)
	}

	path, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("export", err)
	}
	if err := e.ExportFile(path); err != nil {
		return outputError("export", err)
	}
	return outputResult(CLIResult{Command: "export", Results: CLIExport{Path: path}})
}

func runStats(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return outputError("stats", err)
	}
	defer e.Close()

	st, err := e.Stats()
	if err != nil {
		return outputError("stats", err)
	}
	return outputResult(CLIResult{Command: "stats", Results: *st})
}

// openEngine opens the engine on the configured database.
func openEngine(opts ...buildgraph.Option) (*buildgraph.Engine, error) {
	if dir := filepath.Dir(cfg.DB); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	opts = append(opts, buildgraph.WithConcurrency(cfg.Plan.Concurrency))
	e, err := buildgraph.New(cfg.DB, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return e, nil
}

// findRepoRoot walks up from startDir looking for a .git directory or a
// buildgraph config file. Returns startDir if neither is found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		if _, err := os.Stat(filepath.Join(dir, config.FileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath anchors a relative database path at the repo root.
func resolveDBPath(repoRoot, db string) string {
	if filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(repoRoot, db)
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}
