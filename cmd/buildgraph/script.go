package main

import (
	"errors"
	"path/filepath"

	"github.com/jward/buildgraph"
	"github.com/jward/buildgraph/scripts"
	"github.com/spf13/cobra"
)

var scriptCmd = &cobra.Command{
	Use:   "script [file]",
	Short: "Run a Risor report script against the stored graph",
	Long: `Runs a Risor script with the graph queries available as global functions
and prints the value of its final expression.

The script is read from a file, from the bundled reports with --builtin, or
inline with --eval. The global "project" defaults to the graph's entry path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

var (
	flagBuiltin    string
	flagEval       string
	flagVars       map[string]string
	flagScriptsDir string
)

func init() {
	scriptCmd.Flags().StringVar(&flagBuiltin, "builtin", "", "run a bundled report: static_link|test_impact|embeds")
	scriptCmd.Flags().StringVarP(&flagEval, "eval", "e", "", "run inline source")
	scriptCmd.Flags().StringToStringVar(&flagVars, "var", nil, "set a global, e.g. --var project=/path")
	scriptCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "directory relative script paths and imports resolve against")
}

func runScript(cmd *cobra.Command, args []string) error {
	sources := 0
	for _, set := range []bool{len(args) == 1, flagBuiltin != "", flagEval != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return outputError("script", errors.New("give exactly one of a script file, --builtin or --eval"))
	}

	var opts []buildgraph.Option
	var label string
	switch {
	case flagBuiltin != "":
		label = scripts.ReportPath(flagBuiltin)
		opts = append(opts, buildgraph.WithScriptsFS(scripts.FS))
	case flagEval != "":
		label = "<inline>"
		if cfg.ScriptsDir != "" {
			opts = append(opts, buildgraph.WithScriptsDir(cfg.ScriptsDir))
		}
	default:
		dir, path, err := scriptLocation(args[0], cfg.ScriptsDir)
		if err != nil {
			return outputError("script", err)
		}
		label = path
		opts = append(opts, buildgraph.WithScriptsDir(dir))
	}

	e, err := openEngine(opts...)
	if err != nil {
		return outputError("script", err)
	}
	defer e.Close()

	globals := make(map[string]any, len(flagVars))
	for k, v := range flagVars {
		globals[k] = v
	}
	if p, ok := globals["project"].(string); ok {
		abs, err := resolveFilePath(p)
		if err != nil {
			return outputError("script", err)
		}
		globals["project"] = abs
	}

	var value any
	if flagEval != "" {
		value, err = e.RunSource(cmd.Context(), flagEval, globals)
	} else {
		value, err = e.RunScript(cmd.Context(), label, globals)
	}
	if err != nil {
		return outputError("script", err)
	}
	return outputResult(CLIResult{Command: "script", Results: CLIScript{Script: label, Value: value}})
}

// scriptLocation splits a script argument into the directory imports
// resolve against and the path to load. A relative file is looked up in
// scriptsDir when one is configured, otherwise in the working directory.
func scriptLocation(file, scriptsDir string) (dir, path string, err error) {
	if scriptsDir != "" && !filepath.IsAbs(file) {
		dir, err = resolveFilePath(scriptsDir)
		return dir, file, err
	}
	abs, err := resolveFilePath(file)
	if err != nil {
		return "", "", err
	}
	return filepath.Dir(abs), filepath.Base(abs), nil
}
