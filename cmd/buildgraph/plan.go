package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [path...]",
	Short: "Compute build plans",
	Long:  "Computes the link, embed and copy phases and the search paths of every target in the given projects, or in every stored project when none are given.",
	RunE:  runPlan,
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check the stored graph for dangling references and cycles",
	Long:  "Reports target references missing from the graph and dependency cycles. Exits with status 1 when any issue is found.",
	Args:  cobra.NoArgs,
	RunE:  runLint,
}

var flagConcurrency int

func init() {
	planCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "projects planned at once (0 = one per CPU)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	paths := make([]string, len(args))
	for i, a := range args {
		p, err := resolveFilePath(a)
		if err != nil {
			return outputError("plan", err)
		}
		paths[i] = p
	}

	e, err := openEngine()
	if err != nil {
		return outputError("plan", err)
	}
	defer e.Close()

	plan, err := e.Plan(cmd.Context(), paths...)
	if err != nil {
		return outputError("plan", err)
	}
	return outputResult(CLIResult{Command: "plan", Results: plan})
}

func runLint(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return outputError("lint", err)
	}
	defer e.Close()

	issues, err := e.Lint()
	if err != nil {
		return outputError("lint", err)
	}
	if err := outputResult(newResult("lint", issues)); err != nil {
		return err
	}
	if len(issues) > 0 {
		errorHandled = true
		return fmt.Errorf("%d lint issues", len(issues))
	}
	return nil
}
