// This file provides the run archive commands: listing archived runs and
// diffing clause feasibility between two of them.
package main

import (
	"github.com/spf13/cobra"
)

var (
	runsKind  string
	runsLimit int
)

// runsCmd lists archived analysis runs
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived analysis runs",
	Long: `Lists runs archived with --save, newest first.

Examples:
  exprdiag runs
  exprdiag runs --kind feasibility --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(runsKind, runsLimit)
		if err != nil {
			return err
		}
		return printJSON(runs)
	},
}

// diffCmd compares clause feasibility between two archived runs
var diffCmd = &cobra.Command{
	Use:   "diff [run-a] [run-b]",
	Short: "Diff clause feasibility between two archived runs",
	Long: `Compares two archived feasibility runs clause by clause.

Clauses match by their stable ids, so the diff survives prerequisite
reordering; clauses only in one run are reported as added or removed,
and clauses whose feasibility class changed are reported with both
classifications.

Example:
  exprdiag diff 6f1d0c2a-... 9a2e44b7-...`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		diff, err := store.DiffFeasibilityRuns(args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(diff)
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsKind, "kind", "", "Filter by run kind: overlap, feasibility, conflicts")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list (0 for all)")
}
