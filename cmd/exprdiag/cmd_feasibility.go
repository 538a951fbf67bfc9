// This file provides the feasibility command: every non-axis prerequisite
// clause of an expression is checked against the observed value
// distribution of a sampled corpus.
package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exprdiag/internal/catalog"
	"exprdiag/internal/feasibility"
	"exprdiag/internal/simstate"
)

var (
	feasibilityExpressionsPath string
	feasibilityExpressionID    string
	feasibilityCorpusPath      string
)

// feasibilityCmd analyzes non-axis clause feasibility for one expression
var feasibilityCmd = &cobra.Command{
	Use:   "feasibility",
	Short: "Check non-axis prerequisite clauses against a sampled corpus",
	Long: `Extracts the non-axis clauses from an expression's prerequisite trees
and measures each one over the corpus: pass rate, observed range, and the
margin between the threshold and the observed extremum.

Each clause is labeled OK, RARE, UNOBSERVED, EMPIRICALLY_UNREACHABLE, or
UNKNOWN. Delta clauses (previous-tick comparisons) are measured but
flagged, since single-context sampling cannot exercise them.

Examples:
  exprdiag feasibility --expressions exprs.json --id jealous_glare --corpus corpus.json
  exprdiag feasibility --expressions exprs.json --corpus corpus.json --save`,
	RunE: runFeasibility,
}

// feasibilityEnvelope is the command's output payload.
type feasibilityEnvelope struct {
	RunID        string                     `json:"runId"`
	ExpressionID string                     `json:"expressionId"`
	CorpusSize   int                        `json:"corpusSize"`
	Clauses      []feasibility.ClauseResult `json:"clauses"`
}

func init() {
	feasibilityCmd.Flags().StringVar(&feasibilityExpressionsPath, "expressions", "", "Expression catalog JSON (required)")
	feasibilityCmd.Flags().StringVar(&feasibilityExpressionID, "id", "", "Expression id (optional for single-expression files)")
	feasibilityCmd.Flags().StringVar(&feasibilityCorpusPath, "corpus", "", "Sampled context corpus JSON (required)")
	feasibilityCmd.MarkFlagRequired("expressions")
	feasibilityCmd.MarkFlagRequired("corpus")
}

func runFeasibility(cmd *cobra.Command, args []string) error {
	exprs, err := catalog.LoadExpressions(feasibilityExpressionsPath)
	if err != nil {
		return err
	}
	expr, err := catalog.FindExpression(exprs, feasibilityExpressionID)
	if err != nil {
		return err
	}
	corpus, err := simstate.LoadCorpus(feasibilityCorpusPath)
	if err != nil {
		return err
	}

	analyzer := feasibility.NewAnalyzer(cfg.Feasibility, logger)
	results := analyzer.AnalyzeExpression(expr, corpus)
	runID := uuid.NewString()

	if saveRun {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveFeasibilityRun(runID, expr.ID, len(corpus), results); err != nil {
			return err
		}
		logger.Info("Run archived",
			zap.String("run_id", runID),
			zap.String("expression", expr.ID),
			zap.String("db", store.Path()))
	}

	return printJSON(feasibilityEnvelope{
		RunID:        runID,
		ExpressionID: expr.ID,
		CorpusSize:   len(corpus),
		Clauses:      results,
	})
}
