// This file provides the validate command: expression variable paths are
// checked against the keys the prototype catalog actually defines, and
// sampling coverage is reported per recognized variable.
package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exprdiag/internal/catalog"
	"exprdiag/internal/expression"
	"exprdiag/internal/varpath"
)

var (
	validatePrototypesPath  string
	validateExpressionsPath string
	validateExpressionID    string
)

// validateCmd checks expression variable paths against the catalog
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate expression variable paths against the prototype catalog",
	Long: `Derives the known variable vocabulary from the prototype catalog
(emotion ids, sexual state ids, gated and weighted mood axes) and checks
every variable path each expression references. Typos get a suggestion
listing the valid keys; warnings never block, since expressions may also
reference variables the sampler does not own.

Also reports sampling coverage: which referenced variables the corpus
sampler can actually exercise, and over what range.

Examples:
  exprdiag validate --prototypes catalog.json --expressions exprs.json
  exprdiag validate --prototypes catalog.json --expressions exprs.json --id jealous_glare`,
	RunE: runValidate,
}

// expressionValidation is the per-expression output payload.
type expressionValidation struct {
	ExpressionID string                     `json:"expressionId"`
	Valid        bool                       `json:"valid"`
	Warnings     []varpath.Warning          `json:"warnings,omitempty"`
	Coverage     []varpath.CoverageVariable `json:"coverage"`
}

func init() {
	validateCmd.Flags().StringVar(&validatePrototypesPath, "prototypes", "", "Prototype catalog JSON (required)")
	validateCmd.Flags().StringVar(&validateExpressionsPath, "expressions", "", "Expression catalog JSON (required)")
	validateCmd.Flags().StringVar(&validateExpressionID, "id", "", "Validate a single expression by id")
	validateCmd.MarkFlagRequired("prototypes")
	validateCmd.MarkFlagRequired("expressions")
}

func runValidate(cmd *cobra.Command, args []string) error {
	registry, err := catalog.LoadRegistry(validatePrototypesPath)
	if err != nil {
		return err
	}
	known := catalog.KnownKeys(registry)

	exprs, err := catalog.LoadExpressions(validateExpressionsPath)
	if err != nil {
		return err
	}
	if validateExpressionID != "" {
		expr, err := catalog.FindExpression(exprs, validateExpressionID)
		if err != nil {
			return err
		}
		exprs = []expression.Expression{expr}
	}

	withWarnings := 0
	reports := make([]expressionValidation, 0, len(exprs))
	for _, e := range exprs {
		warnings := varpath.ValidateExpressionVarPaths(e, known)
		if len(warnings) > 0 {
			withWarnings++
		}
		reports = append(reports, expressionValidation{
			ExpressionID: e.ID,
			Valid:        len(warnings) == 0,
			Warnings:     warnings,
			Coverage:     varpath.CollectSamplingCoverageVariables(e, cfg.Sampling.MoodAxisMin, cfg.Sampling.MoodAxisMax),
		})
	}

	logger.Info("Validation complete",
		zap.Int("expressions", len(reports)),
		zap.Int("with_warnings", withWarnings))

	return printJSON(reports)
}
