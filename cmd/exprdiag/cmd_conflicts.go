// This file provides the conflicts command: mood-axis conflicts reported
// by the sampler are turned into a binary resolution choice with
// per-conflict evidence.
package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exprdiag/internal/catalog"
	"exprdiag/internal/conflict"
	"exprdiag/internal/similarity"
)

var (
	conflictsPath           string
	conflictsPrototypesPath string
	conflictsPrototypeID    string
	conflictsSamples        int
)

// conflictsCmd explains axis conflicts and proposes resolutions
var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Explain mood-axis conflicts and suggest resolutions",
	Long: `Takes the axis conflicts recorded for a prototype and builds actionable
guidance: Option A relaxes the gate regime that pins the axis, Option B
swaps in an emotion whose axis weight is compatible with that regime.

Alternative emotions come from the prototype catalog when --prototypes is
given; without it, Option B falls back to weight guidance only.

Examples:
  exprdiag conflicts --conflicts conflicts.json --prototype grief
  exprdiag conflicts --conflicts conflicts.json --prototype grief --prototypes catalog.json --samples 5000`,
	RunE: runConflicts,
}

// conflictEnvelope is the command's output payload.
type conflictEnvelope struct {
	RunID           string            `json:"runId"`
	PrototypeID     string            `json:"prototypeId"`
	MoodSampleCount int               `json:"moodSampleCount"`
	Analysis        conflict.Analysis `json:"analysis"`
}

func init() {
	conflictsCmd.Flags().StringVar(&conflictsPath, "conflicts", "", "Axis conflict list JSON (required)")
	conflictsCmd.Flags().StringVar(&conflictsPrototypeID, "prototype", "", "Prototype the conflicts belong to (required)")
	conflictsCmd.Flags().StringVar(&conflictsPrototypesPath, "prototypes", "", "Prototype catalog JSON for alternative-emotion lookup")
	conflictsCmd.Flags().IntVar(&conflictsSamples, "samples", 0, "Mood sample count behind the conflict measurements")
	conflictsCmd.MarkFlagRequired("conflicts")
	conflictsCmd.MarkFlagRequired("prototype")
}

func runConflicts(cmd *cobra.Command, args []string) error {
	conflicts, err := catalog.LoadConflicts(conflictsPath)
	if err != nil {
		return err
	}

	var sim similarity.Service
	if conflictsPrototypesPath != "" {
		registry, err := catalog.LoadRegistry(conflictsPrototypesPath)
		if err != nil {
			return err
		}
		sim = similarity.NewRegistryIndex(registry)
	}

	analyzer := conflict.NewAnalyzer(cfg.Severity, sim, logger)
	analysis := analyzer.Analyze(conflicts, conflictsPrototypeID, conflictsSamples)
	runID := uuid.NewString()

	if saveRun {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveConflictRun(runID, conflictsPrototypeID, conflictsSamples, analysis); err != nil {
			return err
		}
		logger.Info("Run archived",
			zap.String("run_id", runID),
			zap.String("prototype", conflictsPrototypeID),
			zap.String("db", store.Path()))
	}

	return printJSON(conflictEnvelope{
		RunID:           runID,
		PrototypeID:     conflictsPrototypeID,
		MoodSampleCount: conflictsSamples,
		Analysis:        analysis,
	})
}
