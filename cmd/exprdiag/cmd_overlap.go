// This file provides the overlap command: prototype pairs are screened
// structurally, replayed over a sampled corpus, classified, and emitted
// as recommendations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exprdiag/internal/catalog"
	"exprdiag/internal/overlap"
	"exprdiag/internal/prototype"
	"exprdiag/internal/simstate"
)

var (
	overlapPrototypesPath string
	overlapCorpusPath     string
	overlapFamily         string
	overlapWorkers        int
)

// overlapCmd runs the full prototype overlap pipeline
var overlapCmd = &cobra.Command{
	Use:   "overlap",
	Short: "Detect behaviorally overlapping prototype pairs",
	Long: `Runs the overlap pipeline over a prototype catalog:
  1. Filter: screen pairs by weight similarity and active-axis overlap
  2. Evaluate: replay both prototypes over every sampled context
  3. Classify: merge_recommended, nested_siblings, needs_separation,
     keep_distinct, or not_redundant
  4. Recommend: merge, nest, or separate guidance with gate band suggestions

Examples:
  exprdiag overlap --prototypes catalog.json --corpus corpus.json
  exprdiag overlap --prototypes catalog.json --corpus corpus.json --family emotion
  exprdiag overlap --prototypes catalog.json --corpus corpus.json --workers 4 --save`,
	RunE: runOverlap,
}

func init() {
	overlapCmd.Flags().StringVar(&overlapPrototypesPath, "prototypes", "", "Prototype catalog JSON (required)")
	overlapCmd.Flags().StringVar(&overlapCorpusPath, "corpus", "", "Sampled context corpus JSON (required)")
	overlapCmd.Flags().StringVar(&overlapFamily, "family", "", "Restrict analysis to one family: emotion or sexual")
	overlapCmd.Flags().IntVar(&overlapWorkers, "workers", 0, "Parallel pair evaluations (default from config)")
	overlapCmd.MarkFlagRequired("prototypes")
	overlapCmd.MarkFlagRequired("corpus")
}

func runOverlap(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	registry, err := catalog.LoadRegistry(overlapPrototypesPath)
	if err != nil {
		return err
	}
	corpus, err := simstate.LoadCorpus(overlapCorpusPath)
	if err != nil {
		return err
	}

	workers := cfg.Analyzer.Workers
	if overlapWorkers > 0 {
		workers = overlapWorkers
	}

	analyzer, err := overlap.NewPrototypeOverlapAnalyzer(
		registry,
		overlap.NewCandidatePairFilter(cfg.Filter, cfg.Analyzer.MaxCandidatePairs, logger),
		overlap.NewBehavioralOverlapEvaluator(cfg.Evaluator, cfg.Sampling.MoodAxisMin, cfg.Sampling.MoodAxisMax, logger),
		overlap.NewOverlapClassifier(cfg.Classifier),
		overlap.NewGateBandingSuggestionBuilder(),
		overlap.NewOverlapRecommendationBuilder(cfg.Severity, cfg.Analyzer.ConfidenceFullCount),
		workers,
		logger,
	)
	if err != nil {
		return err
	}

	subject := "all"
	var rep *overlap.Report
	switch family := prototype.Family(overlapFamily); family {
	case "":
		rep, err = analyzer.Analyze(ctx, corpus)
	case prototype.FamilyEmotion, prototype.FamilySexual:
		subject = overlapFamily
		rep, err = analyzer.AnalyzeFamily(ctx, family, corpus)
	default:
		return fmt.Errorf("unknown family: %s (try: emotion, sexual)", overlapFamily)
	}
	if err != nil {
		return err
	}

	if saveRun {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveOverlapReport(*rep, subject); err != nil {
			return err
		}
		logger.Info("Run archived",
			zap.String("run_id", rep.Metadata.RunID),
			zap.String("db", store.Path()))
	}

	return printJSON(rep)
}
