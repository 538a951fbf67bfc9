package overlap

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"exprdiag/internal/logging"
	"exprdiag/internal/prototype"
	"exprdiag/internal/simstate"
)

// Capability interfaces for the analyzer's injected stages. Each names
// the minimal method set a stage must provide; the concrete types in
// this package are the standard implementations.
type (
	// PairFilter screens prototype pairs before behavioral evaluation.
	PairFilter interface {
		Filter(protos []prototype.Prototype) ([]CandidatePair, FilterStats)
	}
	// BehaviorEvaluator measures one pair over a corpus.
	BehaviorEvaluator interface {
		Evaluate(pair CandidatePair, corpus simstate.Corpus) BehaviorResult
	}
	// Classifier turns metrics and behavior into a verdict.
	Classifier interface {
		Classify(metrics CandidateMetrics, behavior BehaviorResult) ClassificationResult
	}
	// BandingBuilder emits gate-band suggestions for nesting/separation
	// verdicts.
	BandingBuilder interface {
		BuildSuggestions(pair CandidatePair, verdict ClassificationResult, behavior BehaviorResult) ([]GateBandSuggestion, error)
	}
	// RecommendationBuilder assembles the final recommendation.
	RecommendationBuilder interface {
		Build(pair CandidatePair, verdict ClassificationResult, behavior BehaviorResult, bands []GateBandSuggestion, family prototype.Family) Recommendation
	}
)

// PrototypeOverlapAnalyzer runs the full pipeline: registry → candidate
// filter → behavioral evaluation → classification → conditional banding
// → recommendation. Instances are stateless beyond their injected
// dependencies and safe to reuse across runs; a single run must not race
// with registry mutation.
type PrototypeOverlapAnalyzer struct {
	registry   prototype.Registry
	filter     PairFilter
	evaluator  BehaviorEvaluator
	classifier Classifier
	banding    BandingBuilder
	builder    RecommendationBuilder
	workers    int
	log        *zap.Logger
}

// NewPrototypeOverlapAnalyzer wires the pipeline. Every dependency is
// required; construction fails fast on a missing one. workers below 1 is
// clamped to 1 (fully sequential, the default).
func NewPrototypeOverlapAnalyzer(
	registry prototype.Registry,
	filter PairFilter,
	evaluator BehaviorEvaluator,
	classifier Classifier,
	banding BandingBuilder,
	builder RecommendationBuilder,
	workers int,
	log *zap.Logger,
) (*PrototypeOverlapAnalyzer, error) {
	if registry == nil {
		return nil, fmt.Errorf("overlap analyzer: registry is required")
	}
	if filter == nil {
		return nil, fmt.Errorf("overlap analyzer: candidate filter is required")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("overlap analyzer: evaluator is required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("overlap analyzer: classifier is required")
	}
	if banding == nil {
		return nil, fmt.Errorf("overlap analyzer: banding builder is required")
	}
	if builder == nil {
		return nil, fmt.Errorf("overlap analyzer: recommendation builder is required")
	}
	if workers < 1 {
		workers = 1
	}
	return &PrototypeOverlapAnalyzer{
		registry:   registry,
		filter:     filter,
		evaluator:  evaluator,
		classifier: classifier,
		banding:    banding,
		builder:    builder,
		workers:    workers,
		log:        logging.For(log, logging.CategoryOverlap),
	}, nil
}

// Analyze runs the pipeline over every registered prototype.
func (a *PrototypeOverlapAnalyzer) Analyze(ctx context.Context, corpus simstate.Corpus) (*Report, error) {
	return a.run(ctx, a.registry.List(), "", corpus)
}

// AnalyzeFamily runs the pipeline over one prototype family only.
func (a *PrototypeOverlapAnalyzer) AnalyzeFamily(ctx context.Context, family prototype.Family, corpus simstate.Corpus) (*Report, error) {
	return a.run(ctx, a.registry.ByFamily(family), family, corpus)
}

type pairOutcome struct {
	verdict ClassificationResult
	rec     *Recommendation
}

func (a *PrototypeOverlapAnalyzer) run(ctx context.Context, protos []prototype.Prototype, family prototype.Family, corpus simstate.Corpus) (*Report, error) {
	runID := uuid.NewString()
	timer := logging.StartTimer(a.log, "overlap analysis")

	candidates, stats := a.filter.Filter(protos)

	// Pair evaluations are independent; results are keyed by index so
	// the report order is identical at any worker count.
	outcomes := make([]pairOutcome, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, pair := range candidates {
		i, pair := i, pair
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := a.evaluatePair(pair, family, corpus)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	breakdown := make(map[Classification]int)
	recommendations := make([]Recommendation, 0, len(candidates))
	for _, o := range outcomes {
		breakdown[o.verdict.Type]++
		if o.rec != nil {
			recommendations = append(recommendations, *o.rec)
		}
	}

	a.log.Info("overlap analysis complete",
		zap.String("run_id", runID),
		zap.Int("prototypes", len(protos)),
		zap.Int("candidate_pairs", len(candidates)),
		zap.Int("recommendations", len(recommendations)),
		zap.Int("corpus_size", len(corpus)))
	timer.Stop()

	return &Report{
		Recommendations: recommendations,
		Metadata: Metadata{
			RunID:                   runID,
			ClassificationBreakdown: breakdown,
			FilterStats:             stats,
			EvaluatedPairs:          len(candidates),
			CorpusSize:              len(corpus),
		},
	}, nil
}

func (a *PrototypeOverlapAnalyzer) evaluatePair(pair CandidatePair, family prototype.Family, corpus simstate.Corpus) (pairOutcome, error) {
	behavior := a.evaluator.Evaluate(pair, corpus)
	verdict := a.classifier.Classify(pair.Metrics, behavior)

	// The banding builder's contract only admits nesting and separation
	// verdicts; anything else must never reach it.
	var bands []GateBandSuggestion
	if verdict.Type == NestedSiblings || verdict.Type == NeedsSeparation {
		var err error
		bands, err = a.banding.BuildSuggestions(pair, verdict, behavior)
		if err != nil {
			return pairOutcome{}, fmt.Errorf("banding %s/%s: %w", pair.A.ID, pair.B.ID, err)
		}
	}

	outcome := pairOutcome{verdict: verdict}
	if verdict.Type.Actionable() {
		rec := a.builder.Build(pair, verdict, behavior, bands, family)
		outcome.rec = &rec
	}
	return outcome, nil
}
