package overlap

import (
	"fmt"

	"exprdiag/internal/config"
	"exprdiag/internal/prototype"
)

// OverlapRecommendationBuilder assembles the final Recommendation for an
// actionable pair. Severity and confidence are deterministic functions
// of the verdict, the measured rates, and the evaluated context count.
type OverlapRecommendationBuilder struct {
	severity            config.SeverityConfig
	confidenceFullCount int
}

// NewOverlapRecommendationBuilder builds a recommendation builder.
// confidenceFullCount is the evaluated-context count at which confidence
// saturates at 1.0.
func NewOverlapRecommendationBuilder(severity config.SeverityConfig, confidenceFullCount int) *OverlapRecommendationBuilder {
	return &OverlapRecommendationBuilder{
		severity:            severity,
		confidenceFullCount: confidenceFullCount,
	}
}

// Build assembles a Recommendation. bands may be nil; the output always
// carries a non-nil suggestion slice so consumers see an empty array,
// never null.
func (b *OverlapRecommendationBuilder) Build(pair CandidatePair, verdict ClassificationResult, behavior BehaviorResult, bands []GateBandSuggestion, family prototype.Family) Recommendation {
	if bands == nil {
		bands = []GateBandSuggestion{}
	}
	if family == "" && pair.A.Family == pair.B.Family {
		family = pair.A.Family
	}
	return Recommendation{
		Classification:     verdict.Type,
		NestingDirection:   verdict.NestingDirection,
		PrototypeA:         pair.A.ID,
		PrototypeB:         pair.B.ID,
		Family:             family,
		Severity:           b.severityFor(verdict, behavior),
		Confidence:         b.confidence(behavior.EvaluatedContexts),
		Metrics:            pair.Metrics,
		Behavior:           behavior,
		DivergenceExamples: behavior.DivergenceExamples,
		SuggestedGateBands: bands,
		Evidence:           b.evidence(pair, verdict, behavior),
	}
}

// severityFor ranks urgency: merges are always high; nesting and
// separation findings scale with how often the pair fires together.
func (b *OverlapRecommendationBuilder) severityFor(verdict ClassificationResult, behavior BehaviorResult) string {
	switch verdict.Type {
	case MergeRecommended:
		return SeverityHigh
	case NestedSiblings, NeedsSeparation:
		agreement := behavior.GateOverlap.Agreement()
		switch {
		case agreement >= b.severity.HighImpact:
			return SeverityHigh
		case agreement >= b.severity.MediumImpact:
			return SeverityMedium
		}
	}
	return SeverityLow
}

// confidence grows linearly with evaluated contexts and saturates once
// the configured full count has been seen.
func (b *OverlapRecommendationBuilder) confidence(evaluated int) float64 {
	if b.confidenceFullCount <= 0 || evaluated >= b.confidenceFullCount {
		if evaluated == 0 {
			return 0
		}
		return 1
	}
	return float64(evaluated) / float64(b.confidenceFullCount)
}

func (b *OverlapRecommendationBuilder) evidence(pair CandidatePair, verdict ClassificationResult, behavior BehaviorResult) []string {
	notes := []string{
		fmt.Sprintf("gates co-activate in %.1f%% of contexts where either fires",
			behavior.GateOverlap.Agreement()*100),
		fmt.Sprintf("intensity correlation %.2f, mean absolute difference %.3f",
			behavior.Intensity.PearsonCorrelation, behavior.Intensity.MeanAbsDiff),
	}
	switch verdict.NestingDirection {
	case DirectionAContainsB:
		notes = append(notes, fmt.Sprintf("%s's gate region nests inside %s's on every gated axis",
			pair.A.ID, pair.B.ID))
	case DirectionBContainsA:
		notes = append(notes, fmt.Sprintf("%s's gate region nests inside %s's on every gated axis",
			pair.B.ID, pair.A.ID))
	}
	if behavior.HighCoactivation.Count > 0 {
		notes = append(notes, fmt.Sprintf("%d contexts drove both intensities past %.2f",
			behavior.HighCoactivation.Count, behavior.HighCoactivation.Threshold))
	}
	return notes
}
