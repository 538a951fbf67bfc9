package overlap

import (
	"fmt"

	"exprdiag/internal/prototype"
)

// GateBandingSuggestionBuilder turns gate-implication evidence into
// concrete remediations. It only applies to nested_siblings and
// needs_separation verdicts; the orchestrator must not call it for
// anything else, and the builder rejects the call if it does.
type GateBandingSuggestionBuilder struct{}

// NewGateBandingSuggestionBuilder builds the stateless builder.
func NewGateBandingSuggestionBuilder() *GateBandingSuggestionBuilder {
	return &GateBandingSuggestionBuilder{}
}

// BuildSuggestions emits one gate_band suggestion per axis with a strict
// one-sided containment: the broader prototype is banded to the side of
// the narrower one's boundary with more room (ties take the upper band).
// A needs_separation verdict without any strict containment gets a
// single expression_suppression suggestion instead.
func (b *GateBandingSuggestionBuilder) BuildSuggestions(pair CandidatePair, verdict ClassificationResult, behavior BehaviorResult) ([]GateBandSuggestion, error) {
	switch verdict.Type {
	case NestedSiblings, NeedsSeparation:
	default:
		return nil, fmt.Errorf("banding suggestions not applicable to %s", verdict.Type)
	}

	var suggestions []GateBandSuggestion
	for _, e := range behavior.GateImplication {
		switch {
		case e.AWithinB && !e.BWithinA:
			suggestions = append(suggestions, bandSuggestion(e.Axis, pair.B, e.BInterval, pair.A, e.AInterval))
		case e.BWithinA && !e.AWithinB:
			suggestions = append(suggestions, bandSuggestion(e.Axis, pair.A, e.AInterval, pair.B, e.BInterval))
		}
	}

	if len(suggestions) == 0 && verdict.Type == NeedsSeparation {
		suggestions = append(suggestions, GateBandSuggestion{
			Kind:              SuggestionExpressionSuppression,
			AffectedPrototype: pair.A.ID + ", " + pair.B.ID,
			Reason: fmt.Sprintf(
				"%s and %s co-activate with divergent intensities but share no clean gate nesting; add a mutual-exclusion rule at the expression-evaluation layer instead of editing gates",
				pair.A.ID, pair.B.ID),
		})
	}
	return suggestions, nil
}

// bandSuggestion tightens the broader prototype away from the narrower
// one's band, keeping the side of the broader interval with more room.
func bandSuggestion(axis string, broader prototype.Prototype, broadIv prototype.Interval, narrower prototype.Prototype, narrowIv prototype.Interval) GateBandSuggestion {
	roomBelow := narrowIv.Lo - broadIv.Lo
	roomAbove := broadIv.Hi - narrowIv.Hi

	var suggested prototype.Interval
	var side string
	if roomAbove >= roomBelow {
		suggested = prototype.Interval{Lo: narrowIv.Hi, Hi: broadIv.Hi}
		side = "above"
	} else {
		suggested = prototype.Interval{Lo: broadIv.Lo, Hi: narrowIv.Lo}
		side = "below"
	}

	current := broadIv
	return GateBandSuggestion{
		Kind:              SuggestionGateBand,
		AffectedPrototype: broader.ID,
		Axis:              axis,
		CurrentInterval:   &current,
		SuggestedInterval: &suggested,
		Reason: fmt.Sprintf(
			"%s's %s gate [%.2f, %.2f] fully covers %s's [%.2f, %.2f]; banding %s %s it to [%.2f, %.2f] keeps the two distinct",
			broader.ID, axis, broadIv.Lo, broadIv.Hi,
			narrower.ID, narrowIv.Lo, narrowIv.Hi,
			broader.ID, side, suggested.Lo, suggested.Hi),
	}
}
