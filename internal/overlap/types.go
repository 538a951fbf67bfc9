// Package overlap detects behaviorally redundant prototype pairs: it
// filters candidate pairs by cheap vector heuristics, evaluates the
// survivors' gate and intensity behavior over a sampled corpus,
// classifies the overlap, and assembles actionable recommendations.
package overlap

import (
	"exprdiag/internal/config"
	"exprdiag/internal/prototype"
)

// Classification is the closed set of overlap verdicts.
type Classification string

const (
	MergeRecommended Classification = "merge_recommended"
	NestedSiblings   Classification = "nested_siblings"
	NeedsSeparation  Classification = "needs_separation"
	KeepDistinct     Classification = "keep_distinct"
	NotRedundant     Classification = "not_redundant"
)

// Actionable reports whether a classification warrants a recommendation.
func (c Classification) Actionable() bool {
	switch c {
	case MergeRecommended, NestedSiblings, NeedsSeparation:
		return true
	}
	return false
}

// NestingDirection labels which prototype's active region nests inside
// the other's for nested_siblings verdicts.
type NestingDirection string

const (
	DirectionNone NestingDirection = ""
	// DirectionAContainsB: A's gate intervals sit inside B's, so B fires
	// everywhere A does.
	DirectionAContainsB NestingDirection = "A_contains_B"
	// DirectionBContainsA is the converse.
	DirectionBContainsA NestingDirection = "B_contains_A"
)

// CandidateMetrics are the cheap vector heuristics the filter computes
// for every unordered prototype pair.
type CandidateMetrics struct {
	ActiveAxisOverlap float64 `json:"activeAxisOverlap"`
	SignAgreement     float64 `json:"signAgreement"`
	WeightCosine      float64 `json:"weightCosine"`
}

// CandidatePair is one pair retained for behavioral evaluation. A and B
// are ordered by id so downstream output is deterministic.
type CandidatePair struct {
	A       prototype.Prototype `json:"a"`
	B       prototype.Prototype `json:"b"`
	Metrics CandidateMetrics    `json:"metrics"`
}

// FilterStats describes why pairs were or were not escalated to the
// expensive behavioral evaluation.
type FilterStats struct {
	TotalPairs         int `json:"totalPairs"`
	Kept               int `json:"kept"`
	BelowAxisOverlap   int `json:"belowAxisOverlap"`
	BelowSignAgreement int `json:"belowSignAgreement"`
	BelowWeightCosine  int `json:"belowWeightCosine"`
	Truncated          int `json:"truncated"`
}

// GateOverlap holds gate co-occurrence rates over evaluated contexts.
type GateOverlap struct {
	OnEitherRate float64 `json:"onEitherRate"`
	OnBothRate   float64 `json:"onBothRate"`
	AOnlyRate    float64 `json:"aOnlyRate"`
	BOnlyRate    float64 `json:"bOnlyRate"`
}

// Agreement is OnBoth/OnEither, the classifier's gate-agreement signal.
func (g GateOverlap) Agreement() float64 {
	if g.OnEitherRate == 0 {
		return 0
	}
	return g.OnBothRate / g.OnEitherRate
}

// IntensityStats compares the two prototypes' expressed intensities,
// restricted to contexts where at least one was active.
type IntensityStats struct {
	PearsonCorrelation float64 `json:"pearsonCorrelation"`
	MeanAbsDiff        float64 `json:"meanAbsDiff"`
	ADominanceRate     float64 `json:"aDominanceRate"`
	BDominanceRate     float64 `json:"bDominanceRate"`
}

// PassRates are the fractions of evaluated contexts where each prototype
// (and both together) was gated on with expressible intensity.
type PassRates struct {
	A    float64 `json:"a"`
	B    float64 `json:"b"`
	Both float64 `json:"both"`
}

// HighCoactivation counts contexts where both intensities cleared the
// configured strong threshold.
type HighCoactivation struct {
	Count     int     `json:"count"`
	Threshold float64 `json:"threshold"`
	Ratio     float64 `json:"ratio"`
}

// GateImplicationAxis is subset evidence for one gated axis: both
// effective intervals plus which containment relations hold. Strict is
// set when the contained interval has at least one bound strictly inside
// the containing one.
type GateImplicationAxis struct {
	Axis      string             `json:"axis"`
	AInterval prototype.Interval `json:"aInterval"`
	BInterval prototype.Interval `json:"bInterval"`
	AWithinB  bool               `json:"aWithinB"`
	BWithinA  bool               `json:"bWithinA"`
	Strict    bool               `json:"strict"`
}

// DivergenceExample is one context where the pair's intensities differed
// most, kept small for human review: only the axes either prototype
// touches are snapshotted.
type DivergenceExample struct {
	ContextIndex int                `json:"contextIndex"`
	AxisValues   map[string]float64 `json:"axisValues"`
	IntensityA   float64            `json:"intensityA"`
	IntensityB   float64            `json:"intensityB"`
	Diff         float64            `json:"diff"`
}

// BehaviorResult is everything the evaluator measured for one pair. It
// is computed once and passed downstream as opaque evidence.
type BehaviorResult struct {
	GateOverlap        GateOverlap           `json:"gateOverlap"`
	Intensity          IntensityStats        `json:"intensity"`
	PassRates          PassRates             `json:"passRates"`
	HighCoactivation   HighCoactivation      `json:"highCoactivation"`
	GateImplication    []GateImplicationAxis `json:"gateImplication"`
	DivergenceExamples []DivergenceExample   `json:"divergenceExamples"`
	EvaluatedContexts  int                   `json:"evaluatedContexts"`
}

// ClassifierMetrics snapshots the signals the classifier decided on.
type ClassifierMetrics struct {
	GateAgreement     float64 `json:"gateAgreement"`
	IntensityCorr     float64 `json:"intensityCorr"`
	MeanAbsDiff       float64 `json:"meanAbsDiff"`
	SubsetAxes        int     `json:"subsetAxes"`
	StrictAInB        int     `json:"strictAInB"`
	StrictBInA        int     `json:"strictBInA"`
	EvaluatedContexts int     `json:"evaluatedContexts"`
}

// ClassificationResult carries the verdict plus the thresholds and
// metrics it was reached with, for evidence.
type ClassificationResult struct {
	Type             Classification          `json:"type"`
	NestingDirection NestingDirection        `json:"nestingDirection,omitempty"`
	Thresholds       config.ClassifierConfig `json:"thresholds"`
	Metrics          ClassifierMetrics       `json:"metrics"`
}

// Suggestion kinds the banding builder emits.
const (
	SuggestionGateBand              = "gate_band"
	SuggestionExpressionSuppression = "expression_suppression"
)

// GateBandSuggestion is one concrete remediation: either a tightened
// gate band on the broader prototype, or a mutual-exclusion rule at the
// expression-evaluation layer when no clean band exists.
type GateBandSuggestion struct {
	Kind              string              `json:"kind"`
	AffectedPrototype string              `json:"affectedPrototype"`
	Axis              string              `json:"axis,omitempty"`
	CurrentInterval   *prototype.Interval `json:"currentInterval,omitempty"`
	SuggestedInterval *prototype.Interval `json:"suggestedInterval,omitempty"`
	Reason            string              `json:"reason"`
}

// Severity levels for recommendations.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Recommendation is the final actionable finding for one pair.
type Recommendation struct {
	Classification     Classification       `json:"classification"`
	NestingDirection   NestingDirection     `json:"nestingDirection,omitempty"`
	PrototypeA         string               `json:"prototypeA"`
	PrototypeB         string               `json:"prototypeB"`
	Family             prototype.Family     `json:"family,omitempty"`
	Severity           string               `json:"severity"`
	Confidence         float64              `json:"confidence"`
	Metrics            CandidateMetrics     `json:"metrics"`
	Behavior           BehaviorResult       `json:"behavior"`
	DivergenceExamples []DivergenceExample  `json:"divergenceExamples,omitempty"`
	SuggestedGateBands []GateBandSuggestion `json:"suggestedGateBands"`
	Evidence           []string             `json:"evidence,omitempty"`
}

// Metadata describes one analysis run.
type Metadata struct {
	RunID                   string                 `json:"runId"`
	ClassificationBreakdown map[Classification]int `json:"classificationBreakdown"`
	FilterStats             FilterStats            `json:"filterStats"`
	EvaluatedPairs          int                    `json:"evaluatedPairs"`
	CorpusSize              int                    `json:"corpusSize"`
}

// Report is the batch output of one overlap analysis.
type Report struct {
	Recommendations []Recommendation `json:"recommendations"`
	Metadata        Metadata         `json:"metadata"`
}
