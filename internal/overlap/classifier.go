package overlap

import (
	"exprdiag/internal/config"
)

// OverlapClassifier turns a pair's candidate metrics and behavior result
// into a verdict. It is a pure function of its inputs and thresholds;
// the decision ladder is ordered and the first matching rule wins.
type OverlapClassifier struct {
	cfg config.ClassifierConfig
}

// NewOverlapClassifier builds a classifier over the given thresholds.
func NewOverlapClassifier(cfg config.ClassifierConfig) *OverlapClassifier {
	return &OverlapClassifier{cfg: cfg}
}

// Classify applies the decision ladder:
//
//  1. no behavioral evaluation happened → not_redundant
//  2. very high gate agreement and intensity correlation, with no
//     one-directional implication → merge_recommended
//  3. strictly one-directional implication with moderate correlation →
//     nested_siblings, direction recorded
//  4. substantial co-occurrence, no strict subset relation, and real
//     intensity divergence → needs_separation
//  5. negligible gate agreement → not_redundant, else keep_distinct
func (c *OverlapClassifier) Classify(metrics CandidateMetrics, behavior BehaviorResult) ClassificationResult {
	imp := summarizeImplication(behavior.GateImplication)
	result := ClassificationResult{
		Thresholds: c.cfg,
		Metrics: ClassifierMetrics{
			GateAgreement:     behavior.GateOverlap.Agreement(),
			IntensityCorr:     behavior.Intensity.PearsonCorrelation,
			MeanAbsDiff:       behavior.Intensity.MeanAbsDiff,
			SubsetAxes:        imp.subsetAxes,
			StrictAInB:        imp.strictAInB,
			StrictBInA:        imp.strictBInA,
			EvaluatedContexts: behavior.EvaluatedContexts,
		},
	}

	gateAgreement := result.Metrics.GateAgreement
	corr := result.Metrics.IntensityCorr

	switch {
	case behavior.EvaluatedContexts == 0:
		result.Type = NotRedundant

	case gateAgreement >= c.cfg.MergeMinGateAgreement &&
		corr >= c.cfg.MergeMinIntensityCorr &&
		!imp.oneDirectionalAInB && !imp.oneDirectionalBInA:
		result.Type = MergeRecommended

	case imp.oneDirectionalAInB && corr >= c.cfg.NestedMinIntensityCorr:
		result.Type = NestedSiblings
		result.NestingDirection = DirectionAContainsB

	case imp.oneDirectionalBInA && corr >= c.cfg.NestedMinIntensityCorr:
		result.Type = NestedSiblings
		result.NestingDirection = DirectionBContainsA

	case gateAgreement >= c.cfg.SeparationMinCoactivation &&
		imp.strictAInB == 0 && imp.strictBInA == 0 &&
		behavior.Intensity.MeanAbsDiff >= c.cfg.SeparationMinMeanAbsDiff:
		result.Type = NeedsSeparation

	case gateAgreement <= c.cfg.NegligibleGateAgreement:
		result.Type = NotRedundant

	default:
		result.Type = KeepDistinct
	}
	return result
}

type implication struct {
	subsetAxes         int
	aInB, bInA         int
	strictAInB         int
	strictBInA         int
	oneDirectionalAInB bool
	oneDirectionalBInA bool
}

// summarizeImplication aggregates per-axis containment evidence. An
// implication is one-directional only when containment holds the same
// way on every evidenced axis, with at least one strict: a single axis
// of partial overlap breaks the implication.
func summarizeImplication(evidence []GateImplicationAxis) implication {
	var imp implication
	for _, e := range evidence {
		if e.AWithinB || e.BWithinA {
			imp.subsetAxes++
		}
		if e.AWithinB {
			imp.aInB++
		}
		if e.BWithinA {
			imp.bInA++
		}
		if e.AWithinB && !e.BWithinA {
			imp.strictAInB++
		}
		if e.BWithinA && !e.AWithinB {
			imp.strictBInA++
		}
	}
	total := len(evidence)
	imp.oneDirectionalAInB = total > 0 &&
		imp.aInB == total && imp.strictAInB >= 1 && imp.strictBInA == 0
	imp.oneDirectionalBInA = total > 0 &&
		imp.bInA == total && imp.strictBInA >= 1 && imp.strictAInB == 0
	return imp
}
