package overlap

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"exprdiag/internal/config"
	"exprdiag/internal/logging"
	"exprdiag/internal/prototype"
	"exprdiag/internal/simstate"
)

// BehavioralOverlapEvaluator measures how a candidate pair actually
// behaves over a sampled corpus: gate co-occurrence, intensity
// correlation, dominance, high coactivation, gate implication, and the
// contexts where the pair diverged most. All statistics are computed in
// one pass per pair and handed downstream as opaque evidence.
type BehavioralOverlapEvaluator struct {
	cfg     config.EvaluatorConfig
	moodMin float64
	moodMax float64
	log     *zap.Logger
}

// NewBehavioralOverlapEvaluator builds an evaluator. moodMin and moodMax
// bound gate intervals on axes with open-ended gates.
func NewBehavioralOverlapEvaluator(cfg config.EvaluatorConfig, moodMin, moodMax float64, log *zap.Logger) *BehavioralOverlapEvaluator {
	return &BehavioralOverlapEvaluator{
		cfg:     cfg,
		moodMin: moodMin,
		moodMax: moodMax,
		log:     logging.For(log, logging.CategoryOverlap),
	}
}

type divergenceCandidate struct {
	index int
	iA    float64
	iB    float64
	diff  float64
}

// Evaluate computes the full behavior result for one pair. The corpus is
// truncated to the configured per-pair sample bound; an empty or nil
// corpus yields a zeroed result.
func (e *BehavioralOverlapEvaluator) Evaluate(pair CandidatePair, corpus simstate.Corpus) BehaviorResult {
	n := len(corpus)
	if e.cfg.SampleCountPerPair > 0 && n > e.cfg.SampleCountPerPair {
		n = e.cfg.SampleCountPerPair
	}
	if n == 0 {
		e.log.Debug("no contexts to evaluate",
			zap.String("a", pair.A.ID), zap.String("b", pair.B.ID))
		return BehaviorResult{}
	}
	sample := corpus[:n]

	var (
		onEither, onBoth, aOnly, bOnly int
		passA, passB, passBoth         int
		coactive, aDominant, bDominant int
		highCoactive                   int
		absDiffSum                     float64
		seriesA, seriesB               []float64
		divergent                      []divergenceCandidate
	)

	for idx, ctx := range sample {
		onA := pair.A.GatedOn(ctx)
		onB := pair.B.GatedOn(ctx)
		if onA || onB {
			onEither++
		}
		switch {
		case onA && onB:
			onBoth++
		case onA:
			aOnly++
		case onB:
			bOnly++
		}

		iA, iB := 0.0, 0.0
		if onA {
			iA = pair.A.Intensity(ctx)
		}
		if onB {
			iB = pair.B.Intensity(ctx)
		}

		activeA := onA && iA >= e.cfg.MinExpressedIntensity
		activeB := onB && iB >= e.cfg.MinExpressedIntensity
		if activeA {
			passA++
		}
		if activeB {
			passB++
		}
		if activeA && activeB {
			passBoth++
			coactive++
			if iA > iB {
				aDominant++
			} else if iB > iA {
				bDominant++
			}
		}
		if activeA || activeB {
			seriesA = append(seriesA, iA)
			seriesB = append(seriesB, iB)
			absDiffSum += math.Abs(iA - iB)
			divergent = append(divergent, divergenceCandidate{index: idx, iA: iA, iB: iB, diff: math.Abs(iA - iB)})
		}
		if iA >= e.cfg.StrongIntensity && iB >= e.cfg.StrongIntensity {
			highCoactive++
		}
	}

	total := float64(n)
	result := BehaviorResult{
		GateOverlap: GateOverlap{
			OnEitherRate: float64(onEither) / total,
			OnBothRate:   float64(onBoth) / total,
			AOnlyRate:    float64(aOnly) / total,
			BOnlyRate:    float64(bOnly) / total,
		},
		PassRates: PassRates{
			A:    float64(passA) / total,
			B:    float64(passB) / total,
			Both: float64(passBoth) / total,
		},
		HighCoactivation: HighCoactivation{
			Count:     highCoactive,
			Threshold: e.cfg.StrongIntensity,
			Ratio:     float64(highCoactive) / total,
		},
		GateImplication:   e.implicationEvidence(pair.A, pair.B),
		EvaluatedContexts: n,
	}

	result.Intensity = IntensityStats{
		PearsonCorrelation: pearson(seriesA, seriesB),
		ADominanceRate:     rate(aDominant, coactive),
		BDominanceRate:     rate(bDominant, coactive),
	}
	if len(seriesA) > 0 {
		result.Intensity.MeanAbsDiff = absDiffSum / float64(len(seriesA))
	}
	result.DivergenceExamples = e.topDivergent(divergent, sample, pair)
	return result
}

// implicationEvidence tests interval containment on every axis either
// prototype gates. An ungated side reads as the full axis domain.
func (e *BehavioralOverlapEvaluator) implicationEvidence(a, b prototype.Prototype) []GateImplicationAxis {
	axes := make(map[string]struct{})
	for _, axis := range a.GatedAxes() {
		axes[axis] = struct{}{}
	}
	for _, axis := range b.GatedAxes() {
		axes[axis] = struct{}{}
	}
	if len(axes) == 0 {
		return nil
	}
	sorted := make([]string, 0, len(axes))
	for axis := range axes {
		sorted = append(sorted, axis)
	}
	sort.Strings(sorted)

	domain := prototype.Interval{Lo: e.moodMin, Hi: e.moodMax}
	evidence := make([]GateImplicationAxis, 0, len(sorted))
	for _, axis := range sorted {
		ivA, gatedA := a.GateInterval(axis, e.moodMin, e.moodMax)
		if !gatedA {
			ivA = domain
		}
		ivB, gatedB := b.GateInterval(axis, e.moodMin, e.moodMax)
		if !gatedB {
			ivB = domain
		}
		aInB := ivA.Within(ivB)
		bInA := ivB.Within(ivA)
		evidence = append(evidence, GateImplicationAxis{
			Axis:      axis,
			AInterval: ivA,
			BInterval: ivB,
			AWithinB:  aInB,
			BWithinA:  bInA,
			Strict:    aInB != bInA,
		})
	}
	return evidence
}

func (e *BehavioralOverlapEvaluator) topDivergent(candidates []divergenceCandidate, sample simstate.Corpus, pair CandidatePair) []DivergenceExample {
	if len(candidates) == 0 || e.cfg.MaxDivergenceExamples <= 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].diff != candidates[j].diff {
			return candidates[i].diff > candidates[j].diff
		}
		return candidates[i].index < candidates[j].index
	})
	if len(candidates) > e.cfg.MaxDivergenceExamples {
		candidates = candidates[:e.cfg.MaxDivergenceExamples]
	}

	touched := touchedAxes(pair.A, pair.B)
	examples := make([]DivergenceExample, 0, len(candidates))
	for _, c := range candidates {
		values := make(map[string]float64, len(touched))
		for _, axis := range touched {
			if v, ok := sample[c.index].Lookup(simstate.DomainMoodAxes, axis); ok {
				values[axis] = v
			}
		}
		examples = append(examples, DivergenceExample{
			ContextIndex: c.index,
			AxisValues:   values,
			IntensityA:   c.iA,
			IntensityB:   c.iB,
			Diff:         c.diff,
		})
	}
	return examples
}

// touchedAxes is the sorted union of the axes either prototype weights
// or gates, the only values worth snapshotting in evidence.
func touchedAxes(a, b prototype.Prototype) []string {
	axes := make(map[string]struct{})
	for _, p := range []prototype.Prototype{a, b} {
		for axis := range p.Weights {
			axes[axis] = struct{}{}
		}
		for _, axis := range p.GatedAxes() {
			axes[axis] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(axes))
	for axis := range axes {
		sorted = append(sorted, axis)
	}
	sort.Strings(sorted)
	return sorted
}

func rate(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

// pearson is the sample correlation of two equal-length series. Fewer
// than two points or a zero-variance series reads as 0.
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0
	}
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)
	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
