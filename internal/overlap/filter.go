package overlap

import (
	"math"

	"go.uber.org/zap"

	"exprdiag/internal/config"
	"exprdiag/internal/logging"
	"exprdiag/internal/prototype"
)

// CandidatePairFilter screens every unordered prototype pair with three
// cheap vector heuristics so only plausible overlaps reach the O(corpus)
// behavioral evaluation. The filter is deliberately permissive: a pair
// that clears any one heuristic survives, because a false negative here
// silently hides a real overlap from the classifier.
type CandidatePairFilter struct {
	cfg      config.FilterConfig
	maxPairs int
	log      *zap.Logger
}

// NewCandidatePairFilter builds a filter. maxPairs caps the retained
// candidate list; 0 means unlimited. A nil logger disables logging.
func NewCandidatePairFilter(cfg config.FilterConfig, maxPairs int, log *zap.Logger) *CandidatePairFilter {
	return &CandidatePairFilter{
		cfg:      cfg,
		maxPairs: maxPairs,
		log:      logging.For(log, logging.CategoryOverlap),
	}
}

// Filter computes candidate metrics for every unordered pair of protos
// and retains pairs clearing at least one heuristic minimum, in id order.
func (f *CandidatePairFilter) Filter(protos []prototype.Prototype) ([]CandidatePair, FilterStats) {
	var stats FilterStats
	var kept []CandidatePair

	for i := 0; i < len(protos); i++ {
		for j := i + 1; j < len(protos); j++ {
			stats.TotalPairs++
			a, b := protos[i], protos[j]
			if b.ID < a.ID {
				a, b = b, a
			}
			m := f.metrics(a, b)

			belowOverlap := m.ActiveAxisOverlap < f.cfg.MinActiveAxisOverlap
			belowSign := m.SignAgreement < f.cfg.MinSignAgreement
			belowCosine := m.WeightCosine < f.cfg.MinWeightCosine
			if belowOverlap {
				stats.BelowAxisOverlap++
			}
			if belowSign {
				stats.BelowSignAgreement++
			}
			if belowCosine {
				stats.BelowWeightCosine++
			}
			if belowOverlap && belowSign && belowCosine {
				continue
			}
			kept = append(kept, CandidatePair{A: a, B: b, Metrics: m})
		}
	}

	if f.maxPairs > 0 && len(kept) > f.maxPairs {
		stats.Truncated = len(kept) - f.maxPairs
		kept = kept[:f.maxPairs]
	}
	stats.Kept = len(kept)

	f.log.Debug("candidate pairs filtered",
		zap.Int("total", stats.TotalPairs),
		zap.Int("kept", stats.Kept),
		zap.Int("truncated", stats.Truncated))
	return kept, stats
}

func (f *CandidatePairFilter) metrics(a, b prototype.Prototype) CandidateMetrics {
	activeA := a.ActiveAxes(f.cfg.MinActiveWeight)
	activeB := b.ActiveAxes(f.cfg.MinActiveWeight)
	return CandidateMetrics{
		ActiveAxisOverlap: jaccard(activeA, activeB),
		SignAgreement:     signAgreement(a.Weights, b.Weights, activeA, activeB),
		WeightCosine:      weightCosine(a.Weights, b.Weights),
	}
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, x := range a {
		setA[x] = struct{}{}
	}
	shared := 0
	for _, x := range b {
		if _, ok := setA[x]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// signAgreement is the fraction of shared active axes whose weights
// point the same way. No shared active axes reads as no agreement.
func signAgreement(wa, wb map[string]float64, activeA, activeB []string) float64 {
	setB := make(map[string]struct{}, len(activeB))
	for _, x := range activeB {
		setB[x] = struct{}{}
	}
	shared, agree := 0, 0
	for _, axis := range activeA {
		if _, ok := setB[axis]; !ok {
			continue
		}
		shared++
		if (wa[axis] >= 0) == (wb[axis] >= 0) {
			agree++
		}
	}
	if shared == 0 {
		return 0
	}
	return float64(agree) / float64(shared)
}

// weightCosine is the cosine similarity of the full weight vectors over
// the axis union, missing weights reading as 0.
func weightCosine(wa, wb map[string]float64) float64 {
	var dot, normA, normB float64
	for axis, v := range wa {
		dot += v * wb[axis]
		normA += v * v
	}
	for _, v := range wb {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
