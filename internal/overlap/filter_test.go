package overlap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exprdiag/internal/config"
	"exprdiag/internal/prototype"
)

func weighted(id string, weights map[string]float64) prototype.Prototype {
	return prototype.Prototype{ID: id, Family: prototype.FamilyEmotion, Weights: weights}
}

func TestFilterIdenticalWeightsKept(t *testing.T) {
	f := NewCandidatePairFilter(config.DefaultConfig().Filter, 0, nil)
	protos := []prototype.Prototype{
		weighted("a", map[string]float64{"valence": 0.8, "arousal": 0.3}),
		weighted("b", map[string]float64{"valence": 0.8, "arousal": 0.3}),
	}
	kept, stats := f.Filter(protos)
	require.Len(t, kept, 1)
	assert.Equal(t, 1, stats.TotalPairs)
	assert.Equal(t, 1, stats.Kept)

	m := kept[0].Metrics
	assert.InDelta(t, 1.0, m.ActiveAxisOverlap, 1e-9)
	assert.InDelta(t, 1.0, m.SignAgreement, 1e-9)
	assert.InDelta(t, 1.0, m.WeightCosine, 1e-9)
}

func TestFilterDisjointAxesRejected(t *testing.T) {
	f := NewCandidatePairFilter(config.DefaultConfig().Filter, 0, nil)
	protos := []prototype.Prototype{
		weighted("a", map[string]float64{"valence": 1}),
		weighted("b", map[string]float64{"arousal": 1}),
	}
	kept, stats := f.Filter(protos)
	assert.Empty(t, kept)
	assert.Equal(t, 1, stats.TotalPairs)
	assert.Equal(t, 0, stats.Kept)
	assert.Equal(t, 1, stats.BelowAxisOverlap)
	assert.Equal(t, 1, stats.BelowSignAgreement)
	assert.Equal(t, 1, stats.BelowWeightCosine)
}

func TestFilterKeepsWhenSingleHeuristicClears(t *testing.T) {
	f := NewCandidatePairFilter(config.DefaultConfig().Filter, 0, nil)
	// Same active axes but opposite directions: axis overlap clears its
	// minimum while sign agreement and cosine are hopeless.
	protos := []prototype.Prototype{
		weighted("a", map[string]float64{"valence": 1}),
		weighted("b", map[string]float64{"valence": -1}),
	}
	kept, _ := f.Filter(protos)
	require.Len(t, kept, 1, "one clearing heuristic keeps the pair")

	m := kept[0].Metrics
	assert.InDelta(t, 1.0, m.ActiveAxisOverlap, 1e-9)
	assert.InDelta(t, 0.0, m.SignAgreement, 1e-9)
	assert.InDelta(t, -1.0, m.WeightCosine, 1e-9)
}

func TestFilterMixedSignAgreement(t *testing.T) {
	f := NewCandidatePairFilter(config.DefaultConfig().Filter, 0, nil)
	protos := []prototype.Prototype{
		weighted("a", map[string]float64{"valence": 0.9, "arousal": 0.9}),
		weighted("b", map[string]float64{"valence": 0.9, "arousal": -0.9}),
	}
	kept, _ := f.Filter(protos)
	require.Len(t, kept, 1)
	assert.InDelta(t, 0.5, kept[0].Metrics.SignAgreement, 1e-9)
	assert.InDelta(t, 0.0, kept[0].Metrics.WeightCosine, 1e-9)
}

func TestFilterIgnoresNoiseWeights(t *testing.T) {
	cfg := config.DefaultConfig().Filter
	f := NewCandidatePairFilter(cfg, 0, nil)
	// b's valence weight sits below MinActiveWeight, so the active sets
	// do not intersect.
	protos := []prototype.Prototype{
		weighted("a", map[string]float64{"valence": 1}),
		weighted("b", map[string]float64{"valence": cfg.MinActiveWeight / 2, "arousal": 1}),
	}
	kept, _ := f.Filter(protos)
	require.Len(t, kept, 0)
}

func TestFilterTruncation(t *testing.T) {
	f := NewCandidatePairFilter(config.DefaultConfig().Filter, 4, nil)
	protos := make([]prototype.Prototype, 4)
	for i, id := range []string{"a", "b", "c", "d"} {
		protos[i] = weighted(id, map[string]float64{"valence": 1})
	}
	kept, stats := f.Filter(protos)
	assert.Len(t, kept, 4)
	assert.Equal(t, 6, stats.TotalPairs)
	assert.Equal(t, 4, stats.Kept)
	assert.Equal(t, 2, stats.Truncated)
}

func TestFilterOrdersPairMembersByID(t *testing.T) {
	f := NewCandidatePairFilter(config.DefaultConfig().Filter, 0, nil)
	protos := []prototype.Prototype{
		weighted("zeta", map[string]float64{"valence": 1}),
		weighted("alpha", map[string]float64{"valence": 1}),
	}
	kept, _ := f.Filter(protos)
	require.Len(t, kept, 1)
	assert.Equal(t, "alpha", kept[0].A.ID)
	assert.Equal(t, "zeta", kept[0].B.ID)
}

func TestFilterEmptyInputs(t *testing.T) {
	f := NewCandidatePairFilter(config.DefaultConfig().Filter, 0, nil)

	kept, stats := f.Filter(nil)
	assert.Empty(t, kept)
	assert.Equal(t, FilterStats{}, stats)

	kept, stats = f.Filter([]prototype.Prototype{weighted("solo", map[string]float64{"valence": 1})})
	assert.Empty(t, kept)
	assert.Equal(t, 0, stats.TotalPairs)
}
