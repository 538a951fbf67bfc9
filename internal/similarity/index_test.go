package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exprdiag/internal/prototype"
)

func testRegistry(t *testing.T) prototype.Registry {
	t.Helper()
	reg, err := prototype.NewInMemoryRegistry([]prototype.Prototype{
		{ID: "joy", Family: prototype.FamilyEmotion, Weights: map[string]float64{"valence": 0.9, "energy": 0.4}},
		{ID: "contentment", Family: prototype.FamilyEmotion, Weights: map[string]float64{"valence": 0.5}},
		{ID: "grief", Family: prototype.FamilyEmotion, Weights: map[string]float64{"valence": -0.8}},
		{ID: "serenity", Family: prototype.FamilyEmotion, Weights: map[string]float64{"energy": -0.6}},
		{ID: "lust", Family: prototype.FamilySexual, Weights: map[string]float64{"valence": 0.7}},
	})
	require.NoError(t, err)
	return reg
}

func TestFindEmotionsWithCompatibleAxisSign(t *testing.T) {
	idx := NewRegistryIndex(testRegistry(t))

	got := idx.FindEmotionsWithCompatibleAxisSign("valence", 1)
	require.Len(t, got, 2, "sexual-family prototypes are not emotion suggestions")
	assert.Equal(t, Emotion{EmotionName: "joy", AxisWeight: 0.9}, got[0])
	assert.Equal(t, Emotion{EmotionName: "contentment", AxisWeight: 0.5}, got[1])

	got = idx.FindEmotionsWithCompatibleAxisSign("valence", -1)
	require.Len(t, got, 1)
	assert.Equal(t, "grief", got[0].EmotionName)
}

func TestFindEmotionsSkipsUnweightedAndZeroSign(t *testing.T) {
	idx := NewRegistryIndex(testRegistry(t))

	assert.Empty(t, idx.FindEmotionsWithCompatibleAxisSign("tension", 1))
	assert.Empty(t, idx.FindEmotionsWithCompatibleAxisSign("valence", 0))
}
