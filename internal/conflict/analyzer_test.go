package conflict

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exprdiag/internal/config"
	"exprdiag/internal/similarity"
)

func fp(v float64) *float64 { return &v }

type stubSimilarity struct {
	emotions []similarity.Emotion
	gotAxis  string
	gotSign  int
}

func (s *stubSimilarity) FindEmotionsWithCompatibleAxisSign(axis string, sign int) []similarity.Emotion {
	s.gotAxis = axis
	s.gotSign = sign
	return s.emotions
}

func lost(values ...float64) []AxisConflict {
	out := make([]AxisConflict, 0, len(values))
	for _, v := range values {
		out = append(out, AxisConflict{
			ConflictType:  "sign_mismatch",
			Axis:          "valence",
			Weight:        -0.5,
			LostIntensity: fp(v),
		})
	}
	return out
}

func TestNormalizeDropsUntypedRecords(t *testing.T) {
	in := []AxisConflict{
		{ConflictType: "sign_mismatch", Axis: "valence"},
		{Axis: "energy"},
		{ConflictType: "band_exclusion", Axis: "tension"},
	}
	out := Normalize(in)
	require.Len(t, out, 2)
	assert.Equal(t, "sign_mismatch", out[0].ConflictType)
	assert.Equal(t, "band_exclusion", out[1].ConflictType)

	empty := Normalize(nil)
	require.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a := NewAnalyzer(config.DefaultConfig().Severity, nil, nil)

	got := a.Analyze(nil, "joy", 0)
	require.NotNil(t, got.Actions)
	require.NotNil(t, got.StructuredActions)
	require.NotNil(t, got.Evidence)
	assert.Empty(t, got.Actions)
	assert.Empty(t, got.StructuredActions)
	assert.Empty(t, got.Evidence)
}

func TestAnalyzeBinaryChoice(t *testing.T) {
	sim := &stubSimilarity{emotions: []similarity.Emotion{
		{EmotionName: "affection", AxisWeight: 0.8},
		{EmotionName: "warmth", AxisWeight: 0.5},
	}}
	a := NewAnalyzer(config.DefaultConfig().Severity, sim, nil)

	conflicts := []AxisConflict{{
		ConflictType:  "sign_mismatch",
		Axis:          "social_connection",
		Weight:        -0.45,
		ConstraintMin: fp(0.2),
		ConstraintMax: fp(1.0),
		LostIntensity: fp(0.31),
		LostRawSum:    fp(12.4),
		Sources: []Source{
			{VarPath: "moodAxes.social_connection", Op: ">=", Threshold: 0.2},
		},
	}}

	got := a.Analyze(conflicts, "affection", 5000)

	require.Len(t, got.StructuredActions, 1)
	sa := got.StructuredActions[0]
	assert.Equal(t, "sign_mismatch", sa.ConflictType)
	assert.Equal(t, "social_connection", sa.Axis)

	assert.Equal(t, OptionRelaxRegime, sa.OptionA.Kind)
	require.Len(t, sa.OptionA.Suggestions, 1)
	assert.Equal(t, "loosen or remove moodAxes.social_connection >= 0.2", sa.OptionA.Suggestions[0])

	// The analyzed prototype never appears among its own replacements, and
	// the generic weight advice always closes the list.
	assert.Equal(t, OptionChangeEmotion, sa.OptionB.Kind)
	require.Len(t, sa.OptionB.Suggestions, 2)
	assert.Contains(t, sa.OptionB.Suggestions[0], "warmth")
	assert.Contains(t, sa.OptionB.Suggestions[1], "toward zero")

	require.Len(t, got.Actions, 2)
	assert.True(t, strings.HasPrefix(got.Actions[0], "Option A: "))
	assert.True(t, strings.HasPrefix(got.Actions[1], "Option B: "))

	require.Len(t, got.Evidence, 1)
	assert.Contains(t, got.Evidence[0], "Social Connection")
	assert.Contains(t, got.Evidence[0], "between 0.20 and 1.00")
	assert.Contains(t, got.Evidence[0], "intensity lost 0.310")
	assert.Contains(t, got.Evidence[0], "5000 sampled moods")

	// A regime bounded at or above zero asks for positive pulls.
	assert.Equal(t, "social_connection", sim.gotAxis)
	assert.Equal(t, 1, sim.gotSign)
}

func TestAnalyzeCapsReportedConflicts(t *testing.T) {
	a := NewAnalyzer(config.DefaultConfig().Severity, nil, nil)

	conflicts := make([]AxisConflict, 5)
	for i := range conflicts {
		conflicts[i] = AxisConflict{
			ConflictType: "sign_mismatch",
			Axis:         fmt.Sprintf("axis_%d", i),
			Weight:       0.5,
		}
	}

	got := a.Analyze(conflicts, "joy", 100)
	assert.Len(t, got.Evidence, 3)
	assert.Len(t, got.StructuredActions, 3)
	assert.Len(t, got.Actions, 6)
}

func TestAnalyzeWithoutSimilarityService(t *testing.T) {
	a := NewAnalyzer(config.DefaultConfig().Severity, nil, nil)

	got := a.Analyze(lost(0.2), "joy", 0)
	require.Len(t, got.StructuredActions, 1)
	suggestions := got.StructuredActions[0].OptionB.Suggestions
	require.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0], "toward zero")
}

func TestAnalyzeCapsAlternatives(t *testing.T) {
	sim := &stubSimilarity{emotions: []similarity.Emotion{
		{EmotionName: "a1", AxisWeight: 0.9},
		{EmotionName: "a2", AxisWeight: 0.8},
		{EmotionName: "a3", AxisWeight: 0.7},
		{EmotionName: "a4", AxisWeight: 0.6},
		{EmotionName: "a5", AxisWeight: 0.5},
	}}
	a := NewAnalyzer(config.DefaultConfig().Severity, sim, nil)

	got := a.Analyze(lost(0.2), "joy", 0)
	require.Len(t, got.StructuredActions, 1)
	suggestions := got.StructuredActions[0].OptionB.Suggestions
	require.Len(t, suggestions, 4)
	assert.Contains(t, suggestions[0], "a1")
	assert.Contains(t, suggestions[2], "a3")
	assert.Contains(t, suggestions[3], "toward zero")
}

func TestRegimeSignFallsBackToOppositeWeight(t *testing.T) {
	sim := &stubSimilarity{}
	a := NewAnalyzer(config.DefaultConfig().Severity, sim, nil)

	a.Analyze([]AxisConflict{{ConflictType: "sign_mismatch", Axis: "valence", Weight: 0.6}}, "joy", 0)
	assert.Equal(t, -1, sim.gotSign)

	a.Analyze([]AxisConflict{{ConflictType: "sign_mismatch", Axis: "valence", Weight: -0.6}}, "joy", 0)
	assert.Equal(t, 1, sim.gotSign)
}

func TestSeverity(t *testing.T) {
	a := NewAnalyzer(config.DefaultConfig().Severity, nil, nil)

	cases := []struct {
		name      string
		conflicts []AxisConflict
		threshold *float64
		impact    float64
		want      Severity
	}{
		{"ratio above high cut", lost(0.35), fp(1.0), 0, SeverityHigh},
		{"ratio exactly at high cut stays medium", lost(0.15), fp(0.5), 0, SeverityMedium},
		{"ratio exactly at medium cut", lost(0.15), fp(1.0), 0, SeverityMedium},
		{"ratio below medium cut", lost(0.1), fp(1.0), 0, SeverityLow},
		{"max lost intensity wins", lost(0.1, 0.4), fp(1.0), 0, SeverityHigh},
		{"nil threshold falls back to impact", lost(0.9), nil, 0.5, SeverityHigh},
		{"zero threshold falls back to impact", lost(0.9), fp(0), 0.2, SeverityMedium},
		{"no numeric lost intensity falls back", []AxisConflict{{ConflictType: "sign_mismatch", Axis: "valence"}}, fp(1.0), 0.1, SeverityLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.Severity(tc.conflicts, tc.threshold, tc.impact))
		})
	}
}

func TestTitleAxis(t *testing.T) {
	assert.Equal(t, "Social Connection", titleAxis("social_connection"))
	assert.Equal(t, "Valence", titleAxis("valence"))
	assert.Equal(t, "", titleAxis(""))
}
