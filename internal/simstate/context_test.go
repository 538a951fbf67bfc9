package simstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContextFromRawCoercion(t *testing.T) {
	raw := map[string]any{
		"emotions": map[string]any{
			"joy":   0.8,
			"anger": 1,
			"label": "not-a-number",
		},
		"moodAxes": "broken",
	}
	ctx := NewContextFromRaw(raw)

	v, ok := ctx.Lookup("emotions", "joy")
	require.True(t, ok)
	assert.InDelta(t, 0.8, v, 1e-9)

	v, ok = ctx.Lookup("emotions", "anger")
	require.True(t, ok)
	assert.InDelta(t, 1.0, v, 1e-9)

	_, ok = ctx.Lookup("emotions", "label")
	assert.False(t, ok, "non-numeric leaves must be dropped")
	_, ok = ctx.Lookup("moodAxes", "valence")
	assert.False(t, ok, "malformed domains must be dropped")
}

func TestResolve(t *testing.T) {
	ctx := Context{
		"emotions":         {"joy": 0.7},
		"previousEmotions": {"joy": 0.4},
	}

	v, ok := ctx.Resolve("emotions.joy")
	require.True(t, ok)
	assert.InDelta(t, 0.7, v, 1e-9)

	cases := []string{"emotions", ".joy", "emotions.", "emotions.joy.extra", ""}
	for _, path := range cases {
		_, ok := ctx.Resolve(path)
		assert.False(t, ok, "path %q should not resolve", path)
	}
}

func TestResolveDelta(t *testing.T) {
	ctx := Context{
		"emotions":         {"joy": 0.7, "fear": 0.2},
		"previousEmotions": {"joy": 0.4},
	}

	d, ok := ctx.ResolveDelta("emotions.joy")
	require.True(t, ok)
	assert.InDelta(t, 0.3, d, 1e-9)

	_, ok = ctx.ResolveDelta("emotions.fear")
	assert.False(t, ok, "delta requires the previous-tick value")

	_, ok = ctx.ResolveDelta("sexualStates.arousal")
	assert.False(t, ok)
}

func TestResolveNilContext(t *testing.T) {
	var ctx Context
	_, ok := ctx.Resolve("emotions.joy")
	assert.False(t, ok)
}

func TestPreviousPath(t *testing.T) {
	p, ok := PreviousPath("emotions.joy")
	require.True(t, ok)
	assert.Equal(t, "previousEmotions.joy", p)

	p, ok = PreviousPath("moodAxes.valence")
	require.True(t, ok)
	assert.Equal(t, "previousMoodAxes.valence", p)

	_, ok = PreviousPath("previousEmotions.joy")
	assert.False(t, ok, "previous paths have no previous variant")
	_, ok = PreviousPath("unknown.thing")
	assert.False(t, ok)
}

func TestBaseDomain(t *testing.T) {
	assert.Equal(t, "emotions", BaseDomain("previousEmotions"))
	assert.Equal(t, "sexualStates", BaseDomain("previousSexualStates"))
	assert.Equal(t, "moodAxes", BaseDomain("moodAxes"))
	assert.True(t, IsPreviousDomain("previousMoodAxes"))
	assert.False(t, IsPreviousDomain("moodAxes"))
}

func TestParseCorpus(t *testing.T) {
	data := []byte(`[
		{"emotions": {"joy": 0.5}},
		{"emotions": {"joy": 0.9}, "moodAxes": {"valence": -0.2}}
	]`)
	corpus, err := ParseCorpus(data)
	require.NoError(t, err)
	require.Len(t, corpus, 2)

	domains := corpus.Domains()
	assert.Contains(t, domains, "emotions")
	assert.Contains(t, domains, "moodAxes")

	keys := corpus.Keys("emotions")
	assert.Contains(t, keys, "joy")

	_, err = ParseCorpus([]byte(`{"not": "an array"}`))
	assert.Error(t, err)
}
