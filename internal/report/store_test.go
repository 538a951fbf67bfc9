package report

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exprdiag/internal/conflict"
	"exprdiag/internal/expression"
	"exprdiag/internal/feasibility"
	"exprdiag/internal/overlap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "archive.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func clauseResult(id, varPath string, class feasibility.Classification) feasibility.ClauseResult {
	rate := 0.25
	return feasibility.ClauseResult{
		Clause: expression.NonAxisClause{
			VarPath:    varPath,
			Op:         expression.OpGTE,
			Threshold:  0.5,
			ClauseType: expression.ClauseTypeEmotion,
			SourcePath: "prerequisites[0]",
		},
		ClauseID:       id,
		Classification: class,
		PassRate:       &rate,
		Signal:         feasibility.SignalFinal,
		Population:     feasibility.PopulationInRegime,
	}
}

func TestSaveAndLoadFeasibilityRun(t *testing.T) {
	s := openTestStore(t)

	saved := []feasibility.ClauseResult{
		clauseResult("c-bbb", "emotions.joy", feasibility.OK),
		clauseResult("c-aaa", "emotions.anger", feasibility.Rare),
	}
	require.NoError(t, s.SaveFeasibilityRun("run-1", "expr_smile", 5000, saved))

	loaded, err := s.ClauseResults("run-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	// Reads come back ordered by clause id.
	assert.Equal(t, "c-aaa", loaded[0].ClauseID)
	assert.Empty(t, cmp.Diff(saved[1], loaded[0]))
	assert.Empty(t, cmp.Diff(saved[0], loaded[1]))

	runs, err := s.ListRuns(RunKindFeasibility, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "expr_smile", runs[0].Subject)
	assert.Equal(t, 5000, runs[0].CorpusSize)
	assert.False(t, runs[0].CreatedAt.IsZero())
}

func TestDiffFeasibilityRuns(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveFeasibilityRun("run-a", "expr_smile", 100, []feasibility.ClauseResult{
		clauseResult("c-aaa", "emotions.joy", feasibility.OK),
		clauseResult("c-bbb", "emotions.anger", feasibility.Rare),
		clauseResult("c-ccc", "emotions.fear", feasibility.EmpiricallyUnreachable),
	}))
	require.NoError(t, s.SaveFeasibilityRun("run-b", "expr_smile", 100, []feasibility.ClauseResult{
		clauseResult("c-bbb", "emotions.anger", feasibility.OK),
		clauseResult("c-ccc", "emotions.fear", feasibility.EmpiricallyUnreachable),
		clauseResult("c-ddd", "emotions.calm", feasibility.Unobserved),
	}))

	diff, err := s.DiffFeasibilityRuns("run-a", "run-b")
	require.NoError(t, err)

	require.Len(t, diff.Removed, 1)
	assert.Equal(t, DiffEntry{ClauseID: "c-aaa", VarPath: "emotions.joy", Before: "OK"}, diff.Removed[0])

	require.Len(t, diff.Added, 1)
	assert.Equal(t, DiffEntry{ClauseID: "c-ddd", VarPath: "emotions.calm", After: "UNOBSERVED"}, diff.Added[0])

	require.Len(t, diff.Changed, 1)
	assert.Equal(t, DiffEntry{
		ClauseID: "c-bbb", VarPath: "emotions.anger", Before: "RARE", After: "OK",
	}, diff.Changed[0])
}

func TestDiffIdenticalRunsIsEmpty(t *testing.T) {
	s := openTestStore(t)

	results := []feasibility.ClauseResult{
		clauseResult("c-aaa", "emotions.joy", feasibility.OK),
		clauseResult("c-bbb", "emotions.anger", feasibility.Rare),
	}
	require.NoError(t, s.SaveFeasibilityRun("run-a", "expr_smile", 100, results))
	require.NoError(t, s.SaveFeasibilityRun("run-b", "expr_smile", 100, results))

	diff, err := s.DiffFeasibilityRuns("run-a", "run-b")
	require.NoError(t, err)
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
	assert.Empty(t, diff.Changed)
}

func TestDiffUnknownRun(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveFeasibilityRun("run-a", "expr_smile", 10, nil))

	_, err := s.DiffFeasibilityRuns("run-a", "run-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSaveOverlapReportRoundTrip(t *testing.T) {
	s := openTestStore(t)

	rep := overlap.Report{
		Recommendations: []overlap.Recommendation{{
			Classification:   overlap.NestedSiblings,
			NestingDirection: overlap.DirectionAContainsB,
			PrototypeA:       "inner",
			PrototypeB:       "outer",
			Severity:         overlap.SeverityMedium,
			Confidence:       0.8,
			SuggestedGateBands: []overlap.GateBandSuggestion{{
				Kind:              overlap.SuggestionGateBand,
				AffectedPrototype: "outer",
				Axis:              "valence",
				Reason:            "inner fires only inside outer's band",
			}},
			Evidence: []string{"gate agreement 0.90"},
		}},
		Metadata: overlap.Metadata{
			RunID:                   "run-ov",
			ClassificationBreakdown: map[overlap.Classification]int{overlap.NestedSiblings: 1},
			EvaluatedPairs:          1,
			CorpusSize:              250,
		},
	}
	require.NoError(t, s.SaveOverlapReport(rep, "emotion"))

	recs, err := s.OverlapRecommendations("run-ov")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Empty(t, cmp.Diff(rep.Recommendations[0], recs[0]))

	runs, err := s.ListRuns(RunKindOverlap, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "emotion", runs[0].Subject)
	assert.Equal(t, 250, runs[0].CorpusSize)
}

func TestSaveConflictRun(t *testing.T) {
	s := openTestStore(t)

	analysis := conflict.Analysis{
		Actions:           []string{"Option A: relax the Valence regime: one clause pins the axis against the weight"},
		StructuredActions: []conflict.StructuredAction{},
		Evidence:          []string{"sign_mismatch: Valence weight -0.50 pulls against the sampled regime"},
	}
	require.NoError(t, s.SaveConflictRun("run-cf", "grief", 5000, analysis))

	runs, err := s.ListRuns(RunKindConflicts, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "grief", runs[0].Subject)
}

func TestListRunsFiltersAndLimits(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveFeasibilityRun("run-a", "expr_smile", 10, nil))
	require.NoError(t, s.SaveFeasibilityRun("run-b", "expr_frown", 10, nil))
	require.NoError(t, s.SaveConflictRun("run-c", "grief", 10, conflict.Analysis{}))

	all, err := s.ListRuns("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	feas, err := s.ListRuns(RunKindFeasibility, 0)
	require.NoError(t, err)
	require.Len(t, feas, 2)
	assert.Equal(t, "run-b", feas[0].ID, "newest first")

	one, err := s.ListRuns(RunKindFeasibility, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "run-b", one[0].ID)
}
