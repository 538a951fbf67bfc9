package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exprdiag/internal/config"
	"exprdiag/internal/report"
)

func TestRunFeasibilityOutput(t *testing.T) {
	cfg = config.DefaultConfig()
	logger = zap.NewNop()
	saveRun = false

	feasibilityExpressionsPath = writeFixture(t, "exprs.json", `[
		{"id": "lonely_stare", "prerequisites": [
			{"cond": {"varPath": "emotions.loneliness", "op": ">", "threshold": 0.6}},
			{"cond": {"varPath": "moodAxes.valence", "op": "<", "threshold": 0.0}}
		]}
	]`)
	feasibilityExpressionID = ""
	feasibilityCorpusPath = writeFixture(t, "corpus.json", `[
		{"emotions": {"loneliness": 0.8}},
		{"emotions": {"loneliness": 0.4}},
		{"emotions": {"loneliness": 0.7}},
		{"emotions": {"loneliness": 0.2}}
	]`)

	output := captureOutput(t, func() {
		if err := runFeasibility(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runFeasibility returned error: %v", err)
		}
	})

	if !strings.Contains(output, `"expressionId": "lonely_stare"`) {
		t.Fatalf("expected expression id in output, got: %s", output)
	}
	if !strings.Contains(output, `"classification": "OK"`) {
		t.Fatalf("expected OK classification for the loneliness clause, got: %s", output)
	}
	// The mood-axis clause is not a non-axis clause and must not appear.
	if strings.Contains(output, "moodAxes.valence") {
		t.Fatalf("axis clause leaked into feasibility output: %s", output)
	}
}

func TestRunOverlapEvaluatesIdenticalPair(t *testing.T) {
	cfg = config.DefaultConfig()
	logger = zap.NewNop()
	saveRun = false

	overlapPrototypesPath = writeFixture(t, "catalog.json", `[
		{"id": "joy", "family": "emotion", "weights": {"valence": 0.9, "energy": 0.4}, "gates": [{"axis": "valence", "min": 0.2}]},
		{"id": "delight", "family": "emotion", "weights": {"valence": 0.9, "energy": 0.4}, "gates": [{"axis": "valence", "min": 0.2}]}
	]`)
	overlapCorpusPath = writeFixture(t, "corpus.json", `[
		{"moodAxes": {"valence": 0.5, "energy": 0.3}},
		{"moodAxes": {"valence": -0.4, "energy": 0.1}},
		{"moodAxes": {"valence": 0.8, "energy": 0.6}},
		{"moodAxes": {"valence": 0.3, "energy": -0.2}}
	]`)
	overlapFamily = ""
	overlapWorkers = 0

	output := captureOutput(t, func() {
		if err := runOverlap(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runOverlap returned error: %v", err)
		}
	})

	// Identical weight vectors and gates always survive the filter.
	if !strings.Contains(output, `"evaluatedPairs": 1`) {
		t.Fatalf("expected one evaluated pair, got: %s", output)
	}
	if !strings.Contains(output, `"runId"`) {
		t.Fatalf("expected run id in metadata, got: %s", output)
	}
}

func TestRunOverlapRejectsUnknownFamily(t *testing.T) {
	cfg = config.DefaultConfig()
	logger = zap.NewNop()
	saveRun = false

	overlapPrototypesPath = writeFixture(t, "catalog.json", `[
		{"id": "joy", "family": "emotion", "weights": {"valence": 0.9}}
	]`)
	overlapCorpusPath = writeFixture(t, "corpus.json", `[]`)
	overlapFamily = "moods"

	err := runOverlap(&cobra.Command{}, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown family") {
		t.Fatalf("expected unknown family error, got: %v", err)
	}
	overlapFamily = ""
}

func TestRunValidateFlagsTypo(t *testing.T) {
	cfg = config.DefaultConfig()
	logger = zap.NewNop()
	saveRun = false

	validatePrototypesPath = writeFixture(t, "catalog.json", `[
		{"id": "joy", "family": "emotion", "weights": {"valence": 0.9}},
		{"id": "delight", "family": "emotion", "weights": {"valence": 0.8}}
	]`)
	validateExpressionsPath = writeFixture(t, "exprs.json", `[
		{"id": "beam", "prerequisites": [
			{"cond": {"varPath": "emotions.joyy", "op": ">", "threshold": 0.5}}
		]}
	]`)
	validateExpressionID = ""

	output := captureOutput(t, func() {
		if err := runValidate(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runValidate returned error: %v", err)
		}
	})

	if !strings.Contains(output, `"valid": false`) {
		t.Fatalf("expected the typo to invalidate the expression, got: %s", output)
	}
	if !strings.Contains(output, "emotions.joyy") {
		t.Fatalf("expected the offending path in output, got: %s", output)
	}
}

func TestRunConflictsOffersBinaryChoice(t *testing.T) {
	cfg = config.DefaultConfig()
	logger = zap.NewNop()
	saveRun = false

	conflictsPath = writeFixture(t, "conflicts.json", `[
		{"conflictType": "axis_sign", "axis": "social_connection", "weight": -0.62,
		 "constraintMin": 0.2, "constraintMax": 1.0, "lostIntensity": 0.31,
		 "sources": [{"varPath": "moodAxes.social_connection", "op": ">=", "threshold": 0.2}]}
	]`)
	conflictsPrototypeID = "grief"
	conflictsPrototypesPath = ""
	conflictsSamples = 5000

	output := captureOutput(t, func() {
		if err := runConflicts(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runConflicts returned error: %v", err)
		}
	})

	if !strings.Contains(output, "Option A:") || !strings.Contains(output, "Option B:") {
		t.Fatalf("expected a binary resolution choice, got: %s", output)
	}
}

func TestSaveListAndDiffRuns(t *testing.T) {
	cfg = config.DefaultConfig()
	logger = zap.NewNop()
	dbPath = filepath.Join(t.TempDir(), "runs.db")
	saveRun = true
	defer func() {
		saveRun = false
		dbPath = ""
	}()

	feasibilityCorpusPath = writeFixture(t, "corpus.json", `[
		{"emotions": {"loneliness": 0.8}},
		{"emotions": {"loneliness": 0.2}}
	]`)
	feasibilityExpressionID = ""

	feasibilityExpressionsPath = writeFixture(t, "exprs-a.json", `[
		{"id": "lonely_stare", "prerequisites": [
			{"cond": {"varPath": "emotions.loneliness", "op": ">", "threshold": 0.6}}
		]}
	]`)
	outA := captureOutput(t, func() {
		if err := runFeasibility(&cobra.Command{}, nil); err != nil {
			t.Fatalf("first runFeasibility returned error: %v", err)
		}
	})

	// Tightened threshold: a different clause identity, so the diff sees
	// one removed and one added clause.
	feasibilityExpressionsPath = writeFixture(t, "exprs-b.json", `[
		{"id": "lonely_stare", "prerequisites": [
			{"cond": {"varPath": "emotions.loneliness", "op": ">", "threshold": 0.9}}
		]}
	]`)
	outB := captureOutput(t, func() {
		if err := runFeasibility(&cobra.Command{}, nil); err != nil {
			t.Fatalf("second runFeasibility returned error: %v", err)
		}
	})

	idA := envelopeRunID(t, outA)
	idB := envelopeRunID(t, outB)

	runsKind = report.RunKindFeasibility
	runsLimit = 0
	listed := captureOutput(t, func() {
		if err := runsCmd.RunE(runsCmd, nil); err != nil {
			t.Fatalf("runs listing returned error: %v", err)
		}
	})
	var runs []report.Run
	if err := json.Unmarshal([]byte(listed), &runs); err != nil {
		t.Fatalf("failed to parse runs listing: %v\n%s", err, listed)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 archived runs, got %d", len(runs))
	}

	diffed := captureOutput(t, func() {
		if err := diffCmd.RunE(diffCmd, []string{idA, idB}); err != nil {
			t.Fatalf("diff returned error: %v", err)
		}
	})
	if !strings.Contains(diffed, `"runA": "`+idA+`"`) {
		t.Fatalf("expected baseline run id in diff, got: %s", diffed)
	}
	if !strings.Contains(diffed, `"added"`) || !strings.Contains(diffed, `"removed"`) {
		t.Fatalf("expected added and removed sections in diff, got: %s", diffed)
	}
}

func envelopeRunID(t *testing.T, output string) string {
	t.Helper()
	var env struct {
		RunID string `json:"runId"`
	}
	if err := json.Unmarshal([]byte(output), &env); err != nil {
		t.Fatalf("failed to parse envelope: %v\n%s", err, output)
	}
	if env.RunID == "" {
		t.Fatalf("envelope has no run id: %s", output)
	}
	return env.RunID
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	rOut, wOut, _ := os.Pipe()
	os.Stdout = wOut

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	os.Stdout = origOut
	return <-done
}
