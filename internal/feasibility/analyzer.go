// Package feasibility checks each non-axis prerequisite clause of an
// expression against a sampled corpus and classifies how reachable the
// clause is in practice. A clause that never passes, or passes a handful
// of times in thousands of contexts, points at a threshold the simulated
// state cannot realistically satisfy.
package feasibility

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"exprdiag/internal/config"
	"exprdiag/internal/expression"
	"exprdiag/internal/logging"
	"exprdiag/internal/simstate"
)

// Classification is the closed set of empirical reachability tiers.
type Classification string

const (
	EmpiricallyUnreachable Classification = "EMPIRICALLY_UNREACHABLE"
	Rare                   Classification = "RARE"
	OK                     Classification = "OK"
	Unobserved             Classification = "UNOBSERVED"
	Unknown                Classification = "UNKNOWN"
)

// Signal names which value stream a clause was evaluated on.
type Signal string

const (
	SignalFinal Signal = "final"
	SignalDelta Signal = "delta"
)

// PopulationInRegime is the only population segment currently produced.
// The field exists so future segmentation does not change the schema.
const PopulationInRegime = "in_regime"

// Evidence is the human-readable side of a result: a note plus an
// optional index of an illustrative context.
type Evidence struct {
	Note          string `json:"note"`
	SampleContext *int   `json:"sampleContext,omitempty"`
}

// ClauseResult is the full feasibility verdict for one clause.
// Statistics are pointer-valued: an UNKNOWN verdict carries nulls, never
// fabricated zeros.
type ClauseResult struct {
	Clause         expression.NonAxisClause `json:"clause"`
	ClauseID       string                   `json:"clauseId"`
	Classification Classification           `json:"classification"`
	PassRate       *float64                 `json:"passRate,omitempty"`
	MaxValue       *float64                 `json:"maxValue,omitempty"`
	MinValue       *float64                 `json:"minValue,omitempty"`
	P95Value       *float64                 `json:"p95Value,omitempty"`
	MarginMax      *float64                 `json:"marginMax,omitempty"`
	Signal         Signal                   `json:"signal"`
	Population     string                   `json:"population"`
	Evidence       Evidence                 `json:"evidence"`
}

// Analyzer evaluates clauses against corpora. Stateless beyond config
// and logger; safe to reuse.
type Analyzer struct {
	cfg config.FeasibilityConfig
	log *zap.Logger
}

// NewAnalyzer builds a feasibility analyzer. A nil logger disables
// logging.
func NewAnalyzer(cfg config.FeasibilityConfig, log *zap.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, log: logging.For(log, logging.CategoryFeasibility)}
}

// AnalyzeExpression extracts the expression's non-axis clauses and
// evaluates each against the corpus.
func (a *Analyzer) AnalyzeExpression(expr expression.Expression, corpus simstate.Corpus) []ClauseResult {
	return a.AnalyzeClauses(expression.ExtractNonAxisClauses(expr), corpus)
}

// AnalyzeClauses evaluates each clause independently. Empty inputs yield
// an empty result list, never a panic.
func (a *Analyzer) AnalyzeClauses(clauses []expression.NonAxisClause, corpus simstate.Corpus) []ClauseResult {
	results := make([]ClauseResult, 0, len(clauses))
	for _, clause := range clauses {
		results = append(results, a.analyzeClause(clause, corpus))
	}
	a.log.Info("feasibility analysis complete",
		zap.Int("clauses", len(clauses)),
		zap.Int("corpus_size", len(corpus)))
	return results
}

func (a *Analyzer) analyzeClause(clause expression.NonAxisClause, corpus simstate.Corpus) ClauseResult {
	result := ClauseResult{
		Clause:     clause,
		ClauseID:   ClauseID(clause),
		Signal:     SignalFinal,
		Population: PopulationInRegime,
	}
	if clause.IsDelta {
		result.Signal = SignalDelta
	}

	var (
		values    []float64
		passes    int
		skipped   int
		firstPass = -1
	)
	for i, ctx := range corpus {
		v, ok := resolveClauseValue(clause, ctx)
		if !ok {
			skipped++
			continue
		}
		values = append(values, v)
		if expression.Compare(v, clause.Op, clause.Threshold) {
			passes++
			if firstPass < 0 {
				firstPass = i
			}
		}
	}

	if len(values) == 0 {
		result.Classification = Unknown
		result.Evidence.Note = "no evaluable contexts for this clause"
		if skipped > 0 {
			result.Evidence.Note = fmt.Sprintf(
				"no evaluable contexts for this clause: %s missing or non-numeric in all %d contexts",
				clause.VarPath, skipped)
		}
		return result
	}

	passRate := float64(passes) / float64(len(values))
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	minV, maxV := sorted[0], sorted[len(sorted)-1]
	p95 := percentile95(sorted)

	result.PassRate = &passRate
	result.P95Value = &p95

	var extremum float64
	directional := true
	switch clause.Op {
	case expression.OpGTE, expression.OpGT:
		extremum = maxV
		result.MaxValue = &maxV
	case expression.OpLTE, expression.OpLT:
		extremum = minV
		result.MinValue = &minV
	default:
		// Equality operators have no directional extremum; record both
		// observed bounds and skip ceiling/floor reasoning.
		directional = false
		result.MaxValue = &maxV
		result.MinValue = &minV
	}
	if directional {
		margin := extremum - clause.Threshold
		result.MarginMax = &margin
	}

	result.Classification, result.Evidence = a.classify(clause, passRate, passes, len(values), extremum, firstPass)
	return result
}

// classify applies the reachability ladder in order: unreachable with
// hard extremum evidence, unobserved, rare (boundary inclusive), ok.
func (a *Analyzer) classify(clause expression.NonAxisClause, passRate float64, passes, evaluated int, extremum float64, firstPass int) (Classification, Evidence) {
	if passRate == 0 {
		switch clause.Op {
		case expression.OpGTE, expression.OpGT:
			if extremum < clause.Threshold {
				return EmpiricallyUnreachable, Evidence{Note: fmt.Sprintf(
					"never passes: observed maximum %.4g stays strictly below threshold %.4g",
					extremum, clause.Threshold)}
			}
		case expression.OpLTE, expression.OpLT:
			if extremum > clause.Threshold {
				return EmpiricallyUnreachable, Evidence{Note: fmt.Sprintf(
					"never passes: observed minimum %.4g stays strictly above threshold %.4g",
					extremum, clause.Threshold)}
			}
		}
		return Unobserved, Evidence{Note: fmt.Sprintf(
			"no passing contexts among %d evaluated; the observed range does not rule the condition out",
			evaluated)}
	}
	if passRate <= a.cfg.RareMaxPassRate {
		sample := firstPass
		return Rare, Evidence{
			Note: fmt.Sprintf("condition rarely met: %d of %d contexts pass (rate %.4g)",
				passes, evaluated, passRate),
			SampleContext: &sample,
		}
	}
	sample := firstPass
	return OK, Evidence{
		Note: fmt.Sprintf("passes in %.1f%% of evaluated contexts",
			passRate*100),
		SampleContext: &sample,
	}
}

func resolveClauseValue(clause expression.NonAxisClause, ctx simstate.Context) (float64, bool) {
	if clause.IsDelta {
		return ctx.ResolveDelta(clause.VarPath)
	}
	return ctx.Resolve(clause.VarPath)
}

// percentile95 interpolates linearly between the two order statistics
// straddling the 95th percentile rank. Input must be sorted.
func percentile95(sorted []float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := 0.95 * float64(n-1)
	lo := int(rank)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
