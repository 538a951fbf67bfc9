package conflict

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"exprdiag/internal/config"
	"exprdiag/internal/logging"
	"exprdiag/internal/similarity"
)

// Severity grades how badly a conflict set hurts the expression.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Option kinds for the two sides of the recommendation.
const (
	OptionRelaxRegime   = "relax_regime"
	OptionChangeEmotion = "change_emotion"
)

// Option is one side of the binary recommendation.
type Option struct {
	Kind        string   `json:"kind"`
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// StructuredAction pairs the two options for one conflict.
type StructuredAction struct {
	ConflictType string `json:"conflictType"`
	Axis         string `json:"axis"`
	OptionA      Option `json:"optionA"`
	OptionB      Option `json:"optionB"`
}

// Analysis is the full conflict report for one prototype. All slices are
// non-nil so empty reports serialize as empty arrays.
type Analysis struct {
	Actions           []string           `json:"actions"`
	StructuredActions []StructuredAction `json:"structuredActions"`
	Evidence          []string           `json:"evidence"`
}

// maxEvidenceConflicts caps how many conflicts get the full narrative
// treatment in one report; the rest would repeat the same advice.
const maxEvidenceConflicts = 3

// maxAlternatives caps the concrete replacement emotions listed ahead of
// the generic fallback.
const maxAlternatives = 3

// Analyzer renders conflicts into recommendations. Stateless beyond its
// dependencies; safe to reuse.
type Analyzer struct {
	cfg config.SeverityConfig
	sim similarity.Service
	log *zap.Logger
}

// NewAnalyzer builds a conflict analyzer. sim may be nil; replacement
// suggestions then fall back to the generic weight advice. A nil logger
// disables logging.
func NewAnalyzer(cfg config.SeverityConfig, sim similarity.Service, log *zap.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, sim: sim, log: logging.For(log, logging.CategoryConflict)}
}

// Analyze produces the per-conflict evidence and the Option A / Option B
// recommendation pairs for one prototype. moodSampleCount sizes the
// evidence wording; zero omits it. Empty or nil input yields an empty
// report, never a panic.
func (a *Analyzer) Analyze(conflicts []AxisConflict, prototypeID string, moodSampleCount int) Analysis {
	analysis := Analysis{
		Actions:           []string{},
		StructuredActions: []StructuredAction{},
		Evidence:          []string{},
	}
	conflicts = Normalize(conflicts)
	if len(conflicts) == 0 {
		return analysis
	}

	shown := conflicts
	if len(shown) > maxEvidenceConflicts {
		shown = shown[:maxEvidenceConflicts]
	}
	for _, c := range shown {
		optA := a.relaxRegimeOption(c)
		optB := a.changeEmotionOption(c, prototypeID)
		analysis.Evidence = append(analysis.Evidence, summarize(c, moodSampleCount))
		analysis.StructuredActions = append(analysis.StructuredActions, StructuredAction{
			ConflictType: c.ConflictType,
			Axis:         c.Axis,
			OptionA:      optA,
			OptionB:      optB,
		})
		analysis.Actions = append(analysis.Actions,
			"Option A: "+optA.Summary,
			"Option B: "+optB.Summary)
	}

	a.log.Info("axis conflict analysis complete",
		zap.String("prototype", prototypeID),
		zap.Int("conflicts", len(conflicts)),
		zap.Int("reported", len(shown)))
	return analysis
}

// Severity scores a conflict set. thresholdValue is the triggering
// clause's threshold, used to normalize lost intensity; pass nil when no
// clause is in scope. impact drives the fallback scale when the primary
// ratio cannot be computed.
func (a *Analyzer) Severity(conflicts []AxisConflict, thresholdValue *float64, impact float64) Severity {
	if thresholdValue != nil && *thresholdValue != 0 {
		if maxLost, ok := maxLostIntensity(conflicts); ok {
			ratio := maxLost / *thresholdValue
			switch {
			case ratio > a.cfg.HighLostIntensityRatio:
				return SeverityHigh
			case ratio >= a.cfg.MediumLostIntensityRatio:
				return SeverityMedium
			default:
				return SeverityLow
			}
		}
	}
	switch {
	case impact >= a.cfg.HighImpact:
		return SeverityHigh
	case impact >= a.cfg.MediumImpact:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func maxLostIntensity(conflicts []AxisConflict) (float64, bool) {
	var maxLost float64
	found := false
	for _, c := range conflicts {
		if c.LostIntensity == nil {
			continue
		}
		if !found || *c.LostIntensity > maxLost {
			maxLost = *c.LostIntensity
			found = true
		}
	}
	return maxLost, found
}

func (a *Analyzer) relaxRegimeOption(c AxisConflict) Option {
	axis := titleAxis(c.Axis)
	var suggestions []string
	for _, s := range c.Sources {
		suggestions = append(suggestions, fmt.Sprintf("loosen or remove %s %s %g", s.VarPath, s.Op, s.Threshold))
	}
	summary := fmt.Sprintf("relax the %s regime so the expression tolerates this weight", axis)
	if n := len(c.Sources); n == 1 {
		summary = fmt.Sprintf("relax the %s regime: one clause pins the axis against the weight", axis)
	} else if n > 1 {
		summary = fmt.Sprintf("relax the %s regime: %d clauses pin the axis against the weight", axis, n)
	}
	return Option{Kind: OptionRelaxRegime, Summary: summary, Suggestions: suggestions}
}

func (a *Analyzer) changeEmotionOption(c AxisConflict, prototypeID string) Option {
	axis := titleAxis(c.Axis)
	var suggestions []string
	if a.sim != nil {
		for _, e := range a.sim.FindEmotionsWithCompatibleAxisSign(c.Axis, regimeSign(c)) {
			if strings.EqualFold(e.EmotionName, prototypeID) {
				continue
			}
			suggestions = append(suggestions, fmt.Sprintf("switch to %s (%s weight %+.2f)", e.EmotionName, axis, e.AxisWeight))
			if len(suggestions) == maxAlternatives {
				break
			}
		}
	}
	suggestions = append(suggestions, fmt.Sprintf("move the conflicting %s weight toward zero", axis))
	return Option{
		Kind:        OptionChangeEmotion,
		Summary:     fmt.Sprintf("change the emotion so its %s pull matches the regime", axis),
		Suggestions: suggestions,
	}
}

// regimeSign is the axis direction the regime demands: positive when its
// bounds sit at or above zero, negative when at or below. Falls back to
// the opposite of the conflicting weight when the bounds say nothing.
func regimeSign(c AxisConflict) int {
	switch {
	case c.ConstraintMin != nil && *c.ConstraintMin >= 0:
		return 1
	case c.ConstraintMax != nil && *c.ConstraintMax <= 0:
		return -1
	case c.Weight > 0:
		return -1
	case c.Weight < 0:
		return 1
	}
	return 0
}

func summarize(c AxisConflict, moodSampleCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s weight %+.2f pulls against the sampled regime", c.ConflictType, titleAxis(c.Axis), c.Weight)
	if bounds := boundsText(c); bounds != "" {
		fmt.Fprintf(&b, " (%s)", bounds)
	}
	if c.LostIntensity != nil {
		fmt.Fprintf(&b, "; intensity lost %.3f", *c.LostIntensity)
		if c.LostRawSum != nil {
			fmt.Fprintf(&b, " (raw sum %.2f)", *c.LostRawSum)
		}
	}
	if moodSampleCount > 0 {
		fmt.Fprintf(&b, " across %d sampled moods", moodSampleCount)
	}
	return b.String()
}

func boundsText(c AxisConflict) string {
	switch {
	case c.ConstraintMin != nil && c.ConstraintMax != nil:
		return fmt.Sprintf("axis held between %.2f and %.2f", *c.ConstraintMin, *c.ConstraintMax)
	case c.ConstraintMin != nil:
		return fmt.Sprintf("axis held at or above %.2f", *c.ConstraintMin)
	case c.ConstraintMax != nil:
		return fmt.Sprintf("axis held at or below %.2f", *c.ConstraintMax)
	}
	return ""
}

// titleAxis renders a snake_case axis id for human-facing text, so
// "social_connection" reads as "Social Connection".
func titleAxis(axis string) string {
	parts := strings.Split(axis, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}
