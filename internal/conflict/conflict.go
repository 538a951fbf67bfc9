// Package conflict turns upstream axis-conflict records into binary-choice
// recommendations: relax the regime the expression imposes on a mood axis,
// or change the emotion whose weight fights that regime.
package conflict

// Source is one regime clause implicated in a conflict, in the shape the
// expression layer uses so reports stay traceable to the prerequisite tree.
type Source struct {
	VarPath   string  `json:"varPath"`
	Op        string  `json:"op"`
	Threshold float64 `json:"threshold"`
}

// AxisConflict is one detected clash between a prototype's axis weight and
// the bounds the expression's clauses hold that axis to. Cost fields are
// pointer-valued because upstream detectors may omit them.
type AxisConflict struct {
	ConflictType  string   `json:"conflictType"`
	Axis          string   `json:"axis"`
	Weight        float64  `json:"weight"`
	ConstraintMin *float64 `json:"constraintMin,omitempty"`
	ConstraintMax *float64 `json:"constraintMax,omitempty"`
	LostRawSum    *float64 `json:"lostRawSum,omitempty"`
	LostIntensity *float64 `json:"lostIntensity,omitempty"`
	Sources       []Source `json:"sources,omitempty"`
}

// Normalize drops records lacking a conflict type. Detectors emit
// placeholder rows for axes they inspected but cleared; those carry no
// type and no actionable content.
func Normalize(conflicts []AxisConflict) []AxisConflict {
	out := make([]AxisConflict, 0, len(conflicts))
	for _, c := range conflicts {
		if c.ConflictType == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
