// Package prototype models behavioral prototypes: named templates from the
// emotion or sexual-state family that map mood-axis values to an expressed
// intensity, guarded by per-axis gates.
package prototype

import (
	"fmt"
	"math"
	"sort"

	"exprdiag/internal/simstate"
)

// Family identifies which catalog a prototype belongs to.
type Family string

const (
	FamilyEmotion Family = "emotion"
	FamilySexual  Family = "sexual"
)

func (f Family) valid() bool {
	return f == FamilyEmotion || f == FamilySexual
}

// Gate restricts a prototype to a band of one mood axis. Nil bounds are
// open ends; both bounds are inclusive.
type Gate struct {
	Axis string   `json:"axis" yaml:"axis"`
	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Interval resolves the gate against the axis domain [lo, hi], filling
// open ends from the domain bounds.
func (g Gate) Interval(lo, hi float64) Interval {
	iv := Interval{Lo: lo, Hi: hi}
	if g.Min != nil {
		iv.Lo = *g.Min
	}
	if g.Max != nil {
		iv.Hi = *g.Max
	}
	return iv
}

// Interval is a closed numeric range.
type Interval struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Contains reports whether v lies inside the closed interval.
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Lo && v <= iv.Hi
}

// Within reports whether iv lies entirely inside outer.
func (iv Interval) Within(outer Interval) bool {
	return iv.Lo >= outer.Lo && iv.Hi <= outer.Hi
}

// Width returns Hi − Lo, never negative.
func (iv Interval) Width() float64 {
	if iv.Hi < iv.Lo {
		return 0
	}
	return iv.Hi - iv.Lo
}

// Prototype is one behavioral template: weighted mood axes plus gates.
type Prototype struct {
	ID      string             `json:"id" yaml:"id"`
	Family  Family             `json:"family" yaml:"family"`
	Weights map[string]float64 `json:"weights" yaml:"weights"`
	Gates   []Gate             `json:"gates,omitempty" yaml:"gates,omitempty"`
}

// Validate checks structural invariants: non-empty id, known family,
// finite weights, and coherent gate bounds.
func (p Prototype) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("prototype id is empty")
	}
	if !p.Family.valid() {
		return fmt.Errorf("prototype %s: unknown family %q", p.ID, p.Family)
	}
	for axis, w := range p.Weights {
		if axis == "" {
			return fmt.Errorf("prototype %s: empty axis name in weights", p.ID)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("prototype %s: weight for %s is not finite", p.ID, axis)
		}
	}
	for i, g := range p.Gates {
		if g.Axis == "" {
			return fmt.Errorf("prototype %s: gate %d has no axis", p.ID, i)
		}
		if g.Min != nil && g.Max != nil && *g.Min > *g.Max {
			return fmt.Errorf("prototype %s: gate on %s has min %v above max %v", p.ID, g.Axis, *g.Min, *g.Max)
		}
	}
	return nil
}

// GatedOn reports whether every gate admits the context. A mood axis
// missing from the context reads as 0 (neutral).
func (p Prototype) GatedOn(ctx simstate.Context) bool {
	for _, g := range p.Gates {
		v, ok := ctx.Lookup(simstate.DomainMoodAxes, g.Axis)
		if !ok {
			v = 0
		}
		if g.Min != nil && v < *g.Min {
			return false
		}
		if g.Max != nil && v > *g.Max {
			return false
		}
	}
	return true
}

// Intensity is the weighted sum of mood-axis values, floored at 0.
// Missing axes read as 0 and so contribute nothing.
func (p Prototype) Intensity(ctx simstate.Context) float64 {
	var sum float64
	for axis, w := range p.Weights {
		if v, ok := ctx.Lookup(simstate.DomainMoodAxes, axis); ok {
			sum += w * v
		}
	}
	if sum < 0 {
		return 0
	}
	return sum
}

// ExpressedIntensity is the intensity when gated on, 0 otherwise.
func (p Prototype) ExpressedIntensity(ctx simstate.Context) float64 {
	if !p.GatedOn(ctx) {
		return 0
	}
	return p.Intensity(ctx)
}

// ActiveAxes returns the axis names whose absolute weight clears
// minWeight, sorted for deterministic iteration.
func (p Prototype) ActiveAxes(minWeight float64) []string {
	axes := make([]string, 0, len(p.Weights))
	for axis, w := range p.Weights {
		if math.Abs(w) >= minWeight {
			axes = append(axes, axis)
		}
	}
	sort.Strings(axes)
	return axes
}

// GateInterval returns the effective band for one axis, intersecting all
// gates on that axis and defaulting open ends to the domain [lo, hi].
// The second return is false when no gate names the axis.
func (p Prototype) GateInterval(axis string, lo, hi float64) (Interval, bool) {
	iv := Interval{Lo: lo, Hi: hi}
	found := false
	for _, g := range p.Gates {
		if g.Axis != axis {
			continue
		}
		found = true
		giv := g.Interval(lo, hi)
		if giv.Lo > iv.Lo {
			iv.Lo = giv.Lo
		}
		if giv.Hi < iv.Hi {
			iv.Hi = giv.Hi
		}
	}
	return iv, found
}

// GatedAxes returns the sorted set of axes that carry at least one gate.
func (p Prototype) GatedAxes() []string {
	seen := make(map[string]struct{}, len(p.Gates))
	for _, g := range p.Gates {
		seen[g.Axis] = struct{}{}
	}
	axes := make([]string, 0, len(seen))
	for axis := range seen {
		axes = append(axes, axis)
	}
	sort.Strings(axes)
	return axes
}

// GatesImply reports whether every context admitted by p's gates is also
// admitted by q's gates, judged per axis over the domain [lo, hi]. An
// axis q gates but p does not leaves p wider, so implication fails unless
// q's band covers the whole domain.
func GatesImply(p, q Prototype, lo, hi float64) bool {
	domain := Interval{Lo: lo, Hi: hi}
	for _, axis := range q.GatedAxes() {
		qiv, _ := q.GateInterval(axis, lo, hi)
		piv, gated := p.GateInterval(axis, lo, hi)
		if !gated {
			piv = domain
		}
		if !piv.Within(qiv) {
			return false
		}
	}
	return true
}
