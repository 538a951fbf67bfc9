package similarity

import (
	"math"
	"sort"

	"exprdiag/internal/prototype"
)

// RegistryIndex implements Service over a prototype registry. Queries scan
// the emotion family on demand; the registry is the source of truth, so no
// cache invalidation is needed.
type RegistryIndex struct {
	reg prototype.Registry
}

// NewRegistryIndex builds an index over reg. reg must be non-nil.
func NewRegistryIndex(reg prototype.Registry) *RegistryIndex {
	return &RegistryIndex{reg: reg}
}

// FindEmotionsWithCompatibleAxisSign returns emotion prototypes whose
// weight on axis has the requested sign, strongest pull first.
func (x *RegistryIndex) FindEmotionsWithCompatibleAxisSign(axis string, sign int) []Emotion {
	if sign == 0 {
		return nil
	}
	var out []Emotion
	for _, p := range x.reg.ByFamily(prototype.FamilyEmotion) {
		w, ok := p.Weights[axis]
		if !ok {
			continue
		}
		if (sign > 0 && w > 0) || (sign < 0 && w < 0) {
			out = append(out, Emotion{EmotionName: p.ID, AxisWeight: w})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].AxisWeight), math.Abs(out[j].AxisWeight)
		if ai != aj {
			return ai > aj
		}
		return out[i].EmotionName < out[j].EmotionName
	})
	return out
}
