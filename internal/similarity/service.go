// Package similarity answers "which emotions pull this axis the same way"
// queries for the conflict analyzer's replacement suggestions.
package similarity

// Emotion names a prototype whose weight on the queried axis has the
// requested sign, along with that weight.
type Emotion struct {
	EmotionName string  `json:"emotionName"`
	AxisWeight  float64 `json:"axisWeight"`
}

// Service is the lookup capability the conflict analyzer consumes. A nil
// Service is a valid configuration; consumers then fall back to generic
// suggestions.
type Service interface {
	// FindEmotionsWithCompatibleAxisSign returns emotion prototypes whose
	// weight on axis matches sign: positive weights for sign > 0, negative
	// for sign < 0. sign == 0 matches nothing.
	FindEmotionsWithCompatibleAxisSign(axis string, sign int) []Emotion
}
