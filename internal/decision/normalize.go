package decision

import "math"

// Normalize maps a raw analyzer score of unknown scale into [0,1].
// Values above 1 are treated as percentages and divided by 100, then clamped
// to 1. Negative values clamp to 0. NaN and infinities report ok=false so the
// caller can apply a channel-specific default instead of misreading them as
// zero confidence.
func Normalize(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v > 1 {
		return math.Min(v/100, 1), true
	}
	if v < 0 {
		return 0, true
	}
	return v, true
}

// NormalizePtr applies Normalize to an optional score. Nil stays nil, as does
// anything Normalize rejects.
func NormalizePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	n, ok := Normalize(*v)
	if !ok {
		return nil
	}
	return &n
}
