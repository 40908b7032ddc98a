package decision

// Policy holds the thresholds and fallback defaults that gate the verified
// verdict. It is configuration, not derived data: operators can override any
// value through the environment without code changes.
//
// The fallback defaults apply when an analyzer reported a boolean outcome but
// no usable numeric score. An absent score is not zero confidence, so each
// channel substitutes a calibrated default instead.
type Policy struct {
	// LivenessThreshold is the minimum composite liveness score for a pass.
	LivenessThreshold float64

	// AntispoofThreshold is the minimum audio anti-spoof score for a pass.
	AntispoofThreshold float64

	// ReviewScore is the flat aggregate score reported whenever any check
	// fails. Once a check fails the numeric average of the remaining signals
	// would imply false precision, so every review verdict carries the same
	// score.
	ReviewScore float64

	// Fallback defaults by channel and boolean outcome.
	FaceMatchedDefault     float64
	FaceUnmatchedDefault   float64
	DocMatchedDefault      float64
	DocUnmatchedDefault    float64
	LivenessAbsentDefault  float64
	AntispoofAbsentDefault float64
}

// DefaultPolicy returns the production policy values.
func DefaultPolicy() Policy {
	return Policy{
		LivenessThreshold:      0.75,
		AntispoofThreshold:     0.70,
		ReviewScore:            0.68,
		FaceMatchedDefault:     0.86,
		FaceUnmatchedDefault:   0.55,
		DocMatchedDefault:      0.90,
		DocUnmatchedDefault:    0.60,
		LivenessAbsentDefault:  0.60,
		AntispoofAbsentDefault: 0.60,
	}
}

// faceScore resolves the face channel score, applying fallback defaults.
func (p Policy) faceScore(r *FaceResult) float64 {
	if s := NormalizePtr(r.Similarity); s != nil {
		return *s
	}
	if r.Matched {
		return p.FaceMatchedDefault
	}
	return p.FaceUnmatchedDefault
}

// documentScore resolves the document/OCR channel score.
func (p Policy) documentScore(r *DocumentResult) float64 {
	if s := NormalizePtr(r.Confidence); s != nil {
		return *s
	}
	if r.Matched {
		return p.DocMatchedDefault
	}
	return p.DocUnmatchedDefault
}

// livenessScore resolves the composite liveness score. Each component is
// normalized before the min so a percentage-scale value cannot skew the
// comparison; a component that normalizes to absent drops out.
func (p Policy) livenessScore(r *LivenessResult) float64 {
	if r != nil {
		normalized := LivenessResult{
			Active:  NormalizePtr(r.Active),
			Passive: NormalizePtr(r.Passive),
		}
		if s, ok := normalized.Composite(); ok {
			return s
		}
	}
	return p.LivenessAbsentDefault
}

// antispoofScore resolves the audio anti-spoof score.
func (p Policy) antispoofScore(r *VoiceResult) float64 {
	if r != nil {
		if s := NormalizePtr(r.Antispoof); s != nil {
			return *s
		}
	}
	return p.AntispoofAbsentDefault
}
