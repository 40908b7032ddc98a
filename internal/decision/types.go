package decision

import "time"

// Status enumerates the possible verification verdicts.
type Status string

const (
	StatusVerified Status = "verified"
	StatusReview   Status = "review"
	// StatusRejected exists in the result model and in stored/demo data but
	// the live decision path never emits it; see policy.go.
	StatusRejected Status = "rejected"
)

// Canonical signal names, as surfaced in the result vector.
const (
	SignalFaceMatch      = "face_match"
	SignalOCRConsistency = "ocr_consistency"
	SignalLiveness       = "liveness"
	SignalAudioAntispoof = "audio_antispoof"
	SignalAVSync         = "av_sync"
)

// DocumentResult is the raw output of the document/name channel analyzer.
// Optional scores stay nil when the analyzer reported nothing usable; the
// engine substitutes policy defaults, never zero.
type DocumentResult struct {
	Matched       bool
	ExtractedName string
	Confidence    *float64
	Reason        string
	RawText       string
}

// FaceResult is the raw output of the face-match channel analyzer.
type FaceResult struct {
	Matched    bool
	Similarity *float64
	Reason     string
	RawText    string
}

// LivenessResult is the raw output of the liveness-challenge analyzer.
type LivenessResult struct {
	Active             *float64
	Passive            *float64
	ChallengeDirection string
	Explanations       []string
	RawText            string
}

// Composite reduces the active/passive pair to one liveness score. When both
// components are present the lower one wins: a strong head-turn cannot mask a
// weak presentation-attack score. Returns false when neither is present.
func (r *LivenessResult) Composite() (float64, bool) {
	switch {
	case r.Active != nil && r.Passive != nil:
		if *r.Active < *r.Passive {
			return *r.Active, true
		}
		return *r.Passive, true
	case r.Active != nil:
		return *r.Active, true
	case r.Passive != nil:
		return *r.Passive, true
	default:
		return 0, false
	}
}

// VoiceResult is the raw output of the voice/anti-spoof analyzer.
// PhraseMatch is nil when transcription was indeterminate; the engine fails
// open on that single sub-check.
type VoiceResult struct {
	PhraseMatch  *bool
	Transcript   string
	Antispoof    *float64
	AVSync       *float64
	Explanations []string
	RawText      string
}

// ChannelResults is the engine input: one result per verification channel,
// collected by the session controller. The engine reads it as an immutable
// snapshot and never mutates the channel results themselves.
type ChannelResults struct {
	Document *DocumentResult
	Face     *FaceResult
	Liveness *LivenessResult
	Voice    *VoiceResult
}

// Signals is the canonical normalized signal vector, all values in [0,1].
type Signals struct {
	FaceMatch      float64  `json:"face_match"`
	OCRConsistency float64  `json:"ocr_consistency"`
	Liveness       float64  `json:"liveness"`
	AudioAntispoof float64  `json:"audio_antispoof"`
	AVSync         *float64 `json:"av_sync,omitempty"`
}

// VerificationResult is the single output of a completed verification
// attempt. Created exactly once per attempt; never mutated after creation.
// Invariant: Explanations is empty if and only if Status is verified.
type VerificationResult struct {
	Status       Status    `json:"status"`
	Score        float64   `json:"score"`
	Signals      Signals   `json:"signals"`
	Explanations []string  `json:"explanations"`
	ReferenceID  string    `json:"referenceId"`
	DecidedAt    time.Time `json:"decidedAt"`
}
