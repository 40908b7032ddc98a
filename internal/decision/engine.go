package decision

import (
	"time"

	"idguardian/internal/decision/metrics"
)

// Fallback explanation text used when a failing channel supplied no reason.
const (
	faceSuccessNote     = "Face matches the document photo."
	faceFallbackReason  = "Face match could not be confirmed."
	docSuccessNote      = "Document name matches the provided identity."
	docFallbackReason   = "Document name could not be verified."
	phraseMismatchNote  = "Spoken phrase did not match the prompt."
	lowAntispoofPrefix  = "Audio anti-spoof confidence is low"
	lowLivenessTemplate = "Liveness score dipped during the %q challenge; manual review recommended."
)

// Engine reduces per-channel analyzer results to a single verification
// verdict, aggregate score, and ordered explanation list. It performs no I/O
// and is total over its input domain apart from missing required channels.
type Engine struct {
	policy  Policy
	metrics *metrics.Metrics
}

// Option configures the Engine.
type Option func(*Engine)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine constructs an engine with the given policy. The goal is to keep
// the aggregation rules centralized and testable.
func NewEngine(policy Policy, opts ...Option) *Engine {
	e := &Engine{policy: policy}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decide reduces the collected channel results to a VerificationResult.
//
// All four channels are required under the full policy; a missing one returns
// MissingSignalError. Everything else degrades through fallback defaults, so
// Decide never fails on malformed-but-present analyzer output.
//
// decidedAt anchors the reference ID and result timestamp; callers pass the
// request-scoped time so retried encodes stay byte-identical.
func (e *Engine) Decide(input ChannelResults, decidedAt time.Time) (*VerificationResult, error) {
	start := time.Now()
	if err := e.requireChannels(input); err != nil {
		return nil, err
	}

	faceScore := e.policy.faceScore(input.Face)
	docScore := e.policy.documentScore(input.Document)
	livenessScore := e.policy.livenessScore(input.Liveness)
	antispoofScore := e.policy.antispoofScore(input.Voice)

	// The phrase sub-check fails open: transcription is best-effort, so only
	// an explicit mismatch blocks the verified verdict.
	phraseFailed := input.Voice.PhraseMatch != nil && !*input.Voice.PhraseMatch

	allChecksPassed := input.Document.Matched &&
		input.Face.Matched &&
		livenessScore >= e.policy.LivenessThreshold &&
		antispoofScore >= e.policy.AntispoofThreshold &&
		!phraseFailed

	result := &VerificationResult{
		Signals: Signals{
			FaceMatch:      faceScore,
			OCRConsistency: docScore,
			Liveness:       livenessScore,
			AudioAntispoof: antispoofScore,
			AVSync:         NormalizePtr(input.Voice.AVSync),
		},
		Explanations: []string{},
		ReferenceID:  ReferenceID(decidedAt),
		DecidedAt:    decidedAt,
	}

	if allChecksPassed {
		result.Status = StatusVerified
		result.Score = (faceScore + docScore + livenessScore + antispoofScore) / 4
	} else {
		result.Status = StatusReview
		result.Score = e.policy.ReviewScore
		result.Explanations = e.buildExplanations(input, livenessScore, antispoofScore, phraseFailed)
	}

	if e.metrics != nil {
		e.metrics.IncrementOutcome(string(result.Status))
		e.metrics.ObserveDecideLatency(time.Since(start))
	}
	return result, nil
}

func (e *Engine) requireChannels(input ChannelResults) error {
	switch {
	case input.Document == nil:
		return &MissingSignalError{Channel: "document"}
	case input.Face == nil:
		return &MissingSignalError{Channel: "face"}
	case input.Liveness == nil:
		return &MissingSignalError{Channel: "liveness"}
	case input.Voice == nil:
		return &MissingSignalError{Channel: "voice"}
	}
	return nil
}
