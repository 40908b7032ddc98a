// Package ports declares the analyzer interfaces the decision module depends
// on. Concrete analyzers (Gemini-backed or offline) live under
// internal/analyzer and are injected at wiring time.
package ports

import (
	"context"

	"idguardian/internal/decision"
)

// ImageEvidence is one captured image handed to an analyzer.
type ImageEvidence struct {
	Data     []byte
	MIMEType string
}

// AudioEvidence is one captured audio clip handed to an analyzer.
type AudioEvidence struct {
	Data     []byte
	MIMEType string
}

// DocumentAnalyzer checks the name printed on an identity document against
// the expected name. Implementations return a typed result even when the
// provider response was unparseable; they error only on transport failure.
type DocumentAnalyzer interface {
	VerifyDocument(ctx context.Context, document ImageEvidence, expectedName string) (*decision.DocumentResult, error)
}

// FaceAnalyzer compares the document portrait with the live selfie.
type FaceAnalyzer interface {
	MatchFace(ctx context.Context, document, selfie ImageEvidence) (*decision.FaceResult, error)
}

// LivenessAnalyzer assesses a directional liveness challenge from sequential
// frames. Implementations must fail when no frames are provided.
type LivenessAnalyzer interface {
	AssessLiveness(ctx context.Context, frames []ImageEvidence, challengeDirection string) (*decision.LivenessResult, error)
}

// VoiceAnalyzer transcribes the spoken passphrase and scores anti-spoof and
// A/V sync. Implementations must fail when no audio is provided.
type VoiceAnalyzer interface {
	AssessVoice(ctx context.Context, audio AudioEvidence, expectedPhrase string) (*decision.VoiceResult, error)
}

// Analyzers bundles one analyzer per channel for injection.
type Analyzers struct {
	Document DocumentAnalyzer
	Face     FaceAnalyzer
	Liveness LivenessAnalyzer
	Voice    VoiceAnalyzer
}
