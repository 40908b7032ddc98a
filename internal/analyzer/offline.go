package analyzer

import (
	"context"
	"time"

	"idguardian/internal/decision"
	"idguardian/internal/decision/ports"
)

// offlineNotice marks results produced without a live model call.
const offlineNotice = "Offline analyzer: set GEMINI_API_KEY for live responses."

// Offline returns deterministic, always-passing results with a configurable
// latency, so the full wizard runs end to end without an API key. Every
// result carries a notice so downstream consumers can tell mock from live.
type Offline struct {
	Latency time.Duration
}

// Analyzers bundles the offline client as one analyzer per channel.
func (o Offline) Analyzers() ports.Analyzers {
	return ports.Analyzers{Document: o, Face: o, Liveness: o, Voice: o}
}

func ptr[T any](v T) *T { return &v }

func (o Offline) VerifyDocument(_ context.Context, _ ports.ImageEvidence, expectedName string) (*decision.DocumentResult, error) {
	time.Sleep(o.Latency)
	return &decision.DocumentResult{
		Matched:       true,
		ExtractedName: expectedName,
		Confidence:    ptr(0.88),
		Reason:        offlineNotice,
	}, nil
}

func (o Offline) MatchFace(_ context.Context, _, _ ports.ImageEvidence) (*decision.FaceResult, error) {
	time.Sleep(o.Latency)
	return &decision.FaceResult{
		Matched:    true,
		Similarity: ptr(0.84),
		Reason:     offlineNotice,
	}, nil
}

func (o Offline) AssessLiveness(_ context.Context, frames []ports.ImageEvidence, challengeDirection string) (*decision.LivenessResult, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	time.Sleep(o.Latency)
	return &decision.LivenessResult{
		Active:             ptr(0.82),
		Passive:            ptr(0.78),
		ChallengeDirection: challengeDirection,
		Explanations:       []string{offlineNotice},
	}, nil
}

func (o Offline) AssessVoice(_ context.Context, audio ports.AudioEvidence, expectedPhrase string) (*decision.VoiceResult, error) {
	if len(audio.Data) == 0 {
		return nil, ErrNoAudio
	}
	time.Sleep(o.Latency)
	return &decision.VoiceResult{
		PhraseMatch:  ptr(true),
		Transcript:   expectedPhrase,
		Antispoof:    ptr(0.82),
		AVSync:       ptr(0.80),
		Explanations: []string{offlineNotice},
	}, nil
}
