package decision

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type EngineSuite struct {
	suite.Suite
	engine    *Engine
	decidedAt time.Time
}

func (s *EngineSuite) SetupTest() {
	s.engine = NewEngine(DefaultPolicy())
	s.decidedAt = time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func ptr[T any](v T) *T { return &v }

// passingInput returns channel results that clear every threshold.
func passingInput() ChannelResults {
	return ChannelResults{
		Document: &DocumentResult{Matched: true, Confidence: ptr(0.9), ExtractedName: "Jane Doe"},
		Face:     &FaceResult{Matched: true, Similarity: ptr(0.9)},
		Liveness: &LivenessResult{Active: ptr(0.8), Passive: ptr(0.8), ChallengeDirection: "left"},
		Voice:    &VoiceResult{PhraseMatch: ptr(true), Antispoof: ptr(0.75)},
	}
}

// TestAllChecksPass covers scenario: every channel clears its threshold, so
// the verdict is verified, explanations are empty, and the score is the mean
// of the four channel scores.
func (s *EngineSuite) TestAllChecksPass() {
	result, err := s.engine.Decide(passingInput(), s.decidedAt)
	s.Require().NoError(err)

	s.Equal(StatusVerified, result.Status)
	s.Empty(result.Explanations)
	s.InDelta((0.9+0.9+0.8+0.75)/4, result.Score, 1e-9)
	s.InDelta(0.9, result.Signals.FaceMatch, 1e-9)
	s.InDelta(0.9, result.Signals.OCRConsistency, 1e-9)
	s.InDelta(0.8, result.Signals.Liveness, 1e-9)
	s.InDelta(0.75, result.Signals.AudioAntispoof, 1e-9)
}

// TestLivenessBelowThreshold: liveness 0.5 drops below 0.75, forcing review
// with the flat review score and a liveness note, but no face/document
// failure notes.
func (s *EngineSuite) TestLivenessBelowThreshold() {
	input := passingInput()
	input.Liveness = &LivenessResult{Active: ptr(0.5), Passive: ptr(0.5), ChallengeDirection: "up"}

	result, err := s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)

	s.Equal(StatusReview, result.Status)
	s.InDelta(0.68, result.Score, 1e-9)
	s.Contains(result.Explanations, `Liveness score dipped during the "Look up" challenge; manual review recommended.`)
	// Matched channels contribute success notes, not failure notes.
	s.Contains(result.Explanations, faceSuccessNote)
	s.Contains(result.Explanations, docSuccessNote)
	s.NotContains(result.Explanations, faceFallbackReason)
	s.NotContains(result.Explanations, docFallbackReason)
}

// TestDocumentMismatchCarriesReason: the document channel's own reason is
// surfaced alongside a face success note.
func (s *EngineSuite) TestDocumentMismatchCarriesReason() {
	input := passingInput()
	input.Document = &DocumentResult{Matched: false, Reason: "name mismatch"}

	result, err := s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)

	s.Equal(StatusReview, result.Status)
	s.InDelta(0.68, result.Score, 1e-9)
	s.Contains(result.Explanations, "name mismatch")
	s.Contains(result.Explanations, faceSuccessNote)
	// Explanation order is fixed: face note first, then the document reason.
	s.Equal(faceSuccessNote, result.Explanations[0])
	s.Equal("name mismatch", result.Explanations[1])
}

// TestExplicitPhraseMismatchFailsClosed: everything else passes but an
// explicit phrase mismatch forces review.
func (s *EngineSuite) TestExplicitPhraseMismatchFailsClosed() {
	input := passingInput()
	input.Voice.PhraseMatch = ptr(false)

	result, err := s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)

	s.Equal(StatusReview, result.Status)
	s.Contains(result.Explanations, phraseMismatchNote)
}

// TestIndeterminatePhraseFailsOpen: a nil phrase match is the one sub-check
// that passes when indeterminate.
func (s *EngineSuite) TestIndeterminatePhraseFailsOpen() {
	input := passingInput()
	input.Voice.PhraseMatch = nil

	result, err := s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)
	s.Equal(StatusVerified, result.Status)
}

// TestFallbackDefaults: analyzers report matched booleans but no numeric
// scores; the engine substitutes the policy defaults and does not fail.
func (s *EngineSuite) TestFallbackDefaults() {
	input := ChannelResults{
		Document: &DocumentResult{Matched: true},
		Face:     &FaceResult{Matched: true},
		Liveness: &LivenessResult{ChallengeDirection: "right"},
		Voice:    &VoiceResult{PhraseMatch: ptr(true)},
	}

	result, err := s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)

	s.InDelta(0.86, result.Signals.FaceMatch, 1e-9)
	s.InDelta(0.90, result.Signals.OCRConsistency, 1e-9)
	s.InDelta(0.60, result.Signals.Liveness, 1e-9)
	s.InDelta(0.60, result.Signals.AudioAntispoof, 1e-9)
	// Liveness and anti-spoof defaults sit below their thresholds, so the
	// safe outcome for absent evidence is review, never verified.
	s.Equal(StatusReview, result.Status)
}

// TestUnmatchedDefaults verifies the lower fallback scores for unmatched
// channels with no reported numbers.
func (s *EngineSuite) TestUnmatchedDefaults() {
	input := passingInput()
	input.Document = &DocumentResult{Matched: false}
	input.Face = &FaceResult{Matched: false}

	result, err := s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)

	s.InDelta(0.55, result.Signals.FaceMatch, 1e-9)
	s.InDelta(0.60, result.Signals.OCRConsistency, 1e-9)
	s.Equal(StatusReview, result.Status)
}

// TestPercentageScoresNormalized: analyzer scores on a 0-100 scale are read
// as percentages.
func (s *EngineSuite) TestPercentageScoresNormalized() {
	input := passingInput()
	input.Face.Similarity = ptr(92.0)
	input.Document.Confidence = ptr(88.0)
	input.Liveness.Active = ptr(80.0)
	input.Liveness.Passive = ptr(85.0)

	result, err := s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)

	s.InDelta(0.92, result.Signals.FaceMatch, 1e-9)
	s.InDelta(0.88, result.Signals.OCRConsistency, 1e-9)
	s.InDelta(0.80, result.Signals.Liveness, 1e-9)
	s.GreaterOrEqual(result.Score, 0.0)
	s.LessOrEqual(result.Score, 1.0)
}

// TestLivenessComponentNaNFallsBack: a NaN component must not win the min
// comparison; it drops out like any other absent score.
func (s *EngineSuite) TestLivenessComponentNaNFallsBack() {
	input := passingInput()
	input.Liveness.Active = ptr(math.NaN())
	input.Liveness.Passive = ptr(0.82)

	result, err := s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)
	s.InDelta(0.82, result.Signals.Liveness, 1e-9)

	input.Liveness.Passive = ptr(math.NaN())
	result, err = s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)
	s.InDelta(s.engine.policy.LivenessAbsentDefault, result.Signals.Liveness, 1e-9)
}

// TestMissingRequiredChannel: decide before every channel reported is a
// sequencing bug and must fail loudly.
func (s *EngineSuite) TestMissingRequiredChannel() {
	cases := []struct {
		name   string
		mutate func(*ChannelResults)
	}{
		{"document", func(c *ChannelResults) { c.Document = nil }},
		{"face", func(c *ChannelResults) { c.Face = nil }},
		{"liveness", func(c *ChannelResults) { c.Liveness = nil }},
		{"voice", func(c *ChannelResults) { c.Voice = nil }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			input := passingInput()
			tc.mutate(&input)
			_, err := s.engine.Decide(input, s.decidedAt)
			s.Require().Error(err)
			var missing *MissingSignalError
			s.Require().ErrorAs(err, &missing)
			s.Equal(tc.name, missing.Channel)
		})
	}
}

// TestVerifiedIffNoExplanations checks the core invariant across a sweep of
// inputs: status is verified exactly when explanations are empty.
func (s *EngineSuite) TestVerifiedIffNoExplanations() {
	inputs := []ChannelResults{
		passingInput(),
		{
			Document: &DocumentResult{Matched: true},
			Face:     &FaceResult{Matched: false, Reason: "different person"},
			Liveness: &LivenessResult{Active: ptr(0.9)},
			Voice:    &VoiceResult{Antispoof: ptr(0.9)},
		},
		{
			Document: &DocumentResult{Matched: true, Confidence: ptr(0.99)},
			Face:     &FaceResult{Matched: true, Similarity: ptr(0.99)},
			Liveness: &LivenessResult{Active: ptr(0.99), Passive: ptr(0.99)},
			Voice:    &VoiceResult{PhraseMatch: ptr(true), Antispoof: ptr(0.99), Transcript: "blue horizon"},
		},
	}

	for _, input := range inputs {
		result, err := s.engine.Decide(input, s.decidedAt)
		s.Require().NoError(err)
		s.Equal(result.Status == StatusVerified, len(result.Explanations) == 0,
			"status %s with %d explanations", result.Status, len(result.Explanations))
		s.GreaterOrEqual(result.Score, 0.0)
		s.LessOrEqual(result.Score, 1.0)
	}
}

// TestDecideIsIdempotent: identical inputs and timestamp produce
// byte-identical results.
func (s *EngineSuite) TestDecideIsIdempotent() {
	input := passingInput()
	first, err := s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)
	second, err := s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)

	firstJSON, err := json.Marshal(first)
	s.Require().NoError(err)
	secondJSON, err := json.Marshal(second)
	s.Require().NoError(err)
	s.Equal(firstJSON, secondJSON)
}

// TestSignalsRoundTrip: the signal vector survives a JSON round trip with no
// further transformation.
func (s *EngineSuite) TestSignalsRoundTrip() {
	result, err := s.engine.Decide(passingInput(), s.decidedAt)
	s.Require().NoError(err)

	encoded, err := json.Marshal(result.Signals)
	s.Require().NoError(err)
	var decoded Signals
	s.Require().NoError(json.Unmarshal(encoded, &decoded))
	s.Equal(result.Signals, decoded)
}

// TestTranscriptEchoedInReview: a captured transcript is echoed in the
// explanation list when the verdict is review.
func (s *EngineSuite) TestTranscriptEchoedInReview() {
	input := passingInput()
	input.Voice.Transcript = "blue horizon at dawn"
	input.Voice.PhraseMatch = ptr(false)

	result, err := s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)
	s.Contains(result.Explanations, `Heard: "blue horizon at dawn"`)
}

// TestAnalyzerExplanationsAppended: liveness explanations come before audio
// explanations at the tail of the list.
func (s *EngineSuite) TestAnalyzerExplanationsAppended() {
	input := passingInput()
	input.Document = &DocumentResult{Matched: false}
	input.Liveness.Explanations = []string{"head turn hesitated"}
	input.Voice.Explanations = []string{"faint playback artifacts"}

	result, err := s.engine.Decide(input, s.decidedAt)
	s.Require().NoError(err)

	n := len(result.Explanations)
	s.Require().GreaterOrEqual(n, 2)
	s.Equal("head turn hesitated", result.Explanations[n-2])
	s.Equal("faint playback artifacts", result.Explanations[n-1])
}

// TestLivenessComposite verifies the conservative min reduction of the
// active/passive pair.
func TestLivenessComposite(t *testing.T) {
	tests := []struct {
		name    string
		result  LivenessResult
		want    float64
		present bool
	}{
		{"both present takes min", LivenessResult{Active: ptr(0.9), Passive: ptr(0.6)}, 0.6, true},
		{"active only", LivenessResult{Active: ptr(0.8)}, 0.8, true},
		{"passive only", LivenessResult{Passive: ptr(0.7)}, 0.7, true},
		{"neither present", LivenessResult{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.result.Composite()
			if ok != tt.present {
				t.Fatalf("Composite() ok = %v, want %v", ok, tt.present)
			}
			if ok && got != tt.want {
				t.Fatalf("Composite() = %v, want %v", got, tt.want)
			}
		})
	}
}
