// Package session owns the verification wizard session: the step state
// machine, captured media references, and the challenge material handed to
// the analyzers.
package session

import (
	"time"

	"idguardian/internal/media"
	"idguardian/pkg/domain"
)

// Step is the wizard position. Transitions are linear with controlled
// backward navigation; see Service.
type Step string

const (
	StepWelcome   Step = "welcome"
	StepName      Step = "name"
	StepDocument  Step = "document"
	StepSelfie    Step = "selfie"
	StepLiveness  Step = "liveness"
	StepAudio     Step = "audio"
	StepVerifying Step = "verifying"
	StepResults   Step = "results"
	StepError     Step = "error"
)

var stepOrder = map[Step]int{
	StepWelcome:   0,
	StepName:      1,
	StepDocument:  2,
	StepSelfie:    3,
	StepLiveness:  4,
	StepAudio:     5,
	StepVerifying: 6,
	StepResults:   7,
	StepError:     7, // terminal alongside results
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	_, ok := stepOrder[s]
	return ok
}

// Before reports whether s comes strictly before other in the wizard flow.
func (s Step) Before(other Step) bool {
	return stepOrder[s] < stepOrder[other]
}

// Terminal reports whether the wizard can no longer move forward from s.
func (s Step) Terminal() bool {
	return s == StepResults || s == StepError
}

// captureSteps are the steps a user may navigate back to for a retake.
var captureSteps = map[Step]bool{
	StepDocument: true,
	StepSelfie:   true,
	StepLiveness: true,
	StepAudio:    true,
}

// MediaRef points at one stored artifact for the session.
type MediaRef struct {
	Path       string    `json:"path"`
	MIMEType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Session is one wizard run. Attempt increments on every backward
// navigation; analyzer work started under an older attempt must be discarded
// when it completes.
type Session struct {
	ID                 domain.SessionID            `json:"id"`
	Step               Step                        `json:"step"`
	FullName           string                      `json:"fullName,omitempty"`
	ExpectedPhrase     string                      `json:"expectedPhrase"`
	ChallengeDirection string                      `json:"challengeDirection"`
	Attempt            int                         `json:"attempt"`
	Media              map[media.Kind]MediaRef     `json:"media"`
	CreatedAt          time.Time                   `json:"createdAt"`
	UpdatedAt          time.Time                   `json:"updatedAt"`
	ExpiresAt          time.Time                   `json:"expiresAt"`
}

// HasMedia reports whether the session holds an artifact of the given kind.
func (s *Session) HasMedia(kind media.Kind) bool {
	_, ok := s.Media[kind]
	return ok
}

// MediaComplete reports whether the minimum capture set is present: document
// front, selfie, and the A/V clip. Document back and the dedicated phrase
// recording are optional; when phrase audio is absent the voice channel falls
// back to the A/V clip's audio track.
func (s *Session) MediaComplete() bool {
	return s.HasMedia(media.KindDocFront) &&
		s.HasMedia(media.KindSelfie) &&
		s.HasMedia(media.KindAVClip)
}

// Expired reports whether the session passed its TTL at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
