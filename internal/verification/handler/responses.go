package handler

import (
	"time"

	"idguardian/internal/decision"
	"idguardian/internal/session"
)

// MediaResponse describes one uploaded capture. The storage path stays
// server-side.
type MediaResponse struct {
	MIMEType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// SessionResponse is the HTTP representation of a wizard session.
type SessionResponse struct {
	ID                 string                   `json:"id"`
	Step               string                   `json:"step"`
	FullName           string                   `json:"fullName,omitempty"`
	ExpectedPhrase     string                   `json:"expectedPhrase"`
	ChallengeDirection string                   `json:"challengeDirection"`
	Attempt            int                      `json:"attempt"`
	Media              map[string]MediaResponse `json:"media"`
	CreatedAt          time.Time                `json:"createdAt"`
	ExpiresAt          time.Time                `json:"expiresAt"`
}

// CreateSessionResponse is the HTTP response for POST /sessions. The token
// authorizes every later call for this session.
type CreateSessionResponse struct {
	Session SessionResponse `json:"session"`
	Token   string          `json:"token"`
}

// SignalsResponse is the normalized signal vector portion of the result.
type SignalsResponse struct {
	FaceMatch      float64  `json:"face_match"`
	OCRConsistency float64  `json:"ocr_consistency"`
	Liveness       float64  `json:"liveness"`
	AudioAntispoof float64  `json:"audio_antispoof"`
	AVSync         *float64 `json:"av_sync,omitempty"`
}

// ResultResponse is the HTTP response for a verification decision.
type ResultResponse struct {
	Status       string          `json:"status"`
	Score        float64         `json:"score"`
	Signals      SignalsResponse `json:"signals"`
	Explanations []string        `json:"explanations"`
	ReferenceID  string          `json:"referenceId"`
	DecidedAt    time.Time       `json:"decidedAt"`
}

// FromSession converts a domain session to an HTTP response.
func FromSession(sess *session.Session) SessionResponse {
	mediaItems := make(map[string]MediaResponse, len(sess.Media))
	for kind, ref := range sess.Media {
		mediaItems[string(kind)] = MediaResponse{
			MIMEType:   ref.MIMEType,
			Size:       ref.Size,
			UploadedAt: ref.UploadedAt,
		}
	}
	return SessionResponse{
		ID:                 sess.ID.String(),
		Step:               string(sess.Step),
		FullName:           sess.FullName,
		ExpectedPhrase:     sess.ExpectedPhrase,
		ChallengeDirection: sess.ChallengeDirection,
		Attempt:            sess.Attempt,
		Media:              mediaItems,
		CreatedAt:          sess.CreatedAt,
		ExpiresAt:          sess.ExpiresAt,
	}
}

// FromResult converts a domain verification result to an HTTP response.
func FromResult(result *decision.VerificationResult) ResultResponse {
	return ResultResponse{
		Status: string(result.Status),
		Score:  result.Score,
		Signals: SignalsResponse{
			FaceMatch:      result.Signals.FaceMatch,
			OCRConsistency: result.Signals.OCRConsistency,
			Liveness:       result.Signals.Liveness,
			AudioAntispoof: result.Signals.AudioAntispoof,
			AVSync:         result.Signals.AVSync,
		},
		Explanations: result.Explanations,
		ReferenceID:  result.ReferenceID,
		DecidedAt:    result.DecidedAt,
	}
}
