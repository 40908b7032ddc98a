// Package audit records the verification trail: one event per notable action
// in a session's life. Events are append-only and transport-agnostic so
// stores and sinks can fan out.
package audit

import (
	"time"

	"github.com/google/uuid"

	"idguardian/pkg/domain"
)

// Action names the audited operation.
type Action string

const (
	ActionSessionCreated      Action = "session_created"
	ActionMediaUploaded       Action = "media_uploaded"
	ActionMediaCompleted      Action = "media_completed"
	ActionVerificationDecided Action = "verification_decided"
	ActionAnalyzerFailed      Action = "analyzer_failed"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	ID        uuid.UUID        `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	SessionID domain.SessionID `json:"sessionId"`
	Action    Action           `json:"action"`
	// Subject narrows the action: a media kind for uploads, an analyzer
	// channel for failures, a verdict status for decisions.
	Subject string `json:"subject,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
