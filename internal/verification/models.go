// Package verification orchestrates a verification attempt: it gathers the
// four channel analyses in parallel, feeds the decision engine, and persists
// the outcome.
package verification

import (
	"time"

	"idguardian/internal/decision"
	"idguardian/pkg/domain"
)

// Record is one persisted verification outcome. Created exactly once per
// session; never mutated.
type Record struct {
	SessionID domain.SessionID            `json:"sessionId"`
	Attempt   int                         `json:"attempt"`
	Result    decision.VerificationResult `json:"result"`
	CreatedAt time.Time                   `json:"createdAt"`
}
