// Package store persists verification outcomes.
package store

import (
	"context"

	"idguardian/internal/verification"
	"idguardian/pkg/domain"
)

// ResultStore is write-once per session: Save returns sentinel.ErrConflict
// when a result already exists, Find returns sentinel.ErrNotFound when none
// does.
type ResultStore interface {
	Save(ctx context.Context, record verification.Record) error
	FindBySession(ctx context.Context, sessionID domain.SessionID) (verification.Record, error)
}
