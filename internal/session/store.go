package session

import (
	"context"

	"idguardian/pkg/domain"
)

// Store persists wizard sessions for the duration of their TTL.
//
// Implementations return sentinel.ErrNotFound for missing sessions,
// sentinel.ErrExpired for sessions past their TTL (where the backend can
// still tell the difference), and sentinel.ErrConflict for duplicate
// creates. The service translates sentinels into domain errors.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id domain.SessionID) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id domain.SessionID) error
}
