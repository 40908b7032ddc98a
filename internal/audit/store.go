package audit

import (
	"context"
	"sync"

	"idguardian/pkg/domain"
)

// Store persists audit events. Append-only; events are never updated.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySession(ctx context.Context, sessionID domain.SessionID) ([]Event, error)
}

// InMemoryStore keeps events in memory. It favors clarity over performance
// and backs tests and single-instance deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListBySession(_ context.Context, sessionID domain.SessionID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []Event
	for _, event := range s.events {
		if event.SessionID == sessionID {
			matched = append(matched, event)
		}
	}
	return matched, nil
}
