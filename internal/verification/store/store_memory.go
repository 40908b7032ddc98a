package store

import (
	"context"
	"sync"

	"idguardian/internal/verification"
	"idguardian/pkg/domain"
	"idguardian/pkg/platform/sentinel"
)

// InMemoryStore keeps results in a mutex-guarded map. Backs tests and
// single-instance deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.SessionID]verification.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.SessionID]verification.Record)}
}

func (s *InMemoryStore) Save(_ context.Context, record verification.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.SessionID]; exists {
		return sentinel.ErrConflict
	}
	s.records[record.SessionID] = record
	return nil
}

func (s *InMemoryStore) FindBySession(_ context.Context, sessionID domain.SessionID) (verification.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[sessionID]
	if !ok {
		return verification.Record{}, sentinel.ErrNotFound
	}
	return record, nil
}
