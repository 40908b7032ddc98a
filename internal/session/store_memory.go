package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"idguardian/pkg/domain"
	"idguardian/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in a mutex-guarded map. Expired entries are
// reaped lazily on access. Favors clarity over performance; production
// deployments use the Redis store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*Session
	now      func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[domain.SessionID]*Session),
		now:      time.Now,
	}
}

// clone deep-copies via JSON so callers never share the stored instance.
func clone(s *Session) (*Session, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var copied Session
	if err := json.Unmarshal(raw, &copied); err != nil {
		return nil, err
	}
	return &copied, nil
}

func (m *InMemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.ID]; exists {
		return sentinel.ErrConflict
	}
	copied, err := clone(s)
	if err != nil {
		return err
	}
	m.sessions[s.ID] = copied
	return nil
}

func (m *InMemoryStore) Get(_ context.Context, id domain.SessionID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if stored.Expired(m.now()) {
		delete(m.sessions, id)
		return nil, sentinel.ErrExpired
	}
	return clone(stored)
}

func (m *InMemoryStore) Update(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[s.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Expired(m.now()) {
		delete(m.sessions, s.ID)
		return sentinel.ErrExpired
	}
	copied, err := clone(s)
	if err != nil {
		return err
	}
	m.sessions[s.ID] = copied
	return nil
}

func (m *InMemoryStore) Delete(_ context.Context, id domain.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
