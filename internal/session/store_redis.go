package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"idguardian/pkg/domain"
	"idguardian/pkg/platform/sentinel"
)

// Redis key prefix for wizard sessions.
const sessionKeyPrefix = "idg:session:"

// RedisStore is the distributed session store. Sessions are stored as JSON
// values whose key TTL tracks the session expiry, so Redis reaps expired
// sessions on its own; an expired session is indistinguishable from a
// missing one and surfaces as ErrNotFound.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(id domain.SessionID) string {
	return sessionKeyPrefix + id.String()
}

func (r *RedisStore) encode(s *Session) (string, time.Duration, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", 0, fmt.Errorf("encoding session: %w", err)
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return "", 0, sentinel.ErrExpired
	}
	return string(raw), ttl, nil
}

// Create stores a new session; SETNX guards against duplicate IDs.
func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	value, ttl, err := r.encode(s)
	if err != nil {
		return err
	}
	created, err := r.client.SetNX(ctx, sessionKey(s.ID), value, ttl).Result()
	if err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	if !created {
		return sentinel.ErrConflict
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id domain.SessionID) (*Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &s, nil
}

// Update rewrites an existing session; SETXX refuses to resurrect a session
// Redis already expired.
func (r *RedisStore) Update(ctx context.Context, s *Session) error {
	value, ttl, err := r.encode(s)
	if err != nil {
		return err
	}
	updated, err := r.client.SetXX(ctx, sessionKey(s.ID), value, ttl).Result()
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if !updated {
		return sentinel.ErrNotFound
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id domain.SessionID) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
