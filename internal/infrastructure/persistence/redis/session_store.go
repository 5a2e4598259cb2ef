package redis

import (
	"context"
	"errors"
	"time"
)

// Session errors.
var (
	// ErrSessionExpired is returned when the session token is unknown or expired.
	ErrSessionExpired = errors.New("session: not found or expired")

	// ErrSessionTokenEmpty is returned when an empty token is provided.
	ErrSessionTokenEmpty = errors.New("session: token cannot be empty")
)

// Session holds the data stored per authenticated session.
type Session struct {
	// UserID is the authenticated user.
	UserID string `json:"user_id"`

	// CreatedAt is when the session was issued.
	CreatedAt time.Time `json:"created_at"`

	// LastUsedAt is refreshed on every successful lookup.
	LastUsedAt time.Time `json:"last_used_at"`
}

// SessionStore keeps authenticated sessions in Redis with a sliding TTL.
// A session lives as "session:{token}" and expires after TTLSessionData
// of inactivity.
type SessionStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewSessionStore creates a new SessionStore with the default TTL.
func NewSessionStore(cache *Cache) *SessionStore {
	return NewSessionStoreWithTTL(cache, TTLSessionData)
}

// NewSessionStoreWithTTL creates a new SessionStore with a custom TTL.
func NewSessionStoreWithTTL(cache *Cache, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = TTLSessionData
	}
	return &SessionStore{
		cache: cache,
		ttl:   ttl,
	}
}

// Create stores a new session under the given token.
func (s *SessionStore) Create(ctx context.Context, token, userID string) error {
	if token == "" {
		return ErrSessionTokenEmpty
	}

	now := time.Now().UTC()
	session := Session{
		UserID:     userID,
		CreatedAt:  now,
		LastUsedAt: now,
	}

	return s.cache.Set(ctx, SessionKey(token), session, s.ttl)
}

// Get resolves a token to its user ID and slides the TTL forward.
func (s *SessionStore) Get(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrSessionTokenEmpty
	}

	var session Session
	if err := s.cache.Get(ctx, SessionKey(token), &session); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return "", ErrSessionExpired
		}
		return "", err
	}

	// Скользящий TTL: активная сессия не истекает.
	session.LastUsedAt = time.Now().UTC()
	_ = s.cache.Set(ctx, SessionKey(token), session, s.ttl)

	return session.UserID, nil
}

// Delete revokes a session (logout).
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return ErrSessionTokenEmpty
	}
	return s.cache.Delete(ctx, SessionKey(token))
}
