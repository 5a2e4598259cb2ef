package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

const tokenBytes = 32

// SessionStore is the token storage contract, implemented by redis.SessionStore.
type SessionStore interface {
	Create(ctx context.Context, token, userID string) error
	Get(ctx context.Context, token string) (userID string, err error)
	Delete(ctx context.Context, token string) error
}

// Hasher verifies passwords, implemented by BcryptHasher.
type Hasher interface {
	Compare(hash, password string) error
}

// Service issues and resolves session tokens.
type Service struct {
	users    user.Repository
	sessions SessionStore
	hasher   Hasher
}

// NewService creates an auth service.
func NewService(users user.Repository, sessions SessionStore, hasher Hasher) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
	}
}

// SignIn verifies credentials and issues a session token.
// Unknown email and wrong password produce the same error,
// so the endpoint does not leak which emails are registered.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.users.GetByEmail(ctx, shared.Email(email).Normalize())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil, shared.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("sign in: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return "", nil, err
	}

	if err := s.sessions.Create(ctx, token, u.ID.String()); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	return token, u, nil
}

// SignOut revokes a session token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a token to a user ID.
// Returns shared.ErrSessionNotFound for unknown or expired tokens.
func (s *Service) Authenticate(ctx context.Context, token string) (shared.UserID, error) {
	userID, err := s.sessions.Get(ctx, token)
	if err != nil {
		return "", shared.ErrSessionNotFound
	}
	return shared.UserID(userID), nil
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
