package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/axiom-hq/axiom-hub/internal/domain/matching"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	users map[shared.UserID]*user.User
}

func (r *fakeUserRepo) Save(_ context.Context, u *user.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id shared.UserID) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email shared.Email) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeUserRepo) GetByGitHubLogin(_ context.Context, _ shared.GitHubLogin) (*user.User, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeUserRepo) ListActive(_ context.Context, _, _ int) ([]*user.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) ListForSync(_ context.Context, _ time.Time, _ int) ([]*user.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) FetchCandidatePool(_ context.Context, _ matching.PoolFilters) ([]matching.CandidateProfile, error) {
	return nil, nil
}

func (r *fakeUserRepo) UpdatePresence(_ context.Context, _ shared.UserID, _ shared.OnlineState, _ time.Time) error {
	return nil
}

func (r *fakeUserRepo) CountByStatus(_ context.Context) (map[user.Status]int, error) {
	return nil, nil
}

type fakeSessionStore struct {
	sessions map[string]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]string)}
}

func (s *fakeSessionStore) Create(_ context.Context, token, userID string) error {
	s.sessions[token] = userID
	return nil
}

func (s *fakeSessionStore) Get(_ context.Context, token string) (string, error) {
	userID, ok := s.sessions[token]
	if !ok {
		return "", shared.ErrNotFound
	}
	return userID, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

const idAlice = "00000000-0000-4000-8000-000000000001"

func newTestService(t *testing.T) (*Service, *fakeSessionStore) {
	t.Helper()
	hasher := NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)

	alice, err := user.NewUser(user.NewUserParams{
		ID:           shared.UserID(idAlice),
		Email:        shared.Email("Alice@Example.com"),
		PasswordHash: hash,
		DisplayName:  "Alice",
	})
	require.NoError(t, err)

	store := newFakeSessionStore()
	repo := &fakeUserRepo{users: map[shared.UserID]*user.User{alice.ID: alice}}
	return NewService(repo, store, hasher), store
}

func TestService_SignIn(t *testing.T) {
	t.Run("issues opaque token", func(t *testing.T) {
		svc, store := newTestService(t)

		token, u, err := svc.SignIn(context.Background(), "alice@example.com", "correct-horse")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, idAlice, u.ID.String())

		// 32 случайных байта в hex.
		assert.Len(t, token, 64)
		assert.Equal(t, idAlice, store.sessions[token])
	})

	t.Run("email is case-insensitive", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, _, err := svc.SignIn(context.Background(), "ALICE@EXAMPLE.COM", "correct-horse")
		assert.NoError(t, err)
	})

	t.Run("unknown email and wrong password look identical", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, _, errUnknown := svc.SignIn(context.Background(), "nobody@example.com", "correct-horse")
		_, _, errWrong := svc.SignIn(context.Background(), "alice@example.com", "wrong")

		assert.ErrorIs(t, errUnknown, shared.ErrInvalidCredentials)
		assert.ErrorIs(t, errWrong, shared.ErrInvalidCredentials)
	})
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := newTestService(t)

	token, _, err := svc.SignIn(context.Background(), "alice@example.com", "correct-horse")
	require.NoError(t, err)

	t.Run("resolves issued token", func(t *testing.T) {
		userID, err := svc.Authenticate(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, shared.UserID(idAlice), userID)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "deadbeef")
		assert.ErrorIs(t, err, shared.ErrSessionNotFound)
	})

	t.Run("sign out revokes token", func(t *testing.T) {
		require.NoError(t, svc.SignOut(context.Background(), token))

		_, err := svc.Authenticate(context.Background(), token)
		assert.ErrorIs(t, err, shared.ErrSessionNotFound)
	})
}
