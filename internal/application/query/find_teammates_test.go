package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[shared.UserID]*user.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
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

func (r *fakeUserRepo) GetByGitHubLogin(_ context.Context, login shared.GitHubLogin) (*user.User, error) {
	for _, u := range r.users {
		if u.GitHubLogin == login {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeUserRepo) ListActive(_ context.Context, _, _ int) ([]*user.User, error) {
	out := make([]*user.User, 0, len(r.users))
	for _, u := range r.users {
		if u.Status == user.StatusActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListForSync(_ context.Context, _ time.Time, _ int) ([]*user.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) FetchCandidatePool(_ context.Context, _ matching.PoolFilters) ([]matching.CandidateProfile, error) {
	out := make([]matching.CandidateProfile, 0, len(r.users))
	for _, u := range r.users {
		if u.CanBeMatched() {
			out = append(out, u.ToCandidateProfile())
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdatePresence(_ context.Context, _ shared.UserID, _ shared.OnlineState, _ time.Time) error {
	return nil
}

func (r *fakeUserRepo) CountByStatus(_ context.Context) (map[user.Status]int, error) {
	return nil, nil
}

type fakePresence struct {
	states map[shared.UserID]shared.OnlineState
}

func (p *fakePresence) GetState(_ context.Context, id shared.UserID) (shared.OnlineState, error) {
	return p.states[id], nil
}

func (p *fakePresence) GetStates(_ context.Context, ids []shared.UserID) (map[shared.UserID]shared.OnlineState, error) {
	return p.states, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func testUser(t *testing.T, id, name string, skills []string, repos int) *user.User {
	t.Helper()
	u, err := user.NewUser(user.NewUserParams{
		ID:           shared.UserID(id),
		Email:        shared.Email(name + "@example.com"),
		PasswordHash: "hash",
		DisplayName:  name,
		Skills:       shared.NormalizeSkills(skills),
	})
	require.NoError(t, err)
	u.ApplyGitHubSync(repos)
	return u
}

const (
	idRequester = "00000000-0000-4000-8000-000000000001"
	idGoDev     = "00000000-0000-4000-8000-000000000002"
	idPyDev     = "00000000-0000-4000-8000-000000000003"
	idInactive  = "00000000-0000-4000-8000-000000000004"
)

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestFindTeammatesHandler_Handle(t *testing.T) {
	requester := testUser(t, idRequester, "requester", []string{"go", "postgresql"}, 10)
	goDev := testUser(t, idGoDev, "godev", []string{"go", "docker"}, 12)
	pyDev := testUser(t, idPyDev, "pydev", []string{"python"}, 8)
	inactive := testUser(t, idInactive, "ghost", []string{"go"}, 10)
	inactive.Deactivate()

	repo := newFakeUserRepo(requester, goDev, pyDev, inactive)
	presence := &fakePresence{states: map[shared.UserID]shared.OnlineState{
		goDev.ID: shared.OnlineStateOnline,
		pyDev.ID: shared.OnlineStateOffline,
	}}
	handler := NewFindTeammatesHandler(repo, presence)

	t.Run("skill filter ranks matching candidate first", func(t *testing.T) {
		result, err := handler.Handle(context.Background(), FindTeammatesQuery{
			RequesterID:      idRequester,
			Skills:           []string{"go"},
			MinCompatibility: 1,
		})
		require.NoError(t, err)
		require.NotEmpty(t, result.Teammates)

		assert.Equal(t, idGoDev, result.Teammates[0].UserID)
		assert.Contains(t, result.Teammates[0].SkillMatches, "go")
		assert.Greater(t, result.Teammates[0].Score, result.Teammates[len(result.Teammates)-1].Score-1)
	})

	t.Run("requester excluded from results", func(t *testing.T) {
		result, err := handler.Handle(context.Background(), FindTeammatesQuery{
			RequesterID:      idRequester,
			MinCompatibility: 1,
		})
		require.NoError(t, err)
		for _, tm := range result.Teammates {
			assert.NotEqual(t, idRequester, tm.UserID)
		}
	})

	t.Run("inactive users not in pool", func(t *testing.T) {
		result, err := handler.Handle(context.Background(), FindTeammatesQuery{
			RequesterID:      idRequester,
			MinCompatibility: 1,
		})
		require.NoError(t, err)
		for _, tm := range result.Teammates {
			assert.NotEqual(t, idInactive, tm.UserID)
		}
	})

	t.Run("online only", func(t *testing.T) {
		result, err := handler.Handle(context.Background(), FindTeammatesQuery{
			RequesterID:      idRequester,
			OnlineOnly:       true,
			MinCompatibility: 1,
		})
		require.NoError(t, err)
		require.Len(t, result.Teammates, 1)
		assert.Equal(t, idGoDev, result.Teammates[0].UserID)
		assert.Equal(t, "online", result.Teammates[0].OnlineState)
	})

	t.Run("limit respected", func(t *testing.T) {
		result, err := handler.Handle(context.Background(), FindTeammatesQuery{
			RequesterID:      idRequester,
			Limit:            1,
			MinCompatibility: 1,
		})
		require.NoError(t, err)
		assert.Len(t, result.Teammates, 1)
	})

	t.Run("unknown requester", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), FindTeammatesQuery{
			RequesterID: "00000000-0000-4000-8000-00000000ffff",
		})
		assert.ErrorIs(t, err, shared.ErrUserNotFound)
	})

	t.Run("invalid query", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), FindTeammatesQuery{RequesterID: "nope"})
		assert.ErrorIs(t, err, shared.ErrRequesterMissing)

		_, err = handler.Handle(context.Background(), FindTeammatesQuery{
			RequesterID: idRequester,
			RatingMin:   2000,
			RatingMax:   1000,
		})
		assert.ErrorIs(t, err, shared.ErrInvalidSearchFilters)
	})
}
