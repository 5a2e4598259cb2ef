package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeRatingRepo struct {
	snapshots []*rating.Snapshot
}

func (r *fakeRatingRepo) SaveSnapshot(_ context.Context, s *rating.Snapshot) error {
	r.snapshots = append(r.snapshots, s)
	return nil
}

func (r *fakeRatingRepo) GetLatestSnapshot(_ context.Context, _ shared.UserID) (*rating.Snapshot, error) {
	if len(r.snapshots) == 0 {
		return nil, shared.ErrNotFound
	}
	return r.snapshots[len(r.snapshots)-1], nil
}

func (r *fakeRatingRepo) ListSnapshots(_ context.Context, _ shared.UserID, _, _ time.Time) ([]*rating.Snapshot, error) {
	return r.snapshots, nil
}

func (r *fakeRatingRepo) GetLeaderboard(_ context.Context, _, _ int) ([]*rating.LeaderboardEntry, error) {
	return nil, nil
}

func (r *fakeRatingRepo) DeleteOldSnapshots(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

type fakeGitHubClient struct {
	profile *GitHubProfile
	err     error
	calls   int
}

func (c *fakeGitHubClient) GetUser(_ context.Context, login string) (*GitHubProfile, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	p := *c.profile
	p.Login = login
	return &p, nil
}

// githubUser создаёт активного участника с привязанным GitHub-аккаунтом
// и нулевой историей синхронизаций.
func githubUser(t *testing.T, id, login string) *user.User {
	t.Helper()
	u, err := user.NewUser(user.NewUserParams{
		ID:           shared.UserID(id),
		Email:        shared.Email(login + "@example.com"),
		PasswordHash: "hash",
		DisplayName:  login,
		GitHubLogin:  shared.GitHubLogin(login),
	})
	require.NoError(t, err)
	return u
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestSyncGitHubActivityHandler_Handle(t *testing.T) {
	newHandler := func(u *user.User, gh *fakeGitHubClient) (*SyncGitHubActivityHandler, *fakeRatingRepo, *fakeEventBus) {
		ratingRepo := &fakeRatingRepo{}
		bus := &fakeEventBus{}
		h := NewSyncGitHubActivityHandler(newFakeUserRepo(u), ratingRepo, gh, bus, SyncGitHubActivityHandlerConfig{
			MinSyncInterval: 30 * time.Minute,
		})
		return h, ratingRepo, bus
	}

	t.Run("first sync updates counters and records snapshot", func(t *testing.T) {
		u := githubUser(t, idRequester, "octocat")
		gh := &fakeGitHubClient{profile: &GitHubProfile{PublicRepos: 15}}
		handler, ratingRepo, bus := newHandler(u, gh)

		result, err := handler.Handle(context.Background(), SyncGitHubActivityCommand{UserID: idRequester})
		require.NoError(t, err)

		assert.True(t, result.WasUpdated)
		assert.Zero(t, result.OldRepoCount)
		assert.Equal(t, 15, result.NewRepoCount)
		assert.Greater(t, result.NewMMR, result.OldMMR)
		assert.Equal(t, 15, u.Counters.RepositoryCount)
		assert.False(t, u.LastSyncedAt.IsZero())

		require.Len(t, ratingRepo.snapshots, 1)
		assert.Equal(t, rating.SourceGitHubSync, ratingRepo.snapshots[0].Source)
		assert.Equal(t, u.ID, ratingRepo.snapshots[0].UserID)

		require.Len(t, bus.published(shared.EventGitHubSynced), 1)
		require.Len(t, bus.published(shared.EventMMRChanged), 1)
	})

	t.Run("unchanged repo count skips snapshot", func(t *testing.T) {
		u := githubUser(t, idRequester, "octocat")
		u.ApplyGitHubSync(15)
		gh := &fakeGitHubClient{profile: &GitHubProfile{PublicRepos: 15}}
		handler, ratingRepo, bus := newHandler(u, gh)

		result, err := handler.Handle(context.Background(), SyncGitHubActivityCommand{
			UserID:    idRequester,
			ForceSync: true,
		})
		require.NoError(t, err)

		assert.False(t, result.WasUpdated)
		assert.Empty(t, ratingRepo.snapshots)
		require.Len(t, bus.published(shared.EventGitHubSynced), 1)
		assert.Empty(t, bus.published(shared.EventMMRChanged))
	})

	t.Run("recently synced user skipped", func(t *testing.T) {
		u := githubUser(t, idRequester, "octocat")
		u.ApplyGitHubSync(10)
		gh := &fakeGitHubClient{profile: &GitHubProfile{PublicRepos: 20}}
		handler, _, _ := newHandler(u, gh)

		_, err := handler.Handle(context.Background(), SyncGitHubActivityCommand{UserID: idRequester})
		assert.ErrorIs(t, err, ErrSyncedRecently)
		assert.Zero(t, gh.calls)
	})

	t.Run("force sync bypasses interval", func(t *testing.T) {
		u := githubUser(t, idRequester, "octocat")
		u.ApplyGitHubSync(10)
		gh := &fakeGitHubClient{profile: &GitHubProfile{PublicRepos: 20}}
		handler, _, _ := newHandler(u, gh)

		result, err := handler.Handle(context.Background(), SyncGitHubActivityCommand{
			UserID:    idRequester,
			ForceSync: true,
		})
		require.NoError(t, err)
		assert.Equal(t, 20, result.NewRepoCount)
		assert.Equal(t, 1, gh.calls)
	})

	t.Run("user without github link", func(t *testing.T) {
		u := testUser(t, idRequester, "nolink", []string{"go"}, 0)
		handler, _, _ := newHandler(u, &fakeGitHubClient{})

		_, err := handler.Handle(context.Background(), SyncGitHubActivityCommand{UserID: idRequester})
		assert.ErrorIs(t, err, shared.ErrGitHubNotLinked)
	})

	t.Run("github failure is propagated", func(t *testing.T) {
		u := githubUser(t, idRequester, "octocat")
		gh := &fakeGitHubClient{err: errors.New("rate limited")}
		handler, ratingRepo, _ := newHandler(u, gh)

		_, err := handler.Handle(context.Background(), SyncGitHubActivityCommand{UserID: idRequester})
		require.Error(t, err)
		assert.Empty(t, ratingRepo.snapshots)
	})
}
