package saga

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiom-hq/axiom-hub/internal/application/command"
	"github.com/axiom-hq/axiom-hub/internal/domain/matching"
	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	users map[shared.UserID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[shared.UserID]*user.User)}
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

type fakeRatingRepo struct {
	snapshots []*rating.Snapshot

	saveErr error
}

func (r *fakeRatingRepo) SaveSnapshot(_ context.Context, s *rating.Snapshot) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.snapshots = append(r.snapshots, s)
	return nil
}

func (r *fakeRatingRepo) GetLatestSnapshot(_ context.Context, _ shared.UserID) (*rating.Snapshot, error) {
	return nil, shared.ErrNotFound
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
	profile *command.GitHubProfile
	err     error
}

func (c *fakeGitHubClient) GetUser(_ context.Context, login string) (*command.GitHubProfile, error) {
	if c.err != nil {
		return nil, c.err
	}
	p := *c.profile
	p.Login = login
	return &p, nil
}

type fakeWelcome struct {
	sent []shared.UserID
	err  error
}

func (w *fakeWelcome) SendWelcome(_ context.Context, recipientID shared.UserID, _ string) (notification.NotificationID, error) {
	if w.err != nil {
		return "", w.err
	}
	w.sent = append(w.sent, recipientID)
	return notification.NotificationID("welcome-" + recipientID.String()), nil
}

type fakeEventBus struct {
	mu     sync.Mutex
	events []shared.Event
}

func (b *fakeEventBus) Publish(event shared.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

type uuidGenerator struct{}

func (uuidGenerator) GenerateID() string { return uuid.NewString() }

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

type sagaFixture struct {
	saga       *OnboardingSaga
	userRepo   *fakeUserRepo
	ratingRepo *fakeRatingRepo
	welcome    *fakeWelcome
	bus        *fakeEventBus
}

func newFixture(github command.GitHubClient) *sagaFixture {
	f := &sagaFixture{
		userRepo:   newFakeUserRepo(),
		ratingRepo: &fakeRatingRepo{},
		welcome:    &fakeWelcome{},
		bus:        &fakeEventBus{},
	}
	f.saga = NewOnboardingSaga(
		f.userRepo,
		f.ratingRepo,
		github,
		f.welcome,
		f.bus,
		uuidGenerator{},
		OnboardingSagaConfig{BcryptCost: 4, GitHubTimeout: time.Second},
	)
	return f
}

func validInput() OnboardingInput {
	return OnboardingInput{
		Email:       "alice@example.com",
		Password:    "correct-horse",
		DisplayName: "Alice",
		GitHubLogin: "alice-codes",
		Skills:      []string{"Go", "PostgreSQL"},
		Roles:       []string{"backend"},
	}
}

func TestOnboardingSaga_Execute(t *testing.T) {
	t.Run("full flow with github profile", func(t *testing.T) {
		f := newFixture(&fakeGitHubClient{profile: &command.GitHubProfile{PublicRepos: 12}})

		result, err := f.saga.Execute(context.Background(), validInput())
		require.NoError(t, err)
		require.NotNil(t, result.User)

		// Привязанный GitHub даёт ненулевой рейтинг с первой минуты.
		assert.Greater(t, result.InitialMMR, 0)
		assert.NotEmpty(t, result.TierName)
		assert.Equal(t, 12, result.User.Counters.RepositoryCount)

		saved, err := f.userRepo.GetByID(context.Background(), result.User.ID)
		require.NoError(t, err)
		assert.Equal(t, user.StatusActive, saved.Status)
		assert.NotEqual(t, "correct-horse", saved.PasswordHash)

		require.Len(t, f.ratingRepo.snapshots, 1)
		assert.Equal(t, result.User.ID, f.ratingRepo.snapshots[0].UserID)

		assert.Equal(t, []shared.UserID{result.User.ID}, f.welcome.sent)
		assert.NotEmpty(t, result.WelcomeNotificationID)

		require.Len(t, f.bus.events, 1)
		assert.Equal(t, shared.EventUserRegistered, f.bus.events[0].EventType())
	})

	t.Run("github failure is non-fatal", func(t *testing.T) {
		f := newFixture(&fakeGitHubClient{err: errors.New("unreachable")})

		result, err := f.saga.Execute(context.Background(), validInput())
		require.NoError(t, err)
		assert.Zero(t, result.User.Counters.RepositoryCount)
	})

	t.Run("registration without github", func(t *testing.T) {
		f := newFixture(&fakeGitHubClient{profile: &command.GitHubProfile{PublicRepos: 99}})
		input := validInput()
		input.GitHubLogin = ""

		result, err := f.saga.Execute(context.Background(), input)
		require.NoError(t, err)
		assert.Zero(t, result.InitialMMR)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		f := newFixture(&fakeGitHubClient{profile: &command.GitHubProfile{}})
		_, err := f.saga.Execute(context.Background(), validInput())
		require.NoError(t, err)

		_, err = f.saga.Execute(context.Background(), validInput())
		assert.ErrorIs(t, err, shared.ErrUserAlreadyExists)
		assert.Len(t, f.userRepo.users, 1)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		f := newFixture(&fakeGitHubClient{profile: &command.GitHubProfile{}})
		input := validInput()
		input.Password = "short"

		_, err := f.saga.Execute(context.Background(), input)
		assert.ErrorIs(t, err, shared.ErrWeakPassword)
		assert.Empty(t, f.userRepo.users)
	})

	t.Run("snapshot failure rolls back user", func(t *testing.T) {
		f := newFixture(&fakeGitHubClient{profile: &command.GitHubProfile{PublicRepos: 5}})
		f.ratingRepo.saveErr = errors.New("db down")

		_, err := f.saga.Execute(context.Background(), validInput())
		require.Error(t, err)

		// Компенсация: созданный участник помечен как ушедший.
		require.Len(t, f.userRepo.users, 1)
		for _, u := range f.userRepo.users {
			assert.Equal(t, user.StatusLeft, u.Status)
		}
		assert.Empty(t, f.welcome.sent)
		assert.Empty(t, f.bus.events)
	})

	t.Run("welcome failure is non-fatal", func(t *testing.T) {
		f := newFixture(&fakeGitHubClient{profile: &command.GitHubProfile{}})
		f.welcome.err = errors.New("smtp down")

		result, err := f.saga.Execute(context.Background(), validInput())
		require.NoError(t, err)
		assert.Empty(t, result.WelcomeNotificationID)
	})
}
