package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiom-hq/axiom-hub/internal/domain/matching"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/team"
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

type fakeTeamRepo struct {
	requests map[string]*team.TeamUpRequest

	// saveErr подменяет результат SaveRequest (для дубликатов).
	saveErr error
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{requests: make(map[string]*team.TeamUpRequest)}
}

func (r *fakeTeamRepo) SaveTeam(_ context.Context, _ *team.Team) error { return nil }

func (r *fakeTeamRepo) GetTeam(_ context.Context, _ shared.TeamID) (*team.Team, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeTeamRepo) ListTeamsByMember(_ context.Context, _ shared.UserID) ([]*team.Team, error) {
	return nil, nil
}

func (r *fakeTeamRepo) SaveRequest(_ context.Context, req *team.TeamUpRequest) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.requests[req.ID] = req
	return nil
}

func (r *fakeTeamRepo) GetRequest(_ context.Context, id string) (*team.TeamUpRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return req, nil
}

func (r *fakeTeamRepo) ListRequestsForUser(_ context.Context, _ shared.UserID, _ int) ([]*team.TeamUpRequest, error) {
	return nil, nil
}

func (r *fakeTeamRepo) ListRequestsByUser(_ context.Context, _ shared.UserID, _ int) ([]*team.TeamUpRequest, error) {
	return nil, nil
}

func (r *fakeTeamRepo) ListExpiredPending(_ context.Context, now time.Time, _ int) ([]*team.TeamUpRequest, error) {
	out := make([]*team.TeamUpRequest, 0)
	for _, req := range r.requests {
		if req.Status == team.RequestPending && req.IsExpired(now) {
			out = append(out, req)
		}
	}
	return out, nil
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

func (b *fakeEventBus) published(t shared.EventType) []shared.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]shared.Event, 0)
	for _, e := range b.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeConversations struct {
	id  string
	err error
}

func (c *fakeConversations) EnsureConversation(_ context.Context, _, _ shared.UserID) (string, error) {
	return c.id, c.err
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
	idAddressee = "00000000-0000-4000-8000-000000000002"
	idStranger  = "00000000-0000-4000-8000-000000000003"
)

// ─────────────────────────────────────────────────────────────────────────────
// Send team-up request
// ─────────────────────────────────────────────────────────────────────────────

func TestSendTeamUpRequestHandler_Handle(t *testing.T) {
	t.Run("creates pending request with compatibility score", func(t *testing.T) {
		requester := testUser(t, idRequester, "requester", []string{"go", "postgresql"}, 10)
		addressee := testUser(t, idAddressee, "addressee", []string{"go", "docker"}, 12)
		teamRepo := newFakeTeamRepo()
		bus := &fakeEventBus{}
		handler := NewSendTeamUpRequestHandler(newFakeUserRepo(requester, addressee), teamRepo, bus)

		result, err := handler.Handle(context.Background(), SendTeamUpRequestCommand{
			RequesterID: idRequester,
			AddresseeID: idAddressee,
			Message:     "Собираю команду, нужен бэкендер",
		})
		require.NoError(t, err)
		require.NotEmpty(t, result.RequestID)

		saved, err := teamRepo.GetRequest(context.Background(), result.RequestID)
		require.NoError(t, err)
		assert.Equal(t, team.RequestPending, saved.Status)
		assert.Equal(t, requester.ID, saved.RequesterID)
		assert.Equal(t, addressee.ID, saved.AddresseeID)

		// Общий навык go даёт паре ненулевую совместимость.
		assert.Greater(t, result.CompatibilityScore, 0)
		assert.Equal(t, saved.CompatibilityScore, result.CompatibilityScore)

		require.Len(t, bus.published(shared.EventTeamUpRequested), 1)
	})

	t.Run("self request rejected", func(t *testing.T) {
		handler := NewSendTeamUpRequestHandler(newFakeUserRepo(), newFakeTeamRepo(), &fakeEventBus{})

		_, err := handler.Handle(context.Background(), SendTeamUpRequestCommand{
			RequesterID: idRequester,
			AddresseeID: idRequester,
		})
		assert.ErrorIs(t, err, shared.ErrTeamUpSelfRequest)
	})

	t.Run("inactive addressee rejected", func(t *testing.T) {
		requester := testUser(t, idRequester, "requester", []string{"go"}, 10)
		addressee := testUser(t, idAddressee, "ghost", []string{"go"}, 10)
		addressee.Deactivate()
		handler := NewSendTeamUpRequestHandler(newFakeUserRepo(requester, addressee), newFakeTeamRepo(), &fakeEventBus{})

		_, err := handler.Handle(context.Background(), SendTeamUpRequestCommand{
			RequesterID: idRequester,
			AddresseeID: idAddressee,
		})
		assert.ErrorIs(t, err, shared.ErrUserNotActive)
	})

	t.Run("duplicate pending pair", func(t *testing.T) {
		requester := testUser(t, idRequester, "requester", []string{"go"}, 10)
		addressee := testUser(t, idAddressee, "addressee", []string{"go"}, 10)
		teamRepo := newFakeTeamRepo()
		teamRepo.saveErr = shared.ErrTeamUpDuplicate
		handler := NewSendTeamUpRequestHandler(newFakeUserRepo(requester, addressee), teamRepo, &fakeEventBus{})

		_, err := handler.Handle(context.Background(), SendTeamUpRequestCommand{
			RequesterID: idRequester,
			AddresseeID: idAddressee,
		})
		assert.ErrorIs(t, err, shared.ErrTeamUpDuplicate)
	})

	t.Run("invalid ids rejected", func(t *testing.T) {
		handler := NewSendTeamUpRequestHandler(newFakeUserRepo(), newFakeTeamRepo(), &fakeEventBus{})

		_, err := handler.Handle(context.Background(), SendTeamUpRequestCommand{
			RequesterID: "nope",
			AddresseeID: idAddressee,
		})
		assert.ErrorIs(t, err, shared.ErrInvalidID)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Respond to team-up request
// ─────────────────────────────────────────────────────────────────────────────

func pendingRequest(t *testing.T, repo *fakeTeamRepo) *team.TeamUpRequest {
	t.Helper()
	req, err := team.NewTeamUpRequest(team.NewRequestParams{
		ID:                 "00000000-0000-4000-8000-0000000000aa",
		RequesterID:        shared.UserID(idRequester),
		AddresseeID:        shared.UserID(idAddressee),
		CompatibilityScore: 70,
	})
	require.NoError(t, err)
	require.NoError(t, repo.SaveRequest(context.Background(), req))
	return req
}

func TestRespondTeamUpRequestHandler_Handle(t *testing.T) {
	t.Run("accept starts conversation", func(t *testing.T) {
		teamRepo := newFakeTeamRepo()
		req := pendingRequest(t, teamRepo)
		bus := &fakeEventBus{}
		handler := NewRespondTeamUpRequestHandler(teamRepo, &fakeConversations{id: "conv-1"}, bus)

		result, err := handler.Handle(context.Background(), RespondTeamUpRequestCommand{
			RequestID:   req.ID,
			ResponderID: idAddressee,
			Accept:      true,
		})
		require.NoError(t, err)
		assert.Equal(t, team.RequestAccepted, result.Status)
		assert.Equal(t, "conv-1", result.ConversationID)
		require.Len(t, bus.published(shared.EventTeamUpAccepted), 1)
	})

	t.Run("decline has no conversation", func(t *testing.T) {
		teamRepo := newFakeTeamRepo()
		req := pendingRequest(t, teamRepo)
		bus := &fakeEventBus{}
		handler := NewRespondTeamUpRequestHandler(teamRepo, &fakeConversations{id: "conv-1"}, bus)

		result, err := handler.Handle(context.Background(), RespondTeamUpRequestCommand{
			RequestID:   req.ID,
			ResponderID: idAddressee,
			Accept:      false,
			Reason:      "уже в команде",
		})
		require.NoError(t, err)
		assert.Equal(t, team.RequestDeclined, result.Status)
		assert.Empty(t, result.ConversationID)
		require.Len(t, bus.published(shared.EventTeamUpDeclined), 1)
	})

	t.Run("only addressee may respond", func(t *testing.T) {
		teamRepo := newFakeTeamRepo()
		req := pendingRequest(t, teamRepo)
		handler := NewRespondTeamUpRequestHandler(teamRepo, &fakeConversations{}, &fakeEventBus{})

		_, err := handler.Handle(context.Background(), RespondTeamUpRequestCommand{
			RequestID:   req.ID,
			ResponderID: idStranger,
			Accept:      true,
		})
		assert.ErrorIs(t, err, shared.ErrTeamUpNotAddressee)
	})

	t.Run("finalized request rejected", func(t *testing.T) {
		teamRepo := newFakeTeamRepo()
		req := pendingRequest(t, teamRepo)
		require.NoError(t, req.Decline(shared.UserID(idAddressee), time.Now().UTC()))
		handler := NewRespondTeamUpRequestHandler(teamRepo, &fakeConversations{}, &fakeEventBus{})

		_, err := handler.Handle(context.Background(), RespondTeamUpRequestCommand{
			RequestID:   req.ID,
			ResponderID: idAddressee,
			Accept:      true,
		})
		assert.ErrorIs(t, err, shared.ErrTeamUpFinalized)
	})

	t.Run("conversation failure does not fail accept", func(t *testing.T) {
		teamRepo := newFakeTeamRepo()
		req := pendingRequest(t, teamRepo)
		handler := NewRespondTeamUpRequestHandler(teamRepo, &fakeConversations{err: shared.ErrNotFound}, &fakeEventBus{})

		result, err := handler.Handle(context.Background(), RespondTeamUpRequestCommand{
			RequestID:   req.ID,
			ResponderID: idAddressee,
			Accept:      true,
		})
		require.NoError(t, err)
		assert.Equal(t, team.RequestAccepted, result.Status)
		assert.Empty(t, result.ConversationID)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Expiration sweep
// ─────────────────────────────────────────────────────────────────────────────

func TestExpireTeamUpRequestsHandler_Handle(t *testing.T) {
	teamRepo := newFakeTeamRepo()
	req := pendingRequest(t, teamRepo)
	req.ExpiresAt = time.Now().UTC().Add(-time.Hour)

	fresh, err := team.NewTeamUpRequest(team.NewRequestParams{
		ID:          "00000000-0000-4000-8000-0000000000bb",
		RequesterID: shared.UserID(idRequester),
		AddresseeID: shared.UserID(idStranger),
	})
	require.NoError(t, err)
	require.NoError(t, teamRepo.SaveRequest(context.Background(), fresh))

	bus := &fakeEventBus{}
	handler := NewExpireTeamUpRequestsHandler(teamRepo, bus)

	processed, err := handler.Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, team.RequestExpired, req.Status)
	assert.Equal(t, team.RequestPending, fresh.Status)

	// Повторный проход ничего не находит.
	processed, err = handler.Handle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
}
