package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiom-hq/axiom-hub/internal/application/command"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/team"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeAuth struct {
	token  string
	userID shared.UserID
	user   *user.User
	signIn error
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (string, *user.User, error) {
	if f.signIn != nil {
		return "", nil, f.signIn
	}
	return f.token, f.user, nil
}

func (f *fakeAuth) SignOut(ctx context.Context, token string) error { return nil }

func (f *fakeAuth) Authenticate(ctx context.Context, token string) (shared.UserID, error) {
	if token != f.token {
		return "", shared.ErrSessionNotFound
	}
	return f.userID, nil
}

type fakePresence struct {
	beats []string
}

func (f *fakePresence) Heartbeat(ctx context.Context, userID string) error {
	f.beats = append(f.beats, userID)
	return nil
}

type fakeTeamRepo struct {
	team.Repository
	incoming []*team.TeamUpRequest
}

func (f *fakeTeamRepo) ListRequestsForUser(ctx context.Context, addresseeID shared.UserID, limit int) ([]*team.TeamUpRequest, error) {
	return f.incoming, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	return NewServer(cfg, deps)
}

func doRequest(s *Server, method, path, token string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func testAuthUser(t *testing.T) (*fakeAuth, shared.UserID) {
	t.Helper()
	id := shared.UserID(uuid.NewString())
	u, err := user.NewUser(user.NewUserParams{
		ID:          id,
		Email:       shared.Email("ada@example.com"),
		DisplayName: "Ada",
	})
	require.NoError(t, err)
	return &fakeAuth{token: "session-token", userID: id, user: u}, id
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestHealthEndpointWithoutChecker(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec := doRequest(s, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestProtectedEndpointRequiresBearerToken(t *testing.T) {
	auth, _ := testAuthUser(t)
	s := newTestServer(t, Dependencies{Auth: auth, Presence: &fakePresence{}})

	rec := doRequest(s, http.MethodPost, "/api/v1/presence/heartbeat", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/presence/heartbeat", "wrong-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHeartbeatRecordsPresence(t *testing.T) {
	auth, userID := testAuthUser(t)
	presence := &fakePresence{}
	s := newTestServer(t, Dependencies{Auth: auth, Presence: presence})

	rec := doRequest(s, http.MethodPost, "/api/v1/presence/heartbeat", "session-token", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, presence.beats, 1)
	assert.Equal(t, string(userID), presence.beats[0])
}

func TestLoginReturnsTokenAndProfile(t *testing.T) {
	auth, userID := testAuthUser(t)
	s := newTestServer(t, Dependencies{Auth: auth})

	rec := doRequest(s, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"ada@example.com","password":"secret-password"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "session-token", data["token"])
	assert.Equal(t, string(userID), data["user_id"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth, _ := testAuthUser(t)
	auth.signIn = shared.ErrInvalidCredentials
	s := newTestServer(t, Dependencies{Auth: auth})

	rec := doRequest(s, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"ada@example.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "unauthorized", resp.Error.Code)
}

func TestIncomingTeamUpsListsPendingRequests(t *testing.T) {
	auth, userID := testAuthUser(t)

	request, err := team.NewTeamUpRequest(team.NewRequestParams{
		ID:                 uuid.NewString(),
		RequesterID:        shared.UserID(uuid.NewString()),
		AddresseeID:        userID,
		Message:            "let's team up",
		CompatibilityScore: 82,
	})
	require.NoError(t, err)

	repo := &fakeTeamRepo{incoming: []*team.TeamUpRequest{request}}
	s := newTestServer(t, Dependencies{Auth: auth, TeamRepo: repo})

	rec := doRequest(s, http.MethodGet, "/api/v1/teamups/incoming", "session-token", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, request.ID)
	assert.Contains(t, body, `"compatibility_score":82`)
}

func TestHackathonResultsRequireAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	cfg.APIKeys = []string{"admin-key"}
	s := NewServer(cfg, Dependencies{})

	// No key at all.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hackathons/h1/results", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid key, but no handler wired: the route must answer itself.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/hackathons/h1/results", strings.NewReader("{}"))
	req.Header.Set("X-API-Key", "admin-key")
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestClassifyDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{"duplicate team-up", shared.ErrTeamUpDuplicate, http.StatusConflict, "conflict"},
		{"wrong addressee", shared.ErrTeamUpNotAddressee, http.StatusForbidden, "forbidden"},
		{"expired request", shared.ErrTeamUpExpired, http.StatusGone, "expired"},
		{"bad credentials", shared.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"weak password", shared.ErrWeakPassword, http.StatusBadRequest, "invalid_request"},
		{"github down", shared.ErrExternalService, http.StatusBadGateway, "upstream_error"},
		{"unknown", context.DeadlineExceeded, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classifyDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Another client is unaffected.
	assert.True(t, rl.Allow("10.0.0.2"))
}

// ─────────────────────────────────────────────────────────────────────────────
// GitHub webhook
// ─────────────────────────────────────────────────────────────────────────────

// fakeUserDirectory embeds the interface; webhook tests below never reach
// the lookup path.
type fakeUserDirectory struct {
	user.Repository
}

func webhookDeps() Dependencies {
	return Dependencies{
		SyncGitHubHandler: command.NewSyncGitHubActivityHandler(nil, nil, nil, nil, command.SyncGitHubActivityHandlerConfig{}),
		UserRepo:          &fakeUserDirectory{},
	}
}

func postWebhook(s *Server, event, signature, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", strings.NewReader(body))
	req.Header.Set("X-GitHub-Event", event)
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestGitHubWebhook(t *testing.T) {
	t.Run("ping answered", func(t *testing.T) {
		s := newTestServer(t, webhookDeps())
		rec := postWebhook(s, "ping", "", `{"zen":"Keep it logically awesome."}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unhandled event type ignored", func(t *testing.T) {
		s := newTestServer(t, webhookDeps())
		rec := postWebhook(s, "star", "", `{}`)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Contains(t, rec.Body.String(), "ignored")
	})

	t.Run("bad signature rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RateLimitPerMinute = 0
		cfg.GitHubWebhookSecret = "s3cret"
		s := NewServer(cfg, webhookDeps())

		rec := postWebhook(s, "ping", "sha256=deadbeef", `{}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid signature accepted", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RateLimitPerMinute = 0
		cfg.GitHubWebhookSecret = "s3cret"
		s := NewServer(cfg, webhookDeps())

		body := `{"zen":"ok"}`
		mac := hmac.New(sha256.New, []byte("s3cret"))
		mac.Write([]byte(body))
		sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

		rec := postWebhook(s, "ping", sig, body)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("push without known login ignored", func(t *testing.T) {
		s := newTestServer(t, webhookDeps())
		rec := postWebhook(s, "push", "", `{"repository":{"owner":{"login":""}},"sender":{"login":""}}`)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Contains(t, rec.Body.String(), "ignored")
	})
}
