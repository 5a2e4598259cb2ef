package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	cfg := DefaultClientConfig(serverURL)
	cfg.RateGuardConfig.MinInterval = 0
	return NewClient(cfg)
}

func rateHeaders(w http.ResponseWriter, remaining int) {
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(30*time.Minute).Unix(), 10))
}

func TestClient_GetUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		rateHeaders(w, 55)
		json.NewEncoder(w).Encode(UserDTO{
			Login:       "octocat",
			ID:          583231,
			Name:        "The Octocat",
			PublicRepos: 8,
			Followers:   9999,
			AvatarURL:   "https://avatars.githubusercontent.com/u/583231",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	profile, err := client.GetUser(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, "octocat", profile.Login)
	assert.Equal(t, "The Octocat", profile.Name)
	assert.Equal(t, 8, profile.PublicRepos)
	assert.Equal(t, 9999, profile.Followers)
	assert.False(t, profile.FetchedAt.IsZero())

	status := client.Status()
	assert.Equal(t, 55, status.RateGuard.Remaining)
}

func TestClient_GetUser_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rateHeaders(w, 54)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetUser(context.Background(), "no-such-login")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestClient_GetUser_FallsBackToLoginWhenNameEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rateHeaders(w, 50)
		json.NewEncoder(w).Encode(UserDTO{Login: "ghost", PublicRepos: 3})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	profile, err := client.GetUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, "ghost", profile.Name)
}

func TestClient_GetUser_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		rateHeaders(w, 40)
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(UserDTO{Login: "flaky", PublicRepos: 1})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	profile, err := client.GetUser(context.Background(), "flaky")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1, profile.PublicRepos)
}

func TestClient_RateLimitExhausted(t *testing.T) {
	resetAt := time.Now().Add(20 * time.Minute)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "API rate limit exceeded"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetUser(context.Background(), "anyone")
	var budgetErr *BudgetError
	require.True(t, errors.As(err, &budgetErr))
	assert.WithinDuration(t, resetAt, budgetErr.ResetAt, time.Second)

	// Budget is now known to be spent, the next call must not hit the API.
	_, err = client.GetUser(context.Background(), "anyone")
	assert.True(t, errors.As(err, &budgetErr))
}

func TestClient_GetRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rate_limit", r.URL.Path)
		w.Write([]byte(`{"resources": {"core": {"limit": 60, "remaining": 42, "reset": 1756700000, "used": 18}}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	limit, err := client.GetRateLimit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, limit.Limit)
	assert.Equal(t, 42, limit.Remaining)
	assert.Equal(t, time.Unix(1756700000, 0), limit.ResetAt())
}

func TestMapper_CountOriginalRepos(t *testing.T) {
	mapper := NewMapper()
	repos := []RepoDTO{
		{Name: "own-project"},
		{Name: "forked-lib", Fork: true},
		{Name: "another-own"},
	}
	assert.Equal(t, 2, mapper.CountOriginalRepos(repos))
}

func TestRateGuard_MinInterval(t *testing.T) {
	guard := NewRateGuard(RateGuardConfig{MinInterval: 20 * time.Millisecond, Reserve: 5})

	start := time.Now()
	require.NoError(t, guard.Wait(context.Background()))
	require.NoError(t, guard.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
