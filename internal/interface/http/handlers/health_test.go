package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeHealthChecker_NoChecksIsHealthy(t *testing.T) {
	checker := NewCompositeHealthChecker("1.0.0")

	status := checker.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, "1.0.0", status.Version)
}

func TestCompositeHealthChecker_AggregatesResults(t *testing.T) {
	checker := NewCompositeHealthChecker("1.0.0")
	checker.AddCheck("database", func(ctx context.Context) error { return nil })
	checker.AddCheck("cache", func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	checker.AddCheck("github", func(ctx context.Context) error {
		return errors.New("circuit open")
	})

	status := checker.Check(context.Background())

	require.False(t, status.Healthy)
	require.False(t, status.Ready)
	// Failing probes are listed in a stable order.
	assert.Equal(t, "checks failed: cache, github", status.Message)

	require.Len(t, status.Checks, 3)
	assert.True(t, status.Checks["database"].Healthy)
	assert.Equal(t, "OK", status.Checks["database"].Message)
	assert.False(t, status.Checks["cache"].Healthy)
	assert.Equal(t, "connection refused", status.Checks["cache"].Message)
}

func TestCompositeHealthChecker_AllPassing(t *testing.T) {
	checker := NewCompositeHealthChecker("1.0.0")
	checker.AddCheck("database", func(ctx context.Context) error { return nil })

	status := checker.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.Equal(t, "all checks passed", status.Message)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestNewPingCheck(t *testing.T) {
	assert.NoError(t, NewPingCheck(fakePinger{})(context.Background()))

	down := errors.New("down")
	assert.ErrorIs(t, NewPingCheck(fakePinger{err: down})(context.Background()), down)
}

type fakeGitHub struct{ healthy bool }

func (f fakeGitHub) IsHealthy(ctx context.Context) bool { return f.healthy }

func TestNewGitHubCheck(t *testing.T) {
	assert.NoError(t, NewGitHubCheck(fakeGitHub{healthy: true})(context.Background()))
	assert.Error(t, NewGitHubCheck(fakeGitHub{healthy: false})(context.Background()))
}

func TestAPIKeyAuth_Middleware(t *testing.T) {
	auth := NewAPIKeyAuth("X-API-Key", []string{"secret", ""})

	var reached bool
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	tests := []struct {
		name       string
		key        string
		wantStatus int
		wantPass   bool
	}{
		{"valid key", "secret", http.StatusOK, true},
		{"missing key", "", http.StatusUnauthorized, false},
		{"wrong key", "guess", http.StatusUnauthorized, false},
		{"empty configured key rejected", "", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantPass, reached)
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	h := SecurityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	h := RequestSizeLimitMiddleware(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	small := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, small)
	assert.Equal(t, http.StatusOK, rec.Code)

	big := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 100)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
