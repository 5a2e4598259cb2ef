// Package github implements a GitHub REST API v3 client.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE GUARD - header-driven budget tracking
// ══════════════════════════════════════════════════════════════════════════════

// RateGuard tracks the remaining GitHub rate-limit budget from response
// headers and blocks requests that would burn through it. Unlike a token
// bucket the budget is dictated by the server: X-RateLimit-Remaining tells
// us exactly how many calls are left and X-RateLimit-Reset when the window
// refills. Unauthenticated clients get 60 requests per hour, so the guard
// leaves a reserve for interactive calls instead of letting a background
// sync drain the whole window.
type RateGuard struct {
	mu sync.Mutex

	remaining   int
	resetAt     time.Time
	minInterval time.Duration
	lastRequest time.Time

	// reserve is the floor below which background requests are refused
	reserve int
}

// RateGuardConfig contains configuration for the rate guard.
type RateGuardConfig struct {
	// MinInterval is the minimum time between requests
	MinInterval time.Duration

	// Reserve is the budget floor kept for interactive requests
	Reserve int
}

// DefaultRateGuardConfig returns defaults safe for an unauthenticated client.
func DefaultRateGuardConfig() RateGuardConfig {
	return RateGuardConfig{
		MinInterval: 500 * time.Millisecond,
		Reserve:     5,
	}
}

// NewRateGuard creates a rate guard. The budget is unknown until the first
// response is observed, so the guard starts permissive.
func NewRateGuard(config RateGuardConfig) *RateGuard {
	return &RateGuard{
		remaining:   -1, // unknown
		minInterval: config.MinInterval,
		reserve:     config.Reserve,
		lastRequest: time.Now().Add(-config.MinInterval),
	}
}

// BudgetError is returned when the rate-limit budget is exhausted.
type BudgetError struct {
	ResetAt time.Time
}

// Error implements the error interface.
func (e *BudgetError) Error() string {
	return fmt.Sprintf("github rate limit exhausted, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// Is implements errors.Is matching on type.
func (e *BudgetError) Is(target error) bool {
	_, ok := target.(*BudgetError)
	return ok
}

// Wait blocks until the minimum interval has passed and the budget allows
// another request. Returns a BudgetError immediately when the window is
// exhausted - sleeping up to an hour inside a request is worse than failing.
func (rg *RateGuard) Wait(ctx context.Context) error {
	rg.mu.Lock()

	if rg.exhaustedLocked() {
		reset := rg.resetAt
		rg.mu.Unlock()
		return &BudgetError{ResetAt: reset}
	}

	wait := rg.minInterval - time.Since(rg.lastRequest)
	rg.lastRequest = time.Now().Add(wait)
	rg.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// exhaustedLocked reports whether the budget is spent. Must hold mu.
func (rg *RateGuard) exhaustedLocked() bool {
	if rg.remaining < 0 {
		return false // budget unknown yet
	}
	if rg.remaining > rg.reserve {
		return false
	}
	// Window may have reset since the last observation.
	return time.Now().Before(rg.resetAt)
}

// Observe updates the budget from response headers.
func (rg *RateGuard) Observe(h http.Header) {
	remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	resetUnix, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return
	}

	rg.mu.Lock()
	rg.remaining = remaining
	rg.resetAt = time.Unix(resetUnix, 0)
	rg.mu.Unlock()
}

// RecordExhausted marks the budget spent until resetAt. Used when the API
// answers 403/429 before we have seen the headers.
func (rg *RateGuard) RecordExhausted(resetAt time.Time) {
	rg.mu.Lock()
	rg.remaining = 0
	if resetAt.After(rg.resetAt) {
		rg.resetAt = resetAt
	}
	rg.mu.Unlock()
}

// Reset clears the tracked budget, e.g. after switching tokens.
func (rg *RateGuard) Reset() {
	rg.mu.Lock()
	rg.remaining = -1
	rg.resetAt = time.Time{}
	rg.lastRequest = time.Now().Add(-rg.minInterval)
	rg.mu.Unlock()
}

// Status returns the currently known budget.
type RateGuardStatus struct {
	Remaining int
	ResetAt   time.Time
}

// Status returns the currently known budget.
func (rg *RateGuard) Status() RateGuardStatus {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	return RateGuardStatus{
		Remaining: rg.remaining,
		ResetAt:   rg.resetAt,
	}
}
