package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failure")

func failN(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error {
			return errUpstream
		})
	}
}

func succeed(cb *CircuitBreaker) error {
	return cb.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
}

func TestExecute_OpensAfterFailureThreshold(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	failN(cb, 2)
	require.Equal(t, StateClosed, cb.State())

	failN(cb, 1)
	require.Equal(t, StateOpen, cb.State())

	// Open circuit rejects without calling fn.
	called := false
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestExecute_SuccessResetsFailureCount(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	failN(cb, 2)
	require.NoError(t, succeed(cb))
	failN(cb, 2)

	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_HalfOpenAfterCooldown(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithTimeout(10*time.Millisecond),
		WithSuccessThreshold(2),
	)

	failN(cb, 1)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// First probe succeeds, breaker stays half-open until the success
	// threshold is met.
	require.NoError(t, succeed(cb))
	require.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, succeed(cb))
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_FailedProbeReopens(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithTimeout(10*time.Millisecond),
	)

	failN(cb, 1)
	time.Sleep(20 * time.Millisecond)

	failN(cb, 1)
	require.Equal(t, StateOpen, cb.State())

	// The cooldown restarts from the failed probe.
	err := succeed(cb)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestExecute_ProbeBudgetBoundsConcurrency(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithTimeout(10*time.Millisecond),
		WithMaxHalfOpenRequests(1),
	)

	failN(cb, 1)
	time.Sleep(20 * time.Millisecond)

	release := make(chan struct{})
	probeDone := make(chan error, 1)
	go func() {
		probeDone <- cb.Execute(context.Background(), func(ctx context.Context) error {
			<-release
			return nil
		})
	}()

	// Wait for the probe to occupy the only slot.
	require.Eventually(t, func() bool {
		return cb.State() == StateHalfOpen
	}, time.Second, time.Millisecond)

	err := succeed(cb)
	assert.ErrorIs(t, err, ErrTooManyRequests)

	close(release)
	require.NoError(t, <-probeDone)

	// The finished probe frees its slot.
	require.NoError(t, succeed(cb))
}

func TestExecute_PassesThroughResultAndContext(t *testing.T) {
	cb := New("test")

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")

	err := cb.Execute(ctx, func(got context.Context) error {
		assert.Equal(t, "v", got.Value(ctxKey{}))
		return errUpstream
	})
	assert.Equal(t, errUpstream, err)
}

func TestReset_ClosesAndClearsCounters(t *testing.T) {
	cb := New("test", WithFailureThreshold(2))

	failN(cb, 2)
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	require.Equal(t, StateClosed, cb.State())

	// Counters start fresh: one failure does not reopen.
	failN(cb, 1)
	assert.Equal(t, StateClosed, cb.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}

func TestOptions_InvalidValuesIgnored(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(0),
		WithSuccessThreshold(-1),
		WithTimeout(0),
		WithMaxHalfOpenRequests(0),
	)

	require.Equal(t, 5, cb.failureThreshold)
	assert.Equal(t, 2, cb.successThreshold)
	assert.Equal(t, 30*time.Second, cb.cooldown)
	assert.Equal(t, 1, cb.probeBudget)
}
