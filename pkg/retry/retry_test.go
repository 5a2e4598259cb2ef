package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(attempts int) *Retrier {
	return New(
		WithMaxAttempts(attempts),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(5*time.Millisecond),
		WithJitter(0),
	)
}

func TestDo_RetryableRetriesUntilSuccess(t *testing.T) {
	r := fastRetrier(5)

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("connection reset"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustedAttemptsReturnCause(t *testing.T) {
	r := fastRetrier(3)
	cause := errors.New("upstream timeout")

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(cause)
	})

	assert.Equal(t, 3, calls)
	// The marker wrapper is stripped before the error surfaces.
	assert.Equal(t, cause, err)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	r := fastRetrier(5)
	cause := errors.New("404 not found")

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(cause)
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, cause, err)
}

func TestDo_UnmarkedErrorStopsImmediately(t *testing.T) {
	r := fastRetrier(5)
	cause := errors.New("invalid argument")

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return cause
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, cause, err)
}

func TestDo_CancelledContextReturnsLastError(t *testing.T) {
	r := New(
		WithMaxAttempts(10),
		WithInitialDelay(50*time.Millisecond),
		WithJitter(0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cause := errors.New("still failing")

	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := r.Do(ctx, func(ctx context.Context) error {
		calls++
		return Retryable(cause)
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestDo_CancelledBeforeFirstAttempt(t *testing.T) {
	r := fastRetrier(3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := r.Do(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMarkers_NilPassthrough(t *testing.T) {
	assert.NoError(t, Retryable(nil))
	assert.NoError(t, Permanent(nil))
}

func TestMarkers_PreserveErrorChain(t *testing.T) {
	cause := errors.New("db down")
	assert.ErrorIs(t, Retryable(cause), cause)
	assert.ErrorIs(t, Permanent(cause), cause)
	assert.Equal(t, cause.Error(), Retryable(cause).Error())
}

func TestDelay_ExponentialGrowthAndCap(t *testing.T) {
	r := New(
		WithInitialDelay(100*time.Millisecond),
		WithMultiplier(2.0),
		WithMaxDelay(time.Second),
		WithJitter(0),
	)

	assert.Equal(t, 100*time.Millisecond, r.delay(1))
	assert.Equal(t, 200*time.Millisecond, r.delay(2))
	assert.Equal(t, 400*time.Millisecond, r.delay(3))
	assert.Equal(t, 800*time.Millisecond, r.delay(4))
	// Capped from here on.
	assert.Equal(t, time.Second, r.delay(5))
	assert.Equal(t, time.Second, r.delay(10))
}

func TestDelay_JitterStaysWithinBounds(t *testing.T) {
	r := New(
		WithInitialDelay(100*time.Millisecond),
		WithMultiplier(2.0),
		WithJitter(0.5),
	)

	for i := 0; i < 200; i++ {
		d := r.delay(2)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
}

func TestOptions_InvalidValuesIgnored(t *testing.T) {
	r := New(
		WithMaxAttempts(0),
		WithInitialDelay(-time.Second),
		WithMultiplier(0.5),
		WithJitter(2.0),
	)

	require.Equal(t, 3, r.maxAttempts)
	assert.Equal(t, 100*time.Millisecond, r.baseDelay)
	assert.Equal(t, 2.0, r.multiplier)
	assert.Equal(t, 0.1, r.jitter)
}
