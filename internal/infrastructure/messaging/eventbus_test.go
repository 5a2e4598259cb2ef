package messaging

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false, EnableMetrics: true})
}

func TestInMemoryEventBus_PublishReachesSubscriber(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var got shared.Event
	err := bus.Subscribe(shared.EventTierChanged, func(e shared.Event) error {
		got = e
		return nil
	})
	require.NoError(t, err)

	event := shared.NewTierChangedEvent("u1", "Silver", "Gold", 1450, true)
	require.NoError(t, bus.Publish(event))

	require.NotNil(t, got)
	assert.Equal(t, shared.EventTierChanged, got.EventType())
	assert.Equal(t, "u1", got.AggregateID())
}

func TestInMemoryEventBus_SubscribeAll(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var count int
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewTierChangedEvent("u1", "Bronze", "Silver", 900, true)))
	require.NoError(t, bus.Publish(shared.NewUserRegisteredEvent("u2", "dana@example.com", "Dana", "")))

	assert.Equal(t, 2, count)
}

func TestInMemoryEventBus_AsyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 4})

	var delivered atomic.Int64
	var wg sync.WaitGroup
	wg.Add(10)
	require.NoError(t, bus.Subscribe(shared.EventUserRegistered, func(e shared.Event) error {
		delivered.Add(1)
		wg.Done()
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewUserRegisteredEvent("u1", "a@example.com", "Alex", "")))
	}

	wg.Wait()
	require.NoError(t, bus.Close())
	assert.Equal(t, int64(10), delivered.Load())
}

func TestInMemoryEventBus_ClosedRejectsPublish(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewUserRegisteredEvent("u1", "a@example.com", "Alex", ""))
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestDispatcher_RetriesUntilSuccess(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	d := NewDispatcher(DispatcherConfig{
		EventBus:       bus,
		WorkerPoolSize: 2,
		RetryConfig: RetryConfig{
			MaxRetries:        3,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
	})
	defer d.Stop()

	attempts := 0
	require.NoError(t, d.RegisterSync(shared.EventMMRChanged, "flaky", func(e shared.Event) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}))
	require.NoError(t, d.Start())

	err := bus.Publish(shared.NewMMRChangedEvent("u1", 1000, 1200, "hackathon_result"))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDispatcher_DeadLetterAfterExhaustedRetries(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	d := NewDispatcher(DispatcherConfig{
		EventBus:       bus,
		WorkerPoolSize: 2,
		RetryConfig: RetryConfig{
			MaxRetries:        1,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        time.Millisecond,
			BackoffMultiplier: 1.0,
		},
		EnableDeadLetterQueue: true,
		DeadLetterQueueSize:   10,
	})
	defer d.Stop()

	require.NoError(t, d.RegisterSync(shared.EventMMRChanged, "broken", func(e shared.Event) error {
		return errors.New("permanent failure")
	}))

	err := d.Dispatch(shared.NewMMRChangedEvent("u1", 1000, 1200, "rebuild"))
	require.Error(t, err)

	require.Equal(t, 1, d.DeadLetterQueue().Size())
	entry, ok := d.DeadLetterQueue().Pop()
	require.True(t, ok)
	assert.Equal(t, "broken", entry.HandlerName)
	assert.Equal(t, 2, entry.Attempts)
}

func TestDispatcher_RecoveryMiddleware(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	d := NewDispatcher(DispatcherConfig{
		EventBus:       bus,
		WorkerPoolSize: 1,
		RetryConfig: RetryConfig{
			MaxRetries:        1,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        time.Millisecond,
			BackoffMultiplier: 1.0,
		},
	})
	defer d.Stop()

	d.Use(RecoveryMiddleware(slog.Default()))

	require.NoError(t, d.RegisterSync(shared.EventUserRegistered, "panics", func(e shared.Event) error {
		panic("boom")
	}))

	// The panic is converted to an error instead of crashing the process.
	err := d.Dispatch(shared.NewUserRegisteredEvent("u1", "a@example.com", "Alex", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
}
