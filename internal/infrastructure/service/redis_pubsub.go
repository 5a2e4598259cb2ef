package service

import (
	"context"

	"github.com/axiom-hq/axiom-hub/internal/infrastructure/messaging"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// REDIS PUB/SUB ADAPTER
// ══════════════════════════════════════════════════════════════════════════════

// PubSubAdapter exposes the Redis cache's pub/sub operations through the
// messaging.RedisClient port so the event bus stays decoupled from the
// concrete Redis layer.
type PubSubAdapter struct {
	cache *redis.Cache
}

// NewPubSubAdapter creates a pub/sub adapter over the Redis cache.
func NewPubSubAdapter(cache *redis.Cache) *PubSubAdapter {
	return &PubSubAdapter{cache: cache}
}

var _ messaging.RedisClient = (*PubSubAdapter)(nil)

// Publish sends a message to the channel. The event bus passes already
// serialized JSON strings, so the adapter publishes raw instead of going
// through the cache's JSON marshaling.
func (a *PubSubAdapter) Publish(ctx context.Context, channel string, message interface{}) error {
	return a.cache.Client().Publish(ctx, channel, message).Err()
}

// Subscribe listens on the given channels and converts incoming messages
// into the bus's message type. The returned channel closes when ctx is done.
func (a *PubSubAdapter) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	pubsub := a.cache.Subscribe(ctx, channels...)

	// Receive confirms the subscription before the caller proceeds.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close is a no-op: the underlying Redis client is shared and closed by
// its owner.
func (a *PubSubAdapter) Close() error {
	return nil
}
