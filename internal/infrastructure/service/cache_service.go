package service

import (
	"context"

	"github.com/axiom-hq/axiom-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATING CACHES
// ══════════════════════════════════════════════════════════════════════════════

// RatingCaches invalidates the Redis caches that derive from ratings and
// profiles. Implements eventhandler.CacheInvalidator and
// command.PoolInvalidator.
type RatingCaches struct {
	leaderboard *redis.LeaderboardCache
	pool        *redis.PoolCache
}

// NewRatingCaches creates the cache invalidation adapter.
func NewRatingCaches(leaderboard *redis.LeaderboardCache, pool *redis.PoolCache) *RatingCaches {
	return &RatingCaches{leaderboard: leaderboard, pool: pool}
}

// InvalidateLeaderboard drops the cached leaderboard. The next rebuild job
// or read-through repopulates it.
func (c *RatingCaches) InvalidateLeaderboard(ctx context.Context) error {
	return c.leaderboard.Invalidate(ctx)
}

// InvalidatePool drops the cached candidate pool after a profile change.
func (c *RatingCaches) InvalidatePool(ctx context.Context) error {
	return c.pool.Invalidate(ctx)
}
