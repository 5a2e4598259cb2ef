package redis

import (
	"context"
	"errors"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/matching"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// TTLPoolCache keeps pool snapshots short-lived: profile edits
// invalidate explicitly, the TTL only guards against missed events.
const TTLPoolCache = 5 * time.Minute

// ══════════════════════════════════════════════════════════════════════════════
// POOL CACHE
// Снапшот пула кандидатов для движка подбора. Холодный поиск идёт в
// PostgreSQL; горячий - по этому кешу. Любое изменение профиля
// инвалидирует пул целиком: проще, чем точечные апдейты.
// ══════════════════════════════════════════════════════════════════════════════

// cachedCandidate is the JSON layout of a pool member.
type cachedCandidate struct {
	ID            string   `json:"id"`
	MMR           int      `json:"mmr"`
	Location      string   `json:"location,omitempty"`
	Skills        []string `json:"skills,omitempty"`
	ActivityCount int      `json:"activity_count"`
}

// PoolCache caches candidate pool snapshots for the matching engine.
type PoolCache struct {
	cache *Cache
}

// NewPoolCache creates a new PoolCache.
func NewPoolCache(cache *Cache) *PoolCache {
	return &PoolCache{cache: cache}
}

// Get returns a cached pool segment. ErrCacheMiss on cold cache.
func (p *PoolCache) Get(ctx context.Context, segment string) ([]matching.CandidateProfile, error) {
	var raw []cachedCandidate
	if err := p.cache.Get(ctx, PoolKey(segment), &raw); err != nil {
		return nil, err
	}

	pool := make([]matching.CandidateProfile, len(raw))
	for i, c := range raw {
		skills := make([]shared.Skill, len(c.Skills))
		for j, s := range c.Skills {
			skills[j] = shared.Skill(s)
		}
		pool[i] = matching.CandidateProfile{
			ID:            shared.UserID(c.ID),
			MMR:           shared.MMR(c.MMR),
			Location:      shared.Location(c.Location),
			Skills:        skills,
			ActivityCount: c.ActivityCount,
		}
	}

	return pool, nil
}

// Set stores a pool segment snapshot.
func (p *PoolCache) Set(ctx context.Context, segment string, pool []matching.CandidateProfile) error {
	raw := make([]cachedCandidate, len(pool))
	for i, c := range pool {
		skills := make([]string, len(c.Skills))
		for j, s := range c.Skills {
			skills[j] = string(s)
		}
		raw[i] = cachedCandidate{
			ID:            string(c.ID),
			MMR:           c.MMR.Int(),
			Location:      string(c.Location),
			Skills:        skills,
			ActivityCount: c.ActivityCount,
		}
	}

	return p.cache.Set(ctx, PoolKey(segment), raw, TTLPoolCache)
}

// Invalidate drops all cached pool segments.
func (p *PoolCache) Invalidate(ctx context.Context) error {
	return p.cache.DeleteByPattern(ctx, PrefixPool+"*")
}

// IsMiss reports whether the error is a cold-cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
