// Package redis implements Redis caching, pub/sub, and online tracking functionality.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLeaderboardEmpty is returned when the leaderboard has no entries.
	ErrLeaderboardEmpty = errors.New("leaderboard_cache: leaderboard is empty")

	// ErrUserNotInLeaderboard is returned when the user is not found in the leaderboard.
	ErrUserNotInLeaderboard = errors.New("leaderboard_cache: user not in leaderboard")

	// ErrInvalidPageParams is returned when invalid pagination parameters are provided.
	ErrInvalidPageParams = errors.New("leaderboard_cache: invalid page parameters")
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY STRUCTURE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardEntry represents a single entry in the cached MMR leaderboard.
type LeaderboardEntry struct {
	// UserID is the unique identifier of the user.
	UserID string `json:"user_id"`

	// DisplayName is the user's display name.
	DisplayName string `json:"display_name"`

	// MMR is the current rating.
	MMR int `json:"mmr"`

	// TierName is the tier derived from MMR.
	TierName string `json:"tier_name"`

	// Rank is the position in the leaderboard (1-based).
	Rank int64 `json:"rank"`

	// RankChange is the change since last rebuild (positive = climbed).
	RankChange int `json:"rank_change"`

	// IsOnline indicates if the user is currently online.
	IsOnline bool `json:"is_online"`

	// LastActiveAt is the last activity timestamp.
	LastActiveAt time.Time `json:"last_active_at,omitempty"`
}

// LeaderboardPage represents a page of leaderboard entries.
type LeaderboardPage struct {
	Entries    []LeaderboardEntry `json:"entries"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
	HasNext    bool               `json:"has_next"`
	HasPrev    bool               `json:"has_prev"`
}

// NeighborsResult contains a user's neighbors in the leaderboard.
type NeighborsResult struct {
	// Above contains entries ranked higher (better) than the user.
	Above []LeaderboardEntry `json:"above"`

	// Current is the user's own entry.
	Current *LeaderboardEntry `json:"current"`

	// Below contains entries ranked lower than the user.
	Below []LeaderboardEntry `json:"below"`
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache provides high-performance leaderboard operations using Redis Sorted Sets.
//
// Architecture:
//   - Sorted Set "leaderboard:mmr" stores userID -> MMR mapping
//   - Hash "leaderboard:info" stores userID -> LeaderboardEntry JSON
//   - String "leaderboard:meta" stores metadata (last update, total count)
//
// This design allows O(log N) rank lookups and O(log N + M) range queries.
type LeaderboardCache struct {
	cache *Cache
}

// Key patterns for leaderboard cache.
const (
	// keyLeaderboardMMR is the sorted set for MMR rankings.
	keyLeaderboardMMR = "leaderboard:mmr"

	// keyLeaderboardInfo is the hash for entry details.
	keyLeaderboardInfo = "leaderboard:info"

	// keyLeaderboardMeta is the metadata key.
	keyLeaderboardMeta = "leaderboard:meta"

	// TTLLeaderboardCache bounds staleness between snapshot rebuilds.
	TTLLeaderboardCache = 10 * time.Minute
)

// LeaderboardMeta contains metadata about the leaderboard.
type LeaderboardMeta struct {
	LastUpdatedAt time.Time `json:"last_updated_at"`
	TotalUsers    int64     `json:"total_users"`
	TotalMMR      int64     `json:"total_mmr"`
	AverageMMR    float64   `json:"average_mmr"`
}

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateEntry updates or adds a single entry in the leaderboard.
// This is an O(log N) operation.
func (l *LeaderboardCache) UpdateEntry(ctx context.Context, entry LeaderboardEntry) error {
	if entry.UserID == "" {
		return ErrUserIDEmpty
	}

	// Use pipeline for atomic update
	pipe := l.cache.Client().Pipeline()

	// 1. Update MMR in sorted set (score = MMR)
	pipe.ZAdd(ctx, keyLeaderboardMMR, redis.Z{
		Score:  float64(entry.MMR),
		Member: entry.UserID,
	})

	// 2. Store entry details in hash
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	pipe.HSet(ctx, keyLeaderboardInfo, entry.UserID, data)

	// 3. Set TTL on both keys
	pipe.Expire(ctx, keyLeaderboardMMR, TTLLeaderboardCache)
	pipe.Expire(ctx, keyLeaderboardInfo, TTLLeaderboardCache)

	_, err = pipe.Exec(ctx)
	return err
}

// UpdateEntries updates multiple entries in a batch.
// This is more efficient than calling UpdateEntry multiple times.
func (l *LeaderboardCache) UpdateEntries(ctx context.Context, entries []LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := l.cache.Client().Pipeline()

	// Prepare batch data
	zMembers := make([]redis.Z, 0, len(entries))
	hashData := make(map[string]interface{}, len(entries))

	var totalMMR int64
	for _, entry := range entries {
		if entry.UserID == "" {
			continue
		}

		zMembers = append(zMembers, redis.Z{
			Score:  float64(entry.MMR),
			Member: entry.UserID,
		})

		data, _ := json.Marshal(entry)
		hashData[entry.UserID] = data
		totalMMR += int64(entry.MMR)
	}

	// Execute batch operations
	if len(zMembers) > 0 {
		pipe.ZAdd(ctx, keyLeaderboardMMR, zMembers...)
	}
	if len(hashData) > 0 {
		pipe.HSet(ctx, keyLeaderboardInfo, hashData)
	}

	// Update metadata
	meta := LeaderboardMeta{
		LastUpdatedAt: time.Now().UTC(),
		TotalUsers:    int64(len(entries)),
		TotalMMR:      totalMMR,
		AverageMMR:    float64(totalMMR) / float64(len(entries)),
	}
	metaData, _ := json.Marshal(meta)
	pipe.Set(ctx, keyLeaderboardMeta, metaData, TTLLeaderboardCache)

	// Set TTLs
	pipe.Expire(ctx, keyLeaderboardMMR, TTLLeaderboardCache)
	pipe.Expire(ctx, keyLeaderboardInfo, TTLLeaderboardCache)

	_, err := pipe.Exec(ctx)
	return err
}

// Rebuild replaces the whole cached leaderboard with a fresh snapshot.
// This clears existing data first so departed users drop off the board.
func (l *LeaderboardCache) Rebuild(ctx context.Context, entries []LeaderboardEntry) error {
	pipe := l.cache.Client().TxPipeline()

	pipe.Del(ctx, keyLeaderboardMMR, keyLeaderboardInfo, keyLeaderboardMeta)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear leaderboard cache: %w", err)
	}

	return l.UpdateEntries(ctx, entries)
}

// RemoveEntry removes a user from the leaderboard cache.
func (l *LeaderboardCache) RemoveEntry(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUserIDEmpty
	}

	pipe := l.cache.Client().Pipeline()
	pipe.ZRem(ctx, keyLeaderboardMMR, userID)
	pipe.HDel(ctx, keyLeaderboardInfo, userID)

	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate drops the cached leaderboard entirely.
// The next read falls through to PostgreSQL and repopulates the cache.
func (l *LeaderboardCache) Invalidate(ctx context.Context) error {
	return l.cache.Delete(ctx, keyLeaderboardMMR, keyLeaderboardInfo, keyLeaderboardMeta)
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetTop returns the top N entries by MMR.
func (l *LeaderboardCache) GetTop(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if n <= 0 {
		return nil, ErrInvalidPageParams
	}

	return l.getRange(ctx, 0, int64(n-1))
}

// GetPage returns a page of the leaderboard.
func (l *LeaderboardCache) GetPage(ctx context.Context, page, pageSize int) (*LeaderboardPage, error) {
	if page < 1 || pageSize < 1 {
		return nil, ErrInvalidPageParams
	}

	total, err := l.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, ErrLeaderboardEmpty
	}

	start := int64((page - 1) * pageSize)
	stop := start + int64(pageSize) - 1

	entries, err := l.getRange(ctx, start, stop)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	return &LeaderboardPage{
		Entries:    entries,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}

// GetRank returns a user's 1-based rank.
func (l *LeaderboardCache) GetRank(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrUserIDEmpty
	}

	// ZRevRank: highest MMR first
	rank, err := l.cache.Client().ZRevRank(ctx, keyLeaderboardMMR, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrUserNotInLeaderboard
		}
		return 0, err
	}

	return rank + 1, nil
}

// GetEntry returns a single user's cached entry with its current rank.
func (l *LeaderboardCache) GetEntry(ctx context.Context, userID string) (*LeaderboardEntry, error) {
	if userID == "" {
		return nil, ErrUserIDEmpty
	}

	data, err := l.cache.Client().HGet(ctx, keyLeaderboardInfo, userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotInLeaderboard
		}
		return nil, err
	}

	var entry LeaderboardEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}

	rank, err := l.GetRank(ctx, userID)
	if err == nil {
		entry.Rank = rank
	}

	return &entry, nil
}

// GetNeighbors returns entries around a user: radius above and radius below.
func (l *LeaderboardCache) GetNeighbors(ctx context.Context, userID string, radius int) (*NeighborsResult, error) {
	if userID == "" {
		return nil, ErrUserIDEmpty
	}
	if radius < 1 {
		return nil, ErrInvalidPageParams
	}

	rank, err := l.GetRank(ctx, userID)
	if err != nil {
		return nil, err
	}

	// rank is 1-based, sorted set indexes are 0-based
	start := rank - 1 - int64(radius)
	if start < 0 {
		start = 0
	}
	stop := rank - 1 + int64(radius)

	entries, err := l.getRange(ctx, start, stop)
	if err != nil {
		return nil, err
	}

	result := &NeighborsResult{}
	for i := range entries {
		switch {
		case entries[i].UserID == userID:
			result.Current = &entries[i]
		case result.Current == nil:
			result.Above = append(result.Above, entries[i])
		default:
			result.Below = append(result.Below, entries[i])
		}
	}

	return result, nil
}

// GetMeta returns leaderboard metadata.
func (l *LeaderboardCache) GetMeta(ctx context.Context) (*LeaderboardMeta, error) {
	data, err := l.cache.Client().Get(ctx, keyLeaderboardMeta).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var meta LeaderboardMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meta: %w", err)
	}

	return &meta, nil
}

// Count returns the number of entries in the cached leaderboard.
func (l *LeaderboardCache) Count(ctx context.Context) (int64, error) {
	return l.cache.Client().ZCard(ctx, keyLeaderboardMMR).Result()
}

// IsWarm reports whether the cache holds a usable leaderboard.
func (l *LeaderboardCache) IsWarm(ctx context.Context) bool {
	count, err := l.Count(ctx)
	return err == nil && count > 0
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// getRange fetches entries by sorted-set index range (highest MMR first)
// and stamps each with its 1-based rank.
func (l *LeaderboardCache) getRange(ctx context.Context, start, stop int64) ([]LeaderboardEntry, error) {
	userIDs, err := l.cache.Client().ZRevRange(ctx, keyLeaderboardMMR, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard range: %w", err)
	}

	if len(userIDs) == 0 {
		return []LeaderboardEntry{}, nil
	}

	values, err := l.cache.Client().HMGet(ctx, keyLeaderboardInfo, userIDs...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(userIDs))
	for i, val := range values {
		if val == nil {
			continue
		}

		var entry LeaderboardEntry
		if err := json.Unmarshal([]byte(val.(string)), &entry); err != nil {
			continue
		}

		entry.Rank = start + int64(i) + 1
		entries = append(entries, entry)
	}

	return entries, nil
}
