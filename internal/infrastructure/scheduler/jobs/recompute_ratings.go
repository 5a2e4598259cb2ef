package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE RATINGS JOB
// Полный пересчёт: MMR каждого активного участника заново выводится из
// счётчиков активности, после чего лидерборд в Redis перестраивается с нуля.
// Это страховка от дрейфа кеша: MMR - производная величина, и её истина
// всегда восстановима из счётчиков.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRebuilder перестраивает кеш лидерборда целиком.
// Реализуется redis.LeaderboardCache.
type LeaderboardRebuilder interface {
	Rebuild(ctx context.Context, entries []redis.LeaderboardEntry) error
}

// PoolInvalidator сбрасывает кеш пула кандидатов.
// Реализуется redis.PoolCache.
type PoolInvalidator interface {
	Invalidate(ctx context.Context) error
}

// RecomputeRatingsJob пересчитывает рейтинги и перестраивает лидерборд.
type RecomputeRatingsJob struct {
	userRepo       user.Repository
	ratingRepo     rating.Repository
	leaderboard    LeaderboardRebuilder
	pool           PoolInvalidator
	eventPublisher shared.EventPublisher
	logger         *slog.Logger

	config RecomputeRatingsConfig

	lastStats atomic.Value // *RecomputeStats
}

// RecomputeRatingsConfig содержит настройки пересчёта.
type RecomputeRatingsConfig struct {
	// BatchSize - размер страницы при обходе участников.
	BatchSize int

	// Timeout ограничивает длительность всего прогона.
	Timeout time.Duration

	// SnapshotOnDrift пишет снапшот рейтинга для участников,
	// у которых пересчёт изменил MMR.
	SnapshotOnDrift bool
}

// DefaultRecomputeRatingsConfig возвращает значения по умолчанию.
func DefaultRecomputeRatingsConfig() RecomputeRatingsConfig {
	return RecomputeRatingsConfig{
		BatchSize:       200,
		Timeout:         5 * time.Minute,
		SnapshotOnDrift: true,
	}
}

// RecomputeStats содержит статистику прогона.
type RecomputeStats struct {
	StartedAt      time.Time
	CompletedAt    time.Time
	Duration       time.Duration
	TotalUsers     int
	DriftedCount   int
	TierChanges    int
	EntriesRebuilt int
	FailedCount    int
}

// NewRecomputeRatingsJob создаёт задачу пересчёта.
func NewRecomputeRatingsJob(
	userRepo user.Repository,
	ratingRepo rating.Repository,
	leaderboard LeaderboardRebuilder,
	pool PoolInvalidator,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config RecomputeRatingsConfig,
) *RecomputeRatingsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 200
	}

	return &RecomputeRatingsJob{
		userRepo:       userRepo,
		ratingRepo:     ratingRepo,
		leaderboard:    leaderboard,
		pool:           pool,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Name returns the job name.
func (j *RecomputeRatingsJob) Name() string {
	return "recompute_ratings"
}

// Description returns a human-readable description.
func (j *RecomputeRatingsJob) Description() string {
	return "Recomputes MMR from activity counters and rebuilds the leaderboard cache"
}

// Run executes the recompute job.
func (j *RecomputeRatingsJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RecomputeStats{StartedAt: startedAt}

	j.logger.Info("starting recompute_ratings job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	entries := make([]redis.LeaderboardEntry, 0, j.config.BatchSize)

	for offset := 0; ; offset += j.config.BatchSize {
		batch, err := j.userRepo.ListActive(ctx, offset, j.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to list active users: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		stats.TotalUsers += len(batch)
		for _, u := range batch {
			entry, err := j.recomputeUser(ctx, u, stats)
			if err != nil {
				stats.FailedCount++
				j.logger.Error("failed to recompute rating",
					"user_id", u.ID.String(),
					"error", err,
				)
				continue
			}
			entries = append(entries, entry)
		}

		if len(batch) < j.config.BatchSize {
			break
		}
	}

	if err := j.leaderboard.Rebuild(ctx, entries); err != nil {
		return fmt.Errorf("failed to rebuild leaderboard cache: %w", err)
	}
	stats.EntriesRebuilt = len(entries)

	// Пул кандидатов кеширует MMR, поэтому после пересчёта он устарел.
	if err := j.pool.Invalidate(ctx); err != nil {
		j.logger.Warn("failed to invalidate candidate pool cache", "error", err)
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastStats.Store(stats)

	j.logger.Info("recompute_ratings job completed",
		"duration", stats.Duration.String(),
		"total", stats.TotalUsers,
		"drifted", stats.DriftedCount,
		"tier_changes", stats.TierChanges,
		"entries", stats.EntriesRebuilt,
		"failed", stats.FailedCount,
	)

	return nil
}

// recomputeUser пересчитывает рейтинг одного участника и возвращает
// его запись для лидерборда.
func (j *RecomputeRatingsJob) recomputeUser(ctx context.Context, u *user.User, stats *RecomputeStats) (redis.LeaderboardEntry, error) {
	change := u.RebuildRating()

	if change.Changed() {
		stats.DriftedCount++

		if err := j.userRepo.Save(ctx, u); err != nil {
			return redis.LeaderboardEntry{}, fmt.Errorf("save user: %w", err)
		}

		if j.config.SnapshotOnDrift {
			snapshot := rating.Snapshot{
				ID:         uuid.NewString(),
				UserID:     u.ID,
				MMR:        u.MMR,
				TierName:   u.TierName,
				Counters:   u.Counters,
				Source:     rating.SourceRebuild,
				RecordedAt: time.Now().UTC(),
			}
			if err := j.ratingRepo.SaveSnapshot(ctx, &snapshot); err != nil {
				j.logger.Warn("failed to save rating snapshot",
					"user_id", u.ID.String(),
					"error", err,
				)
			}
		}

		mmrEvent := shared.NewMMRChangedEvent(u.ID.String(), change.OldMMR.Int(), change.NewMMR.Int(), rating.SourceRebuild)
		if err := j.eventPublisher.Publish(mmrEvent); err != nil {
			j.logger.Warn("failed to publish mmr changed event",
				"user_id", u.ID.String(),
				"error", err,
			)
		}
	}

	if change.TierChanged {
		stats.TierChanges++
		tierEvent := shared.NewTierChangedEvent(u.ID.String(), change.OldTier, change.NewTier, change.NewMMR.Int(), change.Promoted)
		if err := j.eventPublisher.Publish(tierEvent); err != nil {
			j.logger.Warn("failed to publish tier changed event",
				"user_id", u.ID.String(),
				"error", err,
			)
		}
	}

	return redis.LeaderboardEntry{
		UserID:       u.ID.String(),
		DisplayName:  u.DisplayName,
		MMR:          u.MMR.Int(),
		TierName:     u.TierName,
		IsOnline:     u.OnlineState == shared.OnlineStateOnline,
		LastActiveAt: u.LastSeenAt,
	}, nil
}

// LastStats возвращает статистику последнего прогона.
func (j *RecomputeRatingsJob) LastStats() *RecomputeStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RecomputeStats)
}
