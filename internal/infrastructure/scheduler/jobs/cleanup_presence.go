package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLEANUP PRESENCE JOB
// Трекер присутствия хранит запись о каждом участнике в сортированном
// множестве. Ключ статуса истекает по TTL, запись в множестве - нет,
// её подчищает эта задача.
// ══════════════════════════════════════════════════════════════════════════════

// StaleCleaner удаляет протухшие записи присутствия.
// Реализуется redis.OnlineTracker.
type StaleCleaner interface {
	CleanupStale(ctx context.Context) (int64, error)
}

// CleanupPresenceJob подчищает трекер присутствия.
type CleanupPresenceJob struct {
	cleaner StaleCleaner
	logger  *slog.Logger
	timeout time.Duration
}

// NewCleanupPresenceJob создаёт задачу очистки.
func NewCleanupPresenceJob(cleaner StaleCleaner, logger *slog.Logger, timeout time.Duration) *CleanupPresenceJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &CleanupPresenceJob{
		cleaner: cleaner,
		logger:  logger,
		timeout: timeout,
	}
}

// Name returns the job name.
func (j *CleanupPresenceJob) Name() string {
	return "cleanup_presence"
}

// Description returns a human-readable description.
func (j *CleanupPresenceJob) Description() string {
	return "Removes stale entries from the online presence tracker"
}

// Run executes one cleanup pass.
func (j *CleanupPresenceJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	removed, err := j.cleaner.CleanupStale(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup stale presence entries: %w", err)
	}

	if removed > 0 {
		j.logger.Info("cleanup_presence job completed", "removed", removed)
	}

	return nil
}
