package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/infrastructure/mailer"
	"github.com/axiom-hq/axiom-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCH NOTIFICATIONS JOB
// Прокачивает очередь pending-уведомлений через диспетчер доставки и
// возвращает в очередь failed-уведомления с оставшимися попытками.
// Частый запуск (раз в минуту) делает доставку почти realtime, не требуя
// отдельного брокера.
// ══════════════════════════════════════════════════════════════════════════════

// NotificationDispatcher прокачивает очередь уведомлений.
// Реализуется mailer.Dispatcher.
type NotificationDispatcher interface {
	DispatchPending(ctx context.Context, batchSize int) (mailer.DispatchStats, error)
	RetryFailed(ctx context.Context, batchSize int) (int, error)
}

// DispatchNotificationsJob выполняет один цикл доставки.
type DispatchNotificationsJob struct {
	dispatcher NotificationDispatcher
	logger     *slog.Logger

	config DispatchNotificationsConfig

	lastStats atomic.Value // *DispatchRunStats
}

// DispatchNotificationsConfig содержит настройки цикла доставки.
type DispatchNotificationsConfig struct {
	// BatchSize - сколько уведомлений обрабатывать за прогон.
	BatchSize int

	// RetryFailed - возвращать ли failed-уведомления в очередь.
	RetryFailed bool

	// RespectQuietHours - откладывать ли доставку в ночные часы (UTC).
	// Уведомления остаются pending и уходят утренним прогоном.
	RespectQuietHours bool

	// Timeout ограничивает длительность прогона.
	Timeout time.Duration
}

// DefaultDispatchNotificationsConfig возвращает значения по умолчанию.
func DefaultDispatchNotificationsConfig() DispatchNotificationsConfig {
	return DispatchNotificationsConfig{
		BatchSize:         100,
		RetryFailed:       true,
		RespectQuietHours: true,
		Timeout:           time.Minute,
	}
}

// DispatchRunStats содержит статистику прогона.
type DispatchRunStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Delivered   int
	Skipped     int
	Failed      int
	Requeued    int
}

// NewDispatchNotificationsJob создаёт задачу доставки.
func NewDispatchNotificationsJob(
	dispatcher NotificationDispatcher,
	logger *slog.Logger,
	config DispatchNotificationsConfig,
) *DispatchNotificationsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	return &DispatchNotificationsJob{
		dispatcher: dispatcher,
		logger:     logger,
		config:     config,
	}
}

// Name returns the job name.
func (j *DispatchNotificationsJob) Name() string {
	return "dispatch_notifications"
}

// Description returns a human-readable description.
func (j *DispatchNotificationsJob) Description() string {
	return "Delivers pending notifications and requeues retryable failures"
}

// Run executes one delivery cycle.
func (j *DispatchNotificationsJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &DispatchRunStats{StartedAt: startedAt}

	if j.config.RespectQuietHours && !timeutil.IsSafeNotificationTime(startedAt) {
		j.logger.Debug("dispatch_notifications deferred until quiet hours end",
			"resume_at", timeutil.NextSafeNotificationTime(startedAt),
		)
		return nil
	}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	dispatched, err := j.dispatcher.DispatchPending(ctx, j.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to dispatch pending notifications: %w", err)
	}
	stats.Delivered = dispatched.Delivered
	stats.Skipped = dispatched.Skipped
	stats.Failed = dispatched.Failed

	if j.config.RetryFailed {
		requeued, err := j.dispatcher.RetryFailed(ctx, j.config.BatchSize)
		if err != nil {
			j.logger.Warn("failed to requeue failed notifications", "error", err)
		} else {
			stats.Requeued = requeued
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastStats.Store(stats)

	if stats.Delivered+stats.Skipped+stats.Failed+stats.Requeued > 0 {
		j.logger.Info("dispatch_notifications job completed",
			"delivered", stats.Delivered,
			"skipped", stats.Skipped,
			"failed", stats.Failed,
			"requeued", stats.Requeued,
		)
	}

	return nil
}

// LastStats возвращает статистику последнего прогона.
func (j *DispatchNotificationsJob) LastStats() *DispatchRunStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*DispatchRunStats)
}
