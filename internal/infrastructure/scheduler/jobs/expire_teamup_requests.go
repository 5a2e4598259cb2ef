package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/team"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE TEAMUP REQUESTS JOB
// Переводит просроченные pending-приглашения в expired и уведомляет
// отправителя. Приглашение без ответа живёт 72 часа; без этой задачи
// оно висело бы pending вечно и блокировало повторную отправку той же паре.
// ══════════════════════════════════════════════════════════════════════════════

// ExpireTeamUpRequestsJob обрабатывает истечение приглашений.
type ExpireTeamUpRequestsJob struct {
	teamRepo         team.Repository
	notificationRepo notification.Repository
	eventPublisher   shared.EventPublisher
	logger           *slog.Logger

	config ExpireTeamUpRequestsConfig

	// now подменяется в тестах.
	now func() time.Time

	lastStats atomic.Value // *ExpireStats
}

// ExpireTeamUpRequestsConfig содержит настройки задачи.
type ExpireTeamUpRequestsConfig struct {
	// BatchSize - сколько приглашений обрабатывать за прогон.
	BatchSize int

	// NotifyRequester - уведомлять ли отправителя об истечении.
	NotifyRequester bool

	// Timeout ограничивает длительность прогона.
	Timeout time.Duration
}

// DefaultExpireTeamUpRequestsConfig возвращает значения по умолчанию.
func DefaultExpireTeamUpRequestsConfig() ExpireTeamUpRequestsConfig {
	return ExpireTeamUpRequestsConfig{
		BatchSize:       100,
		NotifyRequester: true,
		Timeout:         time.Minute,
	}
}

// ExpireStats содержит статистику прогона.
type ExpireStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	ExpiredCount  int
	NotifiedCount int
	FailedCount   int
}

// NewExpireTeamUpRequestsJob создаёт задачу истечения приглашений.
func NewExpireTeamUpRequestsJob(
	teamRepo team.Repository,
	notificationRepo notification.Repository,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config ExpireTeamUpRequestsConfig,
) *ExpireTeamUpRequestsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	return &ExpireTeamUpRequestsJob{
		teamRepo:         teamRepo,
		notificationRepo: notificationRepo,
		eventPublisher:   eventPublisher,
		logger:           logger,
		config:           config,
		now:              time.Now,
	}
}

// Name returns the job name.
func (j *ExpireTeamUpRequestsJob) Name() string {
	return "expire_teamup_requests"
}

// Description returns a human-readable description.
func (j *ExpireTeamUpRequestsJob) Description() string {
	return "Moves overdue pending team-up requests to expired and notifies requesters"
}

// Run executes the expiry job.
func (j *ExpireTeamUpRequestsJob) Run(ctx context.Context) error {
	startedAt := j.now()
	stats := &ExpireStats{StartedAt: startedAt}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	now := j.now().UTC()
	requests, err := j.teamRepo.ListExpiredPending(ctx, now, j.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to list expired requests: %w", err)
	}

	for _, r := range requests {
		if !r.MarkExpired(now) {
			continue
		}

		if err := j.teamRepo.SaveRequest(ctx, r); err != nil {
			stats.FailedCount++
			j.logger.Error("failed to save expired request",
				"request_id", r.ID,
				"error", err,
			)
			continue
		}
		stats.ExpiredCount++

		event := shared.NewTeamUpExpiredEvent(r.ID, r.RequesterID.String(), r.AddresseeID.String())
		if err := j.eventPublisher.Publish(event); err != nil {
			j.logger.Warn("failed to publish teamup expired event",
				"request_id", r.ID,
				"error", err,
			)
		}

		if j.config.NotifyRequester {
			j.notifyRequester(ctx, r, stats)
		}
	}

	stats.CompletedAt = j.now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastStats.Store(stats)

	if stats.ExpiredCount > 0 {
		j.logger.Info("expire_teamup_requests job completed",
			"expired", stats.ExpiredCount,
			"notified", stats.NotifiedCount,
			"failed", stats.FailedCount,
		)
	}

	return nil
}

// notifyRequester создаёт in-app уведомление отправителю приглашения.
func (j *ExpireTeamUpRequestsJob) notifyRequester(ctx context.Context, r *team.TeamUpRequest, stats *ExpireStats) {
	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(uuid.NewString()),
		Type:        notification.TypeTeamUpExpiring,
		RecipientID: r.RequesterID,
		Channel:     notification.ChannelInApp,
		Title:       "Приглашение истекло",
		Body:        "Ваше team-up приглашение осталось без ответа и истекло. Попробуйте пригласить другого кандидата.",
	})
	if err != nil {
		j.logger.Warn("failed to build expiry notification",
			"request_id", r.ID,
			"error", err,
		)
		return
	}

	if err := j.notificationRepo.Save(ctx, n); err != nil {
		j.logger.Warn("failed to save expiry notification",
			"request_id", r.ID,
			"error", err,
		)
		return
	}
	stats.NotifiedCount++
}

// LastStats возвращает статистику последнего прогона.
func (j *ExpireTeamUpRequestsJob) LastStats() *ExpireStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ExpireStats)
}
