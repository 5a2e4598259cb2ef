package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/axiom-hq/axiom-hub/internal/application/query"
	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY DIGEST JOB
// Ежедневная сводка для участников, включивших её в настройках: подборка
// наиболее совместимых кандидатов в команду. Сводка - мягкий повод вернуться
// на платформу, пока совместимость высока и кандидаты ещё свободны.
// ══════════════════════════════════════════════════════════════════════════════

// TeammateFinder подбирает кандидатов для участника.
// Реализуется query.FindTeammatesHandler.
type TeammateFinder interface {
	Handle(ctx context.Context, q query.FindTeammatesQuery) (*query.FindTeammatesResult, error)
}

// DailyDigestJob формирует и сохраняет уведомления-сводки.
// Фактическую доставку выполняет диспетчер уведомлений.
type DailyDigestJob struct {
	userRepo         user.Repository
	finder           TeammateFinder
	notificationRepo notification.Repository
	logger           *slog.Logger

	config DailyDigestConfig

	lastStats atomic.Value // *DigestStats
}

// DailyDigestConfig содержит настройки сводки.
type DailyDigestConfig struct {
	// MinCompatibility - порог совместимости кандидата для попадания
	// в сводку.
	MinCompatibility int

	// MaxCandidates - сколько кандидатов включать в сводку.
	MaxCandidates int

	// Concurrency - сколько сводок формировать параллельно.
	Concurrency int

	// BatchSize - размер страницы при обходе участников.
	BatchSize int

	// Timeout ограничивает длительность прогона.
	Timeout time.Duration
}

// DefaultDailyDigestConfig возвращает значения по умолчанию.
func DefaultDailyDigestConfig() DailyDigestConfig {
	return DailyDigestConfig{
		MinCompatibility: 70,
		MaxCandidates:    3,
		Concurrency:      4,
		BatchSize:        200,
		Timeout:          5 * time.Minute,
	}
}

// DigestStats содержит статистику прогона.
type DigestStats struct {
	StartedAt    time.Time
	CompletedAt  time.Time
	Duration     time.Duration
	TotalUsers   int
	OptedInCount int
	DigestsBuilt int
	EmptyCount   int
	FailedCount  int
}

// NewDailyDigestJob создаёт задачу сводки.
func NewDailyDigestJob(
	userRepo user.Repository,
	finder TeammateFinder,
	notificationRepo notification.Repository,
	logger *slog.Logger,
	config DailyDigestConfig,
) *DailyDigestJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MinCompatibility <= 0 {
		config.MinCompatibility = 70
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 3
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 200
	}

	return &DailyDigestJob{
		userRepo:         userRepo,
		finder:           finder,
		notificationRepo: notificationRepo,
		logger:           logger,
		config:           config,
	}
}

// Name returns the job name.
func (j *DailyDigestJob) Name() string {
	return "daily_digest"
}

// Description returns a human-readable description.
func (j *DailyDigestJob) Description() string {
	return "Builds daily teammate-candidate digests for opted-in users"
}

// Run executes the digest job.
func (j *DailyDigestJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &DigestStats{StartedAt: startedAt}

	j.logger.Info("starting daily_digest job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	for offset := 0; ; offset += j.config.BatchSize {
		batch, err := j.userRepo.ListActive(ctx, offset, j.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to list active users: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		stats.TotalUsers += len(batch)
		j.buildBatch(ctx, batch, stats)

		if ctx.Err() != nil {
			break
		}
		if len(batch) < j.config.BatchSize {
			break
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastStats.Store(stats)

	j.logger.Info("daily_digest job completed",
		"duration", stats.Duration.String(),
		"total", stats.TotalUsers,
		"opted_in", stats.OptedInCount,
		"built", stats.DigestsBuilt,
		"empty", stats.EmptyCount,
		"failed", stats.FailedCount,
	)

	return nil
}

// buildBatch формирует сводки для пачки участников через пул воркеров.
func (j *DailyDigestJob) buildBatch(ctx context.Context, batch []*user.User, stats *DigestStats) {
	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, j.config.Concurrency)
		mu        sync.Mutex
	)

	for _, u := range batch {
		if !u.Preferences.DailyDigest {
			continue
		}
		stats.OptedInCount++

		select {
		case <-ctx.Done():
			return
		default:
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(recipient *user.User) {
			defer wg.Done()
			defer func() { <-semaphore }()

			built, err := j.buildDigest(ctx, recipient)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				stats.FailedCount++
				j.logger.Error("failed to build digest",
					"user_id", recipient.ID.String(),
					"error", err,
				)
			case built:
				stats.DigestsBuilt++
			default:
				stats.EmptyCount++
			}
		}(u)
	}

	wg.Wait()
}

// buildDigest подбирает кандидатов и сохраняет уведомление-сводку.
// Возвращает false без ошибки, если подходящих кандидатов нет:
// пустая сводка хуже отсутствия сводки.
func (j *DailyDigestJob) buildDigest(ctx context.Context, recipient *user.User) (bool, error) {
	result, err := j.finder.Handle(ctx, query.FindTeammatesQuery{
		RequesterID:      recipient.ID.String(),
		MinCompatibility: j.config.MinCompatibility,
		Limit:            j.config.MaxCandidates,
	})
	if err != nil {
		return false, fmt.Errorf("find teammates: %w", err)
	}

	if len(result.Teammates) == 0 {
		return false, nil
	}

	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(uuid.NewString()),
		Type:        notification.TypeDailyDigest,
		RecipientID: recipient.ID,
		Channel:     notification.ChannelEmail,
		Title:       "Ваши кандидаты на сегодня",
		Body:        j.renderBody(result.Teammates),
	})
	if err != nil {
		return false, fmt.Errorf("build notification: %w", err)
	}

	if err := j.notificationRepo.Save(ctx, n); err != nil {
		return false, fmt.Errorf("save notification: %w", err)
	}

	return true, nil
}

// renderBody собирает текст сводки.
func (j *DailyDigestJob) renderBody(teammates []query.TeammateDTO) string {
	var b strings.Builder
	b.WriteString("Сегодня вам особенно подходят:\n\n")

	for i, t := range teammates {
		fmt.Fprintf(&b, "%d. %s (%s, %s) - совместимость %d/100\n",
			i+1, t.DisplayName, t.TierName, t.MMRFormatted, t.Score)
	}

	b.WriteString("\nОтправьте team-up приглашение, пока они свободны.")
	return b.String()
}

// LastStats возвращает статистику последнего прогона.
func (j *DailyDigestJob) LastStats() *DigestStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*DigestStats)
}
