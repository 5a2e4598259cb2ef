// Package jobs содержит фоновые задачи Axiom Hub: синхронизацию активности
// с GitHub, пересчёт рейтингов, истечение team-up приглашений, доставку
// уведомлений и ежедневную сводку кандидатов. Каждая задача реализует
// интерфейс Job планировщика и собирает статистику последнего запуска.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/application/command"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC GITHUB ALL JOB
// Периодически обновляет данные GitHub всех участников с привязанным
// аккаунтом. Число публичных репозиториев - единственный внешний сигнал
// активности, поэтому свежесть этих данных определяет точность MMR.
// ══════════════════════════════════════════════════════════════════════════════

// GitHubSyncer выполняет синхронизацию одного участника.
// Реализуется command.SyncGitHubActivityHandler.
type GitHubSyncer interface {
	Handle(ctx context.Context, cmd command.SyncGitHubActivityCommand) (*command.SyncGitHubActivityResult, error)
}

// SyncGitHubAllJob обходит участников, не синхронизированных дольше
// MinSyncInterval, и прогоняет каждого через SyncGitHubActivityHandler.
type SyncGitHubAllJob struct {
	userRepo       user.Repository
	syncer         GitHubSyncer
	eventPublisher shared.EventPublisher
	logger         *slog.Logger

	config SyncGitHubAllConfig

	lastStats atomic.Value // *GitHubSyncStats
}

// SyncGitHubAllConfig содержит настройки задачи.
type SyncGitHubAllConfig struct {
	// Concurrency - сколько участников синхронизировать параллельно.
	// GitHub без токена даёт 60 запросов в час, поэтому по умолчанию
	// параллелизм скромный.
	Concurrency int

	// BatchSize - сколько участников забирать из хранилища за раз.
	BatchSize int

	// MinSyncInterval - минимальный интервал между синхронизациями
	// одного участника.
	MinSyncInterval time.Duration

	// Timeout ограничивает длительность всего прогона.
	Timeout time.Duration
}

// DefaultSyncGitHubAllConfig возвращает значения по умолчанию.
func DefaultSyncGitHubAllConfig() SyncGitHubAllConfig {
	return SyncGitHubAllConfig{
		Concurrency:     3,
		BatchSize:       50,
		MinSyncInterval: 30 * time.Minute,
		Timeout:         10 * time.Minute,
	}
}

// GitHubSyncStats содержит статистику прогона.
type GitHubSyncStats struct {
	StartedAt    time.Time
	CompletedAt  time.Time
	Duration     time.Duration
	TotalUsers   int
	SyncedCount  int
	UpdatedCount int
	SkippedCount int
	FailedCount  int
	TierChanges  int
	Errors       []GitHubSyncError
}

// GitHubSyncError описывает ошибку синхронизации одного участника.
type GitHubSyncError struct {
	UserID     string
	Error      error
	OccurredAt time.Time
}

// NewSyncGitHubAllJob создаёт задачу синхронизации.
func NewSyncGitHubAllJob(
	userRepo user.Repository,
	syncer GitHubSyncer,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config SyncGitHubAllConfig,
) *SyncGitHubAllJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.MinSyncInterval <= 0 {
		config.MinSyncInterval = 30 * time.Minute
	}

	return &SyncGitHubAllJob{
		userRepo:       userRepo,
		syncer:         syncer,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Name returns the job name.
func (j *SyncGitHubAllJob) Name() string {
	return "sync_github_all"
}

// Description returns a human-readable description.
func (j *SyncGitHubAllJob) Description() string {
	return "Refreshes GitHub activity for all linked users and recomputes their ratings"
}

// Run executes the sync job.
func (j *SyncGitHubAllJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &GitHubSyncStats{
		StartedAt: startedAt,
		Errors:    make([]GitHubSyncError, 0),
	}

	j.logger.Info("starting sync_github_all job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	threshold := time.Now().Add(-j.config.MinSyncInterval)

	// Пачки забираются заново после каждого прогона: синхронизированные
	// участники выпадают из выборки по LastSyncedAt.
	for {
		batch, err := j.userRepo.ListForSync(ctx, threshold, j.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to list users for sync: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		stats.TotalUsers += len(batch)
		j.syncBatch(ctx, batch, stats)

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

	event := shared.NewSyncCompletedEvent(j.Name(), stats.SyncedCount, stats.FailedCount, stats.Duration)
	if err := j.eventPublisher.Publish(event); err != nil {
		j.logger.Warn("failed to publish sync completed event", "error", err)
	}

	j.logger.Info("sync_github_all job completed",
		"duration", stats.Duration.String(),
		"total", stats.TotalUsers,
		"synced", stats.SyncedCount,
		"updated", stats.UpdatedCount,
		"failed", stats.FailedCount,
		"skipped", stats.SkippedCount,
		"tier_changes", stats.TierChanges,
	)

	if stats.TotalUsers > 0 {
		failureRate := float64(stats.FailedCount) / float64(stats.TotalUsers)
		if failureRate > 0.5 {
			return fmt.Errorf("sync failed for more than half of users (%d/%d)",
				stats.FailedCount, stats.TotalUsers)
		}
	}

	return nil
}

// syncBatch синхронизирует пачку участников через пул воркеров.
func (j *SyncGitHubAllJob) syncBatch(ctx context.Context, batch []*user.User, stats *GitHubSyncStats) {
	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, j.config.Concurrency)
		mu        sync.Mutex
	)

	for _, u := range batch {
		select {
		case <-ctx.Done():
			return
		default:
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(target *user.User) {
			defer wg.Done()
			defer func() { <-semaphore }()

			result, err := j.syncer.Handle(ctx, command.SyncGitHubActivityCommand{
				UserID: target.ID.String(),
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case errors.Is(err, command.ErrSyncedRecently):
				stats.SkippedCount++
			case err != nil:
				stats.FailedCount++
				stats.Errors = append(stats.Errors, GitHubSyncError{
					UserID:     target.ID.String(),
					Error:      err,
					OccurredAt: time.Now(),
				})
				j.logger.Error("failed to sync user",
					"user_id", target.ID.String(),
					"github_login", target.GitHubLogin.String(),
					"error", err,
				)
			default:
				stats.SyncedCount++
				if result.WasUpdated {
					stats.UpdatedCount++
				}
				if result.TierChanged {
					stats.TierChanges++
				}
			}
		}(u)
	}

	wg.Wait()
}

// LastStats возвращает статистику последнего прогона.
func (j *SyncGitHubAllJob) LastStats() *GitHubSyncStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*GitHubSyncStats)
}

// SyncSingleUser синхронизирует одного участника по запросу,
// игнорируя минимальный интервал.
func (j *SyncGitHubAllJob) SyncSingleUser(ctx context.Context, userID string) error {
	_, err := j.syncer.Handle(ctx, command.SyncGitHubActivityCommand{
		UserID:    userID,
		ForceSync: true,
	})
	return err
}
