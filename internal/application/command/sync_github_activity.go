package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC GITHUB ACTIVITY COMMAND
// Синхронизирует активность участника с GitHub и пересчитывает рейтинг.
// Это ключевая команда поддержания актуальности MMR: число публичных
// репозиториев - единственный внешний сигнал активности.
// ══════════════════════════════════════════════════════════════════════════════

// SyncGitHubActivityCommand содержит данные для синхронизации.
type SyncGitHubActivityCommand struct {
	// UserID - участник для синхронизации.
	UserID string

	// ForceSync игнорирует минимальный интервал между синхронизациями.
	ForceSync bool

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate проверяет корректность команды.
func (c SyncGitHubActivityCommand) Validate() error {
	if !shared.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidID
	}
	return nil
}

// SyncGitHubActivityResult содержит результат синхронизации.
type SyncGitHubActivityResult struct {
	// UserID - синхронизированный участник.
	UserID string

	// WasUpdated - изменились ли данные.
	WasUpdated bool

	// OldRepoCount, NewRepoCount - число репозиториев до и после.
	OldRepoCount int
	NewRepoCount int

	// OldMMR, NewMMR - рейтинг до и после.
	OldMMR int
	NewMMR int

	// TierChanged - сменился ли тир.
	TierChanged bool

	// SyncedAt - время синхронизации.
	SyncedAt time.Time
}

// ─────────────────────────────────────────────────────────────────────────────
// Dependencies
// ─────────────────────────────────────────────────────────────────────────────

// GitHubProfile - данные профиля, полученные из GitHub API.
type GitHubProfile struct {
	Login       string
	Name        string
	PublicRepos int
	Followers   int
	AvatarURL   string
	FetchedAt   time.Time
}

// GitHubClient определяет контракт клиента GitHub API.
type GitHubClient interface {
	// GetUser возвращает публичный профиль по логину.
	GetUser(ctx context.Context, login string) (*GitHubProfile, error)
}

// ErrSyncedRecently - синхронизация пропущена из-за недавнего обновления.
var ErrSyncedRecently = errors.New("sync_github: user was synced recently")

// ─────────────────────────────────────────────────────────────────────────────
// Handler
// ─────────────────────────────────────────────────────────────────────────────

// defaultMinSyncInterval - минимальный интервал между синхронизациями.
const defaultMinSyncInterval = 30 * time.Minute

// SyncGitHubActivityHandler обрабатывает SyncGitHubActivityCommand.
type SyncGitHubActivityHandler struct {
	userRepo       user.Repository
	ratingRepo     rating.Repository
	githubClient   GitHubClient
	eventPublisher shared.EventPublisher

	minSyncInterval time.Duration
}

// SyncGitHubActivityHandlerConfig содержит настройки обработчика.
type SyncGitHubActivityHandlerConfig struct {
	MinSyncInterval time.Duration
}

// NewSyncGitHubActivityHandler создаёт обработчик синхронизации.
func NewSyncGitHubActivityHandler(
	userRepo user.Repository,
	ratingRepo rating.Repository,
	githubClient GitHubClient,
	eventPublisher shared.EventPublisher,
	cfg SyncGitHubActivityHandlerConfig,
) *SyncGitHubActivityHandler {
	interval := cfg.MinSyncInterval
	if interval <= 0 {
		interval = defaultMinSyncInterval
	}
	return &SyncGitHubActivityHandler{
		userRepo:        userRepo,
		ratingRepo:      ratingRepo,
		githubClient:    githubClient,
		eventPublisher:  eventPublisher,
		minSyncInterval: interval,
	}
}

// Handle выполняет синхронизацию.
func (h *SyncGitHubActivityHandler) Handle(ctx context.Context, cmd SyncGitHubActivityCommand) (*SyncGitHubActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	u, err := h.userRepo.GetByID(ctx, shared.UserID(cmd.UserID))
	if err != nil {
		return nil, fmt.Errorf("sync_github: load user: %w", err)
	}

	if u.GitHubLogin == "" {
		return nil, shared.ErrGitHubNotLinked
	}

	if !cmd.ForceSync && time.Since(u.LastSyncedAt) < h.minSyncInterval {
		return nil, ErrSyncedRecently
	}

	profile, err := h.githubClient.GetUser(ctx, u.GitHubLogin.String())
	if err != nil {
		return nil, fmt.Errorf("sync_github: fetch profile: %w", err)
	}

	oldRepoCount := u.Counters.RepositoryCount
	change := u.ApplyGitHubSync(profile.PublicRepos)

	if err := h.userRepo.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("sync_github: save user: %w", err)
	}

	// История рейтинга пишется только при реальном изменении значения.
	if change.Changed() {
		snapshot := rating.Snapshot{
			ID:         uuid.NewString(),
			UserID:     u.ID,
			MMR:        u.MMR,
			TierName:   u.TierName,
			Counters:   u.Counters,
			Source:     rating.SourceGitHubSync,
			RecordedAt: u.LastSyncedAt,
		}
		if err := h.ratingRepo.SaveSnapshot(ctx, &snapshot); err != nil {
			return nil, fmt.Errorf("sync_github: save snapshot: %w", err)
		}
	}

	h.publishEvents(u, oldRepoCount, change, cmd.CorrelationID)

	return &SyncGitHubActivityResult{
		UserID:       u.ID.String(),
		WasUpdated:   oldRepoCount != profile.PublicRepos,
		OldRepoCount: oldRepoCount,
		NewRepoCount: profile.PublicRepos,
		OldMMR:       change.OldMMR.Int(),
		NewMMR:       change.NewMMR.Int(),
		TierChanged:  change.TierChanged,
		SyncedAt:     u.LastSyncedAt,
	}, nil
}

func (h *SyncGitHubActivityHandler) publishEvents(u *user.User, oldRepoCount int, change user.RatingChange, correlationID string) {
	synced := shared.NewGitHubSyncedEvent(u.ID.String(), u.GitHubLogin.String(), u.Counters.RepositoryCount, oldRepoCount)
	synced.BaseEvent = synced.WithCorrelationID(correlationID)
	_ = h.eventPublisher.Publish(synced)

	if change.Changed() {
		mmrEvent := shared.NewMMRChangedEvent(u.ID.String(), change.OldMMR.Int(), change.NewMMR.Int(), rating.SourceGitHubSync)
		mmrEvent.BaseEvent = mmrEvent.WithCorrelationID(correlationID)
		_ = h.eventPublisher.Publish(mmrEvent)
	}

	if change.TierChanged {
		tierEvent := shared.NewTierChangedEvent(u.ID.String(), change.OldTier, change.NewTier, change.NewMMR.Int(), change.Promoted)
		tierEvent.BaseEvent = tierEvent.WithCorrelationID(correlationID)
		_ = h.eventPublisher.Publish(tierEvent)
	}
}
