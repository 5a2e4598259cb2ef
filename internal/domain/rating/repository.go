package rating

import (
	"context"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATING SNAPSHOT
// История рейтинга. Сам MMR - производная величина и пересчитывается из
// счётчиков; снапшоты хранятся только для истории и лидерборда.
// ══════════════════════════════════════════════════════════════════════════════

// Источники пересчёта рейтинга.
const (
	SourceGitHubSync      = "github_sync"
	SourceHackathonResult = "hackathon_result"
	SourceRebuild         = "rebuild"
)

// Snapshot представляет зафиксированное значение рейтинга пользователя.
type Snapshot struct {
	// ID - уникальный идентификатор снапшота (UUID).
	ID string

	// UserID - чей рейтинг.
	UserID shared.UserID

	// MMR - значение рейтинга на момент снапшота.
	MMR shared.MMR

	// TierName - имя тира на момент снапшота.
	TierName string

	// Counters - счётчики, из которых рейтинг был вычислен.
	Counters ActivityCounters

	// Source - что вызвало пересчёт ("github_sync", "hackathon_result", "rebuild").
	Source string

	// RecordedAt - когда снапшот зафиксирован.
	RecordedAt time.Time
}

// LeaderboardEntry - запись лидерборда по MMR.
type LeaderboardEntry struct {
	// UserID - пользователь.
	UserID shared.UserID

	// DisplayName - имя для отображения.
	DisplayName string

	// MMR - текущий рейтинг.
	MMR shared.MMR

	// TierName - текущий тир.
	TierName string

	// Rank - позиция (с 1).
	Rank int
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Реализация находится в infrastructure слое (PostgreSQL, Redis).
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт хранения истории рейтинга.
type Repository interface {
	// SaveSnapshot сохраняет снапшот рейтинга.
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error

	// GetLatestSnapshot возвращает последний снапшот пользователя.
	GetLatestSnapshot(ctx context.Context, userID shared.UserID) (*Snapshot, error)

	// ListSnapshots возвращает историю рейтинга пользователя за период.
	ListSnapshots(ctx context.Context, userID shared.UserID, from, to time.Time) ([]*Snapshot, error)

	// GetLeaderboard возвращает топ-N пользователей по текущему MMR.
	GetLeaderboard(ctx context.Context, limit, offset int) ([]*LeaderboardEntry, error)

	// DeleteOldSnapshots удаляет снапшоты старше указанного времени.
	// Возвращает количество удалённых записей.
	DeleteOldSnapshots(ctx context.Context, olderThan time.Time) (int, error)
}
