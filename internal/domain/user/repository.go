package user

import (
	"context"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/matching"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// Repository определяет контракт хранилища участников.
// Реализация живёт в infrastructure/persistence.
type Repository interface {
	// Save создаёт или обновляет участника (upsert по ID).
	Save(ctx context.Context, u *User) error

	// GetByID возвращает участника по внутреннему ID.
	GetByID(ctx context.Context, id shared.UserID) (*User, error)

	// GetByEmail возвращает участника по email.
	GetByEmail(ctx context.Context, email shared.Email) (*User, error)

	// GetByGitHubLogin возвращает участника по привязанному GitHub аккаунту.
	GetByGitHubLogin(ctx context.Context, login shared.GitHubLogin) (*User, error)

	// ListActive возвращает активных участников постранично.
	ListActive(ctx context.Context, offset, limit int) ([]*User, error)

	// ListForSync возвращает участников с привязанным GitHub,
	// не синхронизированных дольше указанного порога.
	ListForSync(ctx context.Context, olderThan time.Time, limit int) ([]*User, error)

	// FetchCandidatePool возвращает проекции активных участников
	// для движка подбора с учётом грубых фильтров.
	FetchCandidatePool(ctx context.Context, filters matching.PoolFilters) ([]matching.CandidateProfile, error)

	// UpdatePresence обновляет онлайн-состояние без полной записи.
	UpdatePresence(ctx context.Context, id shared.UserID, state shared.OnlineState, seenAt time.Time) error

	// CountByStatus возвращает количество участников в каждом статусе.
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
