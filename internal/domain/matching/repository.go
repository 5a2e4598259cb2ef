package matching

import (
	"context"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// POOL ASSEMBLY PORT
// Сборка пула кандидатов (фильтрация по ролям и локации) - забота
// data-слоя. Движок получает уже готовый пул.
// ══════════════════════════════════════════════════════════════════════════════

// PoolFilters - параметры сборки пула на уровне хранилища.
type PoolFilters struct {
	// Roles - ограничение по ролям (пустой список = все).
	Roles []shared.Role

	// Location - подстрока локации (пустая = все).
	Location shared.Location

	// Limit - максимальный размер пула (0 = значение по умолчанию).
	Limit int
}

// PoolRepository определяет контракт сборки пула кандидатов.
// Реализация находится в infrastructure слое (PostgreSQL + Redis кеш).
type PoolRepository interface {
	// FetchCandidatePool возвращает профили кандидатов, подходящие
	// под фильтры хранилища. Запрашивающий может присутствовать в пуле -
	// движок исключает его сам.
	FetchCandidatePool(ctx context.Context, filters PoolFilters) ([]CandidateProfile, error)

	// FetchProfile возвращает профиль одного пользователя для подбора.
	FetchProfile(ctx context.Context, userID shared.UserID) (*CandidateProfile, error)
}
