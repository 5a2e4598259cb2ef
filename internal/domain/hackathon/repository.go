package hackathon

import (
	"context"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// Repository определяет контракт хранилища хакатонов.
type Repository interface {
	// Save создаёт или обновляет хакатон.
	Save(ctx context.Context, h *Hackathon) error

	// GetByID возвращает хакатон по ID.
	GetByID(ctx context.Context, id shared.HackathonID) (*Hackathon, error)

	// ListByStatus возвращает хакатоны в указанном статусе.
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Hackathon, error)

	// SaveRegistration сохраняет заявку участника.
	// Возвращает shared.ErrAlreadyRegistered при повторной заявке.
	SaveRegistration(ctx context.Context, reg Registration) error

	// ListRegistrations возвращает заявки на хакатон.
	ListRegistrations(ctx context.Context, id shared.HackathonID) ([]Registration, error)

	// SaveResult сохраняет результат участника.
	// Возвращает shared.ErrResultAlreadyRecorded при повторной записи.
	SaveResult(ctx context.Context, res Result) error

	// GetResult возвращает результат участника в хакатоне.
	GetResult(ctx context.Context, id shared.HackathonID, userID shared.UserID) (Result, error)

	// ListResultsByUser возвращает все результаты участника.
	ListResultsByUser(ctx context.Context, userID shared.UserID) ([]Result, error)
}
