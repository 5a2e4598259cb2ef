package team

import (
	"context"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// Repository определяет контракт хранилища команд и приглашений.
type Repository interface {
	// SaveTeam создаёт или обновляет команду.
	SaveTeam(ctx context.Context, t *Team) error

	// GetTeam возвращает команду по ID.
	GetTeam(ctx context.Context, id shared.TeamID) (*Team, error)

	// ListTeamsByMember возвращает команды, в которых состоит участник.
	ListTeamsByMember(ctx context.Context, userID shared.UserID) ([]*Team, error)

	// SaveRequest создаёт или обновляет приглашение.
	// Возвращает shared.ErrTeamUpDuplicate, если между той же парой
	// участников уже висит pending-приглашение.
	SaveRequest(ctx context.Context, r *TeamUpRequest) error

	// GetRequest возвращает приглашение по ID.
	GetRequest(ctx context.Context, id string) (*TeamUpRequest, error)

	// ListRequestsForUser возвращает входящие pending-приглашения.
	ListRequestsForUser(ctx context.Context, addresseeID shared.UserID, limit int) ([]*TeamUpRequest, error)

	// ListRequestsByUser возвращает исходящие приглашения.
	ListRequestsByUser(ctx context.Context, requesterID shared.UserID, limit int) ([]*TeamUpRequest, error)

	// ListExpiredPending возвращает pending-приглашения с истёкшим
	// дедлайном для фонового перевода в expired.
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*TeamUpRequest, error)
}
