package notification

import (
	"context"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// Repository определяет контракт хранилища уведомлений.
type Repository interface {
	// Save создаёт или обновляет уведомление.
	Save(ctx context.Context, n *Notification) error

	// GetByID возвращает уведомление по ID.
	GetByID(ctx context.Context, id NotificationID) (*Notification, error)

	// ListPending возвращает уведомления, ожидающие отправки.
	ListPending(ctx context.Context, limit int) ([]*Notification, error)

	// ListByStatus возвращает уведомления в заданном статусе,
	// от старых к новым.
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Notification, error)

	// ListByRecipient возвращает уведомления участника от новых к старым.
	ListByRecipient(ctx context.Context, userID shared.UserID, offset, limit int) ([]*Notification, error)

	// CountUndelivered возвращает число in-app уведомлений,
	// ещё не показанных участнику.
	CountUndelivered(ctx context.Context, userID shared.UserID) (int, error)
}

// Sender отправляет уведомление по его каналу.
// Реализации живут в infrastructure (SMTP, in-app).
type Sender interface {
	// Send доставляет уведомление. Ошибка означает неудачную попытку,
	// решение о повторе принимает вызывающий.
	Send(ctx context.Context, n *Notification) error
}
