package conversation

import (
	"context"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// Repository определяет контракт хранилища переписок.
type Repository interface {
	// SaveConversation создаёт или обновляет переписку.
	SaveConversation(ctx context.Context, c *Conversation) error

	// GetConversation возвращает переписку по ID.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// FindByParticipants возвращает переписку между двумя участниками
	// (порядок аргументов не важен).
	FindByParticipants(ctx context.Context, a, b shared.UserID) (*Conversation, error)

	// ListByParticipant возвращает переписки участника,
	// отсортированные по времени последнего сообщения.
	ListByParticipant(ctx context.Context, userID shared.UserID, limit int) ([]*Conversation, error)

	// SaveMessage сохраняет сообщение.
	SaveMessage(ctx context.Context, m *Message) error

	// ListMessages возвращает сообщения переписки от новых к старым.
	ListMessages(ctx context.Context, conversationID string, offset, limit int) ([]*Message, error)

	// MarkRead помечает все сообщения переписки, адресованные
	// пользователю, прочитанными. Возвращает число обновлённых.
	MarkRead(ctx context.Context, conversationID string, readerID shared.UserID) (int, error)

	// CountUnread возвращает число непрочитанных сообщений пользователя.
	CountUnread(ctx context.Context, userID shared.UserID) (int, error)
}
