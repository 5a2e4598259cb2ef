// Package conversation содержит модель личных переписок между участниками.
package conversation

import (
	"errors"
	"strings"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// maxMessageLen ограничивает длину одного сообщения.
const maxMessageLen = 2000

var (
	// ErrEmptyMessage - пустое сообщение.
	ErrEmptyMessage = errors.New("message body is empty")

	// ErrMessageTooLong - сообщение длиннее лимита.
	ErrMessageTooLong = errors.New("message body exceeds 2000 chars")

	// ErrNotParticipant - отправитель не участвует в переписке.
	ErrNotParticipant = errors.New("user is not a conversation participant")
)

// Conversation - переписка двух участников. Пара участников
// хранится в каноническом порядке, чтобы между двумя людьми
// существовала ровно одна переписка.
type Conversation struct {
	// ID - уникальный идентификатор.
	ID string

	// ParticipantA, ParticipantB - участники (A < B лексикографически).
	ParticipantA shared.UserID
	ParticipantB shared.UserID

	// LastMessageAt - время последнего сообщения.
	LastMessageAt time.Time

	// CreatedAt - время создания переписки.
	CreatedAt time.Time
}

// NewConversation создаёт переписку с канонизацией пары участников.
func NewConversation(id string, a, b shared.UserID) (*Conversation, error) {
	if id == "" || !a.IsValid() || !b.IsValid() {
		return nil, shared.ErrInvalidID
	}
	if a == b {
		return nil, shared.ErrTeamUpSelfRequest
	}
	if b < a {
		a, b = b, a
	}
	now := time.Now().UTC()
	return &Conversation{
		ID:           id,
		ParticipantA: a,
		ParticipantB: b,
		CreatedAt:    now,
	}, nil
}

// HasParticipant проверяет, участвует ли пользователь в переписке.
func (c *Conversation) HasParticipant(id shared.UserID) bool {
	return c.ParticipantA == id || c.ParticipantB == id
}

// OtherParticipant возвращает собеседника.
func (c *Conversation) OtherParticipant(id shared.UserID) (shared.UserID, bool) {
	switch id {
	case c.ParticipantA:
		return c.ParticipantB, true
	case c.ParticipantB:
		return c.ParticipantA, true
	default:
		return "", false
	}
}

// Message - одно сообщение в переписке.
type Message struct {
	// ID - уникальный идентификатор.
	ID string

	// ConversationID - переписка.
	ConversationID string

	// SenderID - отправитель.
	SenderID shared.UserID

	// Body - текст сообщения.
	Body string

	// SentAt - время отправки.
	SentAt time.Time

	// ReadAt - время прочтения адресатом (zero = не прочитано).
	ReadAt time.Time
}

// NewMessage создаёт сообщение в переписке от имени участника.
func (c *Conversation) NewMessage(id string, senderID shared.UserID, body string) (*Message, error) {
	if id == "" {
		return nil, shared.ErrInvalidID
	}
	if !c.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if len(body) > maxMessageLen {
		return nil, ErrMessageTooLong
	}

	now := time.Now().UTC()
	c.LastMessageAt = now
	return &Message{
		ID:             id,
		ConversationID: c.ID,
		SenderID:       senderID,
		Body:           body,
		SentAt:         now,
	}, nil
}

// MarkRead помечает сообщение прочитанным.
func (m *Message) MarkRead(now time.Time) {
	if m.ReadAt.IsZero() {
		m.ReadAt = now.UTC()
	}
}
