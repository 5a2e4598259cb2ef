package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/axiom-hq/axiom-hub/internal/domain/conversation"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEND MESSAGE COMMAND
// Отправляет личное сообщение. Переписка между парой создаётся лениво
// при первом сообщении.
// ══════════════════════════════════════════════════════════════════════════════

// SendMessageCommand содержит данные сообщения.
type SendMessageCommand struct {
	// SenderID - отправитель.
	SenderID string

	// RecipientID - адресат.
	RecipientID string

	// Body - текст сообщения.
	Body string

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate проверяет корректность команды.
func (c SendMessageCommand) Validate() error {
	if !shared.UserID(c.SenderID).IsValid() || !shared.UserID(c.RecipientID).IsValid() {
		return shared.ErrInvalidID
	}
	if c.SenderID == c.RecipientID {
		return shared.ErrTeamUpSelfRequest
	}
	return nil
}

// SendMessageResult содержит итог отправки.
type SendMessageResult struct {
	// MessageID - ID сообщения.
	MessageID string

	// ConversationID - переписка, в которую оно попало.
	ConversationID string
}

// SendMessageHandler обрабатывает SendMessageCommand.
type SendMessageHandler struct {
	convRepo       conversation.Repository
	eventPublisher shared.EventPublisher
}

// NewSendMessageHandler создаёт обработчик отправки сообщений.
func NewSendMessageHandler(convRepo conversation.Repository, eventPublisher shared.EventPublisher) *SendMessageHandler {
	return &SendMessageHandler{convRepo: convRepo, eventPublisher: eventPublisher}
}

// Handle выполняет отправку сообщения.
func (h *SendMessageHandler) Handle(ctx context.Context, cmd SendMessageCommand) (*SendMessageResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	sender := shared.UserID(cmd.SenderID)
	recipient := shared.UserID(cmd.RecipientID)

	conv, err := h.convRepo.FindByParticipants(ctx, sender, recipient)
	if errors.Is(err, shared.ErrNotFound) {
		conv, err = conversation.NewConversation(uuid.NewString(), sender, recipient)
		if err != nil {
			return nil, err
		}
		if err := h.convRepo.SaveConversation(ctx, conv); err != nil {
			return nil, fmt.Errorf("send_message: create conversation: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("send_message: find conversation: %w", err)
	}

	msg, err := conv.NewMessage(uuid.NewString(), sender, cmd.Body)
	if err != nil {
		return nil, err
	}

	if err := h.convRepo.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("send_message: save message: %w", err)
	}
	// LastMessageAt обновляется вместе с сообщением.
	if err := h.convRepo.SaveConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("send_message: touch conversation: %w", err)
	}

	event := shared.NewMessageSentEvent(msg.ID, conv.ID, sender.String(), recipient.String(), msg.Body)
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	_ = h.eventPublisher.Publish(event)

	return &SendMessageResult{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
	}, nil
}
