package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/team"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPOND TEAM-UP REQUEST COMMAND
// Ответ адресата на приглашение. Принятие создаёт переписку между парой
// (если её ещё нет) и, при наличии команды у отправителя, добавляет
// адресата в неё.
// ══════════════════════════════════════════════════════════════════════════════

// RespondTeamUpRequestCommand содержит ответ на приглашение.
type RespondTeamUpRequestCommand struct {
	// RequestID - приглашение.
	RequestID string

	// ResponderID - кто отвечает (должен быть адресатом).
	ResponderID string

	// Accept - true = принять, false = отклонить.
	Accept bool

	// Reason - причина отклонения (опционально).
	Reason string

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate проверяет корректность команды.
func (c RespondTeamUpRequestCommand) Validate() error {
	if c.RequestID == "" || !shared.UserID(c.ResponderID).IsValid() {
		return shared.ErrInvalidID
	}
	return nil
}

// ConversationStarter создаёт переписку между парой участников,
// если её ещё нет.
type ConversationStarter interface {
	// EnsureConversation возвращает ID существующей или новой переписки.
	EnsureConversation(ctx context.Context, a, b shared.UserID) (string, error)
}

// RespondTeamUpRequestResult содержит итог ответа.
type RespondTeamUpRequestResult struct {
	// Status - новый статус приглашения.
	Status team.RequestStatus

	// ConversationID - переписка пары (только при принятии).
	ConversationID string
}

// RespondTeamUpRequestHandler обрабатывает RespondTeamUpRequestCommand.
type RespondTeamUpRequestHandler struct {
	teamRepo       team.Repository
	conversations  ConversationStarter
	eventPublisher shared.EventPublisher
}

// NewRespondTeamUpRequestHandler создаёт обработчик ответов.
func NewRespondTeamUpRequestHandler(
	teamRepo team.Repository,
	conversations ConversationStarter,
	eventPublisher shared.EventPublisher,
) *RespondTeamUpRequestHandler {
	return &RespondTeamUpRequestHandler{
		teamRepo:       teamRepo,
		conversations:  conversations,
		eventPublisher: eventPublisher,
	}
}

// Handle выполняет ответ на приглашение.
func (h *RespondTeamUpRequestHandler) Handle(ctx context.Context, cmd RespondTeamUpRequestCommand) (*RespondTeamUpRequestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	request, err := h.teamRepo.GetRequest(ctx, cmd.RequestID)
	if err != nil {
		return nil, fmt.Errorf("respond_teamup: load request: %w", err)
	}

	responder := shared.UserID(cmd.ResponderID)
	now := time.Now().UTC()

	if cmd.Accept {
		err = request.Accept(responder, now)
	} else {
		err = request.Decline(responder, now)
	}
	if err != nil {
		return nil, err
	}

	if err := h.teamRepo.SaveRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("respond_teamup: save request: %w", err)
	}

	result := &RespondTeamUpRequestResult{Status: request.Status}

	if cmd.Accept && h.conversations != nil {
		convID, err := h.conversations.EnsureConversation(ctx, request.RequesterID, request.AddresseeID)
		if err == nil {
			result.ConversationID = convID
		}
	}

	event := shared.NewTeamUpRespondedEvent(
		request.ID,
		request.RequesterID.String(),
		request.AddresseeID.String(),
		cmd.Accept,
		cmd.Reason,
	)
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	_ = h.eventPublisher.Publish(event)

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE TEAM-UP REQUESTS COMMAND
// Фоновый перевод просроченных приглашений в expired. Запускается
// планировщиком.
// ══════════════════════════════════════════════════════════════════════════════

// ExpireTeamUpRequestsHandler переводит просроченные приглашения в expired.
type ExpireTeamUpRequestsHandler struct {
	teamRepo       team.Repository
	eventPublisher shared.EventPublisher
}

// NewExpireTeamUpRequestsHandler создаёт обработчик истечения приглашений.
func NewExpireTeamUpRequestsHandler(teamRepo team.Repository, eventPublisher shared.EventPublisher) *ExpireTeamUpRequestsHandler {
	return &ExpireTeamUpRequestsHandler{teamRepo: teamRepo, eventPublisher: eventPublisher}
}

// expireBatchSize - размер пачки за один проход.
const expireBatchSize = 200

// Handle помечает просроченные приглашения. Возвращает число обработанных.
func (h *ExpireTeamUpRequestsHandler) Handle(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	expired, err := h.teamRepo.ListExpiredPending(ctx, now, expireBatchSize)
	if err != nil {
		return 0, fmt.Errorf("expire_teamup: list pending: %w", err)
	}

	processed := 0
	for _, request := range expired {
		if !request.MarkExpired(now) {
			continue
		}
		if err := h.teamRepo.SaveRequest(ctx, request); err != nil {
			return processed, fmt.Errorf("expire_teamup: save %s: %w", request.ID, err)
		}
		processed++
	}

	if processed > 0 {
		event := shared.NewSyncCompletedEvent("expire_teamup_requests", processed, 0, time.Since(now))
		event.BaseEvent = event.WithCorrelationID(uuid.NewString())
		_ = h.eventPublisher.Publish(event)
	}
	return processed, nil
}
