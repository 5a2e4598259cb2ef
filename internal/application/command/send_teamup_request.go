package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/axiom-hq/axiom-hub/internal/domain/matching"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/team"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEND TEAM-UP REQUEST COMMAND
// Отправляет приглашение в команду. Совместимость пары считается на
// месте и сохраняется в приглашении - адресат видит, почему движок
// считает вас хорошей парой.
// ══════════════════════════════════════════════════════════════════════════════

// SendTeamUpRequestCommand содержит данные приглашения.
type SendTeamUpRequestCommand struct {
	// RequesterID - кто зовёт.
	RequesterID string

	// AddresseeID - кого зовут.
	AddresseeID string

	// HackathonID - хакатон (опционально).
	HackathonID string

	// Message - сопроводительное сообщение.
	Message string

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate проверяет корректность команды.
func (c SendTeamUpRequestCommand) Validate() error {
	if !shared.UserID(c.RequesterID).IsValid() || !shared.UserID(c.AddresseeID).IsValid() {
		return shared.ErrInvalidID
	}
	if c.RequesterID == c.AddresseeID {
		return shared.ErrTeamUpSelfRequest
	}
	return nil
}

// SendTeamUpRequestResult содержит итог отправки.
type SendTeamUpRequestResult struct {
	// RequestID - ID созданного приглашения.
	RequestID string

	// CompatibilityScore - совместимость пары на момент отправки.
	CompatibilityScore int
}

// SendTeamUpRequestHandler обрабатывает SendTeamUpRequestCommand.
type SendTeamUpRequestHandler struct {
	userRepo       user.Repository
	teamRepo       team.Repository
	eventPublisher shared.EventPublisher
}

// NewSendTeamUpRequestHandler создаёт обработчик отправки приглашений.
func NewSendTeamUpRequestHandler(
	userRepo user.Repository,
	teamRepo team.Repository,
	eventPublisher shared.EventPublisher,
) *SendTeamUpRequestHandler {
	return &SendTeamUpRequestHandler{
		userRepo:       userRepo,
		teamRepo:       teamRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle выполняет отправку приглашения.
func (h *SendTeamUpRequestHandler) Handle(ctx context.Context, cmd SendTeamUpRequestCommand) (*SendTeamUpRequestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	requester, err := h.userRepo.GetByID(ctx, shared.UserID(cmd.RequesterID))
	if err != nil {
		return nil, fmt.Errorf("send_teamup: load requester: %w", err)
	}
	addressee, err := h.userRepo.GetByID(ctx, shared.UserID(cmd.AddresseeID))
	if err != nil {
		return nil, fmt.Errorf("send_teamup: load addressee: %w", err)
	}

	if !addressee.CanBeMatched() {
		return nil, shared.ErrUserNotActive
	}

	// Совместимость пары: профиль отправителя против кандидата-адресата,
	// фильтры пустые - только базовые сигналы.
	score := matching.ScoreCandidate(
		requester.ToCandidateProfile(),
		addressee.ToCandidateProfile(),
		matching.SearchFilters{},
	)

	request, err := team.NewTeamUpRequest(team.NewRequestParams{
		ID:                 uuid.NewString(),
		RequesterID:        requester.ID,
		AddresseeID:        addressee.ID,
		HackathonID:        shared.HackathonID(cmd.HackathonID),
		Message:            cmd.Message,
		CompatibilityScore: score.Score,
	})
	if err != nil {
		return nil, err
	}

	if err := h.teamRepo.SaveRequest(ctx, request); err != nil {
		if errors.Is(err, shared.ErrTeamUpDuplicate) {
			return nil, shared.ErrTeamUpDuplicate
		}
		return nil, fmt.Errorf("send_teamup: save request: %w", err)
	}

	event := shared.NewTeamUpRequestedEvent(
		request.ID,
		requester.ID.String(),
		addressee.ID.String(),
		request.CompatibilityScore,
		skillStrings(requester.Skills),
		request.Message,
	)
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	_ = h.eventPublisher.Publish(event)

	return &SendTeamUpRequestResult{
		RequestID:          request.ID,
		CompatibilityScore: request.CompatibilityScore,
	}, nil
}

// skillStrings конвертирует навыки в срез строк для событий.
func skillStrings(skills []shared.Skill) []string {
	out := make([]string, len(skills))
	for i, s := range skills {
		out[i] = s.String()
	}
	return out
}
