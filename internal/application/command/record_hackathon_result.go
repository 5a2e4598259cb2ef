package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/axiom-hq/axiom-hub/internal/domain/hackathon"
	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD HACKATHON RESULT COMMAND
// Фиксирует место участника в завершённом хакатоне. Результат идемпотентен:
// повторная запись той же пары (хакатон, участник) отклоняется, поэтому
// счётчики и MMR не задваиваются.
// ══════════════════════════════════════════════════════════════════════════════

// RecordHackathonResultCommand содержит данные результата.
type RecordHackathonResultCommand struct {
	// HackathonID - завершённый хакатон.
	HackathonID string

	// UserID - участник.
	UserID string

	// Placement - занятое место (1 = победа).
	Placement int

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate проверяет корректность команды.
func (c RecordHackathonResultCommand) Validate() error {
	if !shared.HackathonID(c.HackathonID).IsValid() || !shared.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidID
	}
	if c.Placement < 1 {
		return shared.ErrInvalidPlacement
	}
	return nil
}

// RecordHackathonResultResult содержит итог записи.
type RecordHackathonResultResult struct {
	// MMRDelta - насколько изменился рейтинг.
	MMRDelta int

	// NewMMR - рейтинг после записи.
	NewMMR int

	// NewTier - тир после записи.
	NewTier string

	// TierChanged - сменился ли тир.
	TierChanged bool
}

// RecordHackathonResultHandler обрабатывает RecordHackathonResultCommand.
type RecordHackathonResultHandler struct {
	userRepo       user.Repository
	hackathonRepo  hackathon.Repository
	ratingRepo     rating.Repository
	eventPublisher shared.EventPublisher
}

// NewRecordHackathonResultHandler создаёт обработчик записи результатов.
func NewRecordHackathonResultHandler(
	userRepo user.Repository,
	hackathonRepo hackathon.Repository,
	ratingRepo rating.Repository,
	eventPublisher shared.EventPublisher,
) *RecordHackathonResultHandler {
	return &RecordHackathonResultHandler{
		userRepo:       userRepo,
		hackathonRepo:  hackathonRepo,
		ratingRepo:     ratingRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle выполняет запись результата.
func (h *RecordHackathonResultHandler) Handle(ctx context.Context, cmd RecordHackathonResultCommand) (*RecordHackathonResultResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	hack, err := h.hackathonRepo.GetByID(ctx, shared.HackathonID(cmd.HackathonID))
	if err != nil {
		return nil, fmt.Errorf("record_result: load hackathon: %w", err)
	}

	// Идемпотентность: уже записанный результат не применяется повторно.
	if _, err := h.hackathonRepo.GetResult(ctx, hack.ID, shared.UserID(cmd.UserID)); err == nil {
		return nil, shared.ErrResultAlreadyRecorded
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("record_result: check existing: %w", err)
	}

	u, err := h.userRepo.GetByID(ctx, shared.UserID(cmd.UserID))
	if err != nil {
		return nil, fmt.Errorf("record_result: load user: %w", err)
	}

	result, err := hack.NewResult(u.ID, cmd.Placement)
	if err != nil {
		return nil, err
	}

	change, err := u.ApplyHackathonResult(result.Placement, result.TotalTeams)
	if err != nil {
		return nil, err
	}

	if err := h.hackathonRepo.SaveResult(ctx, result); err != nil {
		return nil, fmt.Errorf("record_result: save result: %w", err)
	}
	if err := h.userRepo.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("record_result: save user: %w", err)
	}

	snapshot := rating.Snapshot{
		ID:         uuid.NewString(),
		UserID:     u.ID,
		MMR:        u.MMR,
		TierName:   u.TierName,
		Counters:   u.Counters,
		Source:     rating.SourceHackathonResult,
		RecordedAt: result.RecordedAt,
	}
	if err := h.ratingRepo.SaveSnapshot(ctx, &snapshot); err != nil {
		return nil, fmt.Errorf("record_result: save snapshot: %w", err)
	}

	h.publishEvents(u, hack, result, change, cmd.CorrelationID)

	return &RecordHackathonResultResult{
		MMRDelta:    change.NewMMR.Diff(change.OldMMR),
		NewMMR:      change.NewMMR.Int(),
		NewTier:     change.NewTier,
		TierChanged: change.TierChanged,
	}, nil
}

func (h *RecordHackathonResultHandler) publishEvents(
	u *user.User,
	hack *hackathon.Hackathon,
	result hackathon.Result,
	change user.RatingChange,
	correlationID string,
) {
	resultEvent := shared.NewHackathonResultEvent(
		u.ID.String(), hack.ID.String(),
		result.Placement, result.TotalTeams,
		result.IsFirstPlace(), result.IsTop10Percent(), result.IsTop50Percent(),
	)
	resultEvent.BaseEvent = resultEvent.WithCorrelationID(correlationID)
	_ = h.eventPublisher.Publish(resultEvent)

	mmrEvent := shared.NewMMRChangedEvent(u.ID.String(), change.OldMMR.Int(), change.NewMMR.Int(), rating.SourceHackathonResult)
	mmrEvent.BaseEvent = mmrEvent.WithCorrelationID(correlationID)
	_ = h.eventPublisher.Publish(mmrEvent)

	if change.TierChanged {
		tierEvent := shared.NewTierChangedEvent(u.ID.String(), change.OldTier, change.NewTier, change.NewMMR.Int(), change.Promoted)
		tierEvent.BaseEvent = tierEvent.WithCorrelationID(correlationID)
		_ = h.eventPublisher.Publish(tierEvent)
	}
}
