// Package hackathon содержит доменную модель хакатонов и их результатов.
package hackathon

import (
	"errors"
	"strings"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS & ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет стадию жизненного цикла хакатона.
type Status string

const (
	// StatusUpcoming - хакатон анонсирован, регистрация открыта.
	StatusUpcoming Status = "upcoming"
	// StatusOngoing - хакатон идёт.
	StatusOngoing Status = "ongoing"
	// StatusFinished - хакатон завершён, результаты можно записывать.
	StatusFinished Status = "finished"
	// StatusCancelled - хакатон отменён.
	StatusCancelled Status = "cancelled"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusFinished, StatusCancelled:
		return true
	default:
		return false
	}
}

var (
	// ErrInvalidName - невалидное название хакатона.
	ErrInvalidName = errors.New("invalid hackathon name: must be 1-200 chars")

	// ErrInvalidSchedule - окончание раньше начала.
	ErrInvalidSchedule = errors.New("invalid schedule: end must be after start")

	// ErrInvalidTotalTeams - некорректное число команд.
	ErrInvalidTotalTeams = errors.New("invalid total teams: must be >= 1")

	// ErrNotFinished - результаты можно записывать только после завершения.
	ErrNotFinished = errors.New("hackathon is not finished yet")

	// ErrInvalidTransition - недопустимый переход статуса.
	ErrInvalidTransition = errors.New("invalid hackathon status transition")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: HACKATHON
// ══════════════════════════════════════════════════════════════════════════════

// Hackathon - событие, результаты которого влияют на рейтинг участников.
type Hackathon struct {
	// ID - уникальный идентификатор.
	ID shared.HackathonID

	// Name - название хакатона.
	Name string

	// Description - описание.
	Description string

	// Location - место проведения (опционально, для офлайн событий).
	Location shared.Location

	// StartsAt - начало.
	StartsAt time.Time

	// EndsAt - окончание.
	EndsAt time.Time

	// Status - стадия жизненного цикла.
	Status Status

	// TotalTeams - итоговое число команд (известно после завершения).
	TotalTeams int

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewHackathonParams содержит параметры создания хакатона.
type NewHackathonParams struct {
	ID          shared.HackathonID
	Name        string
	Description string
	Location    shared.Location
	StartsAt    time.Time
	EndsAt      time.Time
}

// NewHackathon создаёт хакатон с валидацией.
func NewHackathon(params NewHackathonParams) (*Hackathon, error) {
	if !params.ID.IsValid() {
		return nil, shared.ErrInvalidID
	}

	name := strings.TrimSpace(params.Name)
	if len(name) < 1 || len(name) > 200 {
		return nil, ErrInvalidName
	}

	if !params.EndsAt.After(params.StartsAt) {
		return nil, ErrInvalidSchedule
	}

	now := time.Now().UTC()
	return &Hackathon{
		ID:          params.ID,
		Name:        name,
		Description: strings.TrimSpace(params.Description),
		Location:    params.Location,
		StartsAt:    params.StartsAt.UTC(),
		EndsAt:      params.EndsAt.UTC(),
		Status:      StatusUpcoming,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start переводит хакатон в стадию проведения.
func (h *Hackathon) Start() error {
	if h.Status != StatusUpcoming {
		return ErrInvalidTransition
	}
	h.Status = StatusOngoing
	h.UpdatedAt = time.Now().UTC()
	return nil
}

// Finish завершает хакатон и фиксирует итоговое число команд.
func (h *Hackathon) Finish(totalTeams int) error {
	if h.Status != StatusOngoing && h.Status != StatusUpcoming {
		return ErrInvalidTransition
	}
	if totalTeams < 1 {
		return ErrInvalidTotalTeams
	}
	h.Status = StatusFinished
	h.TotalTeams = totalTeams
	h.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel отменяет хакатон. Завершённый отменить нельзя.
func (h *Hackathon) Cancel() error {
	if h.Status == StatusFinished {
		return ErrInvalidTransition
	}
	h.Status = StatusCancelled
	h.UpdatedAt = time.Now().UTC()
	return nil
}

// CanRecordResults возвращает true, если результаты можно записывать.
func (h *Hackathon) CanRecordResults() bool {
	return h.Status == StatusFinished && h.TotalTeams >= 1
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULT
// ══════════════════════════════════════════════════════════════════════════════

// Result - зафиксированное место участника в хакатоне.
type Result struct {
	// HackathonID - хакатон, к которому относится результат.
	HackathonID shared.HackathonID

	// UserID - участник.
	UserID shared.UserID

	// Placement - занятое место (1 = победа).
	Placement int

	// TotalTeams - число команд на момент записи.
	TotalTeams int

	// RecordedAt - время записи.
	RecordedAt time.Time
}

// NewResult создаёт результат участника в завершённом хакатоне.
func (h *Hackathon) NewResult(userID shared.UserID, placement int) (Result, error) {
	if !h.CanRecordResults() {
		return Result{}, ErrNotFinished
	}
	if !userID.IsValid() {
		return Result{}, shared.ErrInvalidID
	}
	if placement < 1 || placement > h.TotalTeams {
		return Result{}, shared.ErrInvalidPlacement
	}
	return Result{
		HackathonID: h.ID,
		UserID:      userID,
		Placement:   placement,
		TotalTeams:  h.TotalTeams,
		RecordedAt:  time.Now().UTC(),
	}, nil
}

// IsFirstPlace возвращает true для победителя.
func (r Result) IsFirstPlace() bool {
	return r.Placement == 1
}

// IsTop10Percent возвращает true, если место в верхних 10% команд.
func (r Result) IsTop10Percent() bool {
	return r.Placement*10 <= r.TotalTeams
}

// IsTop50Percent возвращает true, если место в верхней половине команд.
func (r Result) IsTop50Percent() bool {
	return r.Placement*2 <= r.TotalTeams
}
