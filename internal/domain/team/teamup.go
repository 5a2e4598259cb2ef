// Package team содержит модель команд и приглашений "собери команду".
//
// Приглашение (TeamUpRequest) - основной социальный механизм платформы:
// участник находит подходящего кандидата через движок подбора и зовёт
// его в команду. Приглашение живёт ограниченное время и требует явного
// ответа адресата.
package team

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEAM-UP REQUEST
// ══════════════════════════════════════════════════════════════════════════════

// RequestStatus определяет состояние приглашения.
type RequestStatus string

const (
	// RequestPending - ожидает ответа адресата.
	RequestPending RequestStatus = "pending"
	// RequestAccepted - адресат принял приглашение.
	RequestAccepted RequestStatus = "accepted"
	// RequestDeclined - адресат отклонил приглашение.
	RequestDeclined RequestStatus = "declined"
	// RequestExpired - истёк срок ожидания ответа.
	RequestExpired RequestStatus = "expired"
	// RequestCancelled - отправитель отозвал приглашение.
	RequestCancelled RequestStatus = "cancelled"
)

// IsValid проверяет, что статус корректен.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestDeclined, RequestExpired, RequestCancelled:
		return true
	default:
		return false
	}
}

// IsFinal возвращает true для терминальных статусов.
func (s RequestStatus) IsFinal() bool {
	return s != RequestPending
}

// RequestTTL - сколько живёт приглашение без ответа.
const RequestTTL = 72 * time.Hour

// maxRequestMessageLen ограничивает сопроводительное сообщение.
const maxRequestMessageLen = 500

// TeamUpRequest - приглашение одного участника другому собрать команду.
type TeamUpRequest struct {
	// ID - уникальный идентификатор приглашения.
	ID string

	// RequesterID - кто зовёт.
	RequesterID shared.UserID

	// AddresseeID - кого зовут.
	AddresseeID shared.UserID

	// HackathonID - хакатон, ради которого собирается команда
	// (опционально: пустой = команда без привязки к событию).
	HackathonID shared.HackathonID

	// Message - сопроводительное сообщение.
	Message string

	// CompatibilityScore - оценка совместимости на момент отправки (0-100).
	CompatibilityScore int

	// Status - текущее состояние.
	Status RequestStatus

	// CreatedAt - время отправки.
	CreatedAt time.Time

	// ExpiresAt - дедлайн ответа.
	ExpiresAt time.Time

	// RespondedAt - время ответа (zero, пока нет ответа).
	RespondedAt time.Time
}

// NewRequestParams содержит параметры создания приглашения.
type NewRequestParams struct {
	ID                 string
	RequesterID        shared.UserID
	AddresseeID        shared.UserID
	HackathonID        shared.HackathonID
	Message            string
	CompatibilityScore int
}

// NewTeamUpRequest создаёт приглашение с валидацией.
func NewTeamUpRequest(params NewRequestParams) (*TeamUpRequest, error) {
	if params.ID == "" || !params.RequesterID.IsValid() || !params.AddresseeID.IsValid() {
		return nil, shared.ErrInvalidID
	}

	if params.RequesterID == params.AddresseeID {
		return nil, shared.ErrTeamUpSelfRequest
	}

	msg := strings.TrimSpace(params.Message)
	if len(msg) > maxRequestMessageLen {
		// Обрезаем по границе руны, чтобы не порвать UTF-8 в середине символа.
		cut := maxRequestMessageLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}

	now := time.Now().UTC()
	return &TeamUpRequest{
		ID:                 params.ID,
		RequesterID:        params.RequesterID,
		AddresseeID:        params.AddresseeID,
		HackathonID:        params.HackathonID,
		Message:            msg,
		CompatibilityScore: shared.ClampInt(params.CompatibilityScore, 0, 100),
		Status:             RequestPending,
		CreatedAt:          now,
		ExpiresAt:          now.Add(RequestTTL),
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Ответы на приглашение
// ─────────────────────────────────────────────────────────────────────────────

// Accept принимает приглашение от имени адресата.
func (r *TeamUpRequest) Accept(by shared.UserID, now time.Time) error {
	if err := r.ensureRespondable(by, now); err != nil {
		return err
	}
	r.Status = RequestAccepted
	r.RespondedAt = now.UTC()
	return nil
}

// Decline отклоняет приглашение от имени адресата.
func (r *TeamUpRequest) Decline(by shared.UserID, now time.Time) error {
	if err := r.ensureRespondable(by, now); err != nil {
		return err
	}
	r.Status = RequestDeclined
	r.RespondedAt = now.UTC()
	return nil
}

// Cancel отзывает приглашение. Разрешено только отправителю
// и только до ответа.
func (r *TeamUpRequest) Cancel(by shared.UserID, now time.Time) error {
	if by != r.RequesterID {
		return shared.ErrTeamUpNotAddressee
	}
	if r.Status.IsFinal() {
		return shared.ErrTeamUpFinalized
	}
	r.Status = RequestCancelled
	r.RespondedAt = now.UTC()
	return nil
}

// MarkExpired переводит просроченное приглашение в expired.
// Возвращает true, если статус изменился.
func (r *TeamUpRequest) MarkExpired(now time.Time) bool {
	if r.Status != RequestPending || now.Before(r.ExpiresAt) {
		return false
	}
	r.Status = RequestExpired
	r.RespondedAt = now.UTC()
	return true
}

// IsExpired возвращает true, если дедлайн прошёл
// (вне зависимости от того, обработано ли истечение).
func (r *TeamUpRequest) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func (r *TeamUpRequest) ensureRespondable(by shared.UserID, now time.Time) error {
	if by != r.AddresseeID {
		return shared.ErrTeamUpNotAddressee
	}
	if r.Status.IsFinal() {
		return shared.ErrTeamUpFinalized
	}
	if r.IsExpired(now) {
		return shared.ErrTeamUpExpired
	}
	return nil
}
