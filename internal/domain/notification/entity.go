// Package notification содержит доменную модель уведомлений Axiom Hub.
// Философия: уведомления должны помогать собрать команду и вовлекать,
// а не раздражать.
package notification

import (
	"errors"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationID представляет уникальный идентификатор уведомления.
type NotificationID string

// IsValid проверяет, что ID не пустой.
func (id NotificationID) IsValid() bool {
	return len(id) > 0
}

// String возвращает строковое представление ID.
func (id NotificationID) String() string {
	return string(id)
}

// Channel определяет канал доставки.
type Channel string

const (
	// ChannelInApp - уведомление в интерфейсе платформы.
	ChannelInApp Channel = "in_app"

	// ChannelEmail - письмо на адрес участника.
	ChannelEmail Channel = "email"
)

// IsValid проверяет корректность канала.
func (c Channel) IsValid() bool {
	return c == ChannelInApp || c == ChannelEmail
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// NotificationType определяет тип уведомления.
type NotificationType string

const (
	// TypeWelcome - приветствие нового участника.
	// "👋 Добро пожаловать в Axiom Hub!"
	TypeWelcome NotificationType = "welcome"

	// TypeTierPromoted - участник поднялся в тире.
	// "🏆 Поздравляем! Ты теперь Gold"
	TypeTierPromoted NotificationType = "tier_promoted"

	// TypeTierDemoted - участник опустился в тире после пересчёта.
	// "📉 Тир изменился на Silver"
	TypeTierDemoted NotificationType = "tier_demoted"

	// TypeTeamUpRequested - входящее приглашение в команду.
	// "🤝 @alex зовёт тебя в команду (совместимость 82)"
	TypeTeamUpRequested NotificationType = "teamup_requested"

	// TypeTeamUpAccepted - приглашение принято.
	// "🎉 @dana приняла твоё приглашение!"
	TypeTeamUpAccepted NotificationType = "teamup_accepted"

	// TypeTeamUpDeclined - приглашение отклонено.
	// "Приглашение отклонено. Движок подберёт других кандидатов"
	TypeTeamUpDeclined NotificationType = "teamup_declined"

	// TypeTeamUpExpiring - приглашение скоро истечёт.
	// "⏳ Приглашение от @alex истекает через 12 часов"
	TypeTeamUpExpiring NotificationType = "teamup_expiring"

	// TypeNewMessage - новое личное сообщение.
	// "💬 Новое сообщение от @alex"
	TypeNewMessage NotificationType = "new_message"

	// TypeHackathonResult - записан результат хакатона.
	// "🏅 Результат Axiom Cup зафиксирован: 2 место из 20, +350 MMR"
	TypeHackathonResult NotificationType = "hackathon_result"

	// TypeDailyDigest - ежедневная сводка подходящих кандидатов.
	// "📊 Сегодня для тебя 5 новых кандидатов с совместимостью 70+"
	TypeDailyDigest NotificationType = "daily_digest"

	// TypeSyncFailed - не удалось синхронизировать GitHub.
	// "⚙️ Не получилось обновить твой GitHub профиль"
	TypeSyncFailed NotificationType = "sync_failed"

	// TypeSystemAlert - системное уведомление.
	TypeSystemAlert NotificationType = "system_alert"
)

// IsValid проверяет, что тип уведомления корректен.
func (t NotificationType) IsValid() bool {
	switch t {
	case TypeWelcome,
		TypeTierPromoted,
		TypeTierDemoted,
		TypeTeamUpRequested,
		TypeTeamUpAccepted,
		TypeTeamUpDeclined,
		TypeTeamUpExpiring,
		TypeNewMessage,
		TypeHackathonResult,
		TypeDailyDigest,
		TypeSyncFailed,
		TypeSystemAlert:
		return true
	default:
		return false
	}
}

// DefaultPriority возвращает приоритет по умолчанию для данного типа.
func (t NotificationType) DefaultPriority() Priority {
	switch t {
	case TypeWelcome, TypeTeamUpRequested, TypeTeamUpAccepted, TypeTierPromoted:
		return PriorityHigh

	case TypeNewMessage, TypeHackathonResult, TypeTeamUpDeclined, TypeTeamUpExpiring:
		return PriorityNormal

	case TypeDailyDigest, TypeTierDemoted, TypeSyncFailed:
		return PriorityLow

	case TypeSystemAlert:
		return PriorityUrgent

	default:
		return PriorityNormal
	}
}

// Emoji возвращает эмодзи для данного типа уведомления.
func (t NotificationType) Emoji() string {
	switch t {
	case TypeWelcome:
		return "👋"
	case TypeTierPromoted:
		return "🏆"
	case TypeTierDemoted:
		return "📉"
	case TypeTeamUpRequested:
		return "🤝"
	case TypeTeamUpAccepted:
		return "🎉"
	case TypeTeamUpExpiring:
		return "⏳"
	case TypeNewMessage:
		return "💬"
	case TypeHackathonResult:
		return "🏅"
	case TypeDailyDigest:
		return "📊"
	case TypeSyncFailed, TypeSystemAlert:
		return "⚙️"
	default:
		return "📬"
	}
}

// String возвращает строковое представление типа.
func (t NotificationType) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRIORITY
// ══════════════════════════════════════════════════════════════════════════════

// Priority определяет приоритет уведомления.
type Priority int

const (
	// PriorityLow - низкий приоритет (можно отложить до дайджеста).
	PriorityLow Priority = 1

	// PriorityNormal - обычный приоритет.
	PriorityNormal Priority = 2

	// PriorityHigh - высокий приоритет.
	PriorityHigh Priority = 3

	// PriorityUrgent - срочное уведомление (игнорирует тихие часы).
	PriorityUrgent Priority = 4
)

// IsValid проверяет корректность приоритета.
func (p Priority) IsValid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

// String возвращает строковое представление приоритета.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// IgnoresQuietHours возвращает true, если уведомление шлётся
// даже в тихие часы получателя.
func (p Priority) IgnoresQuietHours() bool {
	return p == PriorityUrgent
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет статус доставки уведомления.
type Status string

const (
	// StatusPending - уведомление ожидает отправки.
	StatusPending Status = "pending"

	// StatusSending - уведомление отправляется.
	StatusSending Status = "sending"

	// StatusDelivered - уведомление доставлено.
	StatusDelivered Status = "delivered"

	// StatusFailed - доставка не удалась.
	StatusFailed Status = "failed"

	// StatusSkipped - уведомление пропущено (настройки, тихие часы).
	StatusSkipped Status = "skipped"

	// StatusCancelled - уведомление отменено.
	StatusCancelled Status = "cancelled"
)

// IsValid проверяет корректность статуса.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSending, StatusDelivered,
		StatusFailed, StatusSkipped, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsFinal возвращает true, если это конечный статус.
func (s Status) IsFinal() bool {
	switch s {
	case StatusDelivered, StatusFailed, StatusSkipped, StatusCancelled:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidType - невалидный тип уведомления.
	ErrInvalidType = errors.New("invalid notification type")

	// ErrInvalidChannel - невалидный канал доставки.
	ErrInvalidChannel = errors.New("invalid notification channel")

	// ErrEmptyBody - пустой текст уведомления.
	ErrEmptyBody = errors.New("notification body is empty")

	// ErrInvalidTransition - недопустимый переход статуса.
	ErrInvalidTransition = errors.New("invalid notification status transition")

	// ErrMaxRetriesExceeded - попытки отправки исчерпаны.
	ErrMaxRetriesExceeded = errors.New("max delivery retries exceeded")
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// defaultMaxRetries - число попыток доставки по умолчанию.
const defaultMaxRetries = 3

// Notification представляет уведомление участнику.
type Notification struct {
	// ID - уникальный идентификатор.
	ID NotificationID

	// Type - тип уведомления.
	Type NotificationType

	// RecipientID - получатель.
	RecipientID shared.UserID

	// Channel - канал доставки.
	Channel Channel

	// Priority - приоритет.
	Priority Priority

	// Status - статус доставки.
	Status Status

	// Title - заголовок (опционально).
	Title string

	// Body - текст уведомления.
	Body string

	// RetryCount - число попыток отправки.
	RetryCount int

	// MaxRetries - максимум попыток.
	MaxRetries int

	// LastError - последняя ошибка доставки или причина пропуска.
	LastError string

	// SentAt - время отправки.
	SentAt *time.Time

	// DeliveredAt - время доставки.
	DeliveredAt *time.Time

	// CreatedAt - время создания.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewNotificationParams содержит параметры создания уведомления.
type NewNotificationParams struct {
	ID          NotificationID
	Type        NotificationType
	RecipientID shared.UserID
	Channel     Channel
	Title       string
	Body        string
	Priority    *Priority
	MaxRetries  int
}

// NewNotification создаёт уведомление с валидацией.
func NewNotification(params NewNotificationParams) (*Notification, error) {
	if !params.ID.IsValid() || !params.RecipientID.IsValid() {
		return nil, shared.ErrInvalidID
	}

	if !params.Type.IsValid() {
		return nil, ErrInvalidType
	}

	if !params.Channel.IsValid() {
		return nil, ErrInvalidChannel
	}

	if params.Body == "" {
		return nil, ErrEmptyBody
	}

	priority := params.Type.DefaultPriority()
	if params.Priority != nil && params.Priority.IsValid() {
		priority = *params.Priority
	}

	maxRetries := defaultMaxRetries
	if params.MaxRetries > 0 {
		maxRetries = params.MaxRetries
	}

	now := time.Now().UTC()
	return &Notification{
		ID:          params.ID,
		Type:        params.Type,
		RecipientID: params.RecipientID,
		Channel:     params.Channel,
		Priority:    priority,
		Status:      StatusPending,
		Title:       params.Title,
		Body:        params.Body,
		MaxRetries:  maxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// MarkSending переводит уведомление в статус "отправляется".
func (n *Notification) MarkSending() error {
	if n.Status != StatusPending {
		return ErrInvalidTransition
	}
	n.Status = StatusSending
	now := time.Now().UTC()
	n.SentAt = &now
	n.UpdatedAt = now
	return nil
}

// MarkDelivered помечает уведомление доставленным.
func (n *Notification) MarkDelivered() error {
	if n.Status != StatusSending {
		return ErrInvalidTransition
	}
	n.Status = StatusDelivered
	now := time.Now().UTC()
	n.DeliveredAt = &now
	n.UpdatedAt = now
	return nil
}

// MarkFailed фиксирует неудачную попытку доставки.
func (n *Notification) MarkFailed(reason string) error {
	if n.Status != StatusSending {
		return ErrInvalidTransition
	}
	n.Status = StatusFailed
	n.LastError = reason
	n.RetryCount++
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkSkipped помечает уведомление пропущенным с причиной.
func (n *Notification) MarkSkipped(reason string) error {
	if n.Status.IsFinal() {
		return ErrInvalidTransition
	}
	n.Status = StatusSkipped
	n.LastError = reason
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCancelled отменяет уведомление.
func (n *Notification) MarkCancelled() error {
	if n.Status.IsFinal() {
		return ErrInvalidTransition
	}
	n.Status = StatusCancelled
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// CanRetry возвращает true, если попытки доставки не исчерпаны.
func (n *Notification) CanRetry() bool {
	return n.Status == StatusFailed && n.RetryCount < n.MaxRetries
}

// ResetForRetry возвращает уведомление в очередь на повторную отправку.
func (n *Notification) ResetForRetry() error {
	if !n.CanRetry() {
		return ErrMaxRetriesExceeded
	}
	n.Status = StatusPending
	n.SentAt = nil
	n.UpdatedAt = time.Now().UTC()
	return nil
}
