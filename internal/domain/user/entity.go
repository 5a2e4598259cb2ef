// Package user содержит доменную модель участника Axiom Hub.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package user

import (
	"errors"
	"strings"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/matching"
	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет текущий статус участника на платформе.
type Status string

const (
	// StatusActive - участник активен.
	StatusActive Status = "active"
	// StatusInactive - участник неактивен (не заходил более N дней).
	StatusInactive Status = "inactive"
	// StatusSuspended - участник временно отстранён.
	StatusSuspended Status = "suspended"
	// StatusLeft - участник удалил аккаунт.
	StatusLeft Status = "left"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusLeft:
		return true
	default:
		return false
	}
}

// CanReceiveNotifications возвращает true, если участнику можно слать уведомления.
func (s Status) CanReceiveNotifications() bool {
	return s == StatusActive || s == StatusInactive
}

// IsMatchable возвращает true, если участник может попадать в пул кандидатов.
func (s Status) IsMatchable() bool {
	return s == StatusActive
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidDisplayName - невалидное отображаемое имя.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrInvalidStatus - невалидный статус.
	ErrInvalidStatus = errors.New("invalid user status")

	// ErrInvalidPlacement - некорректное место в результатах хакатона.
	ErrInvalidPlacement = errors.New("invalid placement: must be within 1..totalTeams")

	// ErrNotMatchable - участник не может участвовать в подборе.
	ErrNotMatchable = errors.New("user is not eligible for matching")
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION PREFERENCES
// ══════════════════════════════════════════════════════════════════════════════

// NotificationPreferences содержит настройки уведомлений участника.
type NotificationPreferences struct {
	// TierChanges - уведомлять о смене тира.
	TierChanges bool

	// TeamUpRequests - уведомлять о входящих приглашениях в команду.
	TeamUpRequests bool

	// Messages - уведомлять о новых сообщениях.
	Messages bool

	// DailyDigest - отправлять ежедневную сводку подходящих сокомандников.
	DailyDigest bool

	// QuietHoursStart - начало тихого времени (часы, 0-23).
	QuietHoursStart int

	// QuietHoursEnd - конец тихого времени (часы, 0-23).
	QuietHoursEnd int
}

// DefaultNotificationPreferences возвращает настройки по умолчанию.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		TierChanges:     true,
		TeamUpRequests:  true,
		Messages:        true,
		DailyDigest:     false,
		QuietHoursStart: 23, // 23:00 - 08:00 тихие часы
		QuietHoursEnd:   8,
	}
}

// IsQuietHour проверяет, попадает ли указанное время в тихие часы.
func (p NotificationPreferences) IsQuietHour(t time.Time) bool {
	hour := t.Hour()
	if p.QuietHoursStart < p.QuietHoursEnd {
		return hour >= p.QuietHoursStart && hour < p.QuietHoursEnd
	}
	// Через полночь: например, 23:00 - 8:00
	return hour >= p.QuietHoursStart || hour < p.QuietHoursEnd
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: USER
// ══════════════════════════════════════════════════════════════════════════════

// User - центральная сущность системы, представляющая участника хакатонов.
type User struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID shared.UserID

	// Email - адрес для входа и уведомлений.
	Email shared.Email

	// PasswordHash - bcrypt-хеш пароля (управляется auth-слоем).
	PasswordHash string

	// DisplayName - отображаемое имя.
	DisplayName string

	// GitHubLogin - привязанный GitHub аккаунт (пустой = не привязан).
	GitHubLogin shared.GitHubLogin

	// Bio - краткое описание профиля.
	Bio string

	// Location - локация (опциональна).
	Location shared.Location

	// Skills - нормализованные навыки.
	Skills []shared.Skill

	// Roles - роли, которые участник готов занять в команде.
	Roles []shared.Role

	// Counters - счётчики активности для расчёта MMR.
	Counters rating.ActivityCounters

	// MMR - текущий рейтинг (производная от Counters, кешируется в профиле).
	MMR shared.MMR

	// TierName - текущий тир (производная от MMR).
	TierName string

	// Status - статус на платформе.
	Status Status

	// OnlineState - состояние онлайн-присутствия.
	OnlineState shared.OnlineState

	// LastSeenAt - время последней активности.
	LastSeenAt time.Time

	// LastSyncedAt - время последней синхронизации с GitHub.
	LastSyncedAt time.Time

	// JoinedAt - время регистрации.
	JoinedAt time.Time

	// Preferences - настройки уведомлений.
	Preferences NotificationPreferences

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewUserParams содержит параметры для создания нового участника.
type NewUserParams struct {
	ID           shared.UserID
	Email        shared.Email
	PasswordHash string
	DisplayName  string
	GitHubLogin  shared.GitHubLogin
	Location     shared.Location
	Skills       []shared.Skill
	Roles        []shared.Role
}

// NewUser создаёт нового участника с валидацией всех полей.
func NewUser(params NewUserParams) (*User, error) {
	if !params.ID.IsValid() {
		return nil, shared.ErrInvalidID
	}

	if !params.Email.IsValid() {
		return nil, shared.ErrInvalidEmail
	}

	name := strings.TrimSpace(params.DisplayName)
	if len(name) < 1 || len(name) > 100 {
		return nil, ErrInvalidDisplayName
	}

	if params.GitHubLogin != "" && !params.GitHubLogin.IsValid() {
		return nil, shared.ErrInvalidGitHubLogin
	}

	now := time.Now().UTC()

	u := &User{
		ID:           params.ID,
		Email:        params.Email.Normalize(),
		PasswordHash: params.PasswordHash,
		DisplayName:  name,
		GitHubLogin:  params.GitHubLogin.Normalize(),
		Location:     params.Location,
		Skills:       normalizeSkillSet(params.Skills),
		Roles:        params.Roles,
		Status:       StatusActive,
		OnlineState:  shared.OnlineStateOffline,
		JoinedAt:     now,
		Preferences:  DefaultNotificationPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	u.MMR = rating.Compute(u.Counters)
	u.TierName = rating.TierFor(u.MMR).Name

	return u, nil
}

// normalizeSkillSet нормализует навыки и убирает дубликаты,
// сохраняя порядок первого вхождения.
func normalizeSkillSet(skills []shared.Skill) []shared.Skill {
	seen := make(map[shared.Skill]bool, len(skills))
	out := make([]shared.Skill, 0, len(skills))
	for _, s := range skills {
		n := s.Normalize()
		if !n.IsValid() || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE MUTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProfileParams - изменяемые поля профиля.
type UpdateProfileParams struct {
	DisplayName *string
	Bio         *string
	Location    *shared.Location
	Skills      []shared.Skill
	Roles       []shared.Role
}

// UpdateProfile применяет изменения профиля.
func (u *User) UpdateProfile(params UpdateProfileParams) error {
	if params.DisplayName != nil {
		name := strings.TrimSpace(*params.DisplayName)
		if len(name) < 1 || len(name) > 100 {
			return ErrInvalidDisplayName
		}
		u.DisplayName = name
	}

	if params.Bio != nil {
		u.Bio = strings.TrimSpace(*params.Bio)
	}

	if params.Location != nil {
		u.Location = *params.Location
	}

	if params.Skills != nil {
		u.Skills = normalizeSkillSet(params.Skills)
	}

	if params.Roles != nil {
		u.Roles = params.Roles
	}

	u.UpdatedAt = time.Now().UTC()
	return nil
}

// RatingChange описывает результат пересчёта рейтинга.
type RatingChange struct {
	OldMMR      shared.MMR
	NewMMR      shared.MMR
	OldTier     string
	NewTier     string
	TierChanged bool
	Promoted    bool
}

// Changed возвращает true, если значение рейтинга изменилось.
func (rc RatingChange) Changed() bool {
	return rc.OldMMR != rc.NewMMR
}

// recomputeRating пересчитывает MMR и тир из текущих счётчиков.
func (u *User) recomputeRating() RatingChange {
	oldMMR := u.MMR
	oldTier := u.TierName

	u.MMR = rating.Compute(u.Counters)
	newTier := rating.TierFor(u.MMR)
	u.TierName = newTier.Name
	u.UpdatedAt = time.Now().UTC()

	change := RatingChange{
		OldMMR:  oldMMR,
		NewMMR:  u.MMR,
		OldTier: oldTier,
		NewTier: newTier.Name,
	}
	change.TierChanged = oldTier != newTier.Name
	if change.TierChanged {
		oldT, ok := rating.TierByName(oldTier)
		change.Promoted = !ok || rating.TierIndex(newTier) > rating.TierIndex(oldT)
	}
	return change
}

// ApplyGitHubSync фиксирует свежее число репозиториев и пересчитывает рейтинг.
func (u *User) ApplyGitHubSync(repoCount int) RatingChange {
	if repoCount < 0 {
		repoCount = 0
	}
	u.Counters.RepositoryCount = repoCount
	u.LastSyncedAt = time.Now().UTC()
	return u.recomputeRating()
}

// ApplyHackathonResult записывает результат хакатона в счётчики
// и пересчитывает рейтинг. Место 1 - победа; верхние 10% и 50%
// считаются от общего числа команд.
func (u *User) ApplyHackathonResult(placement, totalTeams int) (RatingChange, error) {
	if totalTeams < 1 || placement < 1 || placement > totalTeams {
		return RatingChange{}, ErrInvalidPlacement
	}

	u.Counters.HackathonsParticipated++
	if placement == 1 {
		u.Counters.HackathonsFirstPlace++
	}
	if placement*10 <= totalTeams {
		u.Counters.HackathonsTop10Percent++
	}
	if placement*2 <= totalTeams {
		u.Counters.HackathonsTop50Percent++
	}

	return u.recomputeRating(), nil
}

// RebuildRating пересчитывает рейтинг без изменения счётчиков
// (используется фоновым пересчётом).
func (u *User) RebuildRating() RatingChange {
	return u.recomputeRating()
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS & PRESENCE
// ══════════════════════════════════════════════════════════════════════════════

// Touch обновляет время последней активности и присутствие.
func (u *User) Touch(state shared.OnlineState) {
	if state.IsValid() {
		u.OnlineState = state
	}
	u.LastSeenAt = time.Now().UTC()
	u.UpdatedAt = u.LastSeenAt
}

// Deactivate помечает участника неактивным.
func (u *User) Deactivate() {
	u.Status = StatusInactive
	u.UpdatedAt = time.Now().UTC()
}

// Reactivate возвращает участника в активный статус.
func (u *User) Reactivate() {
	u.Status = StatusActive
	u.UpdatedAt = time.Now().UTC()
}

// Leave помечает аккаунт удалённым (soft delete).
func (u *User) Leave() {
	u.Status = StatusLeft
	u.UpdatedAt = time.Now().UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCHING BRIDGE
// ══════════════════════════════════════════════════════════════════════════════

// ToCandidateProfile проецирует участника в профиль для движка подбора.
func (u *User) ToCandidateProfile() matching.CandidateProfile {
	skills := make([]shared.Skill, len(u.Skills))
	copy(skills, u.Skills)

	return matching.CandidateProfile{
		ID:            u.ID,
		MMR:           u.MMR,
		Location:      u.Location,
		Skills:        skills,
		ActivityCount: u.Counters.TotalActivity(),
	}
}

// CanBeMatched возвращает true, если участник может попадать в пул
// кандидатов.
func (u *User) CanBeMatched() bool {
	return u.Status.IsMatchable()
}
