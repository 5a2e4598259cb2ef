package team

import (
	"errors"
	"strings"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEAM
// ══════════════════════════════════════════════════════════════════════════════

// DefaultMaxMembers - размер команды по умолчанию.
const DefaultMaxMembers = 5

// ErrInvalidTeamName - невалидное название команды.
var ErrInvalidTeamName = errors.New("invalid team name: must be 1-100 chars")

// ErrNotTeamMember - участник не состоит в команде.
var ErrNotTeamMember = errors.New("user is not a team member")

// Team - команда, собранная через принятые приглашения.
type Team struct {
	// ID - уникальный идентификатор.
	ID shared.TeamID

	// Name - название команды.
	Name string

	// HackathonID - хакатон, под который собрана команда (опционально).
	HackathonID shared.HackathonID

	// OwnerID - создатель команды.
	OwnerID shared.UserID

	// MemberIDs - участники (включая владельца).
	MemberIDs []shared.UserID

	// MaxMembers - максимальный размер.
	MaxMembers int

	// CreatedAt - время создания.
	CreatedAt time.Time

	// UpdatedAt - время последнего изменения состава.
	UpdatedAt time.Time
}

// NewTeamParams содержит параметры создания команды.
type NewTeamParams struct {
	ID          shared.TeamID
	Name        string
	HackathonID shared.HackathonID
	OwnerID     shared.UserID
	MaxMembers  int
}

// NewTeam создаёт команду. Владелец сразу становится участником.
func NewTeam(params NewTeamParams) (*Team, error) {
	if !params.ID.IsValid() || !params.OwnerID.IsValid() {
		return nil, shared.ErrInvalidID
	}

	name := strings.TrimSpace(params.Name)
	if len(name) < 1 || len(name) > 100 {
		return nil, ErrInvalidTeamName
	}

	maxMembers := params.MaxMembers
	if maxMembers < 2 {
		maxMembers = DefaultMaxMembers
	}

	now := time.Now().UTC()
	return &Team{
		ID:          params.ID,
		Name:        name,
		HackathonID: params.HackathonID,
		OwnerID:     params.OwnerID,
		MemberIDs:   []shared.UserID{params.OwnerID},
		MaxMembers:  maxMembers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// HasMember проверяет, состоит ли участник в команде.
func (t *Team) HasMember(id shared.UserID) bool {
	for _, m := range t.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// IsFull возвращает true, если мест больше нет.
func (t *Team) IsFull() bool {
	return len(t.MemberIDs) >= t.MaxMembers
}

// AddMember добавляет участника (вызывается при принятии приглашения).
func (t *Team) AddMember(id shared.UserID) error {
	if !id.IsValid() {
		return shared.ErrInvalidID
	}
	if t.HasMember(id) {
		return shared.ErrAlreadyTeamMember
	}
	if t.IsFull() {
		return shared.ErrTeamFull
	}
	t.MemberIDs = append(t.MemberIDs, id)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveMember исключает участника. Владельца исключить нельзя -
// команда распускается отдельной операцией.
func (t *Team) RemoveMember(id shared.UserID) error {
	if id == t.OwnerID {
		return shared.ErrUnauthorized
	}
	for i, m := range t.MemberIDs {
		if m == id {
			t.MemberIDs = append(t.MemberIDs[:i], t.MemberIDs[i+1:]...)
			t.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotTeamMember
}
