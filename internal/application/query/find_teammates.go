// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/matching"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIND TEAMMATES QUERY
// Находит подходящих сокомандников для участника. Это КЛЮЧЕВОЙ запрос
// проекта: рейтинг существует не ради рейтинга, а чтобы собрать
// сбалансированную команду.
//
// Пул кандидатов приходит из хранилища (с грубыми фильтрами по ролям и
// локации), а точная оценка совместимости считается движком подбора
// в памяти.
// ══════════════════════════════════════════════════════════════════════════════

// FindTeammatesQuery содержит параметры поиска.
type FindTeammatesQuery struct {
	// ─────────────────────────────────────────────────────────────────────────
	// Обязательные параметры
	// ─────────────────────────────────────────────────────────────────────────

	// RequesterID - кто ищет команду.
	RequesterID string

	// ─────────────────────────────────────────────────────────────────────────
	// Опциональные фильтры
	// ─────────────────────────────────────────────────────────────────────────

	// Roles - желаемые роли кандидатов.
	Roles []string

	// Skills - желаемые навыки.
	Skills []string

	// RatingMin, RatingMax - рамки рейтинга (0 = не ограничивать).
	RatingMin int
	RatingMax int

	// Location - желаемая локация.
	Location string

	// MinCompatibility - порог совместимости (0 = порог по умолчанию).
	MinCompatibility int

	// OnlineOnly - только кандидаты онлайн.
	OnlineOnly bool

	// Limit - максимум результатов (по умолчанию 10).
	Limit int
}

// defaultTeammateLimit и maxTeammateLimit ограничивают размер выдачи.
const (
	defaultTeammateLimit = 10
	maxTeammateLimit     = 50
)

// Validate проверяет и нормализует параметры.
func (q *FindTeammatesQuery) Validate() error {
	if !shared.UserID(q.RequesterID).IsValid() {
		return shared.ErrRequesterMissing
	}
	if q.RatingMin < 0 || q.RatingMax < 0 || (q.RatingMax > 0 && q.RatingMin > q.RatingMax) {
		return shared.ErrInvalidSearchFilters
	}
	if q.MinCompatibility <= 0 {
		q.MinCompatibility = matching.DefaultMinCompatibility
	}
	if q.Limit <= 0 {
		q.Limit = defaultTeammateLimit
	}
	if q.Limit > maxTeammateLimit {
		q.Limit = maxTeammateLimit
	}
	return nil
}

// TeammateDTO - кандидат в выдаче.
type TeammateDTO struct {
	// UserID - внутренний ID кандидата.
	UserID string `json:"user_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// GitHubLogin - привязанный GitHub.
	GitHubLogin string `json:"github_login,omitempty"`

	// Score - совместимость 0-100.
	Score int `json:"score"`

	// Quality - словесная оценка ("excellent", "good", ...).
	Quality string `json:"quality"`

	// SkillMatches - какие запрошенные навыки кандидат закрывает.
	SkillMatches []string `json:"skill_matches,omitempty"`

	// MMR - текущий рейтинг кандидата.
	MMR int `json:"mmr"`

	// MMRFormatted - форматированный рейтинг ("1,250 MMR").
	MMRFormatted string `json:"mmr_formatted"`

	// TierName - тир кандидата.
	TierName string `json:"tier_name"`

	// TierColor и TierIcon - метаданные тира для отображения.
	TierColor string `json:"tier_color"`
	TierIcon  string `json:"tier_icon"`

	// RatingDifference - разница рейтингов с запрашивающим.
	RatingDifference int `json:"rating_difference"`

	// Location - локация кандидата.
	Location string `json:"location,omitempty"`

	// OnlineState - "online", "away", "offline".
	OnlineState string `json:"online_state"`

	// LastSeenAt - последняя активность.
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// FindTeammatesResult содержит выдачу поиска.
type FindTeammatesResult struct {
	// Teammates - кандидаты по убыванию совместимости.
	Teammates []TeammateDTO `json:"teammates"`

	// TotalCandidates - размер пула до порога совместимости.
	TotalCandidates int `json:"total_candidates"`

	// GeneratedAt - время формирования выдачи.
	GeneratedAt time.Time `json:"generated_at"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Dependencies
// ─────────────────────────────────────────────────────────────────────────────

// PresenceTracker сообщает онлайн-состояние участников.
type PresenceTracker interface {
	// GetState возвращает состояние участника.
	GetState(ctx context.Context, userID shared.UserID) (shared.OnlineState, error)

	// GetStates возвращает состояния пачкой.
	GetStates(ctx context.Context, userIDs []shared.UserID) (map[shared.UserID]shared.OnlineState, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Handler
// ─────────────────────────────────────────────────────────────────────────────

// FindTeammatesHandler обрабатывает FindTeammatesQuery.
type FindTeammatesHandler struct {
	userRepo user.Repository
	presence PresenceTracker
}

// NewFindTeammatesHandler создаёт обработчик поиска сокомандников.
func NewFindTeammatesHandler(userRepo user.Repository, presence PresenceTracker) *FindTeammatesHandler {
	return &FindTeammatesHandler{userRepo: userRepo, presence: presence}
}

// Handle выполняет поиск.
func (h *FindTeammatesHandler) Handle(ctx context.Context, q FindTeammatesQuery) (*FindTeammatesResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	requester, err := h.userRepo.GetByID(ctx, shared.UserID(q.RequesterID))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("find_teammates: load requester: %w", err)
	}

	filters := matching.SearchFilters{
		Roles:            normalizeRoles(q.Roles),
		Skills:           shared.NormalizeSkills(q.Skills),
		RatingMin:        shared.MMR(q.RatingMin),
		RatingMax:        shared.MMR(q.RatingMax),
		Location:         shared.Location(q.Location).Normalize(),
		MinCompatibility: q.MinCompatibility,
	}

	pool, err := h.userRepo.FetchCandidatePool(ctx, matching.PoolFilters{
		Roles:    filters.Roles,
		Location: filters.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("find_teammates: fetch pool: %w", err)
	}

	scored := matching.SearchCandidates(requester.ToCandidateProfile(), pool, filters)
	totalCandidates := len(scored)
	scored = matching.TopN(scored, q.Limit*2) // запас на фильтр по онлайну

	states := h.presenceStates(ctx, scored)

	teammates := make([]TeammateDTO, 0, len(scored))
	for _, s := range scored {
		state := states[s.UserID]
		if q.OnlineOnly && state != shared.OnlineStateOnline {
			continue
		}

		dto, err := h.buildDTO(ctx, s, state)
		if err != nil {
			continue
		}
		teammates = append(teammates, dto)
		if len(teammates) >= q.Limit {
			break
		}
	}

	return &FindTeammatesResult{
		Teammates:       teammates,
		TotalCandidates: totalCandidates,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// presenceStates собирает онлайн-состояния кандидатов. При недоступном
// трекере все считаются офлайн.
func (h *FindTeammatesHandler) presenceStates(ctx context.Context, scored []matching.CompatibilityScore) map[shared.UserID]shared.OnlineState {
	if h.presence == nil || len(scored) == 0 {
		return map[shared.UserID]shared.OnlineState{}
	}

	ids := make([]shared.UserID, len(scored))
	for i, s := range scored {
		ids[i] = s.UserID
	}

	states, err := h.presence.GetStates(ctx, ids)
	if err != nil {
		return map[shared.UserID]shared.OnlineState{}
	}
	return states
}

func (h *FindTeammatesHandler) buildDTO(ctx context.Context, s matching.CompatibilityScore, state shared.OnlineState) (TeammateDTO, error) {
	candidate, err := h.userRepo.GetByID(ctx, s.UserID)
	if err != nil {
		return TeammateDTO{}, err
	}

	if state == "" {
		state = shared.OnlineStateOffline
	}

	dto := TeammateDTO{
		UserID:           candidate.ID.String(),
		DisplayName:      candidate.DisplayName,
		GitHubLogin:      candidate.GitHubLogin.String(),
		Score:            s.Score,
		Quality:          string(s.Quality()),
		SkillMatches:     skillMatchStrings(s.SkillMatches),
		MMR:              candidate.MMR.Int(),
		MMRFormatted:     shared.FormatMMR(candidate.MMR),
		TierName:         s.Tier.Name,
		TierColor:        s.Tier.Color,
		TierIcon:         s.Tier.Icon,
		RatingDifference: s.RatingDifference,
		Location:         candidate.Location.String(),
		OnlineState:      state.String(),
	}
	if !candidate.LastSeenAt.IsZero() {
		seen := candidate.LastSeenAt
		dto.LastSeenAt = &seen
	}
	return dto, nil
}

// skillMatchStrings конвертирует навыки в срез строк.
func skillMatchStrings(skills []shared.Skill) []string {
	if len(skills) == 0 {
		return nil
	}
	out := make([]string, len(skills))
	for i, s := range skills {
		out[i] = s.String()
	}
	return out
}

// normalizeRoles приводит роли к каноничному виду, отбрасывая пустые.
func normalizeRoles(raw []string) []shared.Role {
	out := make([]shared.Role, 0, len(raw))
	for _, r := range raw {
		n := shared.Role(r).Normalize()
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
