package query

import (
	"context"
	"fmt"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
	"github.com/axiom-hq/axiom-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// Карточка участника: профиль, рейтинг, тир и прогресс до следующего тира.
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileQuery содержит параметры запроса профиля.
type GetProfileQuery struct {
	// UserID - чей профиль.
	UserID string

	// IncludeHistory - добавить историю рейтинга за период.
	IncludeHistory bool

	// HistoryDays - глубина истории в днях (по умолчанию 30).
	HistoryDays int
}

// Validate проверяет корректность запроса.
func (q *GetProfileQuery) Validate() error {
	if !shared.UserID(q.UserID).IsValid() {
		return shared.ErrInvalidID
	}
	if q.HistoryDays <= 0 {
		q.HistoryDays = 30
	}
	return nil
}

// TierDTO - тир с презентационными атрибутами.
type TierDTO struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// RatingHistoryPoint - точка истории рейтинга.
type RatingHistoryPoint struct {
	MMR        int       `json:"mmr"`
	TierName   string    `json:"tier_name"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ProfileDTO - карточка участника.
type ProfileDTO struct {
	UserID       string   `json:"user_id"`
	DisplayName  string   `json:"display_name"`
	Email        string   `json:"email"`
	GitHubLogin  string   `json:"github_login,omitempty"`
	Bio          string   `json:"bio,omitempty"`
	Location     string   `json:"location,omitempty"`
	Skills       []string `json:"skills"`
	Roles        []string `json:"roles"`
	Status       string   `json:"status"`
	OnlineState  string   `json:"online_state"`

	// Рейтинг
	MMR          int     `json:"mmr"`
	MMRFormatted string  `json:"mmr_formatted"`
	Tier         TierDTO `json:"tier"`

	// Прогресс до следующего тира (0 для Challenger).
	NextTierName string `json:"next_tier_name,omitempty"`
	MMRToNext    int    `json:"mmr_to_next,omitempty"`

	// Активность
	RepositoryCount        int        `json:"repository_count"`
	HackathonsParticipated int        `json:"hackathons_participated"`
	HackathonsTop50        int        `json:"hackathons_top50"`
	HackathonsTop10        int        `json:"hackathons_top10"`
	HackathonsWon          int        `json:"hackathons_won"`
	LastSyncedAt           *time.Time `json:"last_synced_at,omitempty"`

	JoinedAt time.Time `json:"joined_at"`

	// История рейтинга (по запросу).
	History []RatingHistoryPoint `json:"history,omitempty"`
}

// GetProfileHandler обрабатывает GetProfileQuery.
type GetProfileHandler struct {
	userRepo   user.Repository
	ratingRepo rating.Repository
}

// NewGetProfileHandler создаёт обработчик профиля.
func NewGetProfileHandler(userRepo user.Repository, ratingRepo rating.Repository) *GetProfileHandler {
	return &GetProfileHandler{userRepo: userRepo, ratingRepo: ratingRepo}
}

// Handle выполняет запрос профиля.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*ProfileDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.userRepo.GetByID(ctx, shared.UserID(q.UserID))
	if err != nil {
		return nil, fmt.Errorf("get_profile: load user: %w", err)
	}

	tier := rating.TierFor(u.MMR)
	dto := &ProfileDTO{
		UserID:       u.ID.String(),
		DisplayName:  u.DisplayName,
		Email:        u.Email.String(),
		GitHubLogin:  u.GitHubLogin.String(),
		Bio:          u.Bio,
		Location:     u.Location.String(),
		Skills:       skillMatchStrings(u.Skills),
		Roles:        roleStrings(u.Roles),
		Status:       string(u.Status),
		OnlineState:  u.OnlineState.String(),
		MMR:          u.MMR.Int(),
		MMRFormatted: shared.FormatMMR(u.MMR),
		Tier: TierDTO{
			Name:  tier.Name,
			Color: tier.Color,
			Icon:  tier.Icon,
		},
		RepositoryCount:        u.Counters.RepositoryCount,
		HackathonsParticipated: u.Counters.HackathonsParticipated,
		HackathonsTop50:        u.Counters.HackathonsTop50Percent,
		HackathonsTop10:        u.Counters.HackathonsTop10Percent,
		HackathonsWon:          u.Counters.HackathonsFirstPlace,
		JoinedAt:               u.JoinedAt,
	}

	if !u.LastSyncedAt.IsZero() {
		synced := u.LastSyncedAt
		dto.LastSyncedAt = &synced
	}

	// Прогресс до следующего тира.
	if idx := rating.TierIndex(tier); idx >= 0 {
		all := rating.Tiers()
		if idx+1 < len(all) {
			next := all[idx+1]
			dto.NextTierName = next.Name
			dto.MMRToNext = next.MinRating.Int() - u.MMR.Int()
		}
	}

	if q.IncludeHistory {
		// Окно истории выравнивается по границе дня, чтобы график
		// не "дрожал" между запросами в течение дня.
		to := time.Now().UTC()
		from := timeutil.DaysAgo(q.HistoryDays)
		snapshots, err := h.ratingRepo.ListSnapshots(ctx, u.ID, from, to)
		if err == nil {
			dto.History = make([]RatingHistoryPoint, 0, len(snapshots))
			for _, s := range snapshots {
				dto.History = append(dto.History, RatingHistoryPoint{
					MMR:        s.MMR.Int(),
					TierName:   s.TierName,
					Source:     s.Source,
					RecordedAt: s.RecordedAt,
				})
			}
		}
	}

	return dto, nil
}

// roleStrings конвертирует роли в срез строк.
func roleStrings(roles []shared.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = r.String()
	}
	return out
}
