package query

import (
	"context"
	"fmt"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Лидерборд по MMR. Выдача кешируется в Redis инфраструктурным слоем;
// здесь только формирование.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры лидерборда.
type GetLeaderboardQuery struct {
	// Limit - размер страницы (по умолчанию 25, максимум 100).
	Limit int

	// Offset - смещение страницы.
	Offset int

	// AroundUserID - вместо страницы вернуть соседей участника.
	AroundUserID string

	// AroundRadius - сколько соседей с каждой стороны (по умолчанию 3).
	AroundRadius int
}

// Validate проверяет и нормализует параметры.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit <= 0 {
		q.Limit = 25
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.AroundRadius <= 0 {
		q.AroundRadius = 3
	}
	return nil
}

// LeaderboardRowDTO - строка лидерборда.
type LeaderboardRowDTO struct {
	Rank         int    `json:"rank"`
	UserID       string `json:"user_id"`
	DisplayName  string `json:"display_name"`
	MMR          int    `json:"mmr"`
	MMRFormatted string `json:"mmr_formatted"`
	TierName     string `json:"tier_name"`
	TierIcon     string `json:"tier_icon"`

	// IsRequested помечает строку участника из AroundUserID.
	IsRequested bool `json:"is_requested,omitempty"`
}

// LeaderboardDTO - страница лидерборда.
type LeaderboardDTO struct {
	Rows        []LeaderboardRowDTO `json:"rows"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// GetLeaderboardHandler обрабатывает GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	ratingRepo rating.Repository
}

// NewGetLeaderboardHandler создаёт обработчик лидерборда.
func NewGetLeaderboardHandler(ratingRepo rating.Repository) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{ratingRepo: ratingRepo}
}

// Handle выполняет запрос лидерборда.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*LeaderboardDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	limit, offset := q.Limit, q.Offset

	// Режим "вокруг участника": находим его позицию и расширяем окно.
	var aroundID shared.UserID
	if q.AroundUserID != "" {
		aroundID = shared.UserID(q.AroundUserID)
		rank, err := h.findRank(ctx, aroundID)
		if err != nil {
			return nil, err
		}
		offset = rank - q.AroundRadius - 1
		if offset < 0 {
			offset = 0
		}
		limit = q.AroundRadius*2 + 1
	}

	entries, err := h.ratingRepo.GetLeaderboard(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: fetch: %w", err)
	}

	rows := make([]LeaderboardRowDTO, 0, len(entries))
	for _, e := range entries {
		tier, _ := rating.TierByName(e.TierName)
		rows = append(rows, LeaderboardRowDTO{
			Rank:         e.Rank,
			UserID:       e.UserID.String(),
			DisplayName:  e.DisplayName,
			MMR:          e.MMR.Int(),
			MMRFormatted: shared.FormatMMR(e.MMR),
			TierName:     e.TierName,
			TierIcon:     tier.Icon,
			IsRequested:  e.UserID == aroundID,
		})
	}

	return &LeaderboardDTO{
		Rows:        rows,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// findRank ищет позицию участника постраничным проходом по лидерборду.
// Для типичных размеров сообщества достаточно; горячий путь закрыт кешем.
func (h *GetLeaderboardHandler) findRank(ctx context.Context, userID shared.UserID) (int, error) {
	const pageSize = 500

	for offset := 0; ; offset += pageSize {
		entries, err := h.ratingRepo.GetLeaderboard(ctx, pageSize, offset)
		if err != nil {
			return 0, fmt.Errorf("get_leaderboard: scan for rank: %w", err)
		}
		for _, e := range entries {
			if e.UserID == userID {
				return e.Rank, nil
			}
		}
		if len(entries) < pageSize {
			return 0, shared.ErrUserNotFound
		}
	}
}
