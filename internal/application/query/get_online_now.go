package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ONLINE NOW QUERY
// Кто сейчас онлайн. Видеть живых людей на платформе - часть вовлечения:
// проще позвать в команду того, кто отвечает прямо сейчас.
// ══════════════════════════════════════════════════════════════════════════════

// GetOnlineNowQuery содержит параметры запроса.
type GetOnlineNowQuery struct {
	// Limit - максимум результатов (по умолчанию 50).
	Limit int

	// IncludeAway - включать состояние "away".
	IncludeAway bool
}

// Validate проверяет и нормализует параметры.
func (q *GetOnlineNowQuery) Validate() error {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	return nil
}

// OnlineUserDTO - участник в списке "онлайн сейчас".
type OnlineUserDTO struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	TierName    string `json:"tier_name"`
	MMR         int    `json:"mmr"`
	OnlineState string `json:"online_state"`
}

// OnlineNowDTO - выдача запроса.
type OnlineNowDTO struct {
	Users       []OnlineUserDTO `json:"users"`
	OnlineCount int             `json:"online_count"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// OnlineLister возвращает участников, активных прямо сейчас.
type OnlineLister interface {
	// ListOnline возвращает ID участников в состоянии online/away.
	ListOnline(ctx context.Context) (map[shared.UserID]shared.OnlineState, error)
}

// GetOnlineNowHandler обрабатывает GetOnlineNowQuery.
type GetOnlineNowHandler struct {
	userRepo user.Repository
	online   OnlineLister
}

// NewGetOnlineNowHandler создаёт обработчик.
func NewGetOnlineNowHandler(userRepo user.Repository, online OnlineLister) *GetOnlineNowHandler {
	return &GetOnlineNowHandler{userRepo: userRepo, online: online}
}

// Handle выполняет запрос.
func (h *GetOnlineNowHandler) Handle(ctx context.Context, q GetOnlineNowQuery) (*OnlineNowDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	states, err := h.online.ListOnline(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_online_now: list online: %w", err)
	}

	users := make([]OnlineUserDTO, 0, len(states))
	onlineCount := 0
	for id, state := range states {
		if state == shared.OnlineStateOnline {
			onlineCount++
		} else if !q.IncludeAway {
			continue
		}

		u, err := h.userRepo.GetByID(ctx, id)
		if err != nil {
			continue
		}
		users = append(users, OnlineUserDTO{
			UserID:      u.ID.String(),
			DisplayName: u.DisplayName,
			TierName:    u.TierName,
			MMR:         u.MMR.Int(),
			OnlineState: state.String(),
		})
	}

	// Онлайн выше away, внутри группы - по MMR.
	sort.Slice(users, func(i, j int) bool {
		if users[i].OnlineState != users[j].OnlineState {
			return users[i].OnlineState == shared.OnlineStateOnline.String()
		}
		return users[i].MMR > users[j].MMR
	})

	if len(users) > q.Limit {
		users = users[:q.Limit]
	}

	return &OnlineNowDTO{
		Users:       users,
		OnlineCount: onlineCount,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
