// Package eventhandler содержит обработчики доменных событий.
// Обработчики - "реактивная" часть системы: они реагируют на изменения
// и запускают побочные эффекты - уведомления, инвалидацию кешей.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON TIER CHANGED HANDLER
// Смена тира - заметное достижение (или повод подбодрить). Повышение
// разносится громко, понижение - тихим низкоприоритетным уведомлением.
// ══════════════════════════════════════════════════════════════════════════════

// Notifier создаёт и доставляет уведомление участнику, учитывая его
// настройки. Реализация живёт в infrastructure/service.
type Notifier interface {
	// Notify отправляет уведомление указанного типа.
	Notify(ctx context.Context, recipientID shared.UserID, ntype notification.NotificationType, title, body string) error
}

// CacheInvalidator сбрасывает кеши, зависящие от рейтинга.
type CacheInvalidator interface {
	// InvalidateLeaderboard сбрасывает кеш лидерборда.
	InvalidateLeaderboard(ctx context.Context) error
}

// OnTierChangedHandler обрабатывает событие смены тира.
type OnTierChangedHandler struct {
	notifier Notifier
	cache    CacheInvalidator
	logger   *slog.Logger
}

// NewOnTierChangedHandler создаёт обработчик смены тира.
func NewOnTierChangedHandler(notifier Notifier, cache CacheInvalidator, logger *slog.Logger) *OnTierChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnTierChangedHandler{
		notifier: notifier,
		cache:    cache,
		logger:   logger.With("handler", "on_tier_changed"),
	}
}

// Handle обрабатывает событие. Реализует shared.EventHandler.
func (h *OnTierChangedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.TierChangedEvent)
	if !ok {
		return fmt.Errorf("on_tier_changed: unexpected event type %T", event)
	}

	ctx := context.Background()
	userID := shared.UserID(e.AggregateID())

	// Лидерборд устарел в любом случае.
	if h.cache != nil {
		if err := h.cache.InvalidateLeaderboard(ctx); err != nil {
			h.logger.Warn("leaderboard invalidation failed", "error", err)
		}
	}

	var ntype notification.NotificationType
	var title, body string
	if e.Promoted {
		ntype = notification.TypeTierPromoted
		title = "Новый тир!"
		body = fmt.Sprintf("🏆 Поздравляем! Ты поднялся из %s в %s (%d MMR)", e.OldTier, e.NewTier, e.NewMMR)
	} else {
		ntype = notification.TypeTierDemoted
		title = "Тир изменился"
		body = fmt.Sprintf("📉 Тир изменился на %s. Пара новых репозиториев всё вернут!", e.NewTier)
	}

	if err := h.notifier.Notify(ctx, userID, ntype, title, body); err != nil {
		h.logger.Error("tier change notification failed",
			"user_id", userID.String(),
			"new_tier", e.NewTier,
			"error", err,
		)
		return err
	}

	h.logger.Info("tier change processed",
		"user_id", userID.String(),
		"old_tier", e.OldTier,
		"new_tier", e.NewTier,
		"promoted", e.Promoted,
	)
	return nil
}
