package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON HACKATHON RESULT HANDLER
// Подтверждение записи результата: участник видит, за что именно ему
// начислили рейтинг.
// ══════════════════════════════════════════════════════════════════════════════

// OnHackathonResultHandler обрабатывает событие записи результата.
type OnHackathonResultHandler struct {
	notifier Notifier
	cache    CacheInvalidator
	logger   *slog.Logger
}

// NewOnHackathonResultHandler создаёт обработчик.
func NewOnHackathonResultHandler(notifier Notifier, cache CacheInvalidator, logger *slog.Logger) *OnHackathonResultHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnHackathonResultHandler{
		notifier: notifier,
		cache:    cache,
		logger:   logger.With("handler", "on_hackathon_result"),
	}
}

// Handle обрабатывает событие. Реализует shared.EventHandler.
func (h *OnHackathonResultHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.HackathonResultEvent)
	if !ok {
		return fmt.Errorf("on_hackathon_result: unexpected event type %T", event)
	}

	ctx := context.Background()

	if h.cache != nil {
		if err := h.cache.InvalidateLeaderboard(ctx); err != nil {
			h.logger.Warn("leaderboard invalidation failed", "error", err)
		}
	}

	body := fmt.Sprintf("🏅 Результат зафиксирован: %d место из %d команд", e.Placement, e.TotalTeams)
	switch {
	case e.FirstPlace:
		body += ". Победа! 🥇"
	case e.Top10:
		body += ". Топ-10%!"
	case e.Top50:
		body += ". Верхняя половина"
	}

	if err := h.notifier.Notify(ctx, shared.UserID(e.UserID), notification.TypeHackathonResult, "Результат хакатона", body); err != nil {
		h.logger.Error("hackathon result notification failed",
			"user_id", e.UserID,
			"hackathon_id", e.HackathonID,
			"error", err,
		)
		return err
	}

	h.logger.Info("hackathon result processed",
		"user_id", e.UserID,
		"hackathon_id", e.HackathonID,
		"placement", e.Placement,
	)
	return nil
}
