package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON TEAM-UP REQUESTED HANDLER
// Адресат должен узнать о приглашении быстро - от этого зависит, соберётся
// ли команда до дедлайна регистрации.
// ══════════════════════════════════════════════════════════════════════════════

// OnTeamUpRequestedHandler обрабатывает событие отправки приглашения.
type OnTeamUpRequestedHandler struct {
	userRepo user.Repository
	notifier Notifier
	logger   *slog.Logger
}

// NewOnTeamUpRequestedHandler создаёт обработчик.
func NewOnTeamUpRequestedHandler(userRepo user.Repository, notifier Notifier, logger *slog.Logger) *OnTeamUpRequestedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnTeamUpRequestedHandler{
		userRepo: userRepo,
		notifier: notifier,
		logger:   logger.With("handler", "on_teamup_requested"),
	}
}

// Handle обрабатывает событие. Реализует shared.EventHandler.
func (h *OnTeamUpRequestedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.TeamUpRequestedEvent)
	if !ok {
		return fmt.Errorf("on_teamup_requested: unexpected event type %T", event)
	}

	ctx := context.Background()

	sender, err := h.userRepo.GetByID(ctx, shared.UserID(e.SenderID))
	if err != nil {
		return fmt.Errorf("on_teamup_requested: load sender: %w", err)
	}

	body := fmt.Sprintf("🤝 %s зовёт тебя в команду (совместимость %d)", sender.DisplayName, e.Score)
	if msg := strings.TrimSpace(e.Message); msg != "" {
		body += ": «" + msg + "»"
	}

	if err := h.notifier.Notify(ctx, shared.UserID(e.ReceiverID), notification.TypeTeamUpRequested, "Приглашение в команду", body); err != nil {
		h.logger.Error("teamup notification failed",
			"request_id", e.RequestID,
			"receiver_id", e.ReceiverID,
			"error", err,
		)
		return err
	}

	h.logger.Info("teamup request notified",
		"request_id", e.RequestID,
		"sender_id", e.SenderID,
		"receiver_id", e.ReceiverID,
		"score", e.Score,
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ON TEAM-UP RESPONDED HANDLER
// Отправитель узнаёт о решении адресата.
// ══════════════════════════════════════════════════════════════════════════════

// OnTeamUpRespondedHandler обрабатывает ответ на приглашение.
type OnTeamUpRespondedHandler struct {
	userRepo user.Repository
	notifier Notifier
	logger   *slog.Logger
}

// NewOnTeamUpRespondedHandler создаёт обработчик.
func NewOnTeamUpRespondedHandler(userRepo user.Repository, notifier Notifier, logger *slog.Logger) *OnTeamUpRespondedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnTeamUpRespondedHandler{
		userRepo: userRepo,
		notifier: notifier,
		logger:   logger.With("handler", "on_teamup_responded"),
	}
}

// Handle обрабатывает событие. Реализует shared.EventHandler.
func (h *OnTeamUpRespondedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.TeamUpRespondedEvent)
	if !ok {
		return fmt.Errorf("on_teamup_responded: unexpected event type %T", event)
	}

	ctx := context.Background()

	receiver, err := h.userRepo.GetByID(ctx, shared.UserID(e.ReceiverID))
	if err != nil {
		return fmt.Errorf("on_teamup_responded: load receiver: %w", err)
	}

	var ntype notification.NotificationType
	var title, body string
	if e.Accepted {
		ntype = notification.TypeTeamUpAccepted
		title = "Приглашение принято"
		body = fmt.Sprintf("🎉 %s принял твоё приглашение! Напиши первым", receiver.DisplayName)
	} else {
		ntype = notification.TypeTeamUpDeclined
		title = "Приглашение отклонено"
		body = fmt.Sprintf("%s отклонил приглашение. Движок подберёт других кандидатов", receiver.DisplayName)
	}

	if err := h.notifier.Notify(ctx, shared.UserID(e.SenderID), ntype, title, body); err != nil {
		h.logger.Error("teamup response notification failed",
			"request_id", e.RequestID,
			"error", err,
		)
		return err
	}
	return nil
}
