// Package service contains thin adapters that wire application-layer ports
// to concrete infrastructure: notification creation, cache invalidation,
// presence tracking, conversation bootstrap and Redis pub/sub.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION WRITER
// ══════════════════════════════════════════════════════════════════════════════

// NotificationWriter creates in-app notifications for event handlers and the
// onboarding saga. It only persists the notification; delivery is handled by
// the notification dispatcher job.
type NotificationWriter struct {
	repo notification.Repository
}

// NewNotificationWriter creates a notification writer.
func NewNotificationWriter(repo notification.Repository) *NotificationWriter {
	return &NotificationWriter{repo: repo}
}

// Notify создаёт in-app уведомление указанного типа.
// Реализует eventhandler.Notifier.
func (w *NotificationWriter) Notify(ctx context.Context, recipientID shared.UserID, ntype notification.NotificationType, title, body string) error {
	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(uuid.NewString()),
		Type:        ntype,
		RecipientID: recipientID,
		Channel:     notification.ChannelInApp,
		Title:       title,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("build notification: %w", err)
	}

	if err := w.repo.Save(ctx, n); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

// SendWelcome создаёт приветственное уведомление нового участника.
// Реализует saga.WelcomeSender.
func (w *NotificationWriter) SendWelcome(ctx context.Context, recipientID shared.UserID, displayName string) (notification.NotificationID, error) {
	id := notification.NotificationID(uuid.NewString())
	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          id,
		Type:        notification.TypeWelcome,
		RecipientID: recipientID,
		Channel:     notification.ChannelInApp,
		Title:       "Добро пожаловать в Axiom Hub",
		Body: fmt.Sprintf("%s, рады видеть вас! Заполните профиль и привяжите GitHub - "+
			"так движок подбора найдёт вам команду точнее.", displayName),
	})
	if err != nil {
		return "", fmt.Errorf("build welcome notification: %w", err)
	}

	if err := w.repo.Save(ctx, n); err != nil {
		return "", fmt.Errorf("save welcome notification: %w", err)
	}
	return id, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ID GENERATOR
// ══════════════════════════════════════════════════════════════════════════════

// UUIDGenerator generates UUID identifiers.
// Implements saga.IDGenerator.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a UUID generator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// GenerateID returns a new UUID string.
func (g *UUIDGenerator) GenerateID() string {
	return uuid.NewString()
}
