// Package mailer implements notification delivery channels.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER - pending notification pump
// ══════════════════════════════════════════════════════════════════════════════

const defaultBatchSize = 100

// Dispatcher drains the pending notification queue: checks recipient
// preferences and quiet hours, hands deliverable notifications to the
// channel sender and persists the resulting status. Urgent notifications
// skip the quiet-hours check.
type Dispatcher struct {
	notifications notification.Repository
	users         UserDirectory
	sender        notification.Sender
	logger        *slog.Logger

	now func() time.Time
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(
	notifications notification.Repository,
	users UserDirectory,
	sender notification.Sender,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		notifications: notifications,
		users:         users,
		sender:        sender,
		logger:        logger,
		now:           time.Now,
	}
}

// DispatchStats summarizes one dispatch run.
type DispatchStats struct {
	Delivered int
	Skipped   int
	Failed    int
}

// DispatchPending processes up to batchSize pending notifications.
// One broken notification does not stop the batch.
func (d *Dispatcher) DispatchPending(ctx context.Context, batchSize int) (DispatchStats, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	var stats DispatchStats

	pending, err := d.notifications.ListPending(ctx, batchSize)
	if err != nil {
		return stats, fmt.Errorf("list pending notifications: %w", err)
	}

	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		switch d.dispatchOne(ctx, n) {
		case outcomeDelivered:
			stats.Delivered++
		case outcomeSkipped:
			stats.Skipped++
		case outcomeFailed:
			stats.Failed++
		}
	}

	return stats, nil
}

type outcome int

const (
	outcomeDelivered outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (d *Dispatcher) dispatchOne(ctx context.Context, n *notification.Notification) outcome {
	recipient, err := d.users.GetByID(ctx, n.RecipientID)
	if err != nil {
		d.skip(ctx, n, "recipient not found")
		return outcomeSkipped
	}

	if reason, ok := d.suppressReason(recipient, n); ok {
		d.skip(ctx, n, reason)
		return outcomeSkipped
	}

	if err := n.MarkSending(); err != nil {
		d.logger.Warn("notification in unexpected state",
			"notification_id", n.ID, "status", n.Status, "error", err)
		return outcomeSkipped
	}

	if err := d.sender.Send(ctx, n); err != nil {
		_ = n.MarkFailed(err.Error())
		d.persist(ctx, n)
		d.logger.Warn("notification delivery failed",
			"notification_id", n.ID, "type", n.Type, "channel", n.Channel, "error", err)
		return outcomeFailed
	}

	_ = n.MarkDelivered()
	d.persist(ctx, n)
	return outcomeDelivered
}

// suppressReason checks recipient preferences and quiet hours.
func (d *Dispatcher) suppressReason(recipient *user.User, n *notification.Notification) (string, bool) {
	if recipient.Status != user.StatusActive {
		return "recipient is not active", true
	}

	prefs := recipient.Preferences
	switch n.Type {
	case notification.TypeTierPromoted, notification.TypeTierDemoted:
		if !prefs.TierChanges {
			return "tier change notifications disabled", true
		}
	case notification.TypeTeamUpRequested, notification.TypeTeamUpAccepted,
		notification.TypeTeamUpDeclined, notification.TypeTeamUpExpiring:
		if !prefs.TeamUpRequests {
			return "teamup notifications disabled", true
		}
	case notification.TypeNewMessage:
		if !prefs.Messages {
			return "message notifications disabled", true
		}
	case notification.TypeDailyDigest:
		if !prefs.DailyDigest {
			return "daily digest disabled", true
		}
	}

	if !n.Priority.IgnoresQuietHours() && prefs.IsQuietHour(d.now()) {
		return "quiet hours", true
	}

	return "", false
}

func (d *Dispatcher) skip(ctx context.Context, n *notification.Notification, reason string) {
	if err := n.MarkSkipped(reason); err != nil {
		return
	}
	d.persist(ctx, n)
}

func (d *Dispatcher) persist(ctx context.Context, n *notification.Notification) {
	if err := d.notifications.Save(ctx, n); err != nil {
		d.logger.Error("failed to persist notification status",
			"notification_id", n.ID, "status", n.Status, "error", err)
	}
}

// RetryFailed re-queues failed notifications that still have retry budget.
func (d *Dispatcher) RetryFailed(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	failed, err := d.notifications.ListByStatus(ctx, notification.StatusFailed, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list failed notifications: %w", err)
	}

	retried := 0
	for _, n := range failed {
		if !n.CanRetry() {
			continue
		}
		if err := n.ResetForRetry(); err != nil {
			continue
		}
		if err := d.notifications.Save(ctx, n); err != nil {
			d.logger.Error("failed to re-queue notification",
				"notification_id", n.ID, "error", err)
			continue
		}
		retried++
	}

	return retried, nil
}
