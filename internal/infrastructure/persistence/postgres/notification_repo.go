// Package postgres implements PostgreSQL persistence layer for Axiom Hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION REPOSITORY IMPLEMENTATION
// Таблица notifications служит устойчивой очередью доставки: воркер
// забирает pending-записи по приоритету и двигает их по жизненному циклу.
// ══════════════════════════════════════════════════════════════════════════════

const notificationColumns = `
	id, recipient_id, type, channel, priority, status, title, body,
	retry_count, max_retries, last_error, sent_at, delivered_at, created_at, updated_at
`

// NotificationRepository implements notification.Repository for PostgreSQL.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

// Save creates or updates a notification.
func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (
			id, recipient_id, type, channel, priority, status, title, body,
			retry_count, max_retries, last_error, sent_at, delivered_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			retry_count = EXCLUDED.retry_count,
			last_error = EXCLUDED.last_error,
			sent_at = EXCLUDED.sent_at,
			delivered_at = EXCLUDED.delivered_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		string(n.ID),
		string(n.RecipientID),
		string(n.Type),
		string(n.Channel),
		int(n.Priority),
		string(n.Status),
		n.Title,
		n.Body,
		n.RetryCount,
		n.MaxRetries,
		n.LastError,
		n.SentAt,
		n.DeliveredAt,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	return nil
}

// GetByID returns a notification by ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id notification.NotificationID) (*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	return r.scanNotification(r.conn.QueryRow(ctx, query, string(id)))
}

// ListPending returns notifications awaiting delivery,
// urgent first, oldest within the same priority.
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]*notification.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE status = 'pending'
		ORDER BY priority DESC, created_at ASC
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	defer rows.Close()

	return r.scanNotifications(rows)
}

// ListByStatus returns notifications in the given status, oldest first.
func (r *NotificationRepository) ListByStatus(ctx context.Context, status notification.Status, limit int) ([]*notification.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications by status: %w", err)
	}
	defer rows.Close()

	return r.scanNotifications(rows)
}

// ListByRecipient returns a user's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, userID shared.UserID, offset, limit int) ([]*notification.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.conn.Query(ctx, query, string(userID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	return r.scanNotifications(rows)
}

// CountUndelivered returns the number of in-app notifications
// not yet shown to the user.
func (r *NotificationRepository) CountUndelivered(ctx context.Context, userID shared.UserID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE recipient_id = $1 AND channel = 'in_app' AND delivered_at IS NULL
		  AND status NOT IN ('skipped', 'cancelled')
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, string(userID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count undelivered notifications: %w", err)
	}

	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *NotificationRepository) scanNotification(row pgx.Row) (*notification.Notification, error) {
	var (
		n           notification.Notification
		id          string
		recipientID string
		ntype       string
		channel     string
		priority    int
		status      string
		sentAt      *time.Time
		deliveredAt *time.Time
	)

	err := row.Scan(
		&id,
		&recipientID,
		&ntype,
		&channel,
		&priority,
		&status,
		&n.Title,
		&n.Body,
		&n.RetryCount,
		&n.MaxRetries,
		&n.LastError,
		&sentAt,
		&deliveredAt,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}

	n.ID = notification.NotificationID(id)
	n.RecipientID = shared.UserID(recipientID)
	n.Type = notification.NotificationType(ntype)
	n.Channel = notification.Channel(channel)
	n.Priority = notification.Priority(priority)
	n.Status = notification.Status(status)
	n.SentAt = sentAt
	n.DeliveredAt = deliveredAt

	return &n, nil
}

func (r *NotificationRepository) scanNotifications(rows pgx.Rows) ([]*notification.Notification, error) {
	var notifications []*notification.Notification
	for rows.Next() {
		n, err := r.scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
