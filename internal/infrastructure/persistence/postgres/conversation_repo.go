// Package postgres implements PostgreSQL persistence layer for Axiom Hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/conversation"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONVERSATION REPOSITORY IMPLEMENTATION
// Переписки хранятся в каноничном порядке участников (A < B), поэтому
// поиск по паре не зависит от порядка аргументов.
// ══════════════════════════════════════════════════════════════════════════════

// ConversationRepository implements conversation.Repository for PostgreSQL.
type ConversationRepository struct {
	conn *Connection
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(conn *Connection) *ConversationRepository {
	return &ConversationRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Conversations
// ─────────────────────────────────────────────────────────────────────────────

// SaveConversation creates or updates a conversation.
func (r *ConversationRepository) SaveConversation(ctx context.Context, c *conversation.Conversation) error {
	query := `
		INSERT INTO conversations (id, participant_a, participant_b, last_message_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			last_message_at = EXCLUDED.last_message_at
	`

	_, err := r.conn.Exec(ctx, query,
		c.ID,
		string(c.ParticipantA),
		string(c.ParticipantB),
		c.LastMessageAt,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	return nil
}

// GetConversation returns a conversation by ID.
func (r *ConversationRepository) GetConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	query := `
		SELECT id, participant_a, participant_b, last_message_at, created_at
		FROM conversations
		WHERE id = $1
	`

	return r.scanConversation(r.conn.QueryRow(ctx, query, id))
}

// FindByParticipants returns the conversation between two users,
// regardless of argument order.
func (r *ConversationRepository) FindByParticipants(ctx context.Context, a, b shared.UserID) (*conversation.Conversation, error) {
	// Пара хранится в каноничном порядке.
	if b < a {
		a, b = b, a
	}

	query := `
		SELECT id, participant_a, participant_b, last_message_at, created_at
		FROM conversations
		WHERE participant_a = $1 AND participant_b = $2
	`

	return r.scanConversation(r.conn.QueryRow(ctx, query, string(a), string(b)))
}

// ListByParticipant returns a user's conversations, most recent first.
func (r *ConversationRepository) ListByParticipant(ctx context.Context, userID shared.UserID, limit int) ([]*conversation.Conversation, error) {
	query := `
		SELECT id, participant_a, participant_b, last_message_at, created_at
		FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY last_message_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, string(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*conversation.Conversation
	for rows.Next() {
		c, err := r.scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}

	return conversations, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Messages
// ─────────────────────────────────────────────────────────────────────────────

// SaveMessage persists a message.
func (r *ConversationRepository) SaveMessage(ctx context.Context, m *conversation.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, body, sent_at, read_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			read_at = EXCLUDED.read_at
	`

	_, err := r.conn.Exec(ctx, query,
		m.ID,
		m.ConversationID,
		string(m.SenderID),
		m.Body,
		m.SentAt,
		nullIfZeroTime(m.ReadAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// ListMessages returns a conversation's messages, newest first.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string, offset, limit int) ([]*conversation.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, body, sent_at, read_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY sent_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.conn.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*conversation.Message
	for rows.Next() {
		m, err := r.scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// MarkRead marks all messages addressed to the reader as read.
// Returns the number of updated messages.
func (r *ConversationRepository) MarkRead(ctx context.Context, conversationID string, readerID shared.UserID) (int, error) {
	query := `
		UPDATE messages
		SET read_at = $1
		WHERE conversation_id = $2 AND sender_id != $3 AND read_at IS NULL
	`

	result, err := r.conn.Exec(ctx, query, time.Now().UTC(), conversationID, string(readerID))
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// CountUnread returns the user's total unread message count.
func (r *ConversationRepository) CountUnread(ctx context.Context, userID shared.UserID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE (c.participant_a = $1 OR c.participant_b = $1)
		  AND m.sender_id != $1
		  AND m.read_at IS NULL
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, string(userID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}

	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ConversationRepository) scanConversation(row pgx.Row) (*conversation.Conversation, error) {
	var (
		c conversation.Conversation
		a string
		b string
	)

	err := row.Scan(&c.ID, &a, &b, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}

	c.ParticipantA = shared.UserID(a)
	c.ParticipantB = shared.UserID(b)

	return &c, nil
}

func (r *ConversationRepository) scanMessage(row pgx.Row) (*conversation.Message, error) {
	var (
		m        conversation.Message
		senderID string
		readAt   *time.Time
	)

	err := row.Scan(&m.ID, &m.ConversationID, &senderID, &m.Body, &m.SentAt, &readAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	m.SenderID = shared.UserID(senderID)
	if readAt != nil {
		m.ReadAt = *readAt
	}

	return &m, nil
}
