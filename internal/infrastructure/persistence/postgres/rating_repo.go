// Package postgres implements PostgreSQL persistence layer for Axiom Hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATING REPOSITORY IMPLEMENTATION
// История рейтинга живёт в rating_snapshots; лидерборд читается из users,
// потому что текущий MMR кешируется прямо в профиле.
// ══════════════════════════════════════════════════════════════════════════════

const snapshotColumns = `
	id, user_id, mmr, tier_name,
	repo_count, hackathons_participated, hackathons_top50, hackathons_top10, hackathons_first,
	source, recorded_at
`

// RatingRepository implements rating.Repository for PostgreSQL.
type RatingRepository struct {
	conn *Connection
}

// NewRatingRepository creates a new RatingRepository.
func NewRatingRepository(conn *Connection) *RatingRepository {
	return &RatingRepository{conn: conn}
}

// SaveSnapshot persists a rating snapshot.
func (r *RatingRepository) SaveSnapshot(ctx context.Context, snapshot *rating.Snapshot) error {
	query := `
		INSERT INTO rating_snapshots (
			id, user_id, mmr, tier_name,
			repo_count, hackathons_participated, hackathons_top50, hackathons_top10, hackathons_first,
			source, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.conn.Exec(ctx, query,
		snapshot.ID,
		string(snapshot.UserID),
		snapshot.MMR.Int(),
		snapshot.TierName,
		snapshot.Counters.RepositoryCount,
		snapshot.Counters.HackathonsParticipated,
		snapshot.Counters.HackathonsTop50Percent,
		snapshot.Counters.HackathonsTop10Percent,
		snapshot.Counters.HackathonsFirstPlace,
		snapshot.Source,
		snapshot.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save rating snapshot: %w", err)
	}

	return nil
}

// GetLatestSnapshot returns the most recent snapshot for a user.
func (r *RatingRepository) GetLatestSnapshot(ctx context.Context, userID shared.UserID) (*rating.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM rating_snapshots
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	row := r.conn.QueryRow(ctx, query, string(userID))
	return r.scanSnapshot(row)
}

// ListSnapshots returns a user's rating history within a time range,
// oldest first so callers can draw the curve directly.
func (r *RatingRepository) ListSnapshots(ctx context.Context, userID shared.UserID, from, to time.Time) ([]*rating.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM rating_snapshots
		WHERE user_id = $1 AND recorded_at >= $2 AND recorded_at <= $3
		ORDER BY recorded_at ASC
	`

	rows, err := r.conn.Query(ctx, query, string(userID), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*rating.Snapshot
	for rows.Next() {
		s, err := r.scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

// GetLeaderboard returns users ordered by current MMR.
// Ties break by join date: whoever got there first ranks higher.
func (r *RatingRepository) GetLeaderboard(ctx context.Context, limit, offset int) ([]*rating.LeaderboardEntry, error) {
	query := `
		SELECT id, display_name, mmr, tier_name,
			   ROW_NUMBER() OVER (ORDER BY mmr DESC, joined_at ASC) AS rank
		FROM users
		WHERE status = 'active'
		ORDER BY mmr DESC, joined_at ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.conn.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*rating.LeaderboardEntry
	for rows.Next() {
		var (
			entry rating.LeaderboardEntry
			id    string
			mmr   int
			rank  int64
		)
		if err := rows.Scan(&id, &entry.DisplayName, &mmr, &entry.TierName, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entry.UserID = shared.UserID(id)
		entry.MMR = shared.MMR(mmr)
		entry.Rank = int(rank)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// DeleteOldSnapshots removes snapshots recorded before the cutoff.
func (r *RatingRepository) DeleteOldSnapshots(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := r.conn.Exec(ctx,
		"DELETE FROM rating_snapshots WHERE recorded_at < $1",
		olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old snapshots: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// scanSnapshot scans a single snapshot from a row.
func (r *RatingRepository) scanSnapshot(row pgx.Row) (*rating.Snapshot, error) {
	var (
		s      rating.Snapshot
		userID string
		mmr    int
	)

	err := row.Scan(
		&s.ID,
		&userID,
		&mmr,
		&s.TierName,
		&s.Counters.RepositoryCount,
		&s.Counters.HackathonsParticipated,
		&s.Counters.HackathonsTop50Percent,
		&s.Counters.HackathonsTop10Percent,
		&s.Counters.HackathonsFirstPlace,
		&s.Source,
		&s.RecordedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to scan rating snapshot: %w", err)
	}

	s.UserID = shared.UserID(userID)
	s.MMR = shared.MMR(mmr)

	return &s, nil
}
