// Package postgres implements PostgreSQL persistence layer for Axiom Hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/team"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEAM REPOSITORY IMPLEMENTATION
// Команды и приглашения. Состав команды живёт в отдельной таблице,
// поэтому Save синхронизирует членство целиком в одной транзакции.
// ══════════════════════════════════════════════════════════════════════════════

const teamupColumns = `
	id, requester_id, addressee_id, hackathon_id, message,
	compatibility_score, status, created_at, expires_at, responded_at
`

// TeamRepository implements team.Repository for PostgreSQL.
type TeamRepository struct {
	conn *Connection
}

// NewTeamRepository creates a new TeamRepository.
func NewTeamRepository(conn *Connection) *TeamRepository {
	return &TeamRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Teams
// ─────────────────────────────────────────────────────────────────────────────

// SaveTeam creates or updates a team together with its membership.
func (r *TeamRepository) SaveTeam(ctx context.Context, t *team.Team) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO teams (id, name, hackathon_id, owner_id, max_members, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				hackathon_id = EXCLUDED.hackathon_id,
				max_members = EXCLUDED.max_members,
				updated_at = EXCLUDED.updated_at
		`

		_, err := tx.Exec(ctx, query,
			string(t.ID),
			t.Name,
			nullIfEmpty(string(t.HackathonID)),
			string(t.OwnerID),
			t.MaxMembers,
			t.CreatedAt,
			t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save team: %w", err)
		}

		// Полная синхронизация состава: проще и надёжней, чем диффы,
		// при размере команды до пяти человек.
		if _, err := tx.Exec(ctx, "DELETE FROM team_members WHERE team_id = $1", string(t.ID)); err != nil {
			return fmt.Errorf("failed to clear team members: %w", err)
		}

		for _, memberID := range t.MemberIDs {
			_, err := tx.Exec(ctx,
				"INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)",
				string(t.ID), string(memberID),
			)
			if err != nil {
				return fmt.Errorf("failed to save team member: %w", err)
			}
		}

		return nil
	})
}

// GetTeam returns a team by ID with its full membership.
func (r *TeamRepository) GetTeam(ctx context.Context, id shared.TeamID) (*team.Team, error) {
	query := `
		SELECT id, name, hackathon_id, owner_id, max_members, created_at, updated_at
		FROM teams
		WHERE id = $1
	`

	t, err := r.scanTeam(r.conn.QueryRow(ctx, query, string(id)))
	if err != nil {
		return nil, err
	}

	if err := r.loadMembers(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

// ListTeamsByMember returns teams the user belongs to.
func (r *TeamRepository) ListTeamsByMember(ctx context.Context, userID shared.UserID) ([]*team.Team, error) {
	query := `
		SELECT t.id, t.name, t.hackathon_id, t.owner_id, t.max_members, t.created_at, t.updated_at
		FROM teams t
		JOIN team_members m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.created_at DESC
	`

	rows, err := r.conn.Query(ctx, query, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*team.Team
	for rows.Next() {
		t, err := r.scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range teams {
		if err := r.loadMembers(ctx, t); err != nil {
			return nil, err
		}
	}

	return teams, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Team-Up Requests
// ─────────────────────────────────────────────────────────────────────────────

// SaveRequest creates or updates a team-up request.
func (r *TeamRepository) SaveRequest(ctx context.Context, req *team.TeamUpRequest) error {
	query := `
		INSERT INTO teamup_requests (
			id, requester_id, addressee_id, hackathon_id, message,
			compatibility_score, status, created_at, expires_at, responded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			responded_at = EXCLUDED.responded_at
	`

	_, err := r.conn.Exec(ctx, query,
		req.ID,
		string(req.RequesterID),
		string(req.AddresseeID),
		nullIfEmpty(string(req.HackathonID)),
		req.Message,
		req.CompatibilityScore,
		string(req.Status),
		req.CreatedAt,
		req.ExpiresAt,
		nullIfZeroTime(req.RespondedAt),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			// Частичный уникальный индекс по паре (requester, addressee)
			// со статусом pending.
			return shared.ErrTeamUpDuplicate
		}
		return fmt.Errorf("failed to save team-up request: %w", err)
	}

	return nil
}

// GetRequest returns a team-up request by ID.
func (r *TeamRepository) GetRequest(ctx context.Context, id string) (*team.TeamUpRequest, error) {
	query := `SELECT ` + teamupColumns + ` FROM teamup_requests WHERE id = $1`

	return r.scanRequest(r.conn.QueryRow(ctx, query, id))
}

// ListRequestsForUser returns pending incoming requests, newest first.
func (r *TeamRepository) ListRequestsForUser(ctx context.Context, addresseeID shared.UserID, limit int) ([]*team.TeamUpRequest, error) {
	query := `
		SELECT ` + teamupColumns + `
		FROM teamup_requests
		WHERE addressee_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT $2
	`

	return r.queryRequests(ctx, query, string(addresseeID), limit)
}

// ListRequestsByUser returns outgoing requests, newest first.
func (r *TeamRepository) ListRequestsByUser(ctx context.Context, requesterID shared.UserID, limit int) ([]*team.TeamUpRequest, error) {
	query := `
		SELECT ` + teamupColumns + `
		FROM teamup_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	return r.queryRequests(ctx, query, string(requesterID), limit)
}

// ListExpiredPending returns pending requests past their deadline.
func (r *TeamRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*team.TeamUpRequest, error) {
	query := `
		SELECT ` + teamupColumns + `
		FROM teamup_requests
		WHERE status = 'pending' AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2
	`

	return r.queryRequests(ctx, query, now, limit)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *TeamRepository) scanTeam(row pgx.Row) (*team.Team, error) {
	var (
		t           team.Team
		id          string
		hackathonID *string
		ownerID     string
	)

	err := row.Scan(&id, &t.Name, &hackathonID, &ownerID, &t.MaxMembers, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}

	t.ID = shared.TeamID(id)
	if hackathonID != nil {
		t.HackathonID = shared.HackathonID(*hackathonID)
	}
	t.OwnerID = shared.UserID(ownerID)

	return &t, nil
}

func (r *TeamRepository) loadMembers(ctx context.Context, t *team.Team) error {
	rows, err := r.conn.Query(ctx,
		"SELECT user_id FROM team_members WHERE team_id = $1 ORDER BY joined_at ASC",
		string(t.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to load team members: %w", err)
	}
	defer rows.Close()

	t.MemberIDs = nil
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("failed to scan team member: %w", err)
		}
		t.MemberIDs = append(t.MemberIDs, shared.UserID(userID))
	}

	return rows.Err()
}

func (r *TeamRepository) scanRequest(row pgx.Row) (*team.TeamUpRequest, error) {
	var (
		req         team.TeamUpRequest
		requesterID string
		addresseeID string
		hackathonID *string
		status      string
		respondedAt *time.Time
	)

	err := row.Scan(
		&req.ID,
		&requesterID,
		&addresseeID,
		&hackathonID,
		&req.Message,
		&req.CompatibilityScore,
		&status,
		&req.CreatedAt,
		&req.ExpiresAt,
		&respondedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTeamUpNotFound
		}
		return nil, fmt.Errorf("failed to scan team-up request: %w", err)
	}

	req.RequesterID = shared.UserID(requesterID)
	req.AddresseeID = shared.UserID(addresseeID)
	if hackathonID != nil {
		req.HackathonID = shared.HackathonID(*hackathonID)
	}
	req.Status = team.RequestStatus(status)
	if respondedAt != nil {
		req.RespondedAt = *respondedAt
	}

	return &req, nil
}

func (r *TeamRepository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*team.TeamUpRequest, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query team-up requests: %w", err)
	}
	defer rows.Close()

	var requests []*team.TeamUpRequest
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func nullIfZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
