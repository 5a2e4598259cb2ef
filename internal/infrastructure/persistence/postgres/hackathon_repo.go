// Package postgres implements PostgreSQL persistence layer for Axiom Hub.
package postgres

import (
	"context"
	"fmt"

	"github.com/axiom-hq/axiom-hub/internal/domain/hackathon"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// HACKATHON REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const hackathonColumns = `
	id, name, description, location, starts_at, ends_at,
	status, total_teams, created_at, updated_at
`

// HackathonRepository implements hackathon.Repository for PostgreSQL.
type HackathonRepository struct {
	conn *Connection
}

// NewHackathonRepository creates a new HackathonRepository.
func NewHackathonRepository(conn *Connection) *HackathonRepository {
	return &HackathonRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Hackathons
// ─────────────────────────────────────────────────────────────────────────────

// Save creates or updates a hackathon.
func (r *HackathonRepository) Save(ctx context.Context, h *hackathon.Hackathon) error {
	query := `
		INSERT INTO hackathons (
			id, name, description, location, starts_at, ends_at,
			status, total_teams, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			location = EXCLUDED.location,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			status = EXCLUDED.status,
			total_teams = EXCLUDED.total_teams,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		string(h.ID),
		h.Name,
		h.Description,
		string(h.Location),
		h.StartsAt,
		h.EndsAt,
		string(h.Status),
		h.TotalTeams,
		h.CreatedAt,
		h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save hackathon: %w", err)
	}

	return nil
}

// GetByID returns a hackathon by ID.
func (r *HackathonRepository) GetByID(ctx context.Context, id shared.HackathonID) (*hackathon.Hackathon, error) {
	query := `SELECT ` + hackathonColumns + ` FROM hackathons WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, string(id))
	return r.scanHackathon(row)
}

// ListByStatus returns hackathons in the given status, soonest first.
func (r *HackathonRepository) ListByStatus(ctx context.Context, status hackathon.Status, limit int) ([]*hackathon.Hackathon, error) {
	query := `
		SELECT ` + hackathonColumns + `
		FROM hackathons
		WHERE status = $1
		ORDER BY starts_at ASC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list hackathons: %w", err)
	}
	defer rows.Close()

	var hackathons []*hackathon.Hackathon
	for rows.Next() {
		h, err := r.scanHackathon(rows)
		if err != nil {
			return nil, err
		}
		hackathons = append(hackathons, h)
	}

	return hackathons, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Registrations
// ─────────────────────────────────────────────────────────────────────────────

// SaveRegistration records a participant signup.
func (r *HackathonRepository) SaveRegistration(ctx context.Context, reg hackathon.Registration) error {
	query := `
		INSERT INTO hackathon_registrations (hackathon_id, user_id, roles, registered_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.Exec(ctx, query,
		string(reg.HackathonID),
		string(reg.UserID),
		rolesToStrings(reg.Roles),
		reg.RegisteredAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyRegistered
		}
		return fmt.Errorf("failed to save registration: %w", err)
	}

	return nil
}

// ListRegistrations returns all signups for a hackathon.
func (r *HackathonRepository) ListRegistrations(ctx context.Context, id shared.HackathonID) ([]hackathon.Registration, error) {
	query := `
		SELECT hackathon_id, user_id, roles, registered_at
		FROM hackathon_registrations
		WHERE hackathon_id = $1
		ORDER BY registered_at ASC
	`

	rows, err := r.conn.Query(ctx, query, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var regs []hackathon.Registration
	for rows.Next() {
		var (
			reg         hackathon.Registration
			hackathonID string
			userID      string
			roles       []string
		)
		if err := rows.Scan(&hackathonID, &userID, &roles, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		reg.HackathonID = shared.HackathonID(hackathonID)
		reg.UserID = shared.UserID(userID)
		reg.Roles = stringsToRoles(roles)
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Results
// ─────────────────────────────────────────────────────────────────────────────

// SaveResult records a participant's final placement.
func (r *HackathonRepository) SaveResult(ctx context.Context, res hackathon.Result) error {
	query := `
		INSERT INTO hackathon_results (hackathon_id, user_id, placement, total_teams, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query,
		string(res.HackathonID),
		string(res.UserID),
		res.Placement,
		res.TotalTeams,
		res.RecordedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrResultAlreadyRecorded
		}
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

// GetResult returns a participant's result in a hackathon.
func (r *HackathonRepository) GetResult(ctx context.Context, id shared.HackathonID, userID shared.UserID) (hackathon.Result, error) {
	query := `
		SELECT hackathon_id, user_id, placement, total_teams, recorded_at
		FROM hackathon_results
		WHERE hackathon_id = $1 AND user_id = $2
	`

	row := r.conn.QueryRow(ctx, query, string(id), string(userID))
	return r.scanResult(row)
}

// ListResultsByUser returns all of a participant's results, newest first.
func (r *HackathonRepository) ListResultsByUser(ctx context.Context, userID shared.UserID) ([]hackathon.Result, error) {
	query := `
		SELECT hackathon_id, user_id, placement, total_teams, recorded_at
		FROM hackathon_results
		WHERE user_id = $1
		ORDER BY recorded_at DESC
	`

	rows, err := r.conn.Query(ctx, query, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []hackathon.Result
	for rows.Next() {
		res, err := r.scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *HackathonRepository) scanHackathon(row pgx.Row) (*hackathon.Hackathon, error) {
	var (
		h        hackathon.Hackathon
		id       string
		location string
		status   string
	)

	err := row.Scan(
		&id,
		&h.Name,
		&h.Description,
		&location,
		&h.StartsAt,
		&h.EndsAt,
		&status,
		&h.TotalTeams,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrHackathonNotFound
		}
		return nil, fmt.Errorf("failed to scan hackathon: %w", err)
	}

	h.ID = shared.HackathonID(id)
	h.Location = shared.Location(location)
	h.Status = hackathon.Status(status)

	return &h, nil
}

func (r *HackathonRepository) scanResult(row pgx.Row) (hackathon.Result, error) {
	var (
		res         hackathon.Result
		hackathonID string
		userID      string
	)

	err := row.Scan(&hackathonID, &userID, &res.Placement, &res.TotalTeams, &res.RecordedAt)
	if err != nil {
		if IsNoRows(err) {
			return hackathon.Result{}, shared.ErrNotFound
		}
		return hackathon.Result{}, fmt.Errorf("failed to scan result: %w", err)
	}

	res.HackathonID = shared.HackathonID(hackathonID)
	res.UserID = shared.UserID(userID)

	return res, nil
}
