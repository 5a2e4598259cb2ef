// Package postgres implements PostgreSQL persistence layer for Axiom Hub.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/matching"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const userColumns = `
	id, email, password_hash, display_name, github_login, bio, location,
	skills, roles,
	repo_count, hackathons_participated, hackathons_top50, hackathons_top10, hackathons_first,
	mmr, tier_name, status, online_state,
	last_seen_at, last_synced_at, joined_at, preferences, created_at, updated_at
`

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Save creates or updates a user (upsert by ID).
func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, display_name, github_login, bio, location,
			skills, roles,
			repo_count, hackathons_participated, hackathons_top50, hackathons_top10, hackathons_first,
			mmr, tier_name, status, online_state,
			last_seen_at, last_synced_at, joined_at, preferences, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
		)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			display_name = EXCLUDED.display_name,
			github_login = EXCLUDED.github_login,
			bio = EXCLUDED.bio,
			location = EXCLUDED.location,
			skills = EXCLUDED.skills,
			roles = EXCLUDED.roles,
			repo_count = EXCLUDED.repo_count,
			hackathons_participated = EXCLUDED.hackathons_participated,
			hackathons_top50 = EXCLUDED.hackathons_top50,
			hackathons_top10 = EXCLUDED.hackathons_top10,
			hackathons_first = EXCLUDED.hackathons_first,
			mmr = EXCLUDED.mmr,
			tier_name = EXCLUDED.tier_name,
			status = EXCLUDED.status,
			online_state = EXCLUDED.online_state,
			last_seen_at = EXCLUDED.last_seen_at,
			last_synced_at = EXCLUDED.last_synced_at,
			preferences = EXCLUDED.preferences,
			updated_at = EXCLUDED.updated_at
	`

	prefsJSON, err := json.Marshal(preferencesToMap(u.Preferences))
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		string(u.ID),
		string(u.Email),
		u.PasswordHash,
		u.DisplayName,
		nullIfEmpty(string(u.GitHubLogin)),
		u.Bio,
		string(u.Location),
		skillsToStrings(u.Skills),
		rolesToStrings(u.Roles),
		u.Counters.RepositoryCount,
		u.Counters.HackathonsParticipated,
		u.Counters.HackathonsTop50Percent,
		u.Counters.HackathonsTop10Percent,
		u.Counters.HackathonsFirstPlace,
		u.MMR.Int(),
		u.TierName,
		string(u.Status),
		string(u.OnlineState),
		u.LastSeenAt,
		u.LastSyncedAt,
		u.JoinedAt,
		prefsJSON,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// GetByID returns a user by internal ID.
func (r *UserRepository) GetByID(ctx context.Context, id shared.UserID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, string(id))
	return r.scanUser(row)
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email shared.Email) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	row := r.conn.QueryRow(ctx, query, string(email.Normalize()))
	return r.scanUser(row)
}

// GetByGitHubLogin returns a user by linked GitHub account.
func (r *UserRepository) GetByGitHubLogin(ctx context.Context, login shared.GitHubLogin) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE github_login = $1`

	row := r.conn.QueryRow(ctx, query, string(login))
	return r.scanUser(row)
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulk Operations
// ─────────────────────────────────────────────────────────────────────────────

// ListActive returns active users with pagination, highest rating first.
func (r *UserRepository) ListActive(ctx context.Context, offset, limit int) ([]*user.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE status = 'active'
		ORDER BY mmr DESC, joined_at ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.conn.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	return r.scanUsers(rows)
}

// ListForSync returns users with a linked GitHub account whose last sync
// is older than the threshold. Ordered stalest-first so a partial batch
// still drains the backlog.
func (r *UserRepository) ListForSync(ctx context.Context, olderThan time.Time, limit int) ([]*user.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE github_login IS NOT NULL
		  AND status = 'active'
		  AND last_synced_at < $1
		ORDER BY last_synced_at ASC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users for sync: %w", err)
	}
	defer rows.Close()

	return r.scanUsers(rows)
}

// CountByStatus returns the number of users in each status.
func (r *UserRepository) CountByStatus(ctx context.Context) (map[user.Status]int, error) {
	rows, err := r.conn.Query(ctx, "SELECT status, COUNT(*) FROM users GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count users by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[user.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[user.Status(status)] = count
	}

	return counts, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Matching Pool
// ─────────────────────────────────────────────────────────────────────────────

// FetchCandidatePool returns lightweight projections of matchable users.
// Coarse filters are pushed into SQL; fine scoring happens in the domain.
func (r *UserRepository) FetchCandidatePool(ctx context.Context, filters matching.PoolFilters) ([]matching.CandidateProfile, error) {
	query := `
		SELECT id, mmr, location, skills, repo_count + hackathons_participated AS activity
		FROM users
		WHERE status = 'active'
	`
	args := []interface{}{}
	argPos := 1

	if len(filters.Roles) > 0 {
		query += fmt.Sprintf(" AND roles && $%d", argPos)
		args = append(args, rolesToStrings(filters.Roles))
		argPos++
	}
	if filters.Location != "" {
		query += fmt.Sprintf(" AND LOWER(location) LIKE $%d", argPos)
		args = append(args, "%"+string(filters.Location.Normalize())+"%")
		argPos++
	}

	query += " ORDER BY mmr DESC"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filters.Limit)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate pool: %w", err)
	}
	defer rows.Close()

	var pool []matching.CandidateProfile
	for rows.Next() {
		var (
			id       string
			mmr      int
			location string
			skills   []string
			activity int
		)
		if err := rows.Scan(&id, &mmr, &location, &skills, &activity); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		pool = append(pool, matching.CandidateProfile{
			ID:            shared.UserID(id),
			MMR:           shared.MMR(mmr),
			Location:      shared.Location(location),
			Skills:        stringsToSkills(skills),
			ActivityCount: activity,
		})
	}

	return pool, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Presence
// ─────────────────────────────────────────────────────────────────────────────

// UpdatePresence updates the online state without rewriting the full row.
func (r *UserRepository) UpdatePresence(ctx context.Context, id shared.UserID, state shared.OnlineState, seenAt time.Time) error {
	query := `
		UPDATE users
		SET online_state = $1, last_seen_at = $2
		WHERE id = $3
	`

	result, err := r.conn.Exec(ctx, query, string(state), seenAt, string(id))
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning Helpers
// ─────────────────────────────────────────────────────────────────────────────

// scanUser scans a single user from a row.
func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	var (
		u           user.User
		id          string
		email       string
		githubLogin *string
		location    string
		skills      []string
		roles       []string
		mmr         int
		status      string
		onlineState string
		prefsJSON   []byte
	)

	err := row.Scan(
		&id,
		&email,
		&u.PasswordHash,
		&u.DisplayName,
		&githubLogin,
		&u.Bio,
		&location,
		&skills,
		&roles,
		&u.Counters.RepositoryCount,
		&u.Counters.HackathonsParticipated,
		&u.Counters.HackathonsTop50Percent,
		&u.Counters.HackathonsTop10Percent,
		&u.Counters.HackathonsFirstPlace,
		&mmr,
		&u.TierName,
		&status,
		&onlineState,
		&u.LastSeenAt,
		&u.LastSyncedAt,
		&u.JoinedAt,
		&prefsJSON,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.ID = shared.UserID(id)
	u.Email = shared.Email(email)
	if githubLogin != nil {
		u.GitHubLogin = shared.GitHubLogin(*githubLogin)
	}
	u.Location = shared.Location(location)
	u.Skills = stringsToSkills(skills)
	u.Roles = stringsToRoles(roles)
	u.MMR = shared.MMR(mmr)
	u.Status = user.Status(status)
	u.OnlineState = shared.OnlineState(onlineState)
	u.Preferences = preferencesFromJSON(prefsJSON)

	return &u, nil
}

// scanUsers scans multiple users from rows.
func (r *UserRepository) scanUsers(rows pgx.Rows) ([]*user.User, error) {
	var users []*user.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Conversion Helpers
// ─────────────────────────────────────────────────────────────────────────────

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func skillsToStrings(skills []shared.Skill) []string {
	out := make([]string, len(skills))
	for i, s := range skills {
		out[i] = string(s)
	}
	return out
}

func stringsToSkills(raw []string) []shared.Skill {
	out := make([]shared.Skill, len(raw))
	for i, s := range raw {
		out[i] = shared.Skill(s)
	}
	return out
}

func rolesToStrings(roles []shared.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func stringsToRoles(raw []string) []shared.Role {
	out := make([]shared.Role, len(raw))
	for i, r := range raw {
		out[i] = shared.Role(r)
	}
	return out
}

// preferencesToMap converts preferences to the JSONB layout.
func preferencesToMap(p user.NotificationPreferences) map[string]interface{} {
	return map[string]interface{}{
		"tier_changes":      p.TierChanges,
		"teamup_requests":   p.TeamUpRequests,
		"messages":          p.Messages,
		"daily_digest":      p.DailyDigest,
		"quiet_hours_start": p.QuietHoursStart,
		"quiet_hours_end":   p.QuietHoursEnd,
	}
}

// preferencesFromJSON parses the JSONB column, falling back to defaults
// when the payload is missing or malformed.
func preferencesFromJSON(data []byte) user.NotificationPreferences {
	prefs := user.DefaultNotificationPreferences()
	if len(data) == 0 {
		return prefs
	}

	var raw struct {
		TierChanges     *bool `json:"tier_changes"`
		TeamUpRequests  *bool `json:"teamup_requests"`
		Messages        *bool `json:"messages"`
		DailyDigest     *bool `json:"daily_digest"`
		QuietHoursStart *int  `json:"quiet_hours_start"`
		QuietHoursEnd   *int  `json:"quiet_hours_end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return prefs
	}

	if raw.TierChanges != nil {
		prefs.TierChanges = *raw.TierChanges
	}
	if raw.TeamUpRequests != nil {
		prefs.TeamUpRequests = *raw.TeamUpRequests
	}
	if raw.Messages != nil {
		prefs.Messages = *raw.Messages
	}
	if raw.DailyDigest != nil {
		prefs.DailyDigest = *raw.DailyDigest
	}
	if raw.QuietHoursStart != nil {
		prefs.QuietHoursStart = *raw.QuietHoursStart
	}
	if raw.QuietHoursEnd != nil {
		prefs.QuietHoursEnd = *raw.QuietHoursEnd
	}

	return prefs
}
