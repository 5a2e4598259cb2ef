// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique user identifier (UUID format).
type UserID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// HackathonID represents a unique hackathon identifier (UUID format).
type HackathonID string

// IsValid checks if the hackathon ID is a valid UUID.
func (h HackathonID) IsValid() bool {
	return uuidRegex.MatchString(string(h))
}

// String returns the string representation.
func (h HackathonID) String() string {
	return string(h)
}

// TeamID represents a unique team identifier (UUID format).
type TeamID string

// IsValid checks if the team ID is a valid UUID.
func (t TeamID) IsValid() bool {
	return uuidRegex.MatchString(string(t))
}

// String returns the string representation.
func (t TeamID) String() string {
	return string(t)
}

// GitHubLogin represents a GitHub account login linked to a user profile.
type GitHubLogin string

// Regular expression for valid GitHub login format.
var githubLoginRegex = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,37}[a-zA-Z0-9])?$`)

// IsValid checks if the GitHub login is valid.
func (g GitHubLogin) IsValid() bool {
	return githubLoginRegex.MatchString(string(g)) && !strings.Contains(string(g), "--")
}

// String returns the string representation.
func (g GitHubLogin) String() string {
	return string(g)
}

// Normalize returns a normalized (lowercase) version of the login.
func (g GitHubLogin) Normalize() GitHubLogin {
	return GitHubLogin(strings.ToLower(string(g)))
}

// NewGitHubLogin creates a new GitHubLogin with validation.
func NewGitHubLogin(login string) (GitHubLogin, error) {
	g := GitHubLogin(strings.TrimSpace(login))
	if !g.IsValid() {
		return "", ErrInvalidGitHubLogin
	}
	return g.Normalize(), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Email Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Email represents a user email address.
type Email string

// Simple email validation regex - intentionally permissive,
// real validation happens at delivery time.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValid checks if the email has a plausible format.
func (e Email) IsValid() bool {
	return emailRegex.MatchString(string(e))
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// Normalize returns a normalized (lowercase, trimmed) version.
func (e Email) Normalize() Email {
	return Email(strings.ToLower(strings.TrimSpace(string(e))))
}

// NewEmail creates a new Email with validation.
func NewEmail(raw string) (Email, error) {
	e := Email(raw).Normalize()
	if !e.IsValid() {
		return "", ErrInvalidEmail
	}
	return e, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// MMR Value Object (Matchmaking Rating)
// ═══════════════════════════════════════════════════════════════════════════

// MMR represents the synthetic matchmaking rating derived from a user's
// GitHub and hackathon activity. Always non-negative; no upper bound.
type MMR int

// MinMMR is the lowest possible rating.
const MinMMR MMR = 0

// IsValid checks if the MMR value is non-negative.
func (m MMR) IsValid() bool {
	return m >= MinMMR
}

// Int returns the underlying int value.
func (m MMR) Int() int {
	return int(m)
}

// Diff returns the absolute difference between two ratings.
func (m MMR) Diff(other MMR) int {
	d := int(m) - int(other)
	if d < 0 {
		return -d
	}
	return d
}

// Floor returns the rating floored at MinMMR.
func (m MMR) Floor() MMR {
	if m < MinMMR {
		return MinMMR
	}
	return m
}

// ═══════════════════════════════════════════════════════════════════════════
// Skill Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Skill represents a single named skill. Matching is case-insensitive,
// so skills are normalized at construction.
type Skill string

// IsValid checks if the skill name is non-empty and reasonably sized.
func (s Skill) IsValid() bool {
	n := len(strings.TrimSpace(string(s)))
	return n >= 1 && n <= 50
}

// String returns the string representation.
func (s Skill) String() string {
	return string(s)
}

// Normalize returns a normalized (lowercase, trimmed) version of the skill.
func (s Skill) Normalize() Skill {
	return Skill(strings.ToLower(strings.TrimSpace(string(s))))
}

// NewSkill creates a new Skill with validation and normalization.
func NewSkill(name string) (Skill, error) {
	s := Skill(name)
	if !s.IsValid() {
		return "", NewDomainError("shared", "NewSkill", ErrInvalidInput, "invalid skill name")
	}
	return s.Normalize(), nil
}

// NormalizeSkills normalizes a list of raw skill names, dropping invalid ones.
func NormalizeSkills(raw []string) []Skill {
	skills := make([]Skill, 0, len(raw))
	for _, r := range raw {
		s, err := NewSkill(r)
		if err != nil {
			continue
		}
		skills = append(skills, s)
	}
	return skills
}

// ═══════════════════════════════════════════════════════════════════════════
// Location Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Location represents a free-form user location ("Almaty, Kazakhstan").
// May be empty - location is always optional.
type Location string

// IsEmpty checks if the location is absent.
func (l Location) IsEmpty() bool {
	return strings.TrimSpace(string(l)) == ""
}

// String returns the string representation.
func (l Location) String() string {
	return string(l)
}

// Normalize returns a lowercase, trimmed version used for matching.
func (l Location) Normalize() Location {
	return Location(strings.ToLower(strings.TrimSpace(string(l))))
}

// Tokens splits the location into comparable tokens (split on whitespace
// and commas), keeping only tokens of at least minLen characters.
func (l Location) Tokens(minLen int) []string {
	fields := strings.FieldsFunc(strings.ToLower(string(l)), func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= minLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// ═══════════════════════════════════════════════════════════════════════════
// Role Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Role represents a team role a user can fill.
type Role string

// Known roles - used for validation at the interface boundary; unknown
// roles are tolerated by the matching core.
const (
	RoleFrontend  Role = "frontend"
	RoleBackend   Role = "backend"
	RoleFullstack Role = "fullstack"
	RoleDesigner  Role = "designer"
	RoleML        Role = "ml"
	RoleMobile    Role = "mobile"
	RoleDevOps    Role = "devops"
	RolePM        Role = "pm"
)

// Normalize returns a normalized (lowercase, trimmed) version of the role.
func (r Role) Normalize() Role {
	return Role(strings.ToLower(strings.TrimSpace(string(r))))
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// ═══════════════════════════════════════════════════════════════════════════
// OnlineState Value Object
// ═══════════════════════════════════════════════════════════════════════════

// OnlineState represents user presence.
type OnlineState string

const (
	// OnlineStateOnline - the user is active right now.
	OnlineStateOnline OnlineState = "online"

	// OnlineStateAway - recently active but idle.
	OnlineStateAway OnlineState = "away"

	// OnlineStateOffline - not active.
	OnlineStateOffline OnlineState = "offline"
)

// IsValid checks the online state value.
func (o OnlineState) IsValid() bool {
	switch o {
	case OnlineStateOnline, OnlineStateAway, OnlineStateOffline:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (o OnlineState) String() string {
	return string(o)
}

// ═══════════════════════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════════════════════

// ClampInt clamps v into [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FormatMMR renders a rating for display ("2350 MMR").
func FormatMMR(m MMR) string {
	return fmt.Sprintf("%d MMR", m.Int())
}
