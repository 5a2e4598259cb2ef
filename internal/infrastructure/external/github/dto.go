// Package github implements a GitHub REST API v3 client.
// It fetches public profile and repository data used to score
// participant activity; only unauthenticated-readable endpoints
// are called, an optional token just raises the rate limit.
package github

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER DTOs
// ══════════════════════════════════════════════════════════════════════════════

// UserDTO represents a user as returned by GET /users/{login}.
// External representation, mapped to application types by Mapper.
type UserDTO struct {
	// Login is the GitHub username
	Login string `json:"login"`

	// ID is the numeric GitHub account ID
	ID int64 `json:"id"`

	// Name is the display name (may be empty)
	Name string `json:"name"`

	// Company the user lists on their profile
	Company string `json:"company,omitempty"`

	// Location as free text
	Location string `json:"location,omitempty"`

	// Bio is the profile description
	Bio string `json:"bio,omitempty"`

	// AvatarURL is the URL to the profile picture
	AvatarURL string `json:"avatar_url,omitempty"`

	// PublicRepos is the count of public repositories
	PublicRepos int `json:"public_repos"`

	// PublicGists is the count of public gists
	PublicGists int `json:"public_gists"`

	// Followers count
	Followers int `json:"followers"`

	// Following count
	Following int `json:"following"`

	// CreatedAt is when the account was created
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the profile was last modified
	UpdatedAt time.Time `json:"updated_at"`
}

// RepoDTO represents a repository as returned by GET /users/{login}/repos.
type RepoDTO struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	FullName        string     `json:"full_name"`
	Description     string     `json:"description,omitempty"`
	Language        string     `json:"language,omitempty"`
	Fork            bool       `json:"fork"`
	StargazersCount int        `json:"stargazers_count"`
	ForksCount      int        `json:"forks_count"`
	PushedAt        *time.Time `json:"pushed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMIT DTOs
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitDTO mirrors the "core" resource of GET /rate_limit.
type RateLimitDTO struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"` // unix seconds
	Used      int   `json:"used"`
}

// ResetAt returns the reset moment as time.Time.
func (r RateLimitDTO) ResetAt() time.Time {
	return time.Unix(r.Reset, 0)
}

// rateLimitResponse is the envelope of GET /rate_limit.
type rateLimitResponse struct {
	Resources struct {
		Core RateLimitDTO `json:"core"`
	} `json:"resources"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// APIErrorDTO represents a GitHub error response body.
type APIErrorDTO struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url,omitempty"`

	// StatusCode is filled from the HTTP response, not the body.
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	return fmt.Sprintf("github api: %s (status %d)", e.Message, e.StatusCode)
}

var (
	// ErrNilDTO is returned when a nil DTO is passed to the mapper.
	ErrNilDTO = errors.New("nil DTO")

	// ErrUserNotFound is returned when the GitHub login does not exist.
	ErrUserNotFound = errors.New("github user not found")
)
