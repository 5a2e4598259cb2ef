// Package github implements a GitHub REST API v3 client.
package github

import (
	"time"

	"github.com/axiom-hq/axiom-hub/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to application type transformations
// ══════════════════════════════════════════════════════════════════════════════

// Mapper converts GitHub API DTOs into application types.
// Anti-corruption layer: the rest of the system never sees raw API shapes.
type Mapper struct{}

// NewMapper creates a new Mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// ProfileFromDTO converts a UserDTO into a profile snapshot.
func (m *Mapper) ProfileFromDTO(dto *UserDTO) (*command.GitHubProfile, error) {
	if dto == nil {
		return nil, ErrNilDTO
	}

	name := dto.Name
	if name == "" {
		name = dto.Login
	}

	return &command.GitHubProfile{
		Login:       dto.Login,
		Name:        name,
		PublicRepos: dto.PublicRepos,
		Followers:   dto.Followers,
		AvatarURL:   dto.AvatarURL,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// CountOriginalRepos counts non-fork repositories in a listing.
// Forks inflate public_repos without saying anything about the
// author's own work, so activity scoring prefers this count when
// the repo listing is available.
func (m *Mapper) CountOriginalRepos(repos []RepoDTO) int {
	count := 0
	for _, r := range repos {
		if !r.Fork {
			count++
		}
	}
	return count
}
