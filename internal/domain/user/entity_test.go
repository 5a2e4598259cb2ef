package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

const testUserID = shared.UserID("3f1e9a2c-6d4b-4f0a-9c8e-1b2a3c4d5e6f")

func validParams() NewUserParams {
	return NewUserParams{
		ID:           testUserID,
		Email:        shared.Email("dev@example.com"),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		DisplayName:  "Alex Dev",
		GitHubLogin:  shared.GitHubLogin("alexdev"),
		Location:     shared.Location("Almaty, Kazakhstan"),
		Skills:       []shared.Skill{shared.Skill("Go"), shared.Skill("React")},
		Roles:        []shared.Role{shared.RoleBackend},
	}
}

func TestNewUser(t *testing.T) {
	t.Run("valid params", func(t *testing.T) {
		u, err := NewUser(validParams())
		require.NoError(t, err)

		assert.Equal(t, testUserID, u.ID)
		assert.Equal(t, shared.Email("dev@example.com"), u.Email)
		assert.Equal(t, StatusActive, u.Status)
		assert.Equal(t, shared.OnlineStateOffline, u.OnlineState)
		assert.Equal(t, shared.MMR(0), u.MMR)
		assert.Equal(t, "Bronze", u.TierName)
		assert.Equal(t, []shared.Skill{"go", "react"}, u.Skills)
		assert.True(t, u.Preferences.TierChanges)
	})

	t.Run("invalid id", func(t *testing.T) {
		p := validParams()
		p.ID = "not-a-uuid"
		_, err := NewUser(p)
		assert.ErrorIs(t, err, shared.ErrInvalidID)
	})

	t.Run("invalid email", func(t *testing.T) {
		p := validParams()
		p.Email = "nope"
		_, err := NewUser(p)
		assert.ErrorIs(t, err, shared.ErrInvalidEmail)
	})

	t.Run("empty display name", func(t *testing.T) {
		p := validParams()
		p.DisplayName = "   "
		_, err := NewUser(p)
		assert.ErrorIs(t, err, ErrInvalidDisplayName)
	})

	t.Run("github login optional", func(t *testing.T) {
		p := validParams()
		p.GitHubLogin = ""
		u, err := NewUser(p)
		require.NoError(t, err)
		assert.Empty(t, u.GitHubLogin)
	})

	t.Run("bad github login rejected", func(t *testing.T) {
		p := validParams()
		p.GitHubLogin = "-leading-dash"
		_, err := NewUser(p)
		assert.ErrorIs(t, err, shared.ErrInvalidGitHubLogin)
	})

	t.Run("duplicate skills collapsed", func(t *testing.T) {
		p := validParams()
		p.Skills = []shared.Skill{"Go", "go", "GO", "React"}
		u, err := NewUser(p)
		require.NoError(t, err)
		assert.Equal(t, []shared.Skill{"go", "react"}, u.Skills)
	})
}

func TestUser_ApplyGitHubSync(t *testing.T) {
	u, err := NewUser(validParams())
	require.NoError(t, err)

	change := u.ApplyGitHubSync(12)

	assert.Equal(t, shared.MMR(0), change.OldMMR)
	assert.Equal(t, shared.MMR(120), change.NewMMR)
	assert.True(t, change.Changed())
	assert.False(t, change.TierChanged)
	assert.Equal(t, 12, u.Counters.RepositoryCount)
	assert.False(t, u.LastSyncedAt.IsZero())

	// Отрицательное число трактуется как ноль.
	change = u.ApplyGitHubSync(-5)
	assert.Equal(t, shared.MMR(0), change.NewMMR)
	assert.Equal(t, 0, u.Counters.RepositoryCount)
}

func TestUser_ApplyHackathonResult(t *testing.T) {
	t.Run("first place counts everything", func(t *testing.T) {
		u, err := NewUser(validParams())
		require.NoError(t, err)

		change, err := u.ApplyHackathonResult(1, 20)
		require.NoError(t, err)

		assert.Equal(t, 1, u.Counters.HackathonsParticipated)
		assert.Equal(t, 1, u.Counters.HackathonsFirstPlace)
		assert.Equal(t, 1, u.Counters.HackathonsTop10Percent)
		assert.Equal(t, 1, u.Counters.HackathonsTop50Percent)
		// 50 + 100 + 200 + 500
		assert.Equal(t, shared.MMR(850), change.NewMMR)
	})

	t.Run("mid-field placement", func(t *testing.T) {
		u, err := NewUser(validParams())
		require.NoError(t, err)

		change, err := u.ApplyHackathonResult(10, 20)
		require.NoError(t, err)

		assert.Equal(t, 1, u.Counters.HackathonsParticipated)
		assert.Equal(t, 0, u.Counters.HackathonsFirstPlace)
		assert.Equal(t, 0, u.Counters.HackathonsTop10Percent)
		assert.Equal(t, 1, u.Counters.HackathonsTop50Percent)
		assert.Equal(t, shared.MMR(150), change.NewMMR)
	})

	t.Run("last place gets participation only", func(t *testing.T) {
		u, err := NewUser(validParams())
		require.NoError(t, err)

		change, err := u.ApplyHackathonResult(20, 20)
		require.NoError(t, err)
		assert.Equal(t, shared.MMR(50), change.NewMMR)
	})

	t.Run("invalid placement", func(t *testing.T) {
		u, err := NewUser(validParams())
		require.NoError(t, err)

		_, err = u.ApplyHackathonResult(0, 20)
		assert.ErrorIs(t, err, ErrInvalidPlacement)

		_, err = u.ApplyHackathonResult(21, 20)
		assert.ErrorIs(t, err, ErrInvalidPlacement)

		_, err = u.ApplyHackathonResult(1, 0)
		assert.ErrorIs(t, err, ErrInvalidPlacement)
	})
}

func TestUser_TierPromotion(t *testing.T) {
	u, err := NewUser(validParams())
	require.NoError(t, err)

	u.Counters = rating.ActivityCounters{
		RepositoryCount:        50,
		HackathonsParticipated: 5,
		HackathonsTop50Percent: 3,
	}
	change := u.RebuildRating()

	// 500 + 250 + 300 = 1050 -> Silver
	assert.Equal(t, shared.MMR(1050), change.NewMMR)
	assert.True(t, change.TierChanged)
	assert.True(t, change.Promoted)
	assert.Equal(t, "Bronze", change.OldTier)
	assert.Equal(t, "Silver", change.NewTier)
	assert.Equal(t, "Silver", u.TierName)
}

func TestUser_UpdateProfile(t *testing.T) {
	u, err := NewUser(validParams())
	require.NoError(t, err)

	name := "New Name"
	bio := "  building things  "
	loc := shared.Location("Astana")
	err = u.UpdateProfile(UpdateProfileParams{
		DisplayName: &name,
		Bio:         &bio,
		Location:    &loc,
		Skills:      []shared.Skill{"Rust"},
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", u.DisplayName)
	assert.Equal(t, "building things", u.Bio)
	assert.Equal(t, loc, u.Location)
	assert.Equal(t, []shared.Skill{"rust"}, u.Skills)

	bad := ""
	err = u.UpdateProfile(UpdateProfileParams{DisplayName: &bad})
	assert.ErrorIs(t, err, ErrInvalidDisplayName)
}

func TestUser_StatusTransitions(t *testing.T) {
	u, err := NewUser(validParams())
	require.NoError(t, err)

	assert.True(t, u.CanBeMatched())

	u.Deactivate()
	assert.Equal(t, StatusInactive, u.Status)
	assert.False(t, u.CanBeMatched())
	assert.True(t, u.Status.CanReceiveNotifications())

	u.Reactivate()
	assert.True(t, u.CanBeMatched())

	u.Leave()
	assert.Equal(t, StatusLeft, u.Status)
	assert.False(t, u.Status.CanReceiveNotifications())
}

func TestUser_ToCandidateProfile(t *testing.T) {
	u, err := NewUser(validParams())
	require.NoError(t, err)
	u.ApplyGitHubSync(10)

	profile := u.ToCandidateProfile()
	assert.Equal(t, u.ID, profile.ID)
	assert.Equal(t, shared.MMR(100), profile.MMR)
	assert.Equal(t, 10, profile.ActivityCount)
	assert.Equal(t, u.Skills, profile.Skills)

	// Копия навыков, не общий слайс.
	profile.Skills[0] = "mutated"
	assert.Equal(t, shared.Skill("go"), u.Skills[0])
}

func TestNotificationPreferences_IsQuietHour(t *testing.T) {
	p := DefaultNotificationPreferences() // 23:00 - 08:00

	at := func(hour int) time.Time {
		return time.Date(2025, 6, 1, hour, 30, 0, 0, time.UTC)
	}

	assert.True(t, p.IsQuietHour(at(23)))
	assert.True(t, p.IsQuietHour(at(2)))
	assert.True(t, p.IsQuietHour(at(7)))
	assert.False(t, p.IsQuietHour(at(8)))
	assert.False(t, p.IsQuietHour(at(12)))
	assert.False(t, p.IsQuietHour(at(22)))

	day := NotificationPreferences{QuietHoursStart: 9, QuietHoursEnd: 17}
	assert.True(t, day.IsQuietHour(at(12)))
	assert.False(t, day.IsQuietHour(at(8)))
	assert.False(t, day.IsQuietHour(at(17)))
}
