package team

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

const (
	requesterID = shared.UserID("3f1e9a2c-6d4b-4f0a-9c8e-1b2a3c4d5e6f")
	addresseeID = shared.UserID("8b2d7e4f-1a3c-4d5e-9f0a-2b3c4d5e6f7a")
	strangerID  = shared.UserID("5c6d7e8f-9a0b-4c1d-8e2f-3a4b5c6d7e8f")
)

func pendingRequest(t *testing.T) *TeamUpRequest {
	t.Helper()
	r, err := NewTeamUpRequest(NewRequestParams{
		ID:                 "req-1",
		RequesterID:        requesterID,
		AddresseeID:        addresseeID,
		Message:            "Let's team up!",
		CompatibilityScore: 78,
	})
	require.NoError(t, err)
	return r
}

func TestNewTeamUpRequest(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := pendingRequest(t)
		assert.Equal(t, RequestPending, r.Status)
		assert.Equal(t, 78, r.CompatibilityScore)
		assert.Equal(t, r.CreatedAt.Add(RequestTTL), r.ExpiresAt)
	})

	t.Run("self request rejected", func(t *testing.T) {
		_, err := NewTeamUpRequest(NewRequestParams{
			ID:          "req-2",
			RequesterID: requesterID,
			AddresseeID: requesterID,
		})
		assert.ErrorIs(t, err, shared.ErrTeamUpSelfRequest)
	})

	t.Run("score clamped", func(t *testing.T) {
		r, err := NewTeamUpRequest(NewRequestParams{
			ID:                 "req-3",
			RequesterID:        requesterID,
			AddresseeID:        addresseeID,
			CompatibilityScore: 150,
		})
		require.NoError(t, err)
		assert.Equal(t, 100, r.CompatibilityScore)
	})

	t.Run("long message truncated", func(t *testing.T) {
		r, err := NewTeamUpRequest(NewRequestParams{
			ID:          "req-4",
			RequesterID: requesterID,
			AddresseeID: addresseeID,
			Message:     strings.Repeat("a", 600),
		})
		require.NoError(t, err)
		assert.Len(t, r.Message, maxRequestMessageLen)
	})

	t.Run("truncation keeps utf8 valid", func(t *testing.T) {
		// Трёхбайтовые руны: лимит 500 попадает в середину символа.
		r, err := NewTeamUpRequest(NewRequestParams{
			ID:          "req-5",
			RequesterID: requesterID,
			AddresseeID: addresseeID,
			Message:     strings.Repeat("⌘", 200),
		})
		require.NoError(t, err)
		assert.True(t, utf8.ValidString(r.Message))
		assert.LessOrEqual(t, len(r.Message), maxRequestMessageLen)
	})
}

func TestTeamUpRequest_Accept(t *testing.T) {
	now := time.Now().UTC()

	t.Run("by addressee", func(t *testing.T) {
		r := pendingRequest(t)
		require.NoError(t, r.Accept(addresseeID, now))
		assert.Equal(t, RequestAccepted, r.Status)
		assert.False(t, r.RespondedAt.IsZero())
	})

	t.Run("by stranger", func(t *testing.T) {
		r := pendingRequest(t)
		assert.ErrorIs(t, r.Accept(strangerID, now), shared.ErrTeamUpNotAddressee)
	})

	t.Run("by requester", func(t *testing.T) {
		r := pendingRequest(t)
		assert.ErrorIs(t, r.Accept(requesterID, now), shared.ErrTeamUpNotAddressee)
	})

	t.Run("already finalized", func(t *testing.T) {
		r := pendingRequest(t)
		require.NoError(t, r.Decline(addresseeID, now))
		assert.ErrorIs(t, r.Accept(addresseeID, now), shared.ErrTeamUpFinalized)
	})

	t.Run("past deadline", func(t *testing.T) {
		r := pendingRequest(t)
		late := r.ExpiresAt.Add(time.Minute)
		assert.ErrorIs(t, r.Accept(addresseeID, late), shared.ErrTeamUpExpired)
	})
}

func TestTeamUpRequest_Cancel(t *testing.T) {
	now := time.Now().UTC()

	r := pendingRequest(t)
	assert.ErrorIs(t, r.Cancel(addresseeID, now), shared.ErrTeamUpNotAddressee)

	require.NoError(t, r.Cancel(requesterID, now))
	assert.Equal(t, RequestCancelled, r.Status)
	assert.ErrorIs(t, r.Cancel(requesterID, now), shared.ErrTeamUpFinalized)
}

func TestTeamUpRequest_MarkExpired(t *testing.T) {
	r := pendingRequest(t)

	assert.False(t, r.MarkExpired(r.ExpiresAt.Add(-time.Minute)))
	assert.Equal(t, RequestPending, r.Status)

	assert.True(t, r.MarkExpired(r.ExpiresAt))
	assert.Equal(t, RequestExpired, r.Status)

	// Повторная обработка - no-op.
	assert.False(t, r.MarkExpired(r.ExpiresAt.Add(time.Hour)))
}

func TestTeam_Membership(t *testing.T) {
	team, err := NewTeam(NewTeamParams{
		ID:         shared.TeamID("9d8c7b6a-5e4f-4d3c-8b2a-1f0e9d8c7b6a"),
		Name:       "Null Pointers",
		OwnerID:    requesterID,
		MaxMembers: 3,
	})
	require.NoError(t, err)

	assert.True(t, team.HasMember(requesterID))
	assert.False(t, team.IsFull())

	require.NoError(t, team.AddMember(addresseeID))
	assert.ErrorIs(t, team.AddMember(addresseeID), shared.ErrAlreadyTeamMember)

	require.NoError(t, team.AddMember(strangerID))
	assert.True(t, team.IsFull())

	fourth := shared.UserID("0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d")
	assert.ErrorIs(t, team.AddMember(fourth), shared.ErrTeamFull)

	require.NoError(t, team.RemoveMember(strangerID))
	assert.False(t, team.HasMember(strangerID))
	assert.ErrorIs(t, team.RemoveMember(requesterID), shared.ErrUnauthorized)
	assert.ErrorIs(t, team.RemoveMember(strangerID), ErrNotTeamMember)
}
