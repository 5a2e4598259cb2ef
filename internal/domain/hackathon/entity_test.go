package hackathon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

const (
	testHackID = shared.HackathonID("7a0c11d2-4e5f-4a6b-8c9d-0e1f2a3b4c5d")
	testUserID = shared.UserID("3f1e9a2c-6d4b-4f0a-9c8e-1b2a3c4d5e6f")
)

func validHackathon(t *testing.T) *Hackathon {
	t.Helper()
	h, err := NewHackathon(NewHackathonParams{
		ID:       testHackID,
		Name:     "Axiom Cup 2025",
		StartsAt: time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2025, 10, 3, 18, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return h
}

func TestNewHackathon(t *testing.T) {
	h := validHackathon(t)
	assert.Equal(t, StatusUpcoming, h.Status)
	assert.Zero(t, h.TotalTeams)

	_, err := NewHackathon(NewHackathonParams{
		ID:       "bad",
		Name:     "X",
		StartsAt: time.Now(),
		EndsAt:   time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewHackathon(NewHackathonParams{
		ID:       testHackID,
		Name:     "  ",
		StartsAt: time.Now(),
		EndsAt:   time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrInvalidName)

	now := time.Now()
	_, err = NewHackathon(NewHackathonParams{
		ID:       testHackID,
		Name:     "X",
		StartsAt: now,
		EndsAt:   now,
	})
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestHackathon_Lifecycle(t *testing.T) {
	h := validHackathon(t)

	require.NoError(t, h.Start())
	assert.Equal(t, StatusOngoing, h.Status)
	assert.ErrorIs(t, h.Start(), ErrInvalidTransition)

	require.NoError(t, h.Finish(24))
	assert.Equal(t, StatusFinished, h.Status)
	assert.Equal(t, 24, h.TotalTeams)
	assert.True(t, h.CanRecordResults())

	assert.ErrorIs(t, h.Cancel(), ErrInvalidTransition)
}

func TestHackathon_FinishValidation(t *testing.T) {
	h := validHackathon(t)
	assert.ErrorIs(t, h.Finish(0), ErrInvalidTotalTeams)

	// Upcoming -> Finished допустим (результаты вносят задним числом).
	require.NoError(t, h.Finish(10))
}

func TestHackathon_NewRegistration(t *testing.T) {
	h := validHackathon(t)

	reg, err := h.NewRegistration(testUserID, []shared.Role{"Backend", shared.RoleML})
	require.NoError(t, err)
	assert.Equal(t, testHackID, reg.HackathonID)
	assert.Equal(t, []shared.Role{shared.RoleBackend, shared.RoleML}, reg.Roles)

	require.NoError(t, h.Start())
	_, err = h.NewRegistration(testUserID, nil)
	assert.ErrorIs(t, err, shared.ErrHackathonClosed)
}

func TestHackathon_NewResult(t *testing.T) {
	h := validHackathon(t)

	_, err := h.NewResult(testUserID, 1)
	assert.ErrorIs(t, err, ErrNotFinished)

	require.NoError(t, h.Finish(20))

	res, err := h.NewResult(testUserID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Placement)
	assert.Equal(t, 20, res.TotalTeams)

	_, err = h.NewResult(testUserID, 0)
	assert.ErrorIs(t, err, shared.ErrInvalidPlacement)
	_, err = h.NewResult(testUserID, 21)
	assert.ErrorIs(t, err, shared.ErrInvalidPlacement)
	_, err = h.NewResult("bad", 1)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestResult_PlacementBands(t *testing.T) {
	tests := []struct {
		name      string
		placement int
		total     int
		first     bool
		top10     bool
		top50     bool
	}{
		{"winner of 20", 1, 20, true, true, true},
		{"second of 20", 2, 20, false, true, true},
		{"third of 20", 3, 20, false, false, true},
		{"tenth of 20", 10, 20, false, false, true},
		{"eleventh of 20", 11, 20, false, false, false},
		{"winner of 5", 1, 5, true, false, true},
		{"last of 2", 2, 2, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Result{Placement: tt.placement, TotalTeams: tt.total}
			assert.Equal(t, tt.first, r.IsFirstPlace())
			assert.Equal(t, tt.top10, r.IsTop10Percent())
			assert.Equal(t, tt.top50, r.IsTop50Percent())
		})
	}
}
