package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

func TestCompute_Formula(t *testing.T) {
	tests := []struct {
		name     string
		counters ActivityCounters
		expected shared.MMR
	}{
		{
			name:     "zero activity",
			counters: ActivityCounters{},
			expected: 0,
		},
		{
			name: "repos and participation",
			counters: ActivityCounters{
				RepositoryCount:        5,
				HackathonsParticipated: 2,
				HackathonsTop50Percent: 1,
			},
			// min(50, 500) + 100 + 100
			expected: 250,
		},
		{
			name: "all terms",
			counters: ActivityCounters{
				RepositoryCount:        10,
				HackathonsParticipated: 4,
				HackathonsTop50Percent: 2,
				HackathonsTop10Percent: 1,
				HackathonsFirstPlace:   1,
			},
			// 100 + 200 + 200 + 200 + 500
			expected: 1200,
		},
		{
			name: "only first places",
			counters: ActivityCounters{
				HackathonsFirstPlace: 12,
			},
			expected: 6000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compute(tt.counters))
		})
	}
}

func TestCompute_GitHubTermIsCapped(t *testing.T) {
	// At 50 repos the GitHub term hits its cap of 500.
	atCap := Compute(ActivityCounters{RepositoryCount: 50})
	assert.Equal(t, shared.MMR(500), atCap)

	// More repos contribute nothing beyond the cap.
	for _, repos := range []int{51, 100, 1000, 99999} {
		assert.Equal(t, atCap, Compute(ActivityCounters{RepositoryCount: repos}),
			"repos=%d must not exceed the cap", repos)
	}

	// One repo below the cap is strictly less.
	assert.Equal(t, shared.MMR(490), Compute(ActivityCounters{RepositoryCount: 49}))
}

func TestCompute_Monotonicity(t *testing.T) {
	base := ActivityCounters{
		RepositoryCount:        3,
		HackathonsParticipated: 2,
		HackathonsTop50Percent: 1,
		HackathonsTop10Percent: 1,
		HackathonsFirstPlace:   0,
	}
	baseMMR := Compute(base)

	// Bumping any single counter never decreases the rating.
	bumped := []ActivityCounters{
		{4, 2, 1, 1, 0},
		{3, 3, 1, 1, 0},
		{3, 2, 2, 1, 0},
		{3, 2, 1, 2, 0},
		{3, 2, 1, 1, 1},
	}
	for _, b := range bumped {
		assert.GreaterOrEqual(t, Compute(b).Int(), baseMMR.Int())
	}
}

func TestCompute_NegativeCountersAreSanitized(t *testing.T) {
	mmr := Compute(ActivityCounters{
		RepositoryCount:        -10,
		HackathonsParticipated: -1,
		HackathonsTop50Percent: 1,
	})
	assert.Equal(t, shared.MMR(100), mmr)
	assert.True(t, mmr.IsValid())
}

func TestCompute_IsDeterministic(t *testing.T) {
	counters := ActivityCounters{
		RepositoryCount:        7,
		HackathonsParticipated: 3,
		HackathonsTop10Percent: 1,
	}
	first := Compute(counters)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compute(counters))
	}
}

func TestActivityCounters_TotalActivity(t *testing.T) {
	c := ActivityCounters{RepositoryCount: 8, HackathonsParticipated: 3}
	assert.Equal(t, 11, c.TotalActivity())

	assert.Equal(t, 0, ActivityCounters{}.TotalActivity())
}

func TestActivityCounters_IsValid(t *testing.T) {
	assert.True(t, ActivityCounters{}.IsValid())
	assert.True(t, ActivityCounters{RepositoryCount: 1}.IsValid())
	assert.False(t, ActivityCounters{HackathonsFirstPlace: -1}.IsValid())
}
