package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		mmr      shared.MMR
		expected string
	}{
		{0, "Bronze"},
		{250, "Bronze"},
		{999, "Bronze"},
		{1000, "Silver"},
		{1499, "Silver"},
		{1500, "Gold"},
		{1999, "Gold"},
		{2000, "Platinum"},
		{2499, "Platinum"},
		{2500, "Emerald"},
		{2999, "Emerald"},
		{3000, "Diamond"},
		{3499, "Diamond"},
		{3500, "Master"},
		{3999, "Master"},
		{4000, "Grandmaster"},
		{4999, "Grandmaster"},
		{5000, "Challenger"},
		{100000, "Challenger"},
	}

	for _, tt := range tests {
		tier := TierFor(tt.mmr)
		assert.Equal(t, tt.expected, tier.Name, "mmr=%d", tt.mmr)
		assert.True(t, tier.Contains(tt.mmr))
	}
}

func TestTiers_PartitionInvariant(t *testing.T) {
	// Every non-negative rating belongs to exactly one tier.
	for r := 0; r <= 100000; r++ {
		matches := 0
		for _, tier := range Tiers() {
			if tier.Contains(shared.MMR(r)) {
				matches++
			}
		}
		require.Equal(t, 1, matches, "rating %d must match exactly one tier", r)
	}
}

func TestTiers_OrderedWithoutGaps(t *testing.T) {
	all := Tiers()
	require.Len(t, all, 9)

	assert.Equal(t, shared.MMR(0), all[0].MinRating)
	for i := 1; i < len(all); i++ {
		assert.Equal(t, all[i-1].MaxRating+1, all[i].MinRating,
			"tier %s must start right after %s ends", all[i].Name, all[i-1].Name)
	}
	assert.True(t, all[len(all)-1].IsTop())
}

func TestTiers_DisplayMetadata(t *testing.T) {
	seen := make(map[string]bool)
	for _, tier := range Tiers() {
		assert.NotEmpty(t, tier.Name)
		assert.NotEmpty(t, tier.Color)
		assert.NotEmpty(t, tier.Icon)
		assert.False(t, seen[tier.Name], "tier name %s must be unique", tier.Name)
		seen[tier.Name] = true
	}
}

func TestTierByName(t *testing.T) {
	tier, ok := TierByName("Diamond")
	require.True(t, ok)
	assert.Equal(t, shared.MMR(3000), tier.MinRating)

	_, ok = TierByName("Wood")
	assert.False(t, ok)
}

func TestTierIndex_Progression(t *testing.T) {
	bronze := TierFor(0)
	challenger := TierFor(5000)
	assert.Equal(t, 0, TierIndex(bronze))
	assert.Equal(t, 8, TierIndex(challenger))
	assert.Greater(t, TierIndex(challenger), TierIndex(bronze))
}

func TestComputeThenTierFor_ExampleScenario(t *testing.T) {
	// 5 repos, 2 hackathons, one top-50% finish lands in Bronze.
	mmr := Compute(ActivityCounters{
		RepositoryCount:        5,
		HackathonsParticipated: 2,
		HackathonsTop50Percent: 1,
	})
	require.Equal(t, shared.MMR(250), mmr)
	assert.Equal(t, "Bronze", TierFor(mmr).Name)
}
