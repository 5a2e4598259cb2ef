package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

const (
	requesterID = shared.UserID("11111111-1111-1111-1111-111111111111")
	candidateID = shared.UserID("22222222-2222-2222-2222-222222222222")
	thirdID     = shared.UserID("33333333-3333-3333-3333-333333333333")
)

func skillList(names ...string) []shared.Skill {
	out := make([]shared.Skill, len(names))
	for i, n := range names {
		out[i] = shared.Skill(n)
	}
	return out
}

func TestScoreCandidate_ScoreBounds(t *testing.T) {
	profiles := []CandidateProfile{
		{ID: candidateID},
		{ID: candidateID, MMR: 2000, Skills: skillList("react", "go", "python"), Location: "Almaty", ActivityCount: 100},
		{ID: candidateID, MMR: 99999, ActivityCount: 1},
	}
	filterSets := []SearchFilters{
		{},
		{Skills: skillList("react"), MinCompatibility: 0},
		{Skills: skillList("react", "go", "rust", "ml"), Location: "Almaty", RatingMin: 0, RatingMax: 4000},
		{MinCompatibility: 150}, // out-of-range threshold is clamped, not rejected
	}

	requester := CandidateProfile{ID: requesterID, MMR: 2000, Skills: skillList("go"), Location: "Almaty", ActivityCount: 10}

	for _, candidate := range profiles {
		for _, filters := range filterSets {
			score := ScoreCandidate(requester, candidate, filters)
			assert.GreaterOrEqual(t, score.Score, 0)
			assert.LessOrEqual(t, score.Score, 100)
		}
	}
}

func TestScoreCandidate_IsDeterministic(t *testing.T) {
	requester := CandidateProfile{ID: requesterID, MMR: 1800, Skills: skillList("go"), ActivityCount: 5}
	candidate := CandidateProfile{ID: candidateID, MMR: 2100, Skills: skillList("react", "docker"), Location: "Astana", ActivityCount: 9}
	filters := SearchFilters{Skills: skillList("docker", "react"), MinCompatibility: 10}

	first := ScoreCandidate(requester, candidate, filters)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ScoreCandidate(requester, candidate, filters))
	}
}

func TestScoreCandidate_ExactSkillAndRatingMatch(t *testing.T) {
	// Requester 2000 MMR asks for React; candidate at 2000 MMR knows react.
	requester := CandidateProfile{ID: requesterID, MMR: 2000, ActivityCount: 5}
	candidate := CandidateProfile{
		ID:            candidateID,
		MMR:           2000,
		Skills:        skillList("react", "node.js"),
		ActivityCount: 5,
	}
	filters := SearchFilters{Skills: skillList("React"), MinCompatibility: 30}

	score := ScoreCandidate(requester, candidate, filters)

	// Full skill weight, full rating weight, base bonus: well above threshold.
	assert.GreaterOrEqual(t, score.Score, 85)
	assert.Equal(t, 0, score.RatingDifference)
	require.Len(t, score.SkillMatches, 1)
	assert.Equal(t, shared.Skill("react"), score.SkillMatches[0])
	assert.Equal(t, "Platinum", score.Tier.Name)
	assert.NotEmpty(t, score.Tier.Color)
	assert.NotEmpty(t, score.Tier.Icon)
	assert.True(t, score.Tier.Contains(candidate.MMR))
}

func TestScoreCandidate_EmptySignalGetsOnlyBaseBonus(t *testing.T) {
	// No skills, no location, rating gap exactly at tolerance, no activity.
	requester := CandidateProfile{ID: requesterID, MMR: 2000, Skills: skillList("go"), ActivityCount: 10}
	candidate := CandidateProfile{ID: candidateID, MMR: 3000}
	filters := SearchFilters{Skills: skillList("go"), MinCompatibility: 30}

	score := ScoreCandidate(requester, candidate, filters)

	assert.Equal(t, 10, score.Score)
	assert.Empty(t, score.SkillMatches)
	assert.Equal(t, 1000, score.RatingDifference)

	// Excluded by a search with the default threshold.
	results := SearchCandidates(requester, []CandidateProfile{candidate}, filters)
	assert.Empty(t, results)
}

func TestScoreCandidate_RatingTermDecreasesWithGap(t *testing.T) {
	requester := CandidateProfile{ID: requesterID, MMR: 2000}
	filters := SearchFilters{}

	var prev int
	for i, mmr := range []shared.MMR{2000, 2250, 2500, 2750, 3000} {
		score := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: mmr}, filters)
		if i > 0 {
			assert.LessOrEqual(t, score.Score, prev, "score must not grow with rating gap")
		}
		prev = score.Score
	}

	// Gap at or beyond tolerance contributes nothing.
	atTolerance := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 3000}, filters)
	farBeyond := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 9000}, filters)
	assert.Equal(t, atTolerance.Score, farBeyond.Score)
}

func TestScoreCandidate_RatingToleranceFromRange(t *testing.T) {
	filters := SearchFilters{RatingMin: 1500, RatingMax: 2500}
	assert.Equal(t, 500, filters.RatingTolerance())

	// No range set falls back to the default.
	assert.Equal(t, DefaultRatingTolerance, SearchFilters{}.RatingTolerance())

	requester := CandidateProfile{ID: requesterID, MMR: 2000}
	// Gap 500 == tolerance: rating term is zero.
	score := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2500}, filters)
	zeroGap := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000}, filters)
	assert.Less(t, score.Score, zeroGap.Score)
}

func TestScoreCandidate_ActivityTermSaturatesAtDouble(t *testing.T) {
	requester := CandidateProfile{ID: requesterID, MMR: 2000, ActivityCount: 10}
	filters := SearchFilters{}

	double := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000, ActivityCount: 20}, filters)
	triple := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000, ActivityCount: 30}, filters)
	half := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000, ActivityCount: 5}, filters)

	assert.Equal(t, double.Score, triple.Score, "activity bonus saturates at 2x")
	assert.Less(t, half.Score, double.Score)
}

func TestScoreCandidate_ZeroRequesterActivityDoesNotPanic(t *testing.T) {
	requester := CandidateProfile{ID: requesterID, MMR: 1000, ActivityCount: 0}
	candidate := CandidateProfile{ID: candidateID, MMR: 1000, ActivityCount: 4}

	score := ScoreCandidate(requester, candidate, SearchFilters{})
	assert.GreaterOrEqual(t, score.Score, 0)
	assert.LessOrEqual(t, score.Score, 100)
}

func TestScoreCandidate_LocationMatching(t *testing.T) {
	requester := CandidateProfile{ID: requesterID, MMR: 2000, Location: "Almaty, Kazakhstan"}
	filters := SearchFilters{}

	substr := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000, Location: "almaty"}, filters)
	token := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000, Location: "Kazakhstan, Astana"}, filters)
	none := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000, Location: "Berlin"}, filters)
	empty := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000}, filters)

	assert.Greater(t, substr.Score, token.Score)
	assert.Greater(t, token.Score, none.Score)
	assert.Equal(t, none.Score, empty.Score)
}

func TestScoreCandidate_SkillMatchesPreserveFilterOrder(t *testing.T) {
	requester := CandidateProfile{ID: requesterID, MMR: 2000}
	candidate := CandidateProfile{
		ID:     candidateID,
		MMR:    2000,
		Skills: skillList("python", "react", "docker"),
	}
	filters := SearchFilters{Skills: skillList("Docker", "Rust", "Python")}

	score := ScoreCandidate(requester, candidate, filters)
	require.Len(t, score.SkillMatches, 2)
	assert.Equal(t, shared.Skill("docker"), score.SkillMatches[0])
	assert.Equal(t, shared.Skill("python"), score.SkillMatches[1])
}

func TestScoreCandidate_EmptySkillFilterCreditsRichProfiles(t *testing.T) {
	requester := CandidateProfile{ID: requesterID, MMR: 2000}
	filters := SearchFilters{}

	rich := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000, Skills: skillList("a", "b", "c", "d", "e")}, filters)
	poor := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000, Skills: skillList("a")}, filters)
	none := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000}, filters)

	assert.Greater(t, rich.Score, poor.Score)
	assert.Greater(t, poor.Score, none.Score)

	// The credit is capped: extra skills past the cap change nothing.
	many := make([]shared.Skill, 30)
	for i := range many {
		many[i] = shared.Skill(string(rune('a' + i%26)))
	}
	capped := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000, Skills: many[:10]}, filters)
	more := ScoreCandidate(requester, CandidateProfile{ID: candidateID, MMR: 2000, Skills: many[:20]}, filters)
	assert.Equal(t, capped.Score, more.Score)
}

func TestSearchCandidates_FilterThresholdAndSortOrder(t *testing.T) {
	requester := CandidateProfile{ID: requesterID, MMR: 2000, Skills: skillList("go"), ActivityCount: 5}
	pool := []CandidateProfile{
		{ID: thirdID, MMR: 2000, Skills: skillList("go", "react"), Location: "Almaty", ActivityCount: 10},
		{ID: candidateID, MMR: 2900, ActivityCount: 0},
		{ID: "44444444-4444-4444-4444-444444444444", MMR: 2100, Skills: skillList("golang"), ActivityCount: 5},
	}
	filters := SearchFilters{Skills: skillList("go"), MinCompatibility: 30}

	results := SearchCandidates(requester, pool, filters)

	require.NotEmpty(t, results)
	for i, r := range results {
		assert.GreaterOrEqual(t, r.Score, filters.MinCompatibility)
		if i > 0 {
			assert.LessOrEqual(t, r.Score, results[i-1].Score, "scores must be non-increasing")
		}
	}
}

func TestSearchCandidates_TieBreakByUserID(t *testing.T) {
	requester := CandidateProfile{ID: requesterID, MMR: 2000}
	// Identical candidates except for ID produce identical scores.
	pool := []CandidateProfile{
		{ID: thirdID, MMR: 2000, Skills: skillList("go")},
		{ID: candidateID, MMR: 2000, Skills: skillList("go")},
	}
	filters := SearchFilters{Skills: skillList("go"), MinCompatibility: 0}

	results := SearchCandidates(requester, pool, filters)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, candidateID, results[0].UserID)
	assert.Equal(t, thirdID, results[1].UserID)
}

func TestSearchCandidates_EmptyPool(t *testing.T) {
	requester := CandidateProfile{ID: requesterID, MMR: 2000}
	results := SearchCandidates(requester, nil, SearchFilters{MinCompatibility: 30})
	assert.Empty(t, results)
}

func TestSearchCandidates_ExcludesRequester(t *testing.T) {
	requester := CandidateProfile{ID: requesterID, MMR: 2000, Skills: skillList("go")}
	pool := []CandidateProfile{requester, {ID: candidateID, MMR: 2000, Skills: skillList("go")}}

	results := SearchCandidates(requester, pool, SearchFilters{MinCompatibility: 0})
	require.Len(t, results, 1)
	assert.Equal(t, candidateID, results[0].UserID)
}

func TestSearchCandidates_ThresholdClamped(t *testing.T) {
	requester := CandidateProfile{ID: requesterID, MMR: 2000, ActivityCount: 5}
	perfect := CandidateProfile{ID: candidateID, MMR: 2000, Skills: skillList("go"), Location: "Almaty", ActivityCount: 10}
	requester.Location = "Almaty"

	// A threshold above 100 is clamped to 100, not treated as an error.
	filters := SearchFilters{Skills: skillList("go"), MinCompatibility: 400}
	results := SearchCandidates(requester, []CandidateProfile{perfect}, filters)
	for _, r := range results {
		assert.Equal(t, 100, r.Score)
	}
}

func TestTopN(t *testing.T) {
	results := []CompatibilityScore{{Score: 90}, {Score: 80}, {Score: 70}}
	assert.Len(t, TopN(results, 2), 2)
	assert.Len(t, TopN(results, 10), 3)
}

func TestCompatibilityScore_Quality(t *testing.T) {
	assert.Equal(t, QualityExcellent, CompatibilityScore{Score: 85}.Quality())
	assert.Equal(t, QualityGood, CompatibilityScore{Score: 60}.Quality())
	assert.Equal(t, QualityFair, CompatibilityScore{Score: 45}.Quality())
	assert.Equal(t, QualityPoor, CompatibilityScore{Score: 20}.Quality())
	assert.Equal(t, QualityNone, CompatibilityScore{Score: 5}.Quality())
}
