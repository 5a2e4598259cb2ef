package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

func TestSkillsMatch_CaseInsensitiveSubstring(t *testing.T) {
	assert.True(t, SkillsMatch("React", "react"))
	assert.True(t, SkillsMatch("go", "golang"))
	assert.True(t, SkillsMatch("postgresql", "postgres"))
	assert.True(t, SkillsMatch("  React ", "REACT"))

	assert.False(t, SkillsMatch("rust", "elixir"))
	assert.False(t, SkillsMatch("", "go"))
	assert.False(t, SkillsMatch("go", ""))
}

func TestSkillsMatch_RelatedTableBothDirections(t *testing.T) {
	// Forward direction: "react" lists "redux".
	assert.True(t, SkillsMatch("react", "redux"))

	// Reverse direction: "redux" has no table entry of its own,
	// the reverse lookup must still find the relation.
	assert.True(t, SkillsMatch("redux", "react"))

	assert.True(t, SkillsMatch("ml", "pytorch"))
	assert.True(t, SkillsMatch("pytorch", "ml"))

	assert.False(t, SkillsMatch("redux", "python"))
}

func TestSkillsMatch_AsymmetricEntriesStayConsistent(t *testing.T) {
	// The table is one-directional by construction: "react" -> "typescript"
	// exists while "typescript" does not list "react". Matching must not
	// depend on which side the entry lives on.
	assert.Equal(t, SkillsMatch("react", "typescript"), SkillsMatch("typescript", "react"))
	assert.Equal(t, SkillsMatch("kotlin", "java"), SkillsMatch("java", "kotlin"))
}

func TestRelatedSkills(t *testing.T) {
	related := RelatedSkills("React")
	assert.Contains(t, related, shared.Skill("javascript"))
	assert.Contains(t, related, shared.Skill("redux"))

	assert.Empty(t, RelatedSkills("underwater-basket-weaving"))
}

func TestCandidateHasSkill(t *testing.T) {
	skills := skillList("python", "docker")

	assert.True(t, CandidateHasSkill("Python", skills))
	assert.True(t, CandidateHasSkill("kubernetes", skills)) // related to docker
	assert.False(t, CandidateHasSkill("swift", skills))
	assert.False(t, CandidateHasSkill("go", nil))
}
