package matching

import (
	"strings"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RELATED SKILLS TABLE
// Статичная таблица смежных навыков. Таблица однонаправленная по построению:
// запись "react" -> [...] не означает, что обратная запись существует или
// согласована. Поэтому SkillsMatch явно проверяет оба направления.
// Таблица определяется один раз и никогда не мутируется.
// ══════════════════════════════════════════════════════════════════════════════

// relatedSkills - однонаправленная таблица смежности навыков.
// Ключи и значения в нижнем регистре.
var relatedSkills = map[string][]string{
	"react":      {"javascript", "typescript", "next.js", "redux"},
	"javascript": {"typescript", "node.js", "vue", "angular"},
	"typescript": {"javascript", "angular", "nest.js"},
	"node.js":    {"express", "nest.js", "javascript"},
	"vue":        {"javascript", "nuxt"},
	"python":     {"django", "flask", "fastapi", "pandas"},
	"ml":         {"python", "pytorch", "tensorflow", "pandas"},
	"go":         {"grpc", "docker", "kubernetes"},
	"java":       {"spring", "kotlin"},
	"rust":       {"webassembly", "systems"},
	"docker":     {"kubernetes", "devops", "ci/cd"},
	"aws":        {"terraform", "devops", "cloud"},
	"design":     {"figma", "ui", "ux"},
	"flutter":    {"dart", "mobile"},
	"swift":      {"ios", "mobile"},
	"kotlin":     {"android", "mobile", "java"},
	"sql":        {"postgresql", "mysql", "database"},
	"postgresql": {"sql", "database"},
}

// RelatedSkills возвращает список смежных навыков для указанного
// (в одну сторону, как записано в таблице).
func RelatedSkills(skill shared.Skill) []shared.Skill {
	entries, ok := relatedSkills[string(skill.Normalize())]
	if !ok {
		return nil
	}
	out := make([]shared.Skill, len(entries))
	for i, e := range entries {
		out[i] = shared.Skill(e)
	}
	return out
}

// relatedOneWay проверяет, что b входит в список смежных навыков a.
func relatedOneWay(a, b string) bool {
	for _, rel := range relatedSkills[a] {
		if rel == b {
			return true
		}
	}
	return false
}

// SkillsMatch проверяет, совпадают ли два навыка для целей подбора.
// Совпадение: одна строка является подстрокой другой (без учёта регистра),
// либо навыки смежны в любом из направлений таблицы.
func SkillsMatch(want, have shared.Skill) bool {
	a := strings.ToLower(strings.TrimSpace(string(want)))
	b := strings.ToLower(strings.TrimSpace(string(have)))

	if a == "" || b == "" {
		return false
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	// Таблица однонаправленная - проверяем оба направления.
	return relatedOneWay(a, b) || relatedOneWay(b, a)
}

// CandidateHasSkill проверяет, есть ли у кандидата навык, совпадающий
// с запрошенным.
func CandidateHasSkill(want shared.Skill, candidateSkills []shared.Skill) bool {
	for _, have := range candidateSkills {
		if SkillsMatch(want, have) {
			return true
		}
	}
	return false
}
