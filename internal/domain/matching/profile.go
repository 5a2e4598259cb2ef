// Package matching содержит движок подбора сокомандников Axiom Hub.
//
// Философия подбора: "Команда важнее рейтинга"
//
// При подборе сокомандников мы оцениваем:
// 1. Пересечение навыков (запрошенные навыки vs навыки кандидата)
// 2. Близость рейтинга (слишком большой разрыв - плохая команда)
// 3. Уровень активности (кандидат не должен быть пассивнее запрашивающего)
// 4. Географию (общий город упрощает офлайн-хакатоны)
//
// НЕ оцениваем:
// - Чистую величину MMR (высокий рейтинг не значит хороший сокомандник)
// - Популярность профиля
//
// Движок чистый: нет ввода-вывода, нет состояния, безопасен для
// конкурентного вызова.
package matching

import (
	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CANDIDATE PROFILE
// Подмножество профиля пользователя, нужное для подбора. Собирается
// data-слоем; движок его только читает.
// ══════════════════════════════════════════════════════════════════════════════

// CandidateProfile представляет кандидата (или запрашивающего) для подбора.
type CandidateProfile struct {
	// ID - идентификатор пользователя.
	ID shared.UserID

	// MMR - текущий рейтинг.
	MMR shared.MMR

	// Location - локация (может быть пустой).
	Location shared.Location

	// Skills - нормализованные навыки (без учёта регистра).
	Skills []shared.Skill

	// ActivityCount - комбинированная мера активности
	// (хакатоны + репозитории).
	ActivityCount int
}

// HasSkills возвращает true, если профиль содержит хотя бы один навык.
func (p CandidateProfile) HasSkills() bool {
	return len(p.Skills) > 0
}

// ══════════════════════════════════════════════════════════════════════════════
// SEARCH FILTERS
// Критерии поиска, задаваемые пользователем.
// ══════════════════════════════════════════════════════════════════════════════

// Значения по умолчанию для фильтров поиска.
const (
	// DefaultRatingTolerance - максимальный разрыв рейтинга, при котором
	// кандидаты ещё считаются совместимыми.
	DefaultRatingTolerance = 1000

	// DefaultMinCompatibility - порог совместимости по умолчанию.
	DefaultMinCompatibility = 30
)

// SearchFilters содержит параметры поиска сокомандников.
type SearchFilters struct {
	// Roles - желаемые роли (пустой список = без ограничений).
	// Фильтрация по ролям выполняется data-слоем при сборке пула.
	Roles []shared.Role

	// Skills - желаемые навыки в порядке приоритета (может быть пустым).
	Skills []shared.Skill

	// RatingMin и RatingMax - допустимый диапазон рейтинга кандидатов.
	// Половина ширины диапазона задаёт допуск разрыва рейтинга.
	RatingMin shared.MMR
	RatingMax shared.MMR

	// Location - фильтр по подстроке локации (пустая = без фильтра).
	Location shared.Location

	// MinCompatibility - минимальная совместимость (0-100, включительно).
	MinCompatibility int
}

// RatingTolerance возвращает допуск разрыва рейтинга: половину ширины
// заданного диапазона, либо DefaultRatingTolerance, если диапазон не задан.
func (f SearchFilters) RatingTolerance() int {
	if f.RatingMax > f.RatingMin {
		half := int(f.RatingMax-f.RatingMin) / 2
		if half > 0 {
			return half
		}
	}
	return DefaultRatingTolerance
}

// Normalize возвращает копию фильтров с нормализованными навыками и
// порогом, зажатым в [0, 100]. Некорректный ввод не является ошибкой -
// это эвристика ранжирования, а не строгая валидация.
func (f SearchFilters) Normalize() SearchFilters {
	out := f
	out.MinCompatibility = shared.ClampInt(f.MinCompatibility, 0, 100)

	out.Skills = make([]shared.Skill, 0, len(f.Skills))
	for _, s := range f.Skills {
		if s.IsValid() {
			out.Skills = append(out.Skills, s.Normalize())
		}
	}

	out.Roles = make([]shared.Role, 0, len(f.Roles))
	for _, r := range f.Roles {
		out.Roles = append(out.Roles, r.Normalize())
	}

	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// WEIGHT CONFIGURATION
// Канонический вес факторов. В исходной системе существовали два
// расхождения; выбран вариант 50/25/15/10 с базовым бонусом +10.
// ══════════════════════════════════════════════════════════════════════════════

// Weights задаёт веса факторов совместимости.
type Weights struct {
	// Skill - максимальный вклад пересечения навыков.
	Skill int

	// SkillCompletenessBonus - бонус за непустой набор навыков кандидата
	// (в пределах Skill).
	SkillCompletenessBonus int

	// SkillFallbackPerSkill - очки за навык при пустом фильтре.
	SkillFallbackPerSkill int

	// SkillFallbackCap - потолок очков при пустом фильтре.
	SkillFallbackCap int

	// Rating - максимальный вклад близости рейтинга.
	Rating int

	// Activity - максимальный вклад уровня активности.
	Activity int

	// ActivityRatioCap - во сколько раз активность кандидата может
	// превышать активность запрашивающего до насыщения бонуса.
	ActivityRatioCap float64

	// Location - максимальный вклад географии.
	Location int

	// Base - базовый бонус, исключающий нулевые оценки.
	Base int
}

// DefaultWeights возвращает канонические веса.
func DefaultWeights() Weights {
	return Weights{
		Skill:                  50,
		SkillCompletenessBonus: 10,
		SkillFallbackPerSkill:  2,
		SkillFallbackCap:       20,
		Rating:                 25,
		Activity:               15,
		ActivityRatioCap:       2.0,
		Location:               10,
		Base:                   10,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPATIBILITY SCORE
// Результат оценки одного кандидата. Эфемерный: вычисляется заново
// на каждый поиск и нигде не сохраняется.
// ══════════════════════════════════════════════════════════════════════════════

// CompatibilityScore представляет оценку совместимости кандидата.
type CompatibilityScore struct {
	// UserID - кандидат.
	UserID shared.UserID

	// Score - итоговая оценка, зажатая в [0, 100].
	Score int

	// SkillMatches - запрошенные навыки, найденные у кандидата,
	// в порядке фильтра.
	SkillMatches []shared.Skill

	// RatingDifference - |MMR запрашивающего - MMR кандидата|,
	// без ограничения (для диагностики).
	RatingDifference int

	// Tier - тир кандидата целиком (имя, границы, цвет, иконка),
	// чтобы потребителям не приходилось доставать метаданные заново.
	Tier rating.Tier
}

// Quality возвращает качественную градацию оценки.
func (c CompatibilityScore) Quality() Quality {
	switch {
	case c.Score >= 80:
		return QualityExcellent
	case c.Score >= 60:
		return QualityGood
	case c.Score >= 40:
		return QualityFair
	case c.Score >= 20:
		return QualityPoor
	default:
		return QualityNone
	}
}

// Quality определяет качественную градацию совместимости.
type Quality string

const (
	// QualityExcellent - отличная совместимость (80-100).
	QualityExcellent Quality = "excellent"

	// QualityGood - хорошая совместимость (60-79).
	QualityGood Quality = "good"

	// QualityFair - удовлетворительная совместимость (40-59).
	QualityFair Quality = "fair"

	// QualityPoor - низкая совместимость (20-39).
	QualityPoor Quality = "poor"

	// QualityNone - нет совместимости (0-19).
	QualityNone Quality = "none"
)
