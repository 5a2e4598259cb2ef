package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPATIBILITY SCORING
// Чистые, тотальные функции: всегда возвращают результат, никогда не падают.
// Вырожденный ввод (пустые навыки, нулевая активность, отсутствие локации) -
// корректные крайние случаи с уменьшенным вкладом, а не ошибки.
// ══════════════════════════════════════════════════════════════════════════════

// minLocationTokenLen - минимальная длина токена локации для частичного
// совпадения ("Almaty" и "Almaty, Kazakhstan" делят токен "almaty").
const minLocationTokenLen = 3

// ScoreCandidate вычисляет совместимость кандидата с запрашивающим
// по каноническим весам.
func ScoreCandidate(requester, candidate CandidateProfile, filters SearchFilters) CompatibilityScore {
	return ScoreCandidateWeighted(requester, candidate, filters, DefaultWeights())
}

// ScoreCandidateWeighted вычисляет совместимость с явной таблицей весов.
//
// Композиция оценки:
//  1. Навыки (вес 50): доля запрошенных навыков, найденных у кандидата,
//     плюс бонус за непустой профиль; при пустом фильтре - небольшой
//     кредит за богатство профиля.
//  2. Близость рейтинга (вес 25): линейно убывает с разрывом, ноль при
//     разрыве >= допуска.
//  3. Активность (вес 15): отношение активности кандидата к активности
//     запрашивающего, насыщение на 2x.
//  4. География (вес 10): полный вес за вхождение подстроки, половина
//     за общий токен.
//  5. Базовый бонус (+10), чтобы ни один кандидат не получил ровно 0
//     и порядок сортировки оставался устойчивым.
//
// Итог округляется и зажимается в [0, 100].
func ScoreCandidateWeighted(requester, candidate CandidateProfile, filters SearchFilters, w Weights) CompatibilityScore {
	f := filters.Normalize()

	skillScore, matches := skillTerm(candidate, f, w)
	total := skillScore +
		ratingTerm(requester.MMR, candidate.MMR, f.RatingTolerance(), w) +
		activityTerm(requester.ActivityCount, candidate.ActivityCount, w) +
		locationTerm(requester.Location, candidate.Location, w) +
		float64(w.Base)

	return CompatibilityScore{
		UserID:           candidate.ID,
		Score:            shared.ClampInt(int(math.Round(total)), 0, 100),
		SkillMatches:     matches,
		RatingDifference: requester.MMR.Diff(candidate.MMR),
		Tier:             rating.TierFor(candidate.MMR),
	}
}

// skillTerm возвращает вклад навыков и список совпавших запрошенных навыков
// в порядке фильтра.
func skillTerm(candidate CandidateProfile, f SearchFilters, w Weights) (float64, []shared.Skill) {
	matches := make([]shared.Skill, 0, len(f.Skills))

	if len(f.Skills) == 0 {
		// Нет явного запроса - небольшой кредит за богатство профиля.
		credit := len(candidate.Skills) * w.SkillFallbackPerSkill
		if credit > w.SkillFallbackCap {
			credit = w.SkillFallbackCap
		}
		return float64(credit), matches
	}

	for _, want := range f.Skills {
		if CandidateHasSkill(want, candidate.Skills) {
			matches = append(matches, want)
		}
	}

	score := float64(len(matches)) / float64(len(f.Skills)) * float64(w.Skill)

	// Бонус за заполненный профиль, не выходя за потолок фактора.
	if candidate.HasSkills() {
		score += float64(w.SkillCompletenessBonus)
	}
	if score > float64(w.Skill) {
		score = float64(w.Skill)
	}

	return score, matches
}

// ratingTerm линейно убывает с разрывом рейтинга; ноль при разрыве,
// достигшем допуска.
func ratingTerm(requester, candidate shared.MMR, tolerance int, w Weights) float64 {
	if tolerance <= 0 {
		tolerance = DefaultRatingTolerance
	}
	gap := requester.Diff(candidate)
	if gap >= tolerance {
		return 0
	}
	return float64(tolerance-gap) / float64(tolerance) * float64(w.Rating)
}

// activityTerm поощряет кандидатов, активных не меньше запрашивающего.
// Отношение насыщается на ActivityRatioCap; менее активный кандидат
// получает пропорционально меньший бонус, но никогда не штраф.
func activityTerm(requesterActivity, candidateActivity int, w Weights) float64 {
	if candidateActivity <= 0 {
		return 0
	}
	base := requesterActivity
	if base < 1 {
		base = 1
	}
	ratio := float64(candidateActivity) / float64(base)
	if ratio > w.ActivityRatioCap {
		ratio = w.ActivityRatioCap
	}
	return ratio / w.ActivityRatioCap * float64(w.Activity)
}

// locationTerm: полный вес за вхождение подстроки, половина за общий
// токен длиной >= minLocationTokenLen, ноль при отсутствии локации.
func locationTerm(requester, candidate shared.Location, w Weights) float64 {
	if requester.IsEmpty() || candidate.IsEmpty() {
		return 0
	}

	a := string(requester.Normalize())
	b := string(candidate.Normalize())

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return float64(w.Location)
	}

	bTokens := candidate.Tokens(minLocationTokenLen)
	for _, token := range requester.Tokens(minLocationTokenLen) {
		for _, other := range bTokens {
			if token == other {
				return float64(w.Location) / 2
			}
		}
	}

	return 0
}

// ══════════════════════════════════════════════════════════════════════════════
// CANDIDATE SEARCH
// Оценка пула, фильтрация по порогу, детерминированная сортировка.
// ══════════════════════════════════════════════════════════════════════════════

// SearchCandidates оценивает каждый профиль пула, отбрасывает кандидатов
// ниже порога MinCompatibility и сортирует результат по убыванию оценки.
// При равной оценке порядок определяется возрастанием UserID - результат
// детерминирован. Пустой список - корректный результат, а не ошибка.
func SearchCandidates(requester CandidateProfile, pool []CandidateProfile, filters SearchFilters) []CompatibilityScore {
	f := filters.Normalize()

	results := make([]CompatibilityScore, 0, len(pool))
	for _, candidate := range pool {
		if candidate.ID == requester.ID {
			continue
		}
		score := ScoreCandidateWeighted(requester, candidate, f, DefaultWeights())
		if score.Score >= f.MinCompatibility {
			results = append(results, score)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].UserID < results[j].UserID
	})

	return results
}

// TopN возвращает первые n результатов.
func TopN(results []CompatibilityScore, n int) []CompatibilityScore {
	if n >= len(results) {
		return results
	}
	return results[:n]
}
