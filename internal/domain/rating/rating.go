// Package rating содержит движок расчёта MMR (matchmaking rating) Axiom Hub.
// MMR - синтетический рейтинг участника, выводимый из его активности на GitHub
// и результатов хакатонов. Это ядро бизнес-логики - здесь нет внешних зависимостей
// и нет ввода-вывода: все функции чистые и детерминированные.
package rating

import (
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY COUNTERS
// Счётчики активности пользователя. Обновляются извне (синхронизация GitHub,
// запись результатов хакатонов) - движок рейтинга их только читает.
// ══════════════════════════════════════════════════════════════════════════════

// ActivityCounters агрегирует активность пользователя для расчёта MMR.
type ActivityCounters struct {
	// RepositoryCount - количество публичных репозиториев на GitHub.
	RepositoryCount int

	// HackathonsParticipated - количество хакатонов, в которых участвовал.
	HackathonsParticipated int

	// HackathonsTop50Percent - сколько раз попадал в верхнюю половину.
	HackathonsTop50Percent int

	// HackathonsTop10Percent - сколько раз попадал в топ-10%.
	HackathonsTop10Percent int

	// HackathonsFirstPlace - количество побед.
	HackathonsFirstPlace int
}

// IsValid проверяет, что все счётчики неотрицательные.
func (c ActivityCounters) IsValid() bool {
	return c.RepositoryCount >= 0 &&
		c.HackathonsParticipated >= 0 &&
		c.HackathonsTop50Percent >= 0 &&
		c.HackathonsTop10Percent >= 0 &&
		c.HackathonsFirstPlace >= 0
}

// Sanitize возвращает копию счётчиков с отрицательными значениями,
// приведёнными к нулю. Защита на границе: движок никогда не падает
// из-за некорректного ввода.
func (c ActivityCounters) Sanitize() ActivityCounters {
	return ActivityCounters{
		RepositoryCount:        maxInt(c.RepositoryCount, 0),
		HackathonsParticipated: maxInt(c.HackathonsParticipated, 0),
		HackathonsTop50Percent: maxInt(c.HackathonsTop50Percent, 0),
		HackathonsTop10Percent: maxInt(c.HackathonsTop10Percent, 0),
		HackathonsFirstPlace:   maxInt(c.HackathonsFirstPlace, 0),
	}
}

// TotalActivity возвращает комбинированную меру активности:
// участие в хакатонах плюс репозитории. Используется движком подбора
// для фактора "насколько кандидат активен".
func (c ActivityCounters) TotalActivity() int {
	return c.HackathonsParticipated + c.RepositoryCount
}

// ══════════════════════════════════════════════════════════════════════════════
// MMR COMPUTATION
// Формула: сумма пяти слагаемых. Только GitHub-слагаемое ограничено сверху,
// итоговый рейтинг не ограничен.
// ══════════════════════════════════════════════════════════════════════════════

// Веса слагаемых формулы MMR.
const (
	// RepoPoints - очки за один репозиторий.
	RepoPoints = 10

	// RepoPointsCap - потолок вклада GitHub-активности.
	// Один показатель не должен доминировать в рейтинге.
	RepoPointsCap = 500

	// ParticipationPoints - очки за участие в хакатоне.
	ParticipationPoints = 50

	// Top50Points - очки за попадание в верхнюю половину.
	Top50Points = 100

	// Top10Points - очки за попадание в топ-10%.
	Top10Points = 200

	// FirstPlacePoints - очки за первое место.
	FirstPlacePoints = 500
)

// Compute вычисляет MMR из счётчиков активности.
// Чистая, тотальная функция: всегда возвращает корректный рейтинг,
// никогда не возвращает ошибку. Отрицательные счётчики обнуляются,
// итог не может быть ниже shared.MinMMR.
func Compute(counters ActivityCounters) shared.MMR {
	c := counters.Sanitize()

	githubTerm := c.RepositoryCount * RepoPoints
	if githubTerm > RepoPointsCap {
		githubTerm = RepoPointsCap
	}

	total := githubTerm +
		c.HackathonsParticipated*ParticipationPoints +
		c.HackathonsTop50Percent*Top50Points +
		c.HackathonsTop10Percent*Top10Points +
		c.HackathonsFirstPlace*FirstPlacePoints

	return shared.MMR(total).Floor()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
