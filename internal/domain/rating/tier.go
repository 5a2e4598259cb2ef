package rating

import (
	"math"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATING TIERS
// Девять именованных диапазонов рейтинга от Bronze до Challenger.
// Таблица статична: определяется один раз и никогда не мутируется.
// Инвариант: диапазоны покрывают все неотрицательные рейтинги
// без разрывов и пересечений.
// ══════════════════════════════════════════════════════════════════════════════

// NoUpperBound обозначает неограниченный верхний предел последнего тира.
const NoUpperBound = shared.MMR(math.MaxInt32)

// Tier представляет именованный диапазон рейтинга с метаданными отображения.
type Tier struct {
	// Name - уникальное имя тира.
	Name string

	// MinRating - нижняя граница (включительно).
	MinRating shared.MMR

	// MaxRating - верхняя граница (включительно); NoUpperBound для последнего тира.
	MaxRating shared.MMR

	// Color - цвет для отображения (hex).
	Color string

	// Icon - иконка для отображения.
	Icon string
}

// Contains проверяет, попадает ли рейтинг в диапазон тира.
func (t Tier) Contains(mmr shared.MMR) bool {
	return mmr >= t.MinRating && mmr <= t.MaxRating
}

// IsTop возвращает true для последнего (неограниченного) тира.
func (t Tier) IsTop() bool {
	return t.MaxRating == NoUpperBound
}

// tiers - упорядоченная по возрастанию таблица тиров.
var tiers = [...]Tier{
	{Name: "Bronze", MinRating: 0, MaxRating: 999, Color: "#CD7F32", Icon: "🥉"},
	{Name: "Silver", MinRating: 1000, MaxRating: 1499, Color: "#C0C0C0", Icon: "🥈"},
	{Name: "Gold", MinRating: 1500, MaxRating: 1999, Color: "#FFD700", Icon: "🥇"},
	{Name: "Platinum", MinRating: 2000, MaxRating: 2499, Color: "#4FD1C5", Icon: "💠"},
	{Name: "Emerald", MinRating: 2500, MaxRating: 2999, Color: "#2ECC71", Icon: "💚"},
	{Name: "Diamond", MinRating: 3000, MaxRating: 3499, Color: "#5B9BD5", Icon: "💎"},
	{Name: "Master", MinRating: 3500, MaxRating: 3999, Color: "#9B59B6", Icon: "🔮"},
	{Name: "Grandmaster", MinRating: 4000, MaxRating: 4999, Color: "#E74C3C", Icon: "🔥"},
	{Name: "Challenger", MinRating: 5000, MaxRating: NoUpperBound, Color: "#F1C40F", Icon: "👑"},
}

// Tiers возвращает копию таблицы тиров (по возрастанию).
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers[:])
	return out
}

// TierFor возвращает тир, содержащий указанный рейтинг.
// Если рейтинг не попал ни в один диапазон (недостижимо при корректной
// таблице и неотрицательном рейтинге), возвращается нижний тир -
// защитное значение по умолчанию, а не ошибка.
func TierFor(mmr shared.MMR) Tier {
	for _, t := range tiers {
		if t.Contains(mmr) {
			return t
		}
	}
	return tiers[0]
}

// TierByName возвращает тир по имени и признак, что тир найден.
func TierByName(name string) (Tier, bool) {
	for _, t := range tiers {
		if t.Name == name {
			return t, true
		}
	}
	return Tier{}, false
}

// TierIndex возвращает порядковый номер тира (0 = Bronze).
// Используется для определения повышения/понижения.
func TierIndex(t Tier) int {
	for i, candidate := range tiers {
		if candidate.Name == t.Name {
			return i
		}
	}
	return 0
}
