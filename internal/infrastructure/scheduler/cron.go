package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronExpression — расписание в стандартном 5-польном cron-формате
// (минута час день-месяца месяц день-недели). Реализует Schedule, поэтому
// регистрируется в планировщике наравне с интервальными расписаниями.
//
// Поддерживаются *, */n, n, n-m и списки через запятую. Этого хватает для
// всех расписаний хаба: дайджест уходит по "0 9 * * *" и похожим выражениям.
type CronExpression struct {
	raw      string
	minutes  fieldSet // 0-59
	hours    fieldSet // 0-23
	days     fieldSet // 1-31
	months   fieldSet // 1-12
	weekdays fieldSet // 0-6, где 0 — воскресенье
}

// fieldSet хранит допустимые значения поля битовой маской.
type fieldSet uint64

func (s fieldSet) has(v int) bool { return s&(1<<uint(v)) != 0 }

// ParseCronExpression разбирает строку cron-выражения.
func ParseCronExpression(expr string) (*CronExpression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid cron expression: expected 5 fields, got %d", len(fields))
	}

	bounds := []struct {
		name     string
		min, max int
	}{
		{"minute", 0, 59},
		{"hour", 0, 23},
		{"day", 1, 31},
		{"month", 1, 12},
		{"weekday", 0, 6},
	}

	ce := &CronExpression{raw: expr}
	dst := []*fieldSet{&ce.minutes, &ce.hours, &ce.days, &ce.months, &ce.weekdays}
	for i, b := range bounds {
		set, err := parseField(fields[i], b.min, b.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", b.name, err)
		}
		*dst[i] = set
	}
	return ce, nil
}

// parseField разбирает одно поле в битовую маску допустимых значений.
func parseField(field string, min, max int) (fieldSet, error) {
	var set fieldSet

	// Список обрабатываем первым: каждый элемент разбирается отдельно.
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)

		step := 1
		if base, stepStr, ok := strings.Cut(part, "/"); ok {
			s, err := strconv.Atoi(stepStr)
			if err != nil || s <= 0 {
				return 0, fmt.Errorf("invalid step value: %s", stepStr)
			}
			step = s
			part = base
		}

		start, end := min, max
		switch {
		case part == "*":
			// полный диапазон
		case strings.Contains(part, "-"):
			lo, hi, _ := strings.Cut(part, "-")
			var err error
			if start, err = strconv.Atoi(lo); err != nil {
				return 0, fmt.Errorf("invalid range start: %s", lo)
			}
			if end, err = strconv.Atoi(hi); err != nil {
				return 0, fmt.Errorf("invalid range end: %s", hi)
			}
		default:
			v, err := strconv.Atoi(part)
			if err != nil {
				return 0, fmt.Errorf("invalid value: %s", part)
			}
			if v < min || v > max {
				return 0, fmt.Errorf("value out of range [%d-%d]: %d", min, max, v)
			}
			start, end = v, v
			if step > 1 {
				// "n/s" означает «от n до конца диапазона с шагом s».
				end = max
			}
		}

		for v := start; v <= end; v += step {
			if v >= min && v <= max {
				set |= 1 << uint(v)
			}
		}
	}

	if set == 0 {
		return 0, fmt.Errorf("empty field: %s", field)
	}
	return set, nil
}

// String возвращает исходное выражение.
func (ce *CronExpression) String() string { return ce.raw }

// Next возвращает ближайший момент после after, попадающий в расписание.
// Дни, не проходящие по дате, пропускаются целиком, внутри подходящего дня
// перебираются минуты.
func (ce *CronExpression) Next(after time.Time) time.Time {
	t := after.Add(time.Minute).Truncate(time.Minute)

	// Год вперёд достаточно: любое валидное выражение сработает раньше.
	horizon := t.AddDate(1, 0, 1)

	for t.Before(horizon) {
		if !ce.matchesDate(t) {
			t = t.AddDate(0, 0, 1)
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			continue
		}
		if !ce.hours.has(t.Hour()) {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
			continue
		}
		if !ce.minutes.has(t.Minute()) {
			t = t.Add(time.Minute)
			continue
		}
		return t
	}

	return time.Time{}
}

func (ce *CronExpression) matchesDate(t time.Time) bool {
	return ce.months.has(int(t.Month())) &&
		ce.days.has(t.Day()) &&
		ce.weekdays.has(int(t.Weekday()))
}
