package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule — запуск с фиксированным шагом от момента
// завершения предыдущего прогона.
type IntervalSchedule struct {
	interval time.Duration
}

func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{interval: interval}
}

// Next возвращает нулевое время для неположительного шага: планировщик
// паркует такую задачу вместо busy-loop.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	if s.interval <= 0 {
		return time.Time{}
	}
	return t.Add(s.interval)
}

func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.interval)
}
