// Package scheduler runs the worker's periodic jobs: GitHub activity sync,
// rating recomputation, team-up request expiry, notification dispatch,
// presence cleanup and the daily digest.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Job — периодическая задача воркера.
type Job interface {
	// Name возвращает уникальное имя задачи.
	Name() string

	// Run выполняет задачу. Контекст отменяется при остановке планировщика.
	Run(ctx context.Context) error

	// Description возвращает человекочитаемое описание задачи.
	Description() string
}

// Schedule определяет, когда задача должна запускаться.
type Schedule interface {
	// Next возвращает ближайший момент запуска после t.
	Next(t time.Time) time.Time

	// String возвращает читаемое представление расписания.
	String() string
}

var (
	ErrNilJob                  = errors.New("job cannot be nil")
	ErrNilSchedule             = errors.New("schedule cannot be nil")
	ErrJobAlreadyExists        = errors.New("job already exists")
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)

// SchedulerConfig настраивает планировщик.
type SchedulerConfig struct {
	// Logger для структурированных логов.
	Logger *slog.Logger

	// Timezone для вычисления расписаний (по умолчанию UTC).
	Timezone *time.Location
}

// Scheduler запускает зарегистрированные задачи по их расписаниям.
// Каждая задача живёт в собственной горутине: запуски одной задачи не
// накладываются друг на друга, следующий момент считается после завершения
// предыдущего запуска.
type Scheduler struct {
	logger   *slog.Logger
	timezone *time.Location

	mu      sync.Mutex
	entries []schedulerEntry
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type schedulerEntry struct {
	job      Job
	schedule Schedule
}

// NewScheduler создаёт планировщик с заданной конфигурацией.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}
	return &Scheduler{
		logger:   config.Logger,
		timezone: config.Timezone,
	}
}

// Register добавляет задачу. Регистрировать можно только до Start.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}
	for _, e := range s.entries {
		if e.job.Name() == job.Name() {
			return ErrJobAlreadyExists
		}
	}

	s.entries = append(s.entries, schedulerEntry{job: job, schedule: schedule})
	s.logger.Info("job registered",
		"job", job.Name(),
		"description", job.Description(),
		"schedule", schedule.String(),
	)
	return nil
}

// Start запускает горутину на каждую зарегистрированную задачу.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}
	s.running = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, e := range s.entries {
		s.wg.Add(1)
		go s.runEntry(runCtx, e)
	}

	s.logger.Info("scheduler started", "jobs_count", len(s.entries))
	return nil
}

// Stop останавливает планировщик и дожидается завершения текущих запусков.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// runEntry — цикл одной задачи: ждём срока, выполняем, считаем следующий.
func (s *Scheduler) runEntry(ctx context.Context, e schedulerEntry) {
	defer s.wg.Done()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		next := e.schedule.Next(time.Now().In(s.timezone))
		if next.IsZero() {
			s.logger.Warn("schedule yields no next run, job parked",
				"job", e.job.Name(),
				"schedule", e.schedule.String(),
			)
			return
		}
		timer.Reset(time.Until(next))

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.runJob(ctx, e.job)
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	started := time.Now()
	s.logger.Info("job started", "job", job.Name())

	err := job.Run(ctx)
	duration := time.Since(started)

	if err != nil {
		s.logger.Error("job failed",
			"job", job.Name(),
			"duration", duration.String(),
			"error", err,
		)
		return
	}
	s.logger.Info("job completed",
		"job", job.Name(),
		"duration", duration.String(),
	)
}
