package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs chan struct{}
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job" }

func (j *countingJob) Run(ctx context.Context) error {
	select {
	case j.runs <- struct{}{}:
	default:
	}
	return j.err
}

func newCountingJob(name string) *countingJob {
	return &countingJob{name: name, runs: make(chan struct{}, 16)}
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})

	t.Run("nil job rejected", func(t *testing.T) {
		err := s.Register(nil, NewIntervalSchedule(time.Minute))
		assert.ErrorIs(t, err, ErrNilJob)
	})

	t.Run("nil schedule rejected", func(t *testing.T) {
		err := s.Register(newCountingJob("a"), nil)
		assert.ErrorIs(t, err, ErrNilSchedule)
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		require.NoError(t, s.Register(newCountingJob("dup"), NewIntervalSchedule(time.Minute)))
		err := s.Register(newCountingJob("dup"), NewIntervalSchedule(time.Minute))
		assert.ErrorIs(t, err, ErrJobAlreadyExists)
	})
}

func TestScheduler_RunsJobsOnSchedule(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	job := newCountingJob("ticker")
	require.NoError(t, s.Register(job, NewIntervalSchedule(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	for i := 0; i < 2; i++ {
		select {
		case <-job.runs:
		case <-time.After(2 * time.Second):
			t.Fatalf("job did not run (iteration %d)", i)
		}
	}
}

func TestScheduler_Lifecycle(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	require.NoError(t, s.Register(newCountingJob("idle"), NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	// После запуска новые задачи не принимаются.
	err := s.Register(newCountingJob("late"), NewIntervalSchedule(time.Hour))
	assert.ErrorIs(t, err, ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_FailingJobKeepsRunning(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	job := newCountingJob("flaky")
	job.err = errors.New("boom")
	require.NoError(t, s.Register(job, NewIntervalSchedule(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	// Ошибка запуска не останавливает расписание.
	for i := 0; i < 2; i++ {
		select {
		case <-job.runs:
		case <-time.After(2 * time.Second):
			t.Fatal("failing job stopped being scheduled")
		}
	}
}
