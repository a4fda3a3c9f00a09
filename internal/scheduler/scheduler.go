package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TaskFunc is one schedulable unit of work
type TaskFunc func(ctx context.Context) error

type task struct {
	name     string
	schedule cron.Schedule
	grace    time.Duration
	run      TaskFunc
	running  atomic.Bool
}

// Scheduler fires registered tasks on interval or cron schedules. Each task
// runs on its own timer loop; a firing that wakes later than its grace
// window is dropped, and a firing that overlaps a still-running execution
// of the same task is skipped.
type Scheduler struct {
	tasks  []*task
	loc    *time.Location
	logger *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	runWG  sync.WaitGroup
}

// New creates a scheduler firing in the given timezone
func New(loc *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{loc: loc, logger: logger}
}

// intervalSchedule fires a fixed duration after each evaluation, without
// the second-granularity rounding of cron's constant-delay schedule
type intervalSchedule struct {
	every time.Duration
}

func (s intervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.every)
}

// AddInterval registers a task firing every d
func (s *Scheduler) AddInterval(name string, d time.Duration, grace time.Duration, run TaskFunc) {
	s.add(name, intervalSchedule{every: d}, grace, run)
}

// AddCron registers a task on a standard 5-field cron expression, evaluated
// in the scheduler timezone
func (s *Scheduler) AddCron(name string, spec string, grace time.Duration, run TaskFunc) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return err
	}
	s.add(name, schedule, grace, run)
	return nil
}

func (s *Scheduler) add(name string, schedule cron.Schedule, grace time.Duration, run TaskFunc) {
	s.tasks = append(s.tasks, &task{
		name:     name,
		schedule: schedule,
		grace:    grace,
		run:      run,
	})
}

// RunAll executes every registered task once, sequentially. A failing task
// is logged and does not block the rest.
func (s *Scheduler) RunAll(ctx context.Context) {
	for _, t := range s.tasks {
		if ctx.Err() != nil {
			return
		}
		if err := t.run(ctx); err != nil {
			s.logger.Error("Initial task run failed",
				zap.String("task", t.name),
				zap.Error(err))
		}
	}
}

// Start launches one timer loop per task. It returns immediately; call
// Stop to cancel the loops and wait for in-flight runs.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
	s.logger.Info("Scheduler started", zap.Int("tasks", len(s.tasks)))
}

// Stop cancels all task loops and waits for running tasks to return
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.runWG.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, t *task) {
	defer s.wg.Done()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		next := t.schedule.Next(time.Now().In(s.loc))
		timer.Reset(time.Until(next))

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		now := time.Now().In(s.loc)
		if late := now.Sub(next); late > t.grace {
			s.logger.Warn("Dropping misfired task",
				zap.String("task", t.name),
				zap.Time("scheduled_at", next),
				zap.Duration("late", late))
			continue
		}

		if !t.running.CompareAndSwap(false, true) {
			s.logger.Warn("Skipping overlapping task run",
				zap.String("task", t.name),
				zap.Time("scheduled_at", next))
			continue
		}

		s.runWG.Add(1)
		go func() {
			defer s.runWG.Done()
			defer t.running.Store(false)
			if err := t.run(ctx); err != nil {
				s.logger.Error("Task run failed",
					zap.String("task", t.name),
					zap.Error(err))
			}
		}()
	}
}
