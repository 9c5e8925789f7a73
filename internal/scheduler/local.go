package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/haasonsaas/shipyard/internal/domain"
)

type localJob struct {
	schedule  *domain.Schedule
	nextRun   time.Time
	lastRun   time.Time
	lastError string
}

// Local runs schedules in-process on a ticking clock.
type Local struct {
	run          JobFunc
	logger       *slog.Logger
	now          func() time.Time
	tickInterval time.Duration

	mu      sync.Mutex
	jobs    map[string]*localJob
	started bool
	wg      sync.WaitGroup
}

// Option configures the local scheduler.
type Option func(*Local)

// WithLogger configures the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Local) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithNow overrides the clock for tests.
func WithNow(now func() time.Time) Option {
	return func(l *Local) {
		if now != nil {
			l.now = now
		}
	}
}

// WithTickInterval overrides the scheduler tick interval.
func WithTickInterval(interval time.Duration) Option {
	return func(l *Local) {
		if interval > 0 {
			l.tickInterval = interval
		}
	}
}

// NewLocal builds the in-process scheduler. run executes due schedules.
func NewLocal(run JobFunc, opts ...Option) *Local {
	l := &Local{
		run:          run,
		logger:       slog.Default().With("component", "scheduler"),
		now:          time.Now,
		tickInterval: time.Second,
		jobs:         make(map[string]*localJob),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start begins running due schedules until the context is cancelled.
func (l *Local) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return nil
	}
	l.started = true
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.runDue(ctx)
			}
		}
	}()
	return nil
}

// Stop waits for the tick loop to drain.
func (l *Local) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Create registers a schedule and computes its first run.
func (l *Local) Create(ctx context.Context, s *domain.Schedule) error {
	sched, err := cronParser.Parse(s.CronExpression)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	copied := *s
	job := &localJob{schedule: &copied}
	if s.Enabled {
		job.nextRun = sched.Next(l.now())
	}
	l.mu.Lock()
	l.jobs[s.ScheduleID] = job
	l.mu.Unlock()
	return nil
}

// Update replaces an existing registration.
func (l *Local) Update(ctx context.Context, s *domain.Schedule) error {
	return l.Create(ctx, s)
}

// Remove drops a registration.
func (l *Local) Remove(ctx context.Context, scheduleID string) error {
	l.mu.Lock()
	delete(l.jobs, scheduleID)
	l.mu.Unlock()
	return nil
}

// Run triggers a schedule immediately and reschedules its next run.
func (l *Local) Run(ctx context.Context, scheduleID string) error {
	l.mu.Lock()
	job, ok := l.jobs[scheduleID]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("schedule not found: %s", scheduleID)
	}
	return l.execute(ctx, job, l.now())
}

// RunOnce executes due schedules immediately (primarily for tests).
func (l *Local) RunOnce(ctx context.Context) int {
	return l.runDue(ctx)
}

// NextRun reports the computed next run for a schedule, if registered.
func (l *Local) NextRun(scheduleID string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	job, ok := l.jobs[scheduleID]
	if !ok {
		return time.Time{}, false
	}
	return job.nextRun, !job.nextRun.IsZero()
}

func (l *Local) runDue(ctx context.Context) int {
	now := l.now()
	l.mu.Lock()
	due := make([]*localJob, 0, len(l.jobs))
	for _, job := range l.jobs {
		if job.schedule.Enabled && !job.nextRun.IsZero() && !now.Before(job.nextRun) {
			due = append(due, job)
		}
	}
	l.mu.Unlock()

	count := 0
	for _, job := range due {
		if err := l.execute(ctx, job, now); err != nil {
			l.logger.Warn("scheduled job failed",
				"schedule", job.schedule.ScheduleID, "error", err)
		}
		count++
	}
	return count
}

func (l *Local) execute(ctx context.Context, job *localJob, now time.Time) error {
	err := l.run(ctx, job.schedule)

	l.mu.Lock()
	job.lastRun = now
	if err != nil {
		job.lastError = err.Error()
	} else {
		job.lastError = ""
	}
	if sched, parseErr := cronParser.Parse(job.schedule.CronExpression); parseErr == nil {
		job.nextRun = sched.Next(now)
	} else {
		job.nextRun = time.Time{}
	}
	l.mu.Unlock()
	return err
}
