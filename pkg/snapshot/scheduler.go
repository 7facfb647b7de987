package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler regenerates snapshots on a cron schedule.
type Scheduler struct {
	generator *Generator
	writer    Writer
	schedule  string

	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool

	lastRun   time.Time
	lastCount int
	lastErr   error

	onRun func(count int, d time.Duration, err error)
}

// NewScheduler creates a scheduler that writes generator output to w.
//
// Common cron expressions:
//   - "0 */6 * * *"  - Every 6 hours
//   - "30 4 * * *"   - Daily at 04:30, after the nightly scrape
//
// An empty schedule disables scheduling; RunOnce still works.
func NewScheduler(generator *Generator, w Writer, schedule string) *Scheduler {
	return &Scheduler{
		generator: generator,
		writer:    w,
		schedule:  schedule,
		cron:      cron.New(),
		logger:    slog.Default().With("component", "snapshot.scheduler"),
	}
}

// OnRun registers fn to be called after every generation.
func (s *Scheduler) OnRun(fn func(count int, d time.Duration, err error)) {
	s.mu.Lock()
	s.onRun = fn
	s.mu.Unlock()
}

// Start schedules regeneration and returns. Jobs stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("snapshot schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule snapshot generation: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("snapshot scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce regenerates snapshots immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	s.logger.Info("starting snapshot generation")

	n, err := s.generator.Run(ctx, s.writer)

	s.mu.Lock()
	s.lastRun = start
	s.lastCount = n
	s.lastErr = err
	onRun := s.onRun
	s.mu.Unlock()

	if onRun != nil {
		onRun(n, time.Since(start), err)
	}

	if err != nil {
		s.logger.Error("snapshot generation failed", "error", err)
		return 0, err
	}

	s.logger.Info("snapshot generation completed",
		"count", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return n, nil
}

// Stop stops the scheduler and waits for a running generation to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		ctx := s.cron.Stop()
		s.mu.Unlock()
		<-ctx.Done()
		s.mu.Lock()
		s.running = false
		s.logger.Info("snapshot scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled generation, or nil.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}

// LastRun reports the start time, snapshot count and error of the latest
// generation.
func (s *Scheduler) LastRun() (time.Time, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastCount, s.lastErr
}
