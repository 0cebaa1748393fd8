package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/core"
)

// CatchUpRunner runs one recurring catch-up pass.
type CatchUpRunner interface {
	CatchUp(ctx context.Context) ([]core.Transaction, error)
}

// Scheduler runs recurring catch-up on a cron schedule.
type Scheduler struct {
	runner   CatchUpRunner
	schedule string

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	runs    int
}

// NewScheduler validates schedule (standard five-field cron or a descriptor
// such as "@every 1h") and returns a stopped scheduler.
func NewScheduler(runner CatchUpRunner, schedule string) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid catch-up schedule %q: %w", schedule, err)
	}
	return &Scheduler{runner: runner, schedule: schedule}, nil
}

// Start runs one catch-up immediately and then on every tick. Returns an
// error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}

	c := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("schedule catch-up: %w", err)
	}
	s.cron = c
	s.running = true
	s.mu.Unlock()

	s.RunOnce(ctx)
	c.Start()

	slog.InfoContext(ctx, "Catch-up scheduler started", "schedule", s.schedule)
	return nil
}

// Stop halts the schedule and waits for an in-flight run or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	c := s.cron
	s.mu.Unlock()

	select {
	case <-c.Stop().Done():
		slog.InfoContext(ctx, "Catch-up scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Catch-up scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Runs reports how many catch-up passes have completed.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// RunOnce performs a single catch-up pass and returns how many
// transactions it generated. Errors are logged.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	start := time.Now()
	generated, err := s.runner.CatchUp(ctx)

	s.mu.Lock()
	s.runs++
	s.mu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Recurring catch-up failed", "error", err)
		return 0
	}
	slog.InfoContext(ctx, "Recurring catch-up pass complete",
		"generated", len(generated),
		"duration", time.Since(start))
	return len(generated)
}
