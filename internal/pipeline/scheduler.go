package pipeline

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"
)

// PassRunner runs one orchestration pass.
type PassRunner interface {
	RunPass(ctx context.Context) error
}

// Scheduler drives one pass per fixed interval. The first pass runs
// immediately on start; each subsequent pass starts one full interval after
// the previous pass completed, so passes never overlap and a slow pass
// simply pushes the next one back.
type Scheduler struct {
	runner   PassRunner
	interval time.Duration
}

// NewScheduler creates a Scheduler running passes at the given interval.
func NewScheduler(runner PassRunner, interval time.Duration) *Scheduler {
	return &Scheduler{runner: runner, interval: interval}
}

// Run executes passes until ctx is cancelled. Cancellation interrupts only
// the idle wait between passes: an in-flight pass always runs to completion
// on a context detached from the cancellation signal. A pass failure is
// logged and the schedule continues; that includes panics, which must not
// take down the process.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler started", "interval", s.interval.String())

	for {
		if err := s.runPass(context.WithoutCancel(ctx)); err != nil {
			slog.Error("analysis pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-time.After(s.interval):
		}
	}
}

// runPass invokes the runner with panic containment.
func (s *Scheduler) runPass(ctx context.Context) error {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic recovered in analysis pass",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}
	}()

	return s.runner.RunPass(ctx)
}
