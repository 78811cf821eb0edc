// Package jobs runs the server's periodic maintenance on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Observer interface {
	ObserveJob(job string, err error)
}

type Scheduler struct {
	cron     *cron.Cron
	observer Observer
}

// NewScheduler returns a scheduler whose jobs never overlap themselves and
// whose panics are logged instead of killing the process.
func NewScheduler(obs Observer) *Scheduler {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
		observer: obs,
	}
}

// Add schedules fn under spec. Each run gets its own context bounded by
// timeout.
func (s *Scheduler) Add(spec, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, timeout, fn) }); err != nil {
		return fmt.Errorf("could not schedule %s (%q): %w", name, spec, err)
	}
	slog.Info("Scheduled job", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) run(name string, timeout time.Duration, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	if s.observer != nil {
		s.observer.ObserveJob(name, err)
	}
	if err != nil {
		slog.Error("Job failed", "job", name, "error", err, "duration", time.Since(start))
		return
	}
	slog.Info("Job finished", "job", name, "duration", time.Since(start))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		slog.Info("Scheduler stopped.")
	case <-ctx.Done():
		slog.Warn("Scheduler stop timed out with jobs still running")
	}
}
