// Package scheduler drives the daily prediction job on a fixed UTC wall-clock
// cadence. It owns no job logic: each tick funnels into the same Runner path
// manual triggers use.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
	"github.com/couchcryptid/water-quality-monitor/internal/job"
	"github.com/couchcryptid/water-quality-monitor/internal/observability"
)

// Runner executes the daily job for a target date.
type Runner interface {
	Run(ctx context.Context, date time.Time) (job.Result, error)
}

// Scheduler fires once per day at the configured UTC time and runs the job
// for the previous calendar day. A failed or skipped run never stops the
// loop; the next cycle always fires.
type Scheduler struct {
	runner  Runner
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	hour    int
	minute  int
}

// New creates a scheduler firing daily at the given UTC wall-clock time.
func New(runner Runner, hour, minute int, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		runner:  runner,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
		hour:    hour,
		minute:  minute,
	}
}

// Run blocks until the context is cancelled, firing the daily job at each
// scheduled tick.
func (s *Scheduler) Run(ctx context.Context) error {
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	s.logger.Info("scheduler started",
		"fire_at", time.Date(0, 1, 1, s.hour, s.minute, 0, 0, time.UTC).Format("15:04"))

	for {
		now := s.clock.Now().UTC()
		next := s.nextFire(now)

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-s.clock.After(next.Sub(now)):
		}

		target := domain.Yesterday(s.clock.Now().UTC())
		res, err := s.runner.Run(ctx, target)
		if err != nil {
			// Logged in full by the runner; the cadence survives.
			s.logger.Error("scheduled run failed", "date", target.Format("2006-01-02"), "error", err)
			continue
		}
		s.logger.Info("scheduled run finished",
			"date", target.Format("2006-01-02"),
			"status", string(res.Status),
			"coalesced", res.Coalesced,
		)
	}
}

// nextFire returns the next occurrence of the configured wall-clock time
// strictly after now.
func (s *Scheduler) nextFire(now time.Time) time.Time {
	fire := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, time.UTC)
	if !fire.After(now) {
		fire = fire.AddDate(0, 0, 1)
	}
	return fire
}
