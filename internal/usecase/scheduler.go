package usecase

import (
	"context"
	"log/slog"
	"time"

	"AEOAuditor/internal/ports"
)

// Scheduler re-audits the watched targets on every trigger of the driver.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	targets  []string
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring audits.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, targets []string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, targets: targets, logger: logger.With("component", "scheduler")}
}

// Start registers the audit job with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil || len(s.targets) == 0 {
		return nil
	}
	return s.driver.Start(ctx, func(trigger time.Time) {
		s.RunOnce(ctx, trigger)
	})
}

// RunOnce audits every target sequentially; failures are logged and skipped.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) {
	s.logger.Info("scheduled audit round", "trigger", trigger.Format(time.RFC3339), "targets", len(s.targets))
	for _, target := range s.targets {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.pipeline.RunAudit(ctx, target); err != nil {
			s.logger.Warn("scheduled audit failed", "url", target, "err", err)
		}
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
