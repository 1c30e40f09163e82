package usecase

import (
	"context"
	"log/slog"
	"time"

	"IPOAlertBot/internal/ports"
)

// Scheduler wires the recurring-trigger driver with the reconciliation engine.
type Scheduler struct {
	driver     ports.Scheduler
	reconciler *Reconciler
	location   *time.Location
	logger     *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring passes. The trigger
// time is converted to loc before it becomes the pass's "today".
func NewScheduler(driver ports.Scheduler, reconciler *Reconciler, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, reconciler: reconciler, location: loc, logger: logger}
}

// Start registers the reconciliation pass with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.reconciler == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := s.reconciler.Reconcile(ctx, trigger.In(s.location)); err != nil {
			// Nothing was committed; the next trigger retries the whole pass.
			s.logger.Error("reconciliation pass failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
