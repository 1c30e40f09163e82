package scheduler

import (
	"context"
	"sync"
	"time"

	"IPOAlertBot/internal/ports"
)

// IntervalScheduler fires a job on a fixed period after a short startup
// delay, matching the recurring-trigger contract: first run soon after boot,
// then one reconciliation pass per period.
type IntervalScheduler struct {
	period       time.Duration
	initialDelay time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler with the given period and first-run delay.
func NewIntervalScheduler(period, initialDelay time.Duration) *IntervalScheduler {
	if period <= 0 {
		period = 24 * time.Hour
	}
	return &IntervalScheduler{period: period, initialDelay: initialDelay}
}

// Start begins the recurring job; calling Start twice is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go func() {
		select {
		case <-time.After(s.initialDelay):
		case <-ctx.Done():
			return
		case <-stop:
			return
		}

		job(time.Now())

		ticker := time.NewTicker(s.period)
		defer ticker.Stop()
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine; safe to call more than once.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
