package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsAfterInitialDelayThenPeriodically(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(20*time.Millisecond, 5*time.Millisecond)
	runs := make(chan time.Time, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, func(tr time.Time) { runs <- tr }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()

	for i := 0; i < 3; i++ {
		select {
		case <-runs:
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d never fired", i+1)
		}
	}
}

func TestIntervalSchedulerStopHaltsJobs(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(10*time.Millisecond, 0)
	runs := make(chan time.Time, 64)

	ctx := context.Background()
	if err := s.Start(ctx, func(tr time.Time) { runs <- tr }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatalf("first run never fired")
	}

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// Drain anything in flight, then verify silence.
	time.Sleep(30 * time.Millisecond)
	for len(runs) > 0 {
		<-runs
	}
	select {
	case <-runs:
		t.Fatalf("job fired after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestIntervalSchedulerStopIsIdempotentAndRestartable(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(10*time.Millisecond, 0)
	ctx := context.Background()
	runs := make(chan time.Time, 64)

	if err := s.Start(ctx, func(tr time.Time) { runs <- tr }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatalf("first run never fired")
	}

	// Stop concurrently with the running worker, then again once stopped.
	done := make(chan struct{})
	go func() {
		_ = s.Stop(ctx)
		close(done)
	}()
	<-done
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	// A stopped scheduler accepts a fresh Start.
	if err := s.Start(ctx, func(tr time.Time) { runs <- tr }); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer func() { _ = s.Stop(ctx) }()

	for len(runs) > 0 {
		<-runs
	}
	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatalf("restarted job never fired")
	}
}

func TestIntervalSchedulerIgnoresNilJobAndDoubleStart(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(10*time.Millisecond, 0)
	ctx := context.Background()

	if err := s.Start(ctx, nil); err != nil {
		t.Fatalf("Start with nil job: %v", err)
	}

	runs := make(chan time.Time, 1)
	if err := s.Start(ctx, func(tr time.Time) { runs <- tr }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = s.Stop(ctx) }()

	if err := s.Start(ctx, func(tr time.Time) { t.Error("second Start must be a no-op") }); err != nil {
		t.Fatalf("double Start: %v", err)
	}

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatalf("job never fired")
	}
}
