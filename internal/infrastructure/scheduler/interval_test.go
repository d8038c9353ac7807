package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerFiresImmediatelyAndOnTicks(t *testing.T) {
	t.Parallel()

	var count atomic.Int32
	fired := make(chan struct{}, 8)

	s := NewIntervalScheduler(10 * time.Millisecond)
	if err := s.Start(context.Background(), func(time.Time) {
		count.Add(1)
		fired <- struct{}{}
	}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop(context.Background())

	// First fire happens without waiting for the interval.
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("job did not fire at start")
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("job did not fire on tick")
	}

	if count.Load() < 2 {
		t.Fatalf("expected at least 2 runs, got %d", count.Load())
	}
}

func TestIntervalSchedulerStopHaltsJob(t *testing.T) {
	t.Parallel()

	var count atomic.Int32
	s := NewIntervalScheduler(5 * time.Millisecond)
	if err := s.Start(context.Background(), func(time.Time) { count.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	stopped := count.Load()
	time.Sleep(30 * time.Millisecond)
	if count.Load() != stopped {
		t.Fatalf("job kept running after stop: %d -> %d", stopped, count.Load())
	}
}

func TestIntervalSchedulerStartIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour)
	var count atomic.Int32
	job := func(time.Time) { count.Add(1) }

	if err := s.Start(context.Background(), job); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop(context.Background())
	if err := s.Start(context.Background(), job); err != nil {
		t.Fatalf("second start: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if got := count.Load(); got != 1 {
		t.Fatalf("expected a single immediate run, got %d", got)
	}
}

func TestIntervalSchedulerNilJob(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour)
	if err := s.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
