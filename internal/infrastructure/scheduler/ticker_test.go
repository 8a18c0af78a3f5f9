package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTickSchedulerRunsImmediatelyAndOnTicks(t *testing.T) {
	t.Parallel()

	var runs atomic.Int64
	s := NewTickScheduler(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 runs, got %d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	after := runs.Load()
	time.Sleep(60 * time.Millisecond)
	if runs.Load() > after+1 {
		t.Fatalf("job kept running after stop")
	}
}

func TestTickSchedulerStopWithoutStart(t *testing.T) {
	t.Parallel()

	s := NewTickScheduler(time.Hour)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
