package scheduler

import (
	"context"
	"time"

	"CredentialScanner/internal/ports"
)

// TickScheduler drives maintenance jobs off a fixed-interval ticker. The
// bound job decides per tick what actually runs, so a daily interval is
// enough for both daily and first-of-month work.
type TickScheduler struct {
	interval time.Duration
	stop     chan struct{}
}

var _ ports.Scheduler = (*TickScheduler)(nil)

// NewTickScheduler builds a scheduler firing at the given interval.
func NewTickScheduler(interval time.Duration) *TickScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &TickScheduler{interval: interval}
}

// Start runs the job once immediately, then on every tick until the context
// is cancelled or Stop is called.
func (s *TickScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (s *TickScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
