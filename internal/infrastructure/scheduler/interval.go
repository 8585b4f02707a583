package scheduler

import (
	"context"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

// IntervalScheduler runs a job on a fixed ticker, firing once immediately
// on start.
type IntervalScheduler struct {
	stop chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds an idle scheduler.
func NewIntervalScheduler() *IntervalScheduler {
	return &IntervalScheduler{}
}

// Start begins ticking. A second Start on a running scheduler is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, interval time.Duration, job func(time.Time)) error {
	if job == nil || interval <= 0 {
		return nil
	}
	if s.stop != nil {
		return nil
	}

	// The goroutine reads a captured channel so Stop clearing the field
	// cannot race the select.
	stop := make(chan struct{})
	s.stop = stop
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		job(time.Now())
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

// Stop halts the ticker goroutine.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
