// Package worker runs the two background timers: the expiration sweeper and
// the follow-up scheduler. Both run their work synchronously inside the tick
// loop and discard any tick that arrived mid-run, so an invocation never
// overlaps or queues behind itself.
package worker

import (
	"context"
	"time"

	"github.com/goldtouchmobile/booking-relay/internal/booking"
	"github.com/goldtouchmobile/booking-relay/internal/lifecycle"
	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

// Sweeper expires PENDING bookings whose response deadline passed.
type Sweeper struct {
	repo     booking.Repository
	machine  *lifecycle.Machine
	interval time.Duration
	lookback time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

// NewSweeper creates an expiration sweeper.
func NewSweeper(repo booking.Repository, machine *lifecycle.Machine, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		repo:     repo,
		machine:  machine,
		interval: time.Minute,
		lookback: 24 * time.Hour,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithInterval overrides the tick interval.
func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	if d > 0 {
		s.interval = d
	}
	return s
}

// WithLookback overrides how far back expired rows are considered. The bound
// exists so a long outage doesn't replay ancient rows on restart.
func (s *Sweeper) WithLookback(d time.Duration) *Sweeper {
	if d > 0 {
		s.lookback = d
	}
	return s
}

// WithClock overrides the time source for tests.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	if now != nil {
		s.now = now
	}
	return s
}

// Run ticks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
			// Discard a tick that fired while sweeping; late work is
			// skipped, not queued.
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

// Sweep runs one pass. Returns the number of bookings expired. A failure on
// one row never aborts the rest of the batch.
func (s *Sweeper) Sweep(ctx context.Context) int {
	now := s.now()
	due, err := s.repo.ListExpirable(ctx, now, now.Add(-s.lookback))
	if err != nil {
		s.logger.Error("sweeper: list expirable failed", "error", err)
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	s.logger.Info("sweeper: expiring overdue bookings", "count", len(due))

	expired := 0
	for i := range due {
		b := &due[i]
		if err := s.machine.Expire(ctx, b, now); err != nil {
			s.logger.Error("sweeper: expire failed", "booking_id", b.ID, "error", err)
			continue
		}
		expired++
	}
	return expired
}
