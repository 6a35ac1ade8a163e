package worker

import (
	"context"
	"time"

	"github.com/goldtouchmobile/booking-relay/internal/audit"
	"github.com/goldtouchmobile/booking-relay/internal/booking"
	"github.com/goldtouchmobile/booking-relay/internal/notify"
	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

// FollowupScheduler sends the once-only post-service check-ins: a review
// request to the customer and a completion check to the provider.
type FollowupScheduler struct {
	repo     booking.Repository
	notifier *notify.Dispatcher
	interval time.Duration
	buffer   time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

// NewFollowupScheduler creates the follow-up scheduler.
func NewFollowupScheduler(repo booking.Repository, notifier *notify.Dispatcher, logger *logging.Logger) *FollowupScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &FollowupScheduler{
		repo:     repo,
		notifier: notifier,
		interval: 5 * time.Minute,
		buffer:   30 * time.Minute,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithInterval overrides the tick interval.
func (f *FollowupScheduler) WithInterval(d time.Duration) *FollowupScheduler {
	if d > 0 {
		f.interval = d
	}
	return f
}

// WithBuffer overrides the slack added after the estimated service end.
func (f *FollowupScheduler) WithBuffer(d time.Duration) *FollowupScheduler {
	if d > 0 {
		f.buffer = d
	}
	return f
}

// WithClock overrides the time source for tests.
func (f *FollowupScheduler) WithClock(now func() time.Time) *FollowupScheduler {
	if now != nil {
		f.now = now
	}
	return f
}

// Run ticks until the context is cancelled. Same skip-not-queue discipline
// as the sweeper.
func (f *FollowupScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.Process(ctx)
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

// Process runs one pass. Returns the number of bookings followed up.
func (f *FollowupScheduler) Process(ctx context.Context) int {
	now := f.now()
	confirmed, err := f.repo.ListConfirmedScheduledBefore(ctx, now)
	if err != nil {
		f.logger.Error("followup: list confirmed failed", "error", err)
		return 0
	}

	sent := 0
	for i := range confirmed {
		b := &confirmed[i]
		endsAt := b.ScheduledAt.Add(parseServiceDuration(b.ServiceType)).Add(f.buffer)
		if endsAt.After(now) {
			continue
		}
		if f.processOne(ctx, b) {
			sent++
		}
	}
	return sent
}

// processOne sends both check-in legs and writes the audit entry afterwards.
// Both sends are attempted even if the first fails; the audit entry is only
// written once both attempts were made, so a crash mid-pair lets a later tick
// retry instead of silently dropping a leg.
func (f *FollowupScheduler) processOne(ctx context.Context, b *booking.Booking) bool {
	subject := b.ID.String()
	already, err := f.notifier.AlreadySent(ctx, subject, audit.KindFollowup)
	if err != nil {
		f.logger.Error("followup: audit check failed", "booking_id", b.ID, "error", err)
		return false
	}
	if already {
		return false
	}

	if err := f.notifier.Send(ctx, b.CustomerPhone, notify.CustomerReviewRequest(b)); err != nil {
		f.logger.Error("followup: review request failed", "booking_id", b.ID, "error", err)
	}
	if err := f.notifier.Send(ctx, b.ProviderPhone, notify.ProviderCompletionCheck(b)); err != nil {
		f.logger.Error("followup: completion check failed", "booking_id", b.ID, "error", err)
	}

	if _, err := f.notifier.MarkSent(ctx, subject, audit.KindFollowup); err != nil {
		f.logger.Error("followup: audit write failed", "booking_id", b.ID, "error", err)
		return false
	}

	f.logger.Info("followup: check-ins sent", "booking_id", b.ID)
	return true
}
