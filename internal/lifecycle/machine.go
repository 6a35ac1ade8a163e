// Package lifecycle owns booking status transitions. Every transition is
// guarded by a status precondition in the store, so retried deliveries and
// duplicate sweeps land as logged no-ops instead of double-processing.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goldtouchmobile/booking-relay/internal/booking"
	"github.com/goldtouchmobile/booking-relay/internal/directory"
	"github.com/goldtouchmobile/booking-relay/internal/notify"
	"github.com/goldtouchmobile/booking-relay/internal/observability/metrics"
	"github.com/goldtouchmobile/booking-relay/internal/payments"
	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

// Machine applies booking transitions and sends the resulting notifications.
type Machine struct {
	repo      booking.Repository
	providers directory.Directory
	notifier  *notify.Dispatcher
	checkout  payments.CheckoutLinkCreator
	metrics   *metrics.RelayMetrics
	logger    *logging.Logger
}

// NewMachine creates a state machine. checkout may be nil; confirmations then
// go out without a payment link.
func NewMachine(repo booking.Repository, providers directory.Directory, notifier *notify.Dispatcher, checkout payments.CheckoutLinkCreator, logger *logging.Logger) *Machine {
	if repo == nil {
		panic("lifecycle: repository cannot be nil")
	}
	if notifier == nil {
		panic("lifecycle: notifier cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Machine{repo: repo, providers: providers, notifier: notifier, checkout: checkout, logger: logger}
}

// WithMetrics attaches transition counters.
func (m *Machine) WithMetrics(rm *metrics.RelayMetrics) *Machine {
	m.metrics = rm
	return m
}

// transition performs the conditional status move. Returns false (and logs)
// when the booking is no longer in the source status.
func (m *Machine) transition(ctx context.Context, b *booking.Booking, from, to booking.Status) (bool, error) {
	if err := m.repo.UpdateStatus(ctx, b.ID, from, to); err != nil {
		if errors.Is(err, booking.ErrStateConflict) {
			m.logger.Info("transition skipped, booking not in required status",
				"booking_id", b.ID, "from", string(from), "to", string(to))
			return false, nil
		}
		return false, fmt.Errorf("lifecycle: %s -> %s: %w", from, to, err)
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	m.metrics.ObserveTransition(string(to))
	return true, nil
}

// Accept confirms a PENDING booking and notifies both sides. A missing or
// failing payment link never blocks the confirmation.
func (m *Machine) Accept(ctx context.Context, b *booking.Booking) error {
	moved, err := m.transition(ctx, b, booking.StatusPending, booking.StatusConfirmed)
	if err != nil || !moved {
		return err
	}

	providerName := m.providerName(ctx, b.ProviderID)

	var paymentURL string
	if m.checkout != nil {
		url, err := m.checkout.CreateCheckoutLink(ctx, b)
		if err != nil {
			m.logger.Warn("checkout link unavailable, confirming without payment link",
				"booking_id", b.ID, "error", err)
		} else {
			paymentURL = url
		}
	}

	if err := m.notifier.Send(ctx, b.ProviderPhone, notify.ProviderConfirmedDetails(b)); err != nil {
		m.logger.Error("failed to send provider confirmation details", "booking_id", b.ID, "error", err)
	}
	if err := m.notifier.Send(ctx, b.CustomerPhone, notify.CustomerConfirmed(providerName, b, paymentURL)); err != nil {
		m.logger.Error("failed to send customer confirmation", "booking_id", b.ID, "error", err)
	}

	m.logger.Info("booking confirmed", "booking_id", b.ID, "provider_id", b.ProviderID)
	return nil
}

// Decline rejects a PENDING booking and points the customer at rebooking.
func (m *Machine) Decline(ctx context.Context, b *booking.Booking) error {
	moved, err := m.transition(ctx, b, booking.StatusPending, booking.StatusRejected)
	if err != nil || !moved {
		return err
	}

	if err := m.notifier.Send(ctx, b.CustomerPhone, notify.RebookingMessage); err != nil {
		m.logger.Error("failed to send rebooking message", "booking_id", b.ID, "error", err)
	}
	if err := m.notifier.Send(ctx, b.ProviderPhone, notify.DeclineAckMessage); err != nil {
		m.logger.Error("failed to send decline ack", "booking_id", b.ID, "error", err)
	}

	m.logger.Info("booking rejected", "booking_id", b.ID, "provider_id", b.ProviderID)
	return nil
}

// Expire times out a PENDING booking whose deadline has passed. The customer
// gets the same rebooking message as a decline.
func (m *Machine) Expire(ctx context.Context, b *booking.Booking, now time.Time) error {
	if now.Before(b.ResponseDeadline) {
		m.logger.Warn("expire called before deadline, skipping",
			"booking_id", b.ID, "deadline", b.ResponseDeadline)
		return nil
	}
	moved, err := m.transition(ctx, b, booking.StatusPending, booking.StatusExpired)
	if err != nil || !moved {
		return err
	}

	if err := m.notifier.Send(ctx, b.CustomerPhone, notify.RebookingMessage); err != nil {
		m.logger.Error("failed to send expiration rebooking message", "booking_id", b.ID, "error", err)
	}

	m.logger.Info("booking expired", "booking_id", b.ID, "deadline", b.ResponseDeadline)
	return nil
}

// RequestCancellation moves a CONFIRMED booking to CANCELLATION_REQUESTED and
// alerts the provider.
func (m *Machine) RequestCancellation(ctx context.Context, b *booking.Booking) error {
	moved, err := m.transition(ctx, b, booking.StatusConfirmed, booking.StatusCancellationRequested)
	if err != nil || !moved {
		return err
	}

	if err := m.notifier.Send(ctx, b.ProviderPhone, notify.ProviderCancellationNotice(b)); err != nil {
		m.logger.Error("failed to send cancellation notice", "booking_id", b.ID, "error", err)
	}

	m.logger.Info("cancellation requested", "booking_id", b.ID, "provider_id", b.ProviderID)
	return nil
}

func (m *Machine) providerName(ctx context.Context, providerID string) string {
	if m.providers == nil {
		return "the provider"
	}
	p, err := m.providers.GetByID(ctx, providerID)
	if err != nil {
		m.logger.Warn("provider lookup failed for confirmation message", "provider_id", providerID, "error", err)
		return "the provider"
	}
	return p.Name
}
