// Package inbound classifies each incoming SMS and dispatches it to the
// booking lifecycle, the follow-up acknowledgments, the support fallback, or
// the unknown-sender redirect.
package inbound

import (
	"context"
	"errors"
	"time"

	"github.com/goldtouchmobile/booking-relay/internal/audit"
	"github.com/goldtouchmobile/booking-relay/internal/booking"
	"github.com/goldtouchmobile/booking-relay/internal/directory"
	"github.com/goldtouchmobile/booking-relay/internal/lifecycle"
	"github.com/goldtouchmobile/booking-relay/internal/messaging"
	"github.com/goldtouchmobile/booking-relay/internal/notify"
	"github.com/goldtouchmobile/booking-relay/internal/support"
	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

// Outcome labels how a message was classified. Exposed for logging, metrics
// and tests.
type Outcome string

const (
	OutcomeDropped         Outcome = "dropped"
	OutcomeAccepted        Outcome = "accepted"
	OutcomeDeclined        Outcome = "declined"
	OutcomeProviderMessage Outcome = "provider_message"
	OutcomeFollowupAck     Outcome = "followup_ack"
	OutcomeCancellation    Outcome = "cancellation"
	OutcomeCustomerMessage Outcome = "customer_message"
	OutcomeRedirect        Outcome = "redirect"
	OutcomeRedirectSeen    Outcome = "redirect_already_sent"
)

// Config holds the router's time windows.
type Config struct {
	// AcceptanceWindow bounds how long after creation a provider reply may
	// bind the booking as an accept/decline.
	AcceptanceWindow time.Duration
	// CancellationLookback bounds how far back a customer cancellation can
	// reach for a confirmed booking.
	CancellationLookback time.Duration
}

// DefaultConfig returns the production windows.
func DefaultConfig() Config {
	return Config{
		AcceptanceWindow:     30 * time.Minute,
		CancellationLookback: 7 * 24 * time.Hour,
	}
}

// Router resolves sender identity and intent for each inbound text.
type Router struct {
	repo      booking.Repository
	providers directory.Directory
	machine   *lifecycle.Machine
	notifier  *notify.Dispatcher
	responder *support.Responder
	cfg       Config
	logger    *logging.Logger
}

// NewRouter creates a router.
func NewRouter(repo booking.Repository, providers directory.Directory, machine *lifecycle.Machine, notifier *notify.Dispatcher, responder *support.Responder, cfg Config, logger *logging.Logger) *Router {
	if repo == nil {
		panic("inbound: repository cannot be nil")
	}
	if machine == nil {
		panic("inbound: lifecycle machine cannot be nil")
	}
	if notifier == nil {
		panic("inbound: notifier cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.AcceptanceWindow <= 0 {
		cfg.AcceptanceWindow = DefaultConfig().AcceptanceWindow
	}
	if cfg.CancellationLookback <= 0 {
		cfg.CancellationLookback = DefaultConfig().CancellationLookback
	}
	return &Router{
		repo:      repo,
		providers: providers,
		machine:   machine,
		notifier:  notifier,
		responder: responder,
		cfg:       cfg,
		logger:    logger,
	}
}

// Route classifies one inbound message. Classification order matters: the
// provider accept/decline check runs first and exclusively, so a phone that
// is both a provider and a past customer is treated as the provider.
func (r *Router) Route(ctx context.Context, senderPhone, rawText string, receivedAt time.Time) (Outcome, error) {
	phone := messaging.NormalizeE164(senderPhone)
	if phone == "" {
		r.logger.Warn("inbound message with unusable sender, dropping", "sender", senderPhone)
		return OutcomeDropped, nil
	}

	body := normalizeBody(rawText)
	if isTransportArtifact(body) {
		r.logger.Info("transport artifact dropped", "phone", phone)
		return OutcomeDropped, nil
	}

	// Step 1: provider accept/decline candidate.
	outcome, handled, err := r.routeProviderDecision(ctx, phone, body, receivedAt)
	if handled || err != nil {
		return outcome, err
	}

	// Step 2: known provider, free-form message.
	if r.providers != nil {
		provider, err := r.providers.GetByPhone(ctx, phone)
		switch {
		case err == nil:
			return r.routeProviderFreeform(ctx, provider, body, rawText)
		case !errors.Is(err, directory.ErrProviderNotFound):
			r.logger.Error("provider lookup failed", "phone", phone, "error", err)
			return OutcomeDropped, err
		}
	}

	// Step 3: verified customer.
	known, err := r.repo.HasCustomerHistory(ctx, phone)
	if err != nil {
		r.logger.Error("customer history lookup failed", "phone", phone, "error", err)
		return OutcomeDropped, err
	}
	if known {
		return r.routeCustomerMessage(ctx, phone, body, rawText, receivedAt)
	}

	// Step 4: unknown sender gets a single redirect, ever.
	return r.routeUnknownSender(ctx, phone)
}

// routeProviderDecision handles step 1. handled is false when no eligible
// PENDING booking exists for the sender, or when the sender's first reply was
// not a Y/N and the message should fall through as a free-form provider text.
func (r *Router) routeProviderDecision(ctx context.Context, phone, body string, receivedAt time.Time) (Outcome, bool, error) {
	windowStart := receivedAt.Add(-r.cfg.AcceptanceWindow)
	candidates, err := r.repo.PendingByProviderPhone(ctx, phone, windowStart)
	if err != nil {
		r.logger.Error("pending booking lookup failed", "phone", phone, "error", err)
		return OutcomeDropped, true, err
	}

	var target *booking.Booking
	for i := range candidates {
		c := &candidates[i]
		if c.ProviderResponded {
			continue
		}
		if target == nil {
			target = c
			continue
		}
		// Newest-first ordering makes any later match an older booking:
		// skipped, logged, never merged.
		r.logger.Warn("older pending booking skipped for provider reply",
			"phone", phone, "skipped_booking_id", c.ID, "matched_booking_id", target.ID)
	}
	if target == nil {
		return "", false, nil
	}

	switch {
	case isAccept(body):
		if err := r.machine.Accept(ctx, target); err != nil {
			return OutcomeAccepted, true, err
		}
		return OutcomeAccepted, true, nil
	case isDecline(body):
		if err := r.machine.Decline(ctx, target); err != nil {
			return OutcomeDeclined, true, err
		}
		return OutcomeDeclined, true, nil
	default:
		// First reply was not a Y/N: burn the accept/decline slot for good,
		// then treat the text as a free-form provider message.
		if err := r.repo.MarkProviderResponded(ctx, target.ID); err != nil {
			r.logger.Error("failed to burn accept slot", "booking_id", target.ID, "error", err)
		} else {
			r.logger.Info("provider first reply was not Y/N, accept slot burned",
				"booking_id", target.ID, "phone", phone)
		}
		return "", false, nil
	}
}

func (r *Router) routeProviderFreeform(ctx context.Context, provider *directory.Provider, body, rawText string) (Outcome, error) {
	switch {
	case isCompletionAck(body):
		if err := r.notifier.Send(ctx, provider.Phone, notify.CompletedAckMessage); err != nil {
			r.logger.Error("failed to send completion ack", "provider_id", provider.ID, "error", err)
		}
		return OutcomeFollowupAck, nil
	case isIssueAck(body):
		if err := r.notifier.Send(ctx, provider.Phone, notify.IssueAckMessage); err != nil {
			r.logger.Error("failed to send issue ack", "provider_id", provider.ID, "error", err)
		}
		return OutcomeFollowupAck, nil
	}

	reply := r.respond(ctx, rawText, support.RoleProvider)
	if err := r.notifier.Send(ctx, provider.Phone, reply); err != nil {
		r.logger.Error("failed to send provider support reply", "provider_id", provider.ID, "error", err)
	}
	return OutcomeProviderMessage, nil
}

func (r *Router) routeCustomerMessage(ctx context.Context, phone, body, rawText string, receivedAt time.Time) (Outcome, error) {
	if hasCancellationSignal(body) {
		lookback := receivedAt.Add(-r.cfg.CancellationLookback)
		b, err := r.repo.LatestConfirmedByCustomer(ctx, phone, lookback)
		switch {
		case err == nil:
			if err := r.machine.RequestCancellation(ctx, b); err != nil {
				r.logger.Error("cancellation transition failed", "booking_id", b.ID, "error", err)
			}
		case errors.Is(err, booking.ErrBookingNotFound):
			r.logger.Info("cancellation signal without recent confirmed booking", "phone", phone)
		default:
			r.logger.Error("confirmed booking lookup failed", "phone", phone, "error", err)
		}

		// The customer always gets the acknowledgment, whether or not a
		// provider could be notified.
		if err := r.notifier.Send(ctx, phone, notify.CancellationAckMessage); err != nil {
			r.logger.Error("failed to send cancellation ack", "phone", phone, "error", err)
		}
		return OutcomeCancellation, nil
	}

	reply := r.respond(ctx, rawText, support.RoleCustomer)
	if err := r.notifier.Send(ctx, phone, reply); err != nil {
		r.logger.Error("failed to send customer support reply", "phone", phone, "error", err)
	}
	return OutcomeCustomerMessage, nil
}

func (r *Router) routeUnknownSender(ctx context.Context, phone string) (Outcome, error) {
	sent, err := r.notifier.AlreadySent(ctx, phone, audit.KindRedirect)
	if err != nil {
		r.logger.Error("redirect audit check failed", "phone", phone, "error", err)
		return OutcomeDropped, err
	}
	if sent {
		r.logger.Info("unknown sender already redirected, ignoring", "phone", phone)
		return OutcomeRedirectSeen, nil
	}
	if err := r.notifier.SendOnce(ctx, phone, audit.KindRedirect, phone, notify.RedirectMessage); err != nil {
		r.logger.Error("failed to send redirect", "phone", phone, "error", err)
		return OutcomeRedirect, err
	}
	return OutcomeRedirect, nil
}

func (r *Router) respond(ctx context.Context, message string, role support.Role) string {
	if r.responder == nil {
		return support.StaticFallback
	}
	return r.responder.Respond(ctx, message, role)
}
