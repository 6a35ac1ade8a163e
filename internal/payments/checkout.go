// Package payments creates checkout links for confirmed bookings.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goldtouchmobile/booking-relay/internal/booking"
	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

// CheckoutLinkCreator produces a payment URL for a booking. An empty URL
// with a nil error means no link is available; confirmation proceeds without
// one.
type CheckoutLinkCreator interface {
	CreateCheckoutLink(ctx context.Context, b *booking.Booking) (string, error)
}

// StripeCheckout creates Stripe Checkout Sessions for deposit collection.
type StripeCheckout struct {
	secretKey   string
	successURL  string
	cancelURL   string
	baseURL     string
	apiVersion  string
	amountCents int
	httpClient  *http.Client
	logger      *logging.Logger
	dryRun      bool
}

// NewStripeCheckout creates a new Stripe checkout service.
func NewStripeCheckout(secretKey, successURL, cancelURL string, amountCents int, logger *logging.Logger) *StripeCheckout {
	if logger == nil {
		logger = logging.Default()
	}
	if amountCents <= 0 {
		amountCents = 5000
	}
	return &StripeCheckout{
		secretKey:   secretKey,
		successURL:  successURL,
		cancelURL:   cancelURL,
		baseURL:     "https://api.stripe.com",
		apiVersion:  "2024-12-18.acacia",
		amountCents: amountCents,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (s *StripeCheckout) WithBaseURL(baseURL string) *StripeCheckout {
	if baseURL != "" {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
	return s
}

// WithDryRun enables dry-run mode (returns fake URLs without calling Stripe).
func (s *StripeCheckout) WithDryRun(enabled bool) *StripeCheckout {
	s.dryRun = enabled
	return s
}

var _ CheckoutLinkCreator = (*StripeCheckout)(nil)

// CreateCheckoutLink creates a checkout session for the booking deposit.
func (s *StripeCheckout) CreateCheckoutLink(ctx context.Context, b *booking.Booking) (string, error) {
	if s.dryRun {
		fakeID := "cs_dryrun_" + uuid.New().String()[:8]
		s.logger.Info("stripe dry run: skipping checkout session creation",
			"booking_id", b.ID, "amount_cents", s.amountCents)
		return fmt.Sprintf("https://checkout.stripe.com/dry-run/%s", fakeID), nil
	}

	description := strings.TrimSpace(b.ServiceType)
	if description == "" {
		description = "Booking deposit"
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price_data][currency]", "usd")
	form.Set("line_items[0][price_data][unit_amount]", fmt.Sprintf("%d", s.amountCents))
	form.Set("line_items[0][price_data][product_data][name]", description)
	form.Set("line_items[0][quantity]", "1")
	if s.successURL != "" {
		form.Set("success_url", s.successURL)
	}
	if s.cancelURL != "" {
		form.Set("cancel_url", s.cancelURL)
	}
	form.Set("metadata[booking_id]", b.ID.String())
	form.Set("metadata[provider_id]", b.ProviderID)
	form.Set("metadata[scheduled_at]", b.ScheduledAt.UTC().Format(time.RFC3339))

	apiURL := s.baseURL + "/v1/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("payments: stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Stripe-Version", s.apiVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("payments: stripe http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("payments: stripe api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("payments: stripe decode: %w", err)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("payments: stripe response missing checkout url")
	}

	s.logger.Info("stripe checkout session created", "booking_id", b.ID, "session_id", parsed.ID)
	return parsed.URL, nil
}
