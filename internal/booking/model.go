package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	// StatusPending means the provider has not yet accepted or declined.
	StatusPending Status = "pending"
	// StatusConfirmed means the provider replied Y inside the acceptance window.
	StatusConfirmed Status = "confirmed"
	// StatusRejected means the provider replied N inside the acceptance window.
	StatusRejected Status = "rejected"
	// StatusExpired means the response deadline passed without a decision.
	StatusExpired Status = "expired"
	// StatusCancellationRequested means the customer asked to cancel a
	// confirmed booking. Terminal.
	StatusCancellationRequested Status = "cancellation_requested"
)

// transitions is the closed set of legal status moves. Anything not listed
// is a conflict and treated as a no-op by the lifecycle.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusExpired},
	StatusConfirmed: {StatusCancellationRequested},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseStatus converts a stored string into a Status.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusRejected:
		return StatusRejected, nil
	case StatusExpired:
		return StatusExpired, nil
	case StatusCancellationRequested:
		return StatusCancellationRequested, nil
	}
	return "", fmt.Errorf("booking: unknown status %q", value)
}

// Booking is one pending accept/decline exchange between a customer and a
// provider, with a response deadline.
type Booking struct {
	ID                uuid.UUID `json:"id"`
	CustomerPhone     string    `json:"customer_phone"`
	CustomerName      string    `json:"customer_name,omitempty"`
	ProviderID        string    `json:"provider_id"`
	ProviderPhone     string    `json:"provider_phone"`
	ServiceType       string    `json:"service_type"`
	Address           string    `json:"address,omitempty"`
	ScheduledAt       time.Time `json:"scheduled_at"`
	Status            Status    `json:"status"`
	ProviderResponded bool      `json:"provider_responded"`
	ResponseDeadline  time.Time `json:"response_deadline"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateBookingRequest is the payload accepted by the create endpoint.
type CreateBookingRequest struct {
	CustomerPhone string    `json:"customer_phone"`
	CustomerName  string    `json:"customer_name"`
	ProviderID    string    `json:"provider_id"`
	ServiceType   string    `json:"service_type"`
	Address       string    `json:"address"`
	ScheduledAt   time.Time `json:"datetime"`
}

// Validate checks required fields and names the first missing one.
func (r *CreateBookingRequest) Validate() error {
	if strings.TrimSpace(r.CustomerPhone) == "" {
		return ErrMissingCustomerPhone
	}
	if strings.TrimSpace(r.ProviderID) == "" {
		return ErrMissingProviderID
	}
	if strings.TrimSpace(r.ServiceType) == "" {
		return ErrMissingServiceType
	}
	if r.ScheduledAt.IsZero() {
		return ErrMissingScheduledAt
	}
	return nil
}
