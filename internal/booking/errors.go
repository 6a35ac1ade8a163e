package booking

import "errors"

var (
	// ErrMissingCustomerPhone is returned when customer_phone is absent.
	ErrMissingCustomerPhone = errors.New("customer_phone is required")

	// ErrMissingProviderID is returned when provider_id is absent.
	ErrMissingProviderID = errors.New("provider_id is required")

	// ErrMissingServiceType is returned when service_type is absent.
	ErrMissingServiceType = errors.New("service_type is required")

	// ErrMissingScheduledAt is returned when datetime is absent or unparseable.
	ErrMissingScheduledAt = errors.New("datetime is required")

	// ErrBookingNotFound is returned when no booking matches the query.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrStateConflict is returned by the repository when a conditional
	// status update matched zero rows. The lifecycle logs it and moves on.
	ErrStateConflict = errors.New("booking not in required status")
)
