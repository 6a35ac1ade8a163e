package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines booking persistence. Status mutations go through the
// conditional UpdateStatus so a transition out of PENDING happens at most once
// regardless of how many webhook deliveries race on the same row.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// PendingByProviderPhone returns PENDING bookings for the provider phone
	// created at or after the cutoff, newest first.
	PendingByProviderPhone(ctx context.Context, phone string, createdAfter time.Time) ([]Booking, error)

	// MarkProviderResponded burns the accept/decline slot for the booking.
	MarkProviderResponded(ctx context.Context, id uuid.UUID) error

	// UpdateStatus moves the booking from one status to another. Returns
	// ErrStateConflict when the row is no longer in the source status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error

	// HasCustomerHistory reports whether any booking exists for the phone.
	HasCustomerHistory(ctx context.Context, customerPhone string) (bool, error)

	// LatestConfirmedByCustomer returns the most recent CONFIRMED booking for
	// the customer created at or after the cutoff, or ErrBookingNotFound.
	LatestConfirmedByCustomer(ctx context.Context, customerPhone string, createdAfter time.Time) (*Booking, error)

	// ListExpirable returns PENDING bookings whose deadline passed, bounded
	// below by the lookback cutoff so ancient rows are never reprocessed.
	ListExpirable(ctx context.Context, now, createdAfter time.Time) ([]Booking, error)

	// ListConfirmedScheduledBefore returns CONFIRMED bookings whose scheduled
	// time is at or before the cutoff, for follow-up evaluation.
	ListConfirmedScheduledBefore(ctx context.Context, cutoff time.Time) ([]Booking, error)

	// ListAll returns every booking, newest first. Used by the admin export.
	ListAll(ctx context.Context) ([]Booking, error)
}

// InMemoryRepository keeps bookings in memory with a per-phone index. Used in
// tests and local development without Postgres.
type InMemoryRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*Booking
	// byProviderPhone indexes booking IDs by normalized provider phone so the
	// acceptance-window lookup is a bounded scan, not a walk of every row.
	byProviderPhone map[string][]uuid.UUID
	byCustomerPhone map[string][]uuid.UUID
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		bookings:        make(map[uuid.UUID]*Booking),
		byProviderPhone: make(map[string][]uuid.UUID),
		byCustomerPhone: make(map[string][]uuid.UUID),
	}
}

// Create stores a new booking.
func (r *InMemoryRepository) Create(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = b.CreatedAt
	if b.Status == "" {
		b.Status = StatusPending
	}

	clone := *b
	r.bookings[b.ID] = &clone
	r.byProviderPhone[b.ProviderPhone] = append(r.byProviderPhone[b.ProviderPhone], b.ID)
	r.byCustomerPhone[b.CustomerPhone] = append(r.byCustomerPhone[b.CustomerPhone], b.ID)
	return nil
}

// GetByID returns a copy of the booking.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

// PendingByProviderPhone returns matching PENDING bookings, newest first.
func (r *InMemoryRepository) PendingByProviderPhone(ctx context.Context, phone string, createdAfter time.Time) ([]Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Booking
	for _, id := range r.byProviderPhone[phone] {
		b := r.bookings[id]
		if b.Status != StatusPending || b.CreatedAt.Before(createdAfter) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkProviderResponded sets the provider_responded flag.
func (r *InMemoryRepository) MarkProviderResponded(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.ProviderResponded = true
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateStatus performs the conditional status move.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	if b.Status != from {
		return ErrStateConflict
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// HasCustomerHistory reports whether the phone appears on any booking.
func (r *InMemoryRepository) HasCustomerHistory(ctx context.Context, customerPhone string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCustomerPhone[customerPhone]) > 0, nil
}

// LatestConfirmedByCustomer returns the newest CONFIRMED booking in the window.
func (r *InMemoryRepository) LatestConfirmedByCustomer(ctx context.Context, customerPhone string, createdAfter time.Time) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Booking
	for _, id := range r.byCustomerPhone[customerPhone] {
		b := r.bookings[id]
		if b.Status != StatusConfirmed || b.CreatedAt.Before(createdAfter) {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	if latest == nil {
		return nil, ErrBookingNotFound
	}
	clone := *latest
	return &clone, nil
}

// ListExpirable returns PENDING bookings past their deadline inside the lookback.
func (r *InMemoryRepository) ListExpirable(ctx context.Context, now, createdAfter time.Time) ([]Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Booking
	for _, b := range r.bookings {
		if b.Status != StatusPending {
			continue
		}
		if b.ResponseDeadline.After(now) || b.CreatedAt.Before(createdAfter) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListConfirmedScheduledBefore returns CONFIRMED bookings already underway or past.
func (r *InMemoryRepository) ListConfirmedScheduledBefore(ctx context.Context, cutoff time.Time) ([]Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Booking
	for _, b := range r.bookings {
		if b.Status != StatusConfirmed || b.ScheduledAt.After(cutoff) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

// ListAll returns every booking, newest first.
func (r *InMemoryRepository) ListAll(ctx context.Context) ([]Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
