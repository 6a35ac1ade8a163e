package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(providerPhone, customerPhone string, createdAt time.Time) *Booking {
	return &Booking{
		CustomerPhone:    customerPhone,
		ProviderID:       "maria",
		ProviderPhone:    providerPhone,
		ServiceType:      "60 min swedish",
		ScheduledAt:      createdAt.Add(2 * time.Hour),
		Status:           StatusPending,
		ResponseDeadline: createdAt.Add(15 * time.Minute),
		CreatedAt:        createdAt,
	}
}

func TestInMemoryRepositoryCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	b := newTestBooking("+15551230001", "+15559990001", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, b))
	require.NotEqual(t, b.ID.String(), "00000000-0000-0000-0000-000000000000")

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, b.CustomerPhone, got.CustomerPhone)
}

func TestInMemoryRepositoryPendingByProviderPhone(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	older := newTestBooking("+15551230001", "+15559990001", now.Add(-10*time.Minute))
	newer := newTestBooking("+15551230001", "+15559990002", now.Add(-2*time.Minute))
	stale := newTestBooking("+15551230001", "+15559990003", now.Add(-2*time.Hour))
	other := newTestBooking("+15551230002", "+15559990004", now)
	for _, b := range []*Booking{older, newer, stale, other} {
		require.NoError(t, repo.Create(ctx, b))
	}

	got, err := repo.PendingByProviderPhone(ctx, "+15551230001", now.Add(-30*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID, "newest first")
	assert.Equal(t, older.ID, got[1].ID)
}

func TestInMemoryRepositoryUpdateStatusConflict(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	b := newTestBooking("+15551230001", "+15559990001", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, repo.UpdateStatus(ctx, b.ID, StatusPending, StatusConfirmed))
	err := repo.UpdateStatus(ctx, b.ID, StatusPending, StatusExpired)
	assert.ErrorIs(t, err, ErrStateConflict)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
}

func TestInMemoryRepositoryMarkProviderResponded(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	b := newTestBooking("+15551230001", "+15559990001", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.MarkProviderResponded(ctx, b.ID))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.ProviderResponded)
}

func TestInMemoryRepositoryCustomerQueries(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	known, err := repo.HasCustomerHistory(ctx, "+15559990001")
	require.NoError(t, err)
	assert.False(t, known)

	first := newTestBooking("+15551230001", "+15559990001", now.Add(-3*time.Hour))
	second := newTestBooking("+15551230001", "+15559990001", now.Add(-1*time.Hour))
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.UpdateStatus(ctx, first.ID, StatusPending, StatusConfirmed))
	require.NoError(t, repo.UpdateStatus(ctx, second.ID, StatusPending, StatusConfirmed))

	known, err = repo.HasCustomerHistory(ctx, "+15559990001")
	require.NoError(t, err)
	assert.True(t, known)

	latest, err := repo.LatestConfirmedByCustomer(ctx, "+15559990001", now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	_, err = repo.LatestConfirmedByCustomer(ctx, "+15559990001", now)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestInMemoryRepositoryListExpirable(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	overdue := newTestBooking("+15551230001", "+15559990001", now.Add(-20*time.Minute))
	fresh := newTestBooking("+15551230001", "+15559990002", now.Add(-5*time.Minute))
	ancient := newTestBooking("+15551230001", "+15559990003", now.Add(-48*time.Hour))
	require.NoError(t, repo.Create(ctx, overdue))
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Create(ctx, ancient))

	got, err := repo.ListExpirable(ctx, now, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1, "only overdue rows inside the lookback")
	assert.Equal(t, overdue.ID, got[0].ID)
}

func TestInMemoryRepositoryListConfirmedScheduledBefore(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	past := newTestBooking("+15551230001", "+15559990001", now.Add(-4*time.Hour))
	past.ScheduledAt = now.Add(-2 * time.Hour)
	future := newTestBooking("+15551230001", "+15559990002", now)
	future.ScheduledAt = now.Add(3 * time.Hour)
	require.NoError(t, repo.Create(ctx, past))
	require.NoError(t, repo.Create(ctx, future))
	require.NoError(t, repo.UpdateStatus(ctx, past.ID, StatusPending, StatusConfirmed))
	require.NoError(t, repo.UpdateStatus(ctx, future.ID, StatusPending, StatusConfirmed))

	got, err := repo.ListConfirmedScheduledBefore(ctx, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, past.ID, got[0].ID)
}
