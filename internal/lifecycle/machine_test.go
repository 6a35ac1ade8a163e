package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldtouchmobile/booking-relay/internal/booking"
	"github.com/goldtouchmobile/booking-relay/internal/directory"
	"github.com/goldtouchmobile/booking-relay/internal/notify"
	"github.com/goldtouchmobile/booking-relay/internal/payments"
)

type fakeSender struct {
	sent []sentSMS
}

type sentSMS struct {
	To   string
	Body string
}

func (f *fakeSender) Send(ctx context.Context, to, body string) error {
	f.sent = append(f.sent, sentSMS{To: to, Body: body})
	return nil
}

func (f *fakeSender) bodiesTo(phone string) []string {
	var out []string
	for _, s := range f.sent {
		if s.To == phone {
			out = append(out, s.Body)
		}
	}
	return out
}

type fakeCheckout struct {
	url string
	err error
}

func (f *fakeCheckout) CreateCheckoutLink(ctx context.Context, b *booking.Booking) (string, error) {
	return f.url, f.err
}

func newMachineFixture(t *testing.T, checkout payments.CheckoutLinkCreator) (*Machine, *booking.InMemoryRepository, *fakeSender) {
	t.Helper()
	repo := booking.NewInMemoryRepository()
	sender := &fakeSender{}
	dir := directory.NewStatic(directory.Provider{ID: "maria", Name: "Maria", Phone: "+15551230001"})
	notifier := notify.NewDispatcher(sender, nil, nil)
	m := NewMachine(repo, dir, notifier, checkout, nil)
	return m, repo, sender
}

func seedPending(t *testing.T, repo *booking.InMemoryRepository) *booking.Booking {
	t.Helper()
	now := time.Now().UTC()
	b := &booking.Booking{
		CustomerPhone:    "+15559990001",
		CustomerName:     "Dana",
		ProviderID:       "maria",
		ProviderPhone:    "+15551230001",
		ServiceType:      "90 min deep tissue",
		Address:          "12 Main St",
		ScheduledAt:      now.Add(2 * time.Hour),
		Status:           booking.StatusPending,
		ResponseDeadline: now.Add(15 * time.Minute),
	}
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func TestAcceptConfirmsAndNotifiesBothSides(t *testing.T) {
	m, repo, sender := newMachineFixture(t, &fakeCheckout{url: "https://pay.example/s/1"})
	b := seedPending(t, repo)

	require.NoError(t, m.Accept(context.Background(), b))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, got.Status)

	provider := sender.bodiesTo("+15551230001")
	require.Len(t, provider, 1)
	assert.Contains(t, provider[0], "You've confirmed the booking")

	customer := sender.bodiesTo("+15559990001")
	require.Len(t, customer, 1)
	assert.Contains(t, customer[0], "Maria")
	assert.Contains(t, customer[0], "https://pay.example/s/1")
}

func TestAcceptSurvivesCheckoutFailure(t *testing.T) {
	m, repo, sender := newMachineFixture(t, &fakeCheckout{err: errors.New("stripe down")})
	b := seedPending(t, repo)

	require.NoError(t, m.Accept(context.Background(), b))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, got.Status)

	customer := sender.bodiesTo("+15559990001")
	require.Len(t, customer, 1)
	assert.Contains(t, customer[0], "Payment details to follow")
}

func TestAcceptWithoutCheckoutCreator(t *testing.T) {
	m, repo, sender := newMachineFixture(t, nil)
	b := seedPending(t, repo)

	require.NoError(t, m.Accept(context.Background(), b))
	customer := sender.bodiesTo("+15559990001")
	require.Len(t, customer, 1)
	assert.Contains(t, customer[0], "Payment details to follow")
}

func TestAcceptOnNonPendingIsLoggedNoop(t *testing.T) {
	m, repo, sender := newMachineFixture(t, nil)
	b := seedPending(t, repo)
	require.NoError(t, repo.UpdateStatus(context.Background(), b.ID, booking.StatusPending, booking.StatusExpired))

	require.NoError(t, m.Accept(context.Background(), b), "state conflict is not an error")

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusExpired, got.Status, "status unchanged")
	assert.Empty(t, sender.sent, "no notifications on a skipped transition")
}

func TestDeclineSendsRebookingAndAck(t *testing.T) {
	m, repo, sender := newMachineFixture(t, nil)
	b := seedPending(t, repo)

	require.NoError(t, m.Decline(context.Background(), b))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusRejected, got.Status)

	customer := sender.bodiesTo("+15559990001")
	require.Len(t, customer, 1)
	assert.Contains(t, customer[0], "book with another provider")

	provider := sender.bodiesTo("+15551230001")
	require.Len(t, provider, 1)
	assert.Contains(t, provider[0], "declined")
}

func TestExpireRespectsDeadline(t *testing.T) {
	m, repo, sender := newMachineFixture(t, nil)
	b := seedPending(t, repo)

	// Before the deadline nothing happens.
	require.NoError(t, m.Expire(context.Background(), b, b.ResponseDeadline.Add(-time.Minute)))
	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, got.Status)
	assert.Empty(t, sender.sent)

	// After the deadline the booking expires and the customer hears about it.
	require.NoError(t, m.Expire(context.Background(), b, b.ResponseDeadline.Add(time.Minute)))
	got, err = repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusExpired, got.Status)

	customer := sender.bodiesTo("+15559990001")
	require.Len(t, customer, 1)
	assert.Contains(t, customer[0], "book with another provider")
}

func TestRequestCancellationNotifiesProvider(t *testing.T) {
	m, repo, sender := newMachineFixture(t, nil)
	b := seedPending(t, repo)
	require.NoError(t, repo.UpdateStatus(context.Background(), b.ID, booking.StatusPending, booking.StatusConfirmed))
	b.Status = booking.StatusConfirmed

	require.NoError(t, m.RequestCancellation(context.Background(), b))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancellationRequested, got.Status)

	provider := sender.bodiesTo("+15551230001")
	require.Len(t, provider, 1)
	assert.True(t, strings.Contains(provider[0], "Dana"), "notice names the customer")
}

func TestRequestCancellationOnPendingIsNoop(t *testing.T) {
	m, repo, sender := newMachineFixture(t, nil)
	b := seedPending(t, repo)

	require.NoError(t, m.RequestCancellation(context.Background(), b))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, got.Status)
	assert.Empty(t, sender.sent)
}
