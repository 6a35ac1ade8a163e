package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldtouchmobile/booking-relay/internal/admin"
	"github.com/goldtouchmobile/booking-relay/internal/audit"
	"github.com/goldtouchmobile/booking-relay/internal/booking"
	"github.com/goldtouchmobile/booking-relay/internal/directory"
	"github.com/goldtouchmobile/booking-relay/internal/inbound"
	"github.com/goldtouchmobile/booking-relay/internal/lifecycle"
	"github.com/goldtouchmobile/booking-relay/internal/messaging"
	"github.com/goldtouchmobile/booking-relay/internal/notify"
	"github.com/goldtouchmobile/booking-relay/internal/support"
)

func newTestServer(t *testing.T) (http.Handler, *booking.InMemoryRepository) {
	t.Helper()
	repo := booking.NewInMemoryRepository()
	dir := directory.NewStatic(directory.Provider{ID: "maria", Name: "Maria", Phone: "+15551230001"})
	sender := messaging.SenderFunc(func(ctx context.Context, to, body string) error { return nil })
	notifier := notify.NewDispatcher(sender, audit.NewInMemoryStore(), nil)
	machine := lifecycle.NewMachine(repo, dir, notifier, nil, nil)
	inboundRouter := inbound.NewRouter(repo, dir, machine, notifier, support.NewResponder(nil, nil), inbound.DefaultConfig(), nil)

	cfg := &Config{
		BookingHandler: booking.NewHandler(repo, dir, notifier, nil),
		WebhookHandler: inbound.NewWebhookHandler(inboundRouter, nil, "", nil, nil),
		ExportHandler:  admin.NewExportHandler(repo, nil),
		AdminToken:     "sesame",
	}
	return New(cfg), repo
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestWebhookRouteAcceptsGetAndPost(t *testing.T) {
	h, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook/sms", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/sms", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateBookingRoute(t *testing.T) {
	h, repo := newTestServer(t)

	payload := `{
		"customer_phone": "+15559990001",
		"provider_id": "maria",
		"service_type": "60 min swedish",
		"datetime": "2026-09-01T15:00:00Z"
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(payload)))

	require.Equal(t, http.StatusCreated, rec.Code)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), all[0].ResponseDeadline, time.Minute)
}

func TestAdminExportRequiresToken(t *testing.T) {
	h, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/customers/export", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/customers/export", nil)
	req.Header.Set("Authorization", "Bearer sesame")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
