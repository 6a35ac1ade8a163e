package admin

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldtouchmobile/booking-relay/internal/booking"
)

func seedExportData(t *testing.T) *booking.InMemoryRepository {
	t.Helper()
	repo := booking.NewInMemoryRepository()
	now := time.Now().UTC()

	rows := []*booking.Booking{
		{
			CustomerPhone: "+15559990001",
			CustomerName:  "Dana",
			ProviderID:    "maria",
			ProviderPhone: "+15551230001",
			ServiceType:   "60 min swedish",
			ScheduledAt:   now.Add(-48 * time.Hour),
			CreatedAt:     now.Add(-72 * time.Hour),
		},
		{
			CustomerPhone: "+15559990001",
			CustomerName:  "",
			ProviderID:    "maria",
			ProviderPhone: "+15551230001",
			ServiceType:   "90 min deep tissue",
			ScheduledAt:   now.Add(-2 * time.Hour),
			CreatedAt:     now.Add(-4 * time.Hour),
		},
		{
			CustomerPhone: "+15559990002",
			CustomerName:  "Alex",
			ProviderID:    "james",
			ProviderPhone: "+15551230002",
			ServiceType:   "30 min chair",
			ScheduledAt:   now.Add(-1 * time.Hour),
			CreatedAt:     now.Add(-3 * time.Hour),
		},
	}
	for _, b := range rows {
		require.NoError(t, repo.Create(context.Background(), b))
	}
	return repo
}

func TestCustomersExportJSON(t *testing.T) {
	h := NewExportHandler(seedExportData(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/customers/export", nil)
	rec := httptest.NewRecorder()
	h.Customers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Customers []CustomerRecord `json:"customers"`
		Total     int              `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Total, "one record per phone")

	byPhone := map[string]CustomerRecord{}
	for _, c := range resp.Customers {
		byPhone[c.Phone] = c
	}
	dana := byPhone["+15559990001"]
	assert.Equal(t, 2, dana.BookingCount)
	assert.Equal(t, "Dana", dana.Name, "name backfills from older rows")
	assert.Equal(t, "90 min deep tissue", dana.LastService, "newest booking wins")
}

func TestCustomersExportCSV(t *testing.T) {
	h := NewExportHandler(seedExportData(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/customers/export?format=csv", nil)
	rec := httptest.NewRecorder()
	h.Customers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus two customers")
	assert.Equal(t, []string{"phone", "name", "booking_count", "last_service", "last_booking"}, records[0])
}

func TestCustomersExportEmptyRoster(t *testing.T) {
	h := NewExportHandler(booking.NewInMemoryRepository(), nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/customers/export", nil)
	rec := httptest.NewRecorder()
	h.Customers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 0, resp.Total)
}
