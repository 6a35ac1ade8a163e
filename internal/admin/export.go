// Package admin holds the operator-only HTTP endpoints.
package admin

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/goldtouchmobile/booking-relay/internal/booking"
	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

// ExportHandler serves the deduplicated customer roster.
type ExportHandler struct {
	repo   booking.Repository
	logger *logging.Logger
}

// NewExportHandler creates the export handler.
func NewExportHandler(repo booking.Repository, logger *logging.Logger) *ExportHandler {
	if repo == nil {
		panic("admin: repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ExportHandler{repo: repo, logger: logger}
}

// CustomerRecord is one row of the export, aggregated per phone.
type CustomerRecord struct {
	Phone        string    `json:"phone"`
	Name         string    `json:"name,omitempty"`
	BookingCount int       `json:"booking_count"`
	LastService  string    `json:"last_service,omitempty"`
	LastBooking  time.Time `json:"last_booking"`
}

// Customers handles GET /admin/customers/export. One record per customer
// phone, newest booking wins for name and service. format=csv switches the
// body to CSV; the default is JSON.
func (h *ExportHandler) Customers(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("customer export query failed", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	// ListAll is newest first, so the first sighting of a phone carries the
	// freshest name and service.
	byPhone := make(map[string]*CustomerRecord)
	var roster []*CustomerRecord
	for i := range all {
		b := &all[i]
		rec, ok := byPhone[b.CustomerPhone]
		if !ok {
			rec = &CustomerRecord{
				Phone:       b.CustomerPhone,
				Name:        b.CustomerName,
				LastService: b.ServiceType,
				LastBooking: b.CreatedAt,
			}
			byPhone[b.CustomerPhone] = rec
			roster = append(roster, rec)
		}
		rec.BookingCount++
		if rec.Name == "" {
			rec.Name = b.CustomerName
		}
	}

	if r.URL.Query().Get("format") == "csv" {
		h.writeCSV(w, roster)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"customers": roster,
		"total":     len(roster),
	}); err != nil {
		h.logger.Error("failed to encode export", "error", err)
	}
}

func (h *ExportHandler) writeCSV(w http.ResponseWriter, roster []*CustomerRecord) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="customers.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"phone", "name", "booking_count", "last_service", "last_booking"})
	for _, rec := range roster {
		_ = cw.Write([]string{
			rec.Phone,
			rec.Name,
			strconv.Itoa(rec.BookingCount),
			rec.LastService,
			rec.LastBooking.Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("failed to write export csv", "error", err)
	}
}
