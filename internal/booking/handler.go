package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goldtouchmobile/booking-relay/internal/directory"
	"github.com/goldtouchmobile/booking-relay/internal/messaging"
	"github.com/goldtouchmobile/booking-relay/internal/notify"
	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

// Handler serves the booking creation endpoint.
type Handler struct {
	repo      Repository
	providers directory.Directory
	notifier  *notify.Dispatcher
	deadline  time.Duration
	// fallbackPhone receives the provider prompt when the directory has no
	// usable number for the provider. Empty disables the fallback.
	fallbackPhone string
	logger        *logging.Logger
	now           func() time.Time
}

// NewHandler creates the booking handler.
func NewHandler(repo Repository, providers directory.Directory, notifier *notify.Dispatcher, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("booking: repository cannot be nil")
	}
	if providers == nil {
		panic("booking: directory cannot be nil")
	}
	if notifier == nil {
		panic("booking: notifier cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:      repo,
		providers: providers,
		notifier:  notifier,
		deadline:  15 * time.Minute,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithResponseDeadline overrides how long the provider gets to reply.
func (h *Handler) WithResponseDeadline(d time.Duration) *Handler {
	if d > 0 {
		h.deadline = d
	}
	return h
}

// WithFallbackPhone sets the contact that receives prompts for providers the
// directory cannot resolve a number for.
func (h *Handler) WithFallbackPhone(phone string) *Handler {
	h.fallbackPhone = messaging.NormalizeE164(phone)
	return h
}

// WithClock overrides the time source for tests.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	if now != nil {
		h.now = now
	}
	return h
}

type createResponse struct {
	ID               string    `json:"id"`
	Status           string    `json:"status"`
	ProviderID       string    `json:"provider_id"`
	ProviderName     string    `json:"provider_name"`
	ProviderPhone    string    `json:"provider_phone"`
	ResponseDeadline time.Time `json:"response_deadline"`
}

// Create handles POST /api/bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	provider, err := h.providers.GetByID(r.Context(), strings.TrimSpace(req.ProviderID))
	if err != nil {
		if errors.Is(err, directory.ErrProviderNotFound) {
			h.respondError(w, http.StatusNotFound, "unknown provider_id")
			return
		}
		h.logger.Error("provider lookup failed", "provider_id", req.ProviderID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "provider lookup failed")
		return
	}

	now := h.now()
	b := &Booking{
		CustomerPhone:    messaging.NormalizeE164(req.CustomerPhone),
		CustomerName:     strings.TrimSpace(req.CustomerName),
		ProviderID:       provider.ID,
		ProviderPhone:    provider.Phone,
		ServiceType:      strings.TrimSpace(req.ServiceType),
		Address:          strings.TrimSpace(req.Address),
		ScheduledAt:      req.ScheduledAt.UTC(),
		Status:           StatusPending,
		ResponseDeadline: now.Add(h.deadline),
		CreatedAt:        now,
	}

	if err := h.createWithRetry(r, b); err != nil {
		h.logger.Error("booking insert failed", "provider_id", provider.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "could not store booking")
		return
	}

	h.promptProvider(r, provider, b)

	h.respondJSON(w, http.StatusCreated, createResponse{
		ID:               b.ID.String(),
		Status:           string(b.Status),
		ProviderID:       provider.ID,
		ProviderName:     provider.Name,
		ProviderPhone:    provider.Phone,
		ResponseDeadline: b.ResponseDeadline,
	})
}

// createWithRetry gives the insert three chances before giving up.
func (h *Handler) createWithRetry(r *http.Request, b *Booking) error {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		if err = h.repo.Create(r.Context(), b); err == nil {
			return nil
		}
		h.logger.Warn("booking insert attempt failed", "attempt", attempt, "error", err)
	}
	return err
}

// promptProvider sends the Y/N request. A send failure never fails the
// request; the booking exists and the sweeper will expire it if nobody is
// ever reached. When the provider has no number the prompt goes to the
// fallback contact instead.
func (h *Handler) promptProvider(r *http.Request, provider *directory.Provider, b *Booking) {
	to := provider.Phone
	if to == "" {
		to = h.fallbackPhone
	}
	if to == "" {
		h.logger.Error("no reachable number for provider prompt", "booking_id", b.ID, "provider_id", provider.ID)
		return
	}

	body := notify.ProviderPrompt(provider.Name, b)
	if err := h.notifier.Send(r.Context(), to, body); err == nil {
		return
	} else if to != h.fallbackPhone && h.fallbackPhone != "" {
		h.logger.Warn("provider prompt failed, retrying against fallback contact",
			"booking_id", b.ID, "provider_id", provider.ID, "error", err)
		if err := h.notifier.Send(r.Context(), h.fallbackPhone, body); err == nil {
			return
		}
	}
	h.logger.Error("provider prompt could not be delivered", "booking_id", b.ID, "provider_id", provider.ID)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
