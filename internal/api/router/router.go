package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goldtouchmobile/booking-relay/internal/admin"
	"github.com/goldtouchmobile/booking-relay/internal/booking"
	httpmiddleware "github.com/goldtouchmobile/booking-relay/internal/http/middleware"
	"github.com/goldtouchmobile/booking-relay/internal/inbound"
	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *booking.Handler
	WebhookHandler     *inbound.WebhookHandler
	ExportHandler      *admin.ExportHandler
	AdminToken         string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// CreateRatePerSecond throttles booking creation per IP. Zero disables.
	CreateRatePerSecond float64
	CreateBurst         int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.WebhookHandler != nil {
			public.Get("/webhook/sms", cfg.WebhookHandler.Handle)
			public.Post("/webhook/sms", cfg.WebhookHandler.Handle)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Booking creation, called by the website's booking form.
	if cfg.BookingHandler != nil {
		r.Route("/api/bookings", func(api chi.Router) {
			if cfg.CreateRatePerSecond > 0 {
				api.Use(httpmiddleware.RateLimit(cfg.CreateRatePerSecond, cfg.CreateBurst))
			}
			api.Post("/", cfg.BookingHandler.Create)
		})
	}

	// Admin routes (protected by a static bearer token)
	if cfg.ExportHandler != nil {
		r.Route("/admin", func(adminRoutes chi.Router) {
			adminRoutes.Use(httpmiddleware.AdminToken(cfg.AdminToken))
			adminRoutes.Get("/customers/export", cfg.ExportHandler.Customers)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
