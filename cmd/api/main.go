package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/goldtouchmobile/booking-relay/internal/admin"
	"github.com/goldtouchmobile/booking-relay/internal/api/router"
	"github.com/goldtouchmobile/booking-relay/internal/audit"
	"github.com/goldtouchmobile/booking-relay/internal/booking"
	appconfig "github.com/goldtouchmobile/booking-relay/internal/config"
	"github.com/goldtouchmobile/booking-relay/internal/directory"
	"github.com/goldtouchmobile/booking-relay/internal/inbound"
	"github.com/goldtouchmobile/booking-relay/internal/lifecycle"
	"github.com/goldtouchmobile/booking-relay/internal/messaging"
	"github.com/goldtouchmobile/booking-relay/internal/notify"
	"github.com/goldtouchmobile/booking-relay/internal/observability/metrics"
	"github.com/goldtouchmobile/booking-relay/internal/payments"
	"github.com/goldtouchmobile/booking-relay/internal/support"
	"github.com/goldtouchmobile/booking-relay/internal/worker"
	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-relay API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		repo       booking.Repository
		auditStore audit.Store
		providers  directory.Directory
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("database unreachable", "error", err)
			os.Exit(1)
		}
		repo = booking.NewPostgresRepository(pool)
		auditStore = audit.NewPostgresStore(pool)
		providers = directory.NewPostgresDirectory(pool)
		logger.Info("using postgres storage")
	} else {
		repo = booking.NewInMemoryRepository()
		auditStore = audit.NewInMemoryStore()
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// A providers file overrides the database-backed directory; it is the
	// simplest way to run the full flow in development.
	if cfg.ProvidersFile != "" {
		static, err := directory.LoadStatic(cfg.ProvidersFile)
		if err != nil {
			if providers == nil {
				logger.Error("no provider directory available", "path", cfg.ProvidersFile, "error", err)
				os.Exit(1)
			}
			logger.Warn("providers file not loaded, using database directory",
				"path", cfg.ProvidersFile, "error", err)
		} else {
			providers = static
			logger.Info("provider directory loaded from file", "path", cfg.ProvidersFile)
		}
	}
	if providers == nil {
		logger.Error("no provider directory configured")
		os.Exit(1)
	}
	if roster, err := providers.All(ctx); err != nil {
		logger.Warn("provider roster unavailable", "error", err)
	} else {
		logger.Info("provider directory ready", "providers", len(roster))
	}

	// SMS transport
	var sender messaging.Sender
	if cfg.TextMagicUsername != "" && cfg.TextMagicAPIKey != "" {
		sender = messaging.NewTextMagicSender(cfg.TextMagicUsername, cfg.TextMagicAPIKey, cfg.TextMagicFromNumber, logger)
	} else {
		logger.Warn("TextMagic credentials not set, outbound SMS will be logged only")
		sender = messaging.SenderFunc(func(ctx context.Context, to, body string) error {
			logger.Info("sms (dry run)", "to", to, "body", body)
			return nil
		})
	}

	// Delivery dedup via Redis SETNX. Without Redis every delivery is treated
	// as first; the conditional status updates still keep retries harmless.
	var deduper messaging.Deduper = messaging.NoopDeduper{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, webhook dedup disabled", "error", err)
		} else {
			deduper = messaging.NewRedisDeduper(rdb, cfg.DedupTTL, logger)
			defer func() { _ = rdb.Close() }()
		}
	}

	// Payments
	var checkout payments.CheckoutLinkCreator
	if cfg.StripeSecretKey != "" {
		successURL := cfg.PublicBaseURL + "/booking/thanks"
		cancelURL := cfg.PublicBaseURL + "/booking/payment"
		checkout = payments.NewStripeCheckout(cfg.StripeSecretKey, successURL, cancelURL, cfg.DepositAmountCents, logger).
			WithDryRun(cfg.AllowFakePayments)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, confirmations go out without payment links")
	}

	// Support fallback
	var llm support.LLMClient
	if cfg.GeminiAPIKey != "" {
		client, err := support.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini client unavailable, using static replies", "error", err)
		} else {
			llm = client
			defer func() { _ = client.Close() }()
		}
	}
	responder := support.NewResponder(llm, logger)

	// Core services
	relayMetrics := metrics.NewRelayMetrics(prometheus.DefaultRegisterer)
	notifier := notify.NewDispatcher(sender, auditStore, logger).WithMetrics(relayMetrics)
	machine := lifecycle.NewMachine(repo, providers, notifier, checkout, logger).WithMetrics(relayMetrics)
	inboundRouter := inbound.NewRouter(repo, providers, machine, notifier, responder, inbound.Config{
		AcceptanceWindow:     cfg.AcceptanceWindow,
		CancellationLookback: cfg.CancellationWindow,
	}, logger)

	// Handlers
	bookingHandler := booking.NewHandler(repo, providers, notifier, logger).
		WithResponseDeadline(cfg.ResponseDeadline).
		WithFallbackPhone(cfg.FallbackProviderPhone)
	webhookHandler := inbound.NewWebhookHandler(inboundRouter, deduper, cfg.ServiceNumber, relayMetrics, logger)
	exportHandler := admin.NewExportHandler(repo, logger)

	// Background timers
	if cfg.DisableBackgroundJobs {
		logger.Warn("background jobs disabled")
	} else {
		sweeper := worker.NewSweeper(repo, machine, logger).
			WithInterval(cfg.SweepInterval).
			WithLookback(cfg.SweepLookback)
		go sweeper.Run(ctx)

		followups := worker.NewFollowupScheduler(repo, notifier, logger).
			WithInterval(cfg.FollowupInterval).
			WithBuffer(cfg.FollowupBuffer)
		go followups.Run(ctx)
	}

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		BookingHandler:      bookingHandler,
		WebhookHandler:      webhookHandler,
		ExportHandler:       exportHandler,
		AdminToken:          cfg.AdminToken,
		MetricsHandler:      promhttp.Handler(),
		CreateRatePerSecond: 5,
		CreateBurst:         10,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
