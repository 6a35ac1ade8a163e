package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL string

	// TextMagic SMS transport
	TextMagicUsername   string
	TextMagicAPIKey     string
	TextMagicFromNumber string

	// Number deliveries must be addressed to; deliveries for other numbers on
	// the same account are ignored.
	ServiceNumber string

	// Where provider decision prompts are re-sent when delivery to the
	// provider's own number fails.
	FallbackProviderPhone string

	ProvidersFile string

	GeminiAPIKey string
	GeminiModel  string

	StripeSecretKey    string
	DepositAmountCents int
	AllowFakePayments  bool

	RedisAddr     string
	RedisPassword string
	DedupTTL      time.Duration

	AdminToken string

	ResponseDeadline      time.Duration
	AcceptanceWindow      time.Duration
	CancellationWindow    time.Duration
	SweepInterval         time.Duration
	SweepLookback         time.Duration
	FollowupInterval      time.Duration
	FollowupBuffer        time.Duration
	DisableBackgroundJobs bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		TextMagicUsername:   getEnv("TEXTMAGIC_USERNAME", ""),
		TextMagicAPIKey:     getEnv("TEXTMAGIC_API_KEY", ""),
		TextMagicFromNumber: getEnv("TEXTMAGIC_FROM_NUMBER", ""),

		ServiceNumber:         getEnv("SERVICE_NUMBER", ""),
		FallbackProviderPhone: getEnv("FALLBACK_PROVIDER_PHONE", ""),

		ProvidersFile: getEnv("PROVIDERS_FILE", "providers.json"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		StripeSecretKey:    getEnv("STRIPE_SECRET_KEY", ""),
		DepositAmountCents: getEnvAsInt("DEPOSIT_AMOUNT_CENTS", 5000),
		AllowFakePayments:  getEnvAsBool("ALLOW_FAKE_PAYMENTS", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		DedupTTL:      getEnvAsDuration("DEDUP_TTL", 24*time.Hour),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		ResponseDeadline:      getEnvAsDuration("RESPONSE_DEADLINE", 15*time.Minute),
		AcceptanceWindow:      getEnvAsDuration("ACCEPTANCE_WINDOW", 30*time.Minute),
		CancellationWindow:    getEnvAsDuration("CANCELLATION_WINDOW", 7*24*time.Hour),
		SweepInterval:         getEnvAsDuration("SWEEP_INTERVAL", time.Minute),
		SweepLookback:         getEnvAsDuration("SWEEP_LOOKBACK", 24*time.Hour),
		FollowupInterval:      getEnvAsDuration("FOLLOWUP_INTERVAL", 5*time.Minute),
		FollowupBuffer:        getEnvAsDuration("FOLLOWUP_BUFFER", 30*time.Minute),
		DisableBackgroundJobs: getEnvAsBool("DISABLE_BACKGROUND_JOBS", false),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
