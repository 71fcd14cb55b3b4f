package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/skrivly/creditgate/internal/domain"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Ledger storage
	LedgerDriver string // "postgres" or "memory"
	DatabaseURL  string // required when LedgerDriver is "postgres"

	// Auth backend (validates bearer tokens)
	AuthServiceURL     string
	AuthRequestTimeout time.Duration

	// Stripe Billing Configuration
	// Optional: without a secret key, every authenticated user resolves
	// to the free tier (development mode).
	StripeSecretKey string

	// Stripe price IDs for the paid plans
	StripeTier1MonthlyPriceID string
	StripeTier1YearlyPriceID  string
	StripeTier2MonthlyPriceID string
	StripeTier2YearlyPriceID  string

	// Upper bound on the whole billing lookup; on expiry the tier
	// resolver falls back to the free tier.
	BillingLookupTimeout time.Duration

	// Daily credit limits per tier
	TierLimits domain.TierLimits

	// Transport-level rate limiting (per client IP)
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	defaults := domain.DefaultTierLimits()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Memory ledger by default so the service runs without Postgres
		// in development
		LedgerDriver: getEnv("LEDGER_DRIVER", "memory"),

		AuthServiceURL:     getEnv("AUTH_SERVICE_URL", "http://localhost:9090"),
		AuthRequestTimeout: getEnvDuration("AUTH_REQUEST_TIMEOUT", 5*time.Second),

		// Stripe billing (optional; free tier fallback without it)
		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),

		StripeTier1MonthlyPriceID: getEnv("STRIPE_TIER1_MONTHLY_PRICE_ID", ""),
		StripeTier1YearlyPriceID:  getEnv("STRIPE_TIER1_YEARLY_PRICE_ID", ""),
		StripeTier2MonthlyPriceID: getEnv("STRIPE_TIER2_MONTHLY_PRICE_ID", ""),
		StripeTier2YearlyPriceID:  getEnv("STRIPE_TIER2_YEARLY_PRICE_ID", ""),

		BillingLookupTimeout: getEnvDuration("BILLING_LOOKUP_TIMEOUT", 3*time.Second),

		TierLimits: domain.TierLimits{
			Anonymous: getEnvInt("CREDIT_LIMIT_ANONYMOUS", defaults.Anonymous),
			Free:      getEnvInt("CREDIT_LIMIT_FREE", defaults.Free),
			TierOne:   getEnvInt("CREDIT_LIMIT_TIER1", defaults.TierOne),
			TierTwo:   getEnvInt("CREDIT_LIMIT_TIER2", defaults.TierTwo),
		},

		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	switch cfg.LedgerDriver {
	case "postgres":
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when LEDGER_DRIVER is 'postgres'")
		}
	case "memory":
		if cfg.Env == "production" {
			return nil, fmt.Errorf("LEDGER_DRIVER 'memory' is not valid in production; credits would reset on restart")
		}
	default:
		return nil, fmt.Errorf("LEDGER_DRIVER must be either 'postgres' or 'memory', got: %s", cfg.LedgerDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
