package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skrivly/creditgate/internal"
	"github.com/skrivly/creditgate/internal/authclient"
	"github.com/skrivly/creditgate/internal/billing"
	"github.com/skrivly/creditgate/internal/handler"
	"github.com/skrivly/creditgate/internal/metrics"
	"github.com/skrivly/creditgate/internal/middleware"
	"github.com/skrivly/creditgate/internal/repository"
	"github.com/skrivly/creditgate/internal/service"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize the credit ledger
	var ledger repository.CreditLedger
	switch cfg.LedgerDriver {
	case "postgres":
		// Migrations run over database/sql; the ledger itself uses a
		// pgx pool against the same database.
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return fmt.Errorf("database ping failed: %w", err)
		}
		if err := internal.RunMigrations(db); err != nil {
			db.Close()
			return fmt.Errorf("migration failed: %w", err)
		}
		db.Close()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connection pool failed: %w", err)
		}
		defer pool.Close()

		ledger = repository.NewPostgresLedger(pool)
		logger.Info("Database ready")
	case "memory":
		ledger = repository.NewMemoryLedger()
		logger.Warn("Using in-memory credit ledger; counts reset on restart")
	default:
		return fmt.Errorf("unknown ledger driver %q", cfg.LedgerDriver)
	}

	// Initialize billing. Without a Stripe key every authenticated
	// user resolves to the free tier.
	var billingService billing.Service
	if cfg.StripeSecretKey != "" {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, billing.PriceConfig{
			Tier1MonthlyPriceID: cfg.StripeTier1MonthlyPriceID,
			Tier1YearlyPriceID:  cfg.StripeTier1YearlyPriceID,
			Tier2MonthlyPriceID: cfg.StripeTier2MonthlyPriceID,
			Tier2YearlyPriceID:  cfg.StripeTier2YearlyPriceID,
		})
		logger.Info("Stripe billing enabled")
	} else {
		logger.Warn("No Stripe key configured; all authenticated users get the free tier")
	}

	// Initialize the auth backend client
	verifier := authclient.New(cfg.AuthServiceURL, cfg.AuthRequestTimeout)

	// Initialize services
	identities := service.NewIdentityResolver(verifier, logger)
	tiers := service.NewTierResolver(billingService, cfg.BillingLookupTimeout, logger)
	credits := service.NewCreditService(ledger, cfg.TierLimits, logger)

	// Initialize middleware
	isSecure := cfg.Env != "development"
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, logger)
	rateLimitMw := middleware.NewRateLimitMiddleware(rateLimiter, logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	creditsHandler := handler.NewCreditsHandler(identities, tiers, credits, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when credentials are configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Credit routes (rate limited per client IP; health and metrics are not)
	api := http.NewServeMux()
	creditsHandler.RegisterRoutes(api)
	mux.Handle("/api/", rateLimitMw.Limit(api))

	stack := middleware.Stack(
		middleware.RequestID,
		securityMw.Handler,
		loggingMw.Handler,
		metrics.Middleware,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: stack(mux),
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "ledger", cfg.LedgerDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
