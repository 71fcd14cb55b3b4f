// Package service contains the business logic layer.
//
// This file implements tier resolution: mapping an identity's
// authentication and subscription state onto a credit tier. Resolution
// is fail-open: a billing-provider outage degrades paying users to the
// free tier for the duration instead of blocking them, and the failure
// counter keeps the outage visible in monitoring.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/skrivly/creditgate/internal/billing"
	"github.com/skrivly/creditgate/internal/domain"
	"github.com/skrivly/creditgate/internal/metrics"
)

// DefaultBillingTimeout bounds the total billing lookup (customer +
// subscription round-trips). On expiry the resolver falls back exactly
// as it would for any other provider error.
const DefaultBillingTimeout = 3 * time.Second

// =============================================================================
// Interface Definition
// =============================================================================

// TierResolver maps an identity to its credit tier.
type TierResolver interface {
	// ResolveTier never returns an error: billing failures are absorbed
	// here and logged, and the identity degrades to its baseline tier.
	ResolveTier(ctx context.Context, identity domain.Identity) domain.Tier
}

// =============================================================================
// Implementation
// =============================================================================

type tierResolver struct {
	billing billing.Service
	timeout time.Duration
	logger  *slog.Logger
}

// NewTierResolver creates a TierResolver.
//
// billingService may be nil when Stripe is not configured (development
// mode); every authenticated identity then resolves to the free tier.
func NewTierResolver(billingService billing.Service, timeout time.Duration, logger *slog.Logger) TierResolver {
	if timeout <= 0 {
		timeout = DefaultBillingTimeout
	}
	return &tierResolver{
		billing: billingService,
		timeout: timeout,
		logger:  logger,
	}
}

func (r *tierResolver) ResolveTier(ctx context.Context, identity domain.Identity) domain.Tier {
	if !identity.IsAuthenticated() {
		return domain.TierAnonymous
	}
	if r.billing == nil {
		return domain.TierFree
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	customerID, err := r.billing.CustomerIDByEmail(ctx, identity.Email)
	if err != nil {
		r.lookupFailed("customer lookup failed", identity, err)
		return domain.TierFree
	}
	if customerID == "" {
		// Signed up but never went through checkout.
		return domain.TierFree
	}

	sub, err := r.billing.ActiveSubscription(ctx, customerID)
	if err != nil {
		r.lookupFailed("subscription lookup failed", identity, err)
		return domain.TierFree
	}
	if sub == nil {
		return domain.TierFree
	}

	tier, ok := r.billing.TierForPriceID(sub.PriceID)
	if !ok {
		// A price id outside the configured plans, e.g. a legacy plan.
		r.logger.Warn("unmapped subscription price id, defaulting to free tier",
			"price_id", sub.PriceID,
			"product_id", sub.ProductID,
		)
		return domain.TierFree
	}
	return tier
}

// lookupFailed logs a billing failure and counts it. Never propagated:
// the caller proceeds on the free tier.
func (r *tierResolver) lookupFailed(msg string, identity domain.Identity, err error) {
	metrics.BillingLookupFailures.Inc()
	r.logger.Warn(msg,
		"error", err,
		"account_id", identity.Key,
	)
}
