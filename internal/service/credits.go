// Package service contains the business logic layer.
//
// This file implements the consumption gate: read-only status checks
// and atomic consume-or-reject operations over the credit ledger. The
// gate itself holds no mutable state; the ledger's conditional
// increment is the only write path, so the daily limit holds under any
// interleaving of concurrent requests.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/skrivly/creditgate/internal/domain"
	"github.com/skrivly/creditgate/internal/metrics"
	"github.com/skrivly/creditgate/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// CreditService gates feature usage on the daily credit allowance.
type CreditService interface {
	// Check reports the identity's remaining allowance without spending
	// anything. Safe to call arbitrarily often.
	Check(ctx context.Context, identity domain.Identity, tier domain.Tier) (*domain.CreditStatus, error)

	// Consume spends one credit if the day's limit permits. A rejected
	// consume returns Allowed=false with Remaining=0 and a nil error;
	// errors are reserved for ledger failures.
	Consume(ctx context.Context, identity domain.Identity, tier domain.Tier) (*domain.CreditStatus, error)
}

// =============================================================================
// Implementation
// =============================================================================

type creditService struct {
	ledger repository.CreditLedger
	limits domain.TierLimits
	logger *slog.Logger
	now    func() time.Time
}

// NewCreditService creates a CreditService over the given ledger. The
// tier limit table is injected here so the gate never consults global
// state.
func NewCreditService(ledger repository.CreditLedger, limits domain.TierLimits, logger *slog.Logger) CreditService {
	return &creditService{
		ledger: ledger,
		limits: limits,
		logger: logger,
		now:    time.Now,
	}
}

func (s *creditService) Check(ctx context.Context, identity domain.Identity, tier domain.Tier) (*domain.CreditStatus, error) {
	const op = "credits.check"

	now := s.now()
	limit := s.limits.Limit(tier)

	used, err := s.ledger.Usage(ctx, identity.Key, domain.CreditDay(now))
	if err != nil {
		metrics.LedgerErrors.Inc()
		return nil, domain.Internal(err, op, "failed to read credit usage")
	}

	status := statusFor(tier, limit, used, now)
	metrics.CreditDecisions.WithLabelValues("check", string(tier), boolLabel(status.Allowed)).Inc()
	return status, nil
}

func (s *creditService) Consume(ctx context.Context, identity domain.Identity, tier domain.Tier) (*domain.CreditStatus, error) {
	const op = "credits.consume"

	now := s.now()
	limit := s.limits.Limit(tier)

	used, allowed, err := s.ledger.Consume(ctx, identity.Key, domain.CreditDay(now), limit)
	if err != nil {
		metrics.LedgerErrors.Inc()
		return nil, domain.Internal(err, op, "failed to consume credit")
	}

	metrics.CreditDecisions.WithLabelValues("consume", string(tier), boolLabel(allowed)).Inc()

	if !allowed {
		// Expected outcome, not a fault.
		s.logger.Info("credit limit reached",
			"identity_kind", identity.Kind,
			"tier", tier,
			"used", used,
			"limit", limit,
		)
		return &domain.CreditStatus{
			Allowed:   false,
			Remaining: 0,
			Limit:     limit,
			Tier:      tier,
			ResetAt:   domain.NextReset(now),
		}, nil
	}

	return &domain.CreditStatus{
		Allowed:   true,
		Remaining: limit - used,
		Limit:     limit,
		Tier:      tier,
		ResetAt:   domain.NextReset(now),
	}, nil
}

// statusFor shapes a read-only check result. allowed means at least one
// credit is still available today.
func statusFor(tier domain.Tier, limit, used int, now time.Time) *domain.CreditStatus {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return &domain.CreditStatus{
		Allowed:   remaining > 0,
		Remaining: remaining,
		Limit:     limit,
		Tier:      tier,
		ResetAt:   domain.NextReset(now),
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
