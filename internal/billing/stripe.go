// Package billing provides the Stripe lookup used to resolve a user's
// credit tier. This service only reads subscription state; checkout,
// portal and webhook handling live in the main application backend.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/skrivly/creditgate/internal/domain"
)

// SubscriptionInfo describes the active subscription found for a customer.
// It is ephemeral: used to pick a tier for the current request, never stored.
type SubscriptionInfo struct {
	PriceID   string
	ProductID string
	Status    string
	PeriodEnd time.Time
}

// Service defines the billing-provider operations the tier resolver needs.
type Service interface {
	// CustomerIDByEmail returns the Stripe customer id for an email, or
	// "" when no customer exists.
	CustomerIDByEmail(ctx context.Context, email string) (string, error)

	// ActiveSubscription returns the customer's active subscription, or
	// nil when there is none.
	ActiveSubscription(ctx context.Context, customerID string) (*SubscriptionInfo, error)

	// TierForPriceID maps a Stripe price id to a credit tier.
	TierForPriceID(priceID string) (domain.Tier, bool)
}

// PriceConfig holds the Stripe price IDs for each paid plan.
type PriceConfig struct {
	Tier1MonthlyPriceID string
	Tier1YearlyPriceID  string
	Tier2MonthlyPriceID string
	Tier2YearlyPriceID  string
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	api         *client.API
	priceToTier map[string]domain.Tier
}

// NewStripeService creates a Stripe billing service with its own API
// client. The key is held by this value rather than set on the
// package-global stripe.Key, so two services with different keys can
// coexist and tests can construct throwaway instances.
func NewStripeService(secretKey string, prices PriceConfig) Service {
	api := client.New(secretKey, nil)

	priceToTier := make(map[string]domain.Tier)
	for priceID, tier := range map[string]domain.Tier{
		prices.Tier1MonthlyPriceID: domain.TierOne,
		prices.Tier1YearlyPriceID:  domain.TierOne,
		prices.Tier2MonthlyPriceID: domain.TierTwo,
		prices.Tier2YearlyPriceID:  domain.TierTwo,
	} {
		if priceID != "" {
			priceToTier[priceID] = tier
		}
	}

	return &stripeService{
		api:         api,
		priceToTier: priceToTier,
	}
}

func (s *stripeService) CustomerIDByEmail(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := s.api.Customers.List(params)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("stripe list customers: %w", err)
	}
	return "", nil
}

func (s *stripeService) ActiveSubscription(ctx context.Context, customerID string) (*SubscriptionInfo, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := s.api.Subscriptions.List(params)
	for iter.Next() {
		sub := iter.Subscription()
		if sub.Items == nil || len(sub.Items.Data) == 0 {
			continue
		}
		item := sub.Items.Data[0]
		info := &SubscriptionInfo{
			Status:    string(sub.Status),
			PeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		}
		if item.Price != nil {
			info.PriceID = item.Price.ID
			if item.Price.Product != nil {
				info.ProductID = item.Price.Product.ID
			}
		}
		return info, nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe list subscriptions: %w", err)
	}
	return nil, nil
}

func (s *stripeService) TierForPriceID(priceID string) (domain.Tier, bool) {
	tier, ok := s.priceToTier[priceID]
	return tier, ok
}
