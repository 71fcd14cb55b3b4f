package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skrivly/creditgate/internal/billing"
	"github.com/skrivly/creditgate/internal/domain"
)

// fakeBilling scripts billing-provider behavior per test.
type fakeBilling struct {
	customerID  string
	customerErr error
	sub         *billing.SubscriptionInfo
	subErr      error
	priceMap    map[string]domain.Tier
	delay       time.Duration
}

func (f *fakeBilling) CustomerIDByEmail(ctx context.Context, _ string) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.customerID, f.customerErr
}

func (f *fakeBilling) ActiveSubscription(ctx context.Context, _ string) (*billing.SubscriptionInfo, error) {
	return f.sub, f.subErr
}

func (f *fakeBilling) TierForPriceID(priceID string) (domain.Tier, bool) {
	tier, ok := f.priceMap[priceID]
	return tier, ok
}

func TestTierResolver_Anonymous(t *testing.T) {
	resolver := NewTierResolver(&fakeBilling{}, 0, testLogger())

	tier := resolver.ResolveTier(context.Background(), domain.Anonymous("sess-1"))
	if tier != domain.TierAnonymous {
		t.Errorf("expected anonymous tier, got %q", tier)
	}
}

func TestTierResolver_NoBillingConfigured(t *testing.T) {
	resolver := NewTierResolver(nil, 0, testLogger())

	tier := resolver.ResolveTier(context.Background(), domain.Authenticated("acct-1", "a@example.se"))
	if tier != domain.TierFree {
		t.Errorf("expected free tier without billing service, got %q", tier)
	}
}

func TestTierResolver_NoCustomer(t *testing.T) {
	resolver := NewTierResolver(&fakeBilling{customerID: ""}, 0, testLogger())

	tier := resolver.ResolveTier(context.Background(), domain.Authenticated("acct-1", "a@example.se"))
	if tier != domain.TierFree {
		t.Errorf("expected free tier for unknown customer, got %q", tier)
	}
}

func TestTierResolver_NoActiveSubscription(t *testing.T) {
	resolver := NewTierResolver(&fakeBilling{customerID: "cus_1", sub: nil}, 0, testLogger())

	tier := resolver.ResolveTier(context.Background(), domain.Authenticated("acct-1", "a@example.se"))
	if tier != domain.TierFree {
		t.Errorf("expected free tier without active subscription, got %q", tier)
	}
}

func TestTierResolver_MappedSubscription(t *testing.T) {
	tests := []struct {
		name    string
		priceID string
		want    domain.Tier
	}{
		{"tier1 price", "price_t1_monthly", domain.TierOne},
		{"tier2 price", "price_t2_yearly", domain.TierTwo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBilling{
				customerID: "cus_1",
				sub:        &billing.SubscriptionInfo{PriceID: tt.priceID},
				priceMap: map[string]domain.Tier{
					"price_t1_monthly": domain.TierOne,
					"price_t2_yearly":  domain.TierTwo,
				},
			}
			resolver := NewTierResolver(fb, 0, testLogger())

			tier := resolver.ResolveTier(context.Background(), domain.Authenticated("acct-1", "a@example.se"))
			if tier != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tier)
			}
		})
	}
}

func TestTierResolver_UnmappedPriceFallsBackToFree(t *testing.T) {
	fb := &fakeBilling{
		customerID: "cus_1",
		sub:        &billing.SubscriptionInfo{PriceID: "price_legacy"},
		priceMap:   map[string]domain.Tier{},
	}
	resolver := NewTierResolver(fb, 0, testLogger())

	tier := resolver.ResolveTier(context.Background(), domain.Authenticated("acct-1", "a@example.se"))
	if tier != domain.TierFree {
		t.Errorf("unmapped price should fall back to free, got %q", tier)
	}
}

func TestTierResolver_FailOpenOnProviderError(t *testing.T) {
	tests := []struct {
		name string
		fb   *fakeBilling
	}{
		{"customer lookup error", &fakeBilling{customerErr: errors.New("stripe: 503")}},
		{"subscription lookup error", &fakeBilling{customerID: "cus_1", subErr: errors.New("stripe: timeout")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewTierResolver(tt.fb, 0, testLogger())

			// Never an error to the caller; degrade to free instead.
			tier := resolver.ResolveTier(context.Background(), domain.Authenticated("acct-1", "a@example.se"))
			if tier != domain.TierFree {
				t.Errorf("expected free tier on provider failure, got %q", tier)
			}
		})
	}
}

func TestTierResolver_TimeoutFallsBackToFree(t *testing.T) {
	// Provider hangs longer than the resolver's budget
	fb := &fakeBilling{customerID: "cus_1", delay: 200 * time.Millisecond}
	resolver := NewTierResolver(fb, 10*time.Millisecond, testLogger())

	start := time.Now()
	tier := resolver.ResolveTier(context.Background(), domain.Authenticated("acct-1", "a@example.se"))
	elapsed := time.Since(start)

	if tier != domain.TierFree {
		t.Errorf("expected free tier on timeout, got %q", tier)
	}
	if elapsed > 150*time.Millisecond {
		t.Errorf("resolver should return at its timeout, took %v", elapsed)
	}
}
