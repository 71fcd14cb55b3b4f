package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTierLimits_Limit(t *testing.T) {
	limits := DefaultTierLimits()

	tests := []struct {
		name string
		tier Tier
		want int
	}{
		{"anonymous", TierAnonymous, 5},
		{"free", TierFree, 20},
		{"tier1", TierOne, 120},
		{"tier2", TierTwo, 300},
		{"unknown tier falls back to free", Tier("platinum"), 20},
		{"empty tier falls back to free", Tier(""), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, limits.Limit(tt.tier))
		})
	}
}

func TestTier_Valid(t *testing.T) {
	for _, tier := range []Tier{TierAnonymous, TierFree, TierOne, TierTwo} {
		assert.True(t, tier.Valid(), "tier %q should be valid", tier)
	}
	assert.False(t, Tier("premium").Valid())
	assert.False(t, Tier("").Valid())
}

func TestCreditDay(t *testing.T) {
	// 23:30 in UTC+2 is 21:30 UTC the same day
	loc := time.FixedZone("CEST", 2*60*60)
	in := time.Date(2025, 6, 14, 23, 30, 0, 0, loc)

	got := CreditDay(in)
	assert.Equal(t, time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), got)

	// 01:30 in UTC+2 is 23:30 UTC the previous day
	in = time.Date(2025, 6, 15, 1, 30, 0, 0, loc)
	got = CreditDay(in)
	assert.Equal(t, time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), got)
}

func TestNextReset(t *testing.T) {
	in := time.Date(2025, 6, 14, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), NextReset(in))

	// Exactly at midnight the reset is the following midnight
	in = time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), NextReset(in))
}

func TestIdentityConstructors(t *testing.T) {
	anon := Anonymous("sess-abc123")
	assert.Equal(t, IdentityAnonymous, anon.Kind)
	assert.Equal(t, "sess-abc123", anon.Key)
	assert.False(t, anon.IsAuthenticated())

	auth := Authenticated("acct_42", "kund@example.se")
	assert.Equal(t, IdentityAuthenticated, auth.Kind)
	assert.Equal(t, "acct_42", auth.Key)
	assert.Equal(t, "kund@example.se", auth.Email)
	assert.True(t, auth.IsAuthenticated())
}
