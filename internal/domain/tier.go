// Package domain contains core business types and interfaces.
//
// This file defines the closed set of credit tiers and their daily limits.
// Tier is recomputed on every request from authentication and subscription
// state; it is never stored.
package domain

// Tier is a named credit-limit class. The set is closed: an unmapped
// subscription product resolves to TierFree, never to a new string.
type Tier string

const (
	TierAnonymous Tier = "anonymous"
	TierFree      Tier = "free"
	TierOne       Tier = "tier1"
	TierTwo       Tier = "tier2"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierAnonymous, TierFree, TierOne, TierTwo:
		return true
	}
	return false
}

// TierLimits maps each tier to its daily credit limit. It is built once
// at startup from configuration and passed into the consumption gate;
// there is no package-level limit table.
type TierLimits struct {
	Anonymous int
	Free      int
	TierOne   int
	TierTwo   int
}

// DefaultTierLimits returns the standard daily limits.
func DefaultTierLimits() TierLimits {
	return TierLimits{
		Anonymous: 5,
		Free:      20,
		TierOne:   120,
		TierTwo:   300,
	}
}

// Limit returns the daily credit limit for a tier. Unknown tiers get the
// free limit, same fallback as an unmapped subscription product.
func (l TierLimits) Limit(t Tier) int {
	switch t {
	case TierAnonymous:
		return l.Anonymous
	case TierOne:
		return l.TierOne
	case TierTwo:
		return l.TierTwo
	default:
		return l.Free
	}
}
