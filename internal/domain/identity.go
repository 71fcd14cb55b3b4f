// Package domain contains core business types and interfaces.
//
// This file defines the Identity type that credits are tracked against.
// An identity is resolved once per request and never persisted; only its
// key ends up in the ledger.
package domain

// IdentityKind distinguishes anonymous visitors from signed-in accounts.
type IdentityKind string

const (
	IdentityAnonymous     IdentityKind = "anonymous"
	IdentityAuthenticated IdentityKind = "authenticated"
)

// Identity is the key credits are tracked against: a client-supplied
// session token for anonymous visitors, or the account id for
// authenticated users. Email is carried along for authenticated
// identities because the billing provider is keyed by email.
type Identity struct {
	Kind  IdentityKind
	Key   string
	Email string // only set for authenticated identities
}

// IsAuthenticated reports whether the identity belongs to a signed-in account.
func (i Identity) IsAuthenticated() bool {
	return i.Kind == IdentityAuthenticated
}

// Anonymous creates an anonymous identity from a session token.
func Anonymous(sessionID string) Identity {
	return Identity{Kind: IdentityAnonymous, Key: sessionID}
}

// Authenticated creates an authenticated identity from an account id and email.
func Authenticated(accountID, email string) Identity {
	return Identity{Kind: IdentityAuthenticated, Key: accountID, Email: email}
}
