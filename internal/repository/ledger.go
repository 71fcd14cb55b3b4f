// Package repository contains persistence for the daily credit ledger.
//
// The ledger holds one row per (identity key, UTC day). The only write
// path is Consume, an atomic conditional increment performed by the
// storage layer itself; no caller ever reads a count and writes it back.
package repository

import (
	"context"
	"errors"
	"time"
)

// ErrLedgerUnavailable wraps storage failures so callers can distinguish
// "the store is broken" from "the limit is spent".
var ErrLedgerUnavailable = errors.New("credit ledger unavailable")

// CreditLedger is the persisted per-identity, per-day usage counter.
type CreditLedger interface {
	// Usage returns credits used by the identity on the given UTC day.
	// Returns 0 if no row exists. Never mutates state.
	Usage(ctx context.Context, identityKey string, day time.Time) (int, error)

	// Consume atomically increments the identity's counter for the day,
	// creating the row with used=1 on first consumption, but only if the
	// post-increment value would not exceed limit.
	//
	// Returns (newCount, true) when the credit was spent, or
	// (currentCount, false) when the increment was rejected. The
	// check-and-increment is a single storage operation: concurrent
	// callers can never overshoot the limit.
	Consume(ctx context.Context, identityKey string, day time.Time, limit int) (used int, allowed bool, err error)
}
