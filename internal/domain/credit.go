// Package domain contains core business types and interfaces.
//
// This file defines the result type of credit checks and consumptions,
// and the day-rollover arithmetic. A day is always a UTC calendar date;
// the allowance "resets" implicitly because the next day is a new ledger
// key, not because anything mutates old rows.
package domain

import "time"

// CreditStatus is the outcome of a check or consume call against the gate.
type CreditStatus struct {
	Allowed   bool
	Remaining int
	Limit     int
	Tier      Tier
	ResetAt   time.Time // next UTC midnight, when a fresh day's allowance begins
}

// CreditDay returns the UTC calendar date that keys the ledger row for t.
func CreditDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NextReset returns the next UTC midnight after t.
func NextReset(t time.Time) time.Time {
	return CreditDay(t).AddDate(0, 0, 1)
}
