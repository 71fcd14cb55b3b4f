package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger is an in-memory CreditLedger guarded by a mutex. It is
// used in development (LEDGER_DRIVER=memory) and in unit tests. State
// does not survive a restart, which is acceptable for both.
type MemoryLedger struct {
	mu   sync.Mutex
	rows map[memoryKey]int
}

type memoryKey struct {
	identityKey string
	day         string // UTC date, YYYY-MM-DD
}

var _ CreditLedger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty in-memory credit ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{rows: make(map[memoryKey]int)}
}

func ledgerKey(identityKey string, day time.Time) memoryKey {
	return memoryKey{identityKey: identityKey, day: day.UTC().Format("2006-01-02")}
}

// Usage returns credits used on the given day, 0 when no entry exists.
func (l *MemoryLedger) Usage(_ context.Context, identityKey string, day time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows[ledgerKey(identityKey, day)], nil
}

// Consume increments the counter while holding the mutex, mirroring the
// single-statement guarantee of the Postgres ledger.
func (l *MemoryLedger) Consume(_ context.Context, identityKey string, day time.Time, limit int) (int, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ledgerKey(identityKey, day)
	used := l.rows[key]
	if used >= limit || limit < 1 {
		return used, false, nil
	}
	used++
	l.rows[key] = used
	return used, true, nil
}
