package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger is the production CreditLedger backed by a daily_credits
// table with a unique (identity_key, credit_date) constraint.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

var _ CreditLedger = (*PostgresLedger)(nil)

// NewPostgresLedger creates a Postgres-backed credit ledger.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// Usage returns credits used on the given day, 0 when no row exists.
func (l *PostgresLedger) Usage(ctx context.Context, identityKey string, day time.Time) (int, error) {
	var used int
	err := l.pool.QueryRow(ctx,
		`SELECT credits_used FROM daily_credits WHERE identity_key = $1 AND credit_date = $2`,
		identityKey, day.UTC(),
	).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read usage: %v", ErrLedgerUnavailable, err)
	}
	return used, nil
}

// Consume performs the conditional increment as one statement. The upsert
// creates the day's row with credits_used = 1, or increments an existing
// row only while credits_used is still below the limit. Postgres evaluates
// the WHERE clause under the row lock taken by ON CONFLICT, so two
// concurrent calls serialize and the count can never pass the limit.
//
// No row returned means the guard rejected the increment.
func (l *PostgresLedger) Consume(ctx context.Context, identityKey string, day time.Time, limit int) (int, bool, error) {
	if limit < 1 {
		// The insert arm would create a row with used=1, which already
		// exceeds a zero limit, so short-circuit before touching the table.
		used, err := l.Usage(ctx, identityKey, day)
		return used, false, err
	}

	var used int
	err := l.pool.QueryRow(ctx, `
		INSERT INTO daily_credits (identity_key, credit_date, credits_used)
		VALUES ($1, $2, 1)
		ON CONFLICT (identity_key, credit_date) DO UPDATE
			SET credits_used = daily_credits.credits_used + 1,
			    updated_at = now()
			WHERE daily_credits.credits_used < $3
		RETURNING credits_used`,
		identityKey, day.UTC(), limit,
	).Scan(&used)

	if errors.Is(err, pgx.ErrNoRows) {
		// Rejected: the row exists and is at (or past) the limit.
		current, usageErr := l.Usage(ctx, identityKey, day)
		if usageErr != nil {
			return 0, false, usageErr
		}
		return current, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: consume: %v", ErrLedgerUnavailable, err)
	}
	return used, true, nil
}
