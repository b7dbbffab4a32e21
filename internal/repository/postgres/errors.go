package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"newsroom/internal/domain"
)

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgUndefinedError checks if error names a table or column that does not exist
func IsPgUndefinedError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 42P01 = undefined_table, 42703 = undefined_column
		return pgErr.Code == "42P01" || pgErr.Code == "42703"
	}
	return false
}

// storeError classifies a failed read. A cancelled request stays a cancellation;
// everything else is reported as the store being unavailable.
func storeError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &domain.StoreUnavailableError{Op: op, Err: err}
}
