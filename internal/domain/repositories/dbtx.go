package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// DBTX is the read surface authorization queries need. *pgxpool.Pool and pgx.Tx
// both satisfy it.
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// SetTx attaches a transaction to ctx. A content handler that checks ownership
// inside its write transaction passes the returned context to the authorizer, so
// the owner read sees the same snapshot as the write that follows.
func SetTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTx returns the transaction attached to ctx, or nil.
func GetTx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}
