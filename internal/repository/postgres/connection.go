package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"newsroom/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	DB     repositories.DBTX // usually a *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Prefix string
	Users  string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Prefix: prefix,
		Users:  fmt.Sprintf("%susers", prefix),
	}
}

// Identifier returns the quoted, prefixed form of a caller-supplied table name.
// "public.articles" becomes "public"."dev_articles"; the prefix applies to the table only.
func (t *TableNames) Identifier(table string) string {
	parts := strings.Split(table, ".")
	parts[len(parts)-1] = t.Prefix + parts[len(parts)-1]
	return pgx.Identifier(parts).Sanitize()
}

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// DefaultPoolConfig mirrors the sizing the backend has always run with.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxConns: 25, MinConns: 5}
}

// CreateConnectionPool creates a new pgx connection pool with automatic PgBouncer compatibility.
//
// By default pgx caches prepared statements (QueryExecModeCacheStatement). PgBouncer in
// transaction pooling mode (port 6543 on managed Postgres) does not support prepared
// statements, so on that port the pool switches to QueryExecModeCacheDescribe unless the
// connection string already chose a mode via default_query_exec_mode.
//
// Prefixed table names are interpolated before the statement is sent, so each
// environment still gets its own cached statements.
func CreateConnectionPool(ctx context.Context, databaseURL string, poolCfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = poolCfg.MaxConns
	config.MinConns = poolCfg.MinConns

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction, so an
// authorization read issued inside a handler's write transaction sees the same snapshot.
// Otherwise, it returns db.
func GetExecutor(ctx context.Context, db repositories.DBTX) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return db
}
