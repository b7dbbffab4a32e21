package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"newsroom/internal/domain/models"
	"newsroom/internal/domain/repositories"
)

// PostgresOwnershipRepository implements the OwnershipRepository interface
type PostgresOwnershipRepository struct {
	db     repositories.DBTX
	tables *TableNames
	logger *slog.Logger
}

// NewOwnershipRepository creates a new ownership repository
func NewOwnershipRepository(config *RepositoryConfig) repositories.OwnershipRepository {
	return &PostgresOwnershipRepository{
		db:     config.DB,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// FetchOwner reads one owner column by primary key.
//
// Identifiers come from the caller's locator and are quoted, not checked: a locator
// naming a missing table or column fails here as a store error.
func (r *PostgresOwnershipRepository) FetchOwner(ctx context.Context, loc models.Locator) (any, bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		pgx.Identifier{loc.OwnerColumn}.Sanitize(),
		r.tables.Identifier(loc.Table),
		pgx.Identifier{loc.IDColumn}.Sanitize(),
	)

	var owner any
	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRow(ctx, query, loc.ResourceID).Scan(&owner)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, false, nil
		}
		if IsPgUndefinedError(err) {
			r.logger.Error("ownership locator does not match schema",
				"table", loc.Table,
				"id_column", loc.IDColumn,
				"owner_column", loc.OwnerColumn,
				"error", err,
			)
		} else {
			r.logger.Error("fetch owner failed", "table", loc.Table, "error", err)
		}
		return nil, false, storeError("fetch owner", err)
	}

	return owner, true, nil
}
