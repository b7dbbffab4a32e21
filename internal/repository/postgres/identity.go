package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"
	"newsroom/internal/domain/models"
	"newsroom/internal/domain/repositories"
)

// PostgresIdentityRepository implements the IdentityRepository interface
type PostgresIdentityRepository struct {
	db     repositories.DBTX
	tables *TableNames
	logger *slog.Logger
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(config *RepositoryConfig) repositories.IdentityRepository {
	return &PostgresIdentityRepository{
		db:     config.DB,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// FindByEmail returns the live user whose normalized email matches, or nil.
// Stored emails are normalized in SQL, so rows written before normalization still match.
func (r *PostgresIdentityRepository) FindByEmail(ctx context.Context, normalizedEmail string) (*models.Owner, error) {
	query := fmt.Sprintf(`
		SELECT id, email, role
		FROM %s
		WHERE lower(btrim(email)) = $1 AND deleted_at IS NULL
		ORDER BY id
		LIMIT 1
	`, r.tables.Users)

	var (
		id    int64
		email string
		role  pgtype.Text
	)
	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRow(ctx, query, normalizedEmail).Scan(&id, &email, &role)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		r.logger.Error("find user by email failed", "error", err)
		return nil, storeError("find user by email", err)
	}

	return &models.Owner{
		ID:    models.OwnerID(id),
		Email: email,
		Role:  role.String,
	}, nil
}
