package repositories

import (
	"context"

	"newsroom/internal/domain/models"
)

// IdentityRepository reads the user table the authorization core resolves identities against.
// Implementations return (nil, nil) when no live user matches; any other failure is a
// *domain.StoreUnavailableError.
type IdentityRepository interface {
	// FindByEmail looks up a non-deleted user whose trimmed, lower-cased email equals
	// normalizedEmail. The caller has already normalized the input.
	FindByEmail(ctx context.Context, normalizedEmail string) (*models.Owner, error)
}

// OwnershipRepository performs the single point read behind an ownership check.
type OwnershipRepository interface {
	// FetchOwner returns the raw value stored in loc.OwnerColumn for the row whose
	// loc.IDColumn equals loc.ResourceID. found is false when no row matches.
	// A NULL owner is returned as (nil, true, nil).
	FetchOwner(ctx context.Context, loc models.Locator) (owner any, found bool, err error)
}
