package services

import (
	"context"

	"newsroom/internal/domain/models"
)

// Authorizer is the single entry point request handlers call before mutating storage.
//
// Design principle: permission is evaluated before any resource read, so a caller
// without rights never causes a store access.
type Authorizer interface {
	// CheckSimple authorizes operations with no ownership notion (create, list, read).
	CheckSimple(role string, resource models.Resource, action models.Action) models.Decision

	// CheckWithOwnership authorizes update/delete against one resource row.
	// Denials are returned as a Decision; only store failures are errors.
	CheckWithOwnership(ctx context.Context, identity models.ExternalIdentity, resource models.Resource, action models.Action, loc models.Locator) (models.Decision, error)

	// EffectiveRole returns the role the identity is authorized as.
	EffectiveRole(ctx context.Context, identity models.ExternalIdentity) (models.Role, error)

	// ResolveActor returns the internal user record of the identity (nil if none matches)
	// together with its effective role, reading the store at most once.
	ResolveActor(ctx context.Context, identity models.ExternalIdentity) (*models.Owner, models.Role, error)
}

// PermissionCatalog exposes the loaded permission matrix read-only.
type PermissionCatalog interface {
	PermissionFor(role models.Role, resource models.Resource, action models.Action) models.PermissionValue
	Row(role models.Role) map[models.Resource]map[models.Action]models.PermissionValue
}

// StatusGovernor coerces requested content status before it is persisted.
type StatusGovernor interface {
	// ResolveStatus downgrades "published" to "draft" when the role may not publish.
	ResolveStatus(role string, resource models.Resource, requested models.ContentStatus) models.ContentStatus

	// ResolvePatch applies ResolveStatus to an optional status field of a partial update.
	ResolvePatch(role string, resource models.Resource, requested *models.ContentStatus) *models.ContentStatus
}
