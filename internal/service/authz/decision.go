package authz

import (
	"context"
	"fmt"
	"log/slog"

	"newsroom/internal/domain/models"
	"newsroom/internal/domain/services"
)

// RoleSource selects where the effective role of an identity comes from.
type RoleSource string

const (
	// RoleSourceClaim trusts the role claim carried by the identity token.
	RoleSourceClaim RoleSource = "claim"
	// RoleSourceStore uses the role stored on the resolved user record.
	RoleSourceStore RoleSource = "store"
)

// DecisionOptions tunes how identities are trusted.
type DecisionOptions struct {
	RoleSource           RoleSource
	RequireVerifiedEmail bool
}

// DecisionService composes the engine, identity resolution and ownership checks.
type DecisionService struct {
	engine     *Engine
	identities *IdentityResolver
	ownership  *OwnershipResolver
	opts       DecisionOptions
	logger     *slog.Logger
}

var _ services.Authorizer = (*DecisionService)(nil)

// NewDecisionService creates the authorization entry point used by handlers.
func NewDecisionService(
	engine *Engine,
	identities *IdentityResolver,
	ownership *OwnershipResolver,
	opts DecisionOptions,
	logger *slog.Logger,
) *DecisionService {
	if opts.RoleSource == "" {
		opts.RoleSource = RoleSourceClaim
	}
	return &DecisionService{
		engine:     engine,
		identities: identities,
		ownership:  ownership,
		opts:       opts,
		logger:     logger,
	}
}

// CheckSimple authorizes an operation with no ownership notion.
// Only an unconditional Allow authorizes; AllowIfOwner is not enough without a row to own.
func (s *DecisionService) CheckSimple(role string, resource models.Resource, action models.Action) models.Decision {
	d := models.Decision{
		Role:     models.NormalizeRole(role),
		Resource: resource,
		Action:   action,
	}
	if s.engine.Decide(role, resource, action) == models.PermissionAllow {
		d.Authorized = true
	} else {
		d.Reason = models.ReasonMissingPermission
	}
	s.record(d)
	return d
}

// CheckWithOwnership authorizes an update or delete of one resource row.
//
// The permission is evaluated first, so a denied caller never triggers a resource read.
// Denials come back as a Decision; the error is reserved for store failures.
func (s *DecisionService) CheckWithOwnership(
	ctx context.Context,
	identity models.ExternalIdentity,
	resource models.Resource,
	action models.Action,
	loc models.Locator,
) (models.Decision, error) {
	actor, role, err := s.resolveRole(ctx, identity)
	if err != nil {
		return models.Decision{}, err
	}

	d := models.Decision{Role: role, Resource: resource, Action: action}

	switch s.engine.Decide(string(role), resource, action) {
	case models.PermissionAllow:
		// The owner id is attached for auditing only.
		if actor == nil {
			if actor, err = s.resolveActor(ctx, identity); err != nil {
				return models.Decision{}, err
			}
		}
		if actor != nil {
			id := actor.ID
			d.OwnerID = &id
		}
		d.Authorized = true

	case models.PermissionAllowIfOwner:
		if actor == nil {
			if actor, err = s.resolveActor(ctx, identity); err != nil {
				return models.Decision{}, err
			}
		}
		if actor == nil {
			// Fails closed even if the resource has no owner either.
			d.Reason = models.ReasonIdentityUnresolved
			break
		}
		id := actor.ID
		d.OwnerID = &id

		resourceOwner, found, err := s.ownership.FetchOwnerID(ctx, loc)
		if err != nil {
			return models.Decision{}, fmt.Errorf("check %s %s: %w", action, resource, err)
		}
		if !found || !IsOwner(resourceOwner, id) {
			d.Reason = models.ReasonNotOwner
			break
		}
		d.Authorized = true

	default:
		d.Reason = models.ReasonMissingPermission
	}

	s.record(d)
	return d, nil
}

// EffectiveRole returns the role the identity is authorized as.
func (s *DecisionService) EffectiveRole(ctx context.Context, identity models.ExternalIdentity) (models.Role, error) {
	_, role, err := s.resolveRole(ctx, identity)
	return role, err
}

// ResolveActor returns the internal owner record for the identity, or nil if it does not
// resolve, along with the effective role.
func (s *DecisionService) ResolveActor(ctx context.Context, identity models.ExternalIdentity) (*models.Owner, models.Role, error) {
	actor, role, err := s.resolveRole(ctx, identity)
	if err != nil {
		return nil, "", err
	}
	// Store mode has already looked the actor up, found or not.
	if s.opts.RoleSource != RoleSourceStore {
		if actor, err = s.resolveActor(ctx, identity); err != nil {
			return nil, "", err
		}
	}
	return actor, role, nil
}

// resolveRole derives the role. In store mode the actor is resolved on the way and
// returned so callers do not look it up twice; in claim mode actor is nil.
func (s *DecisionService) resolveRole(ctx context.Context, identity models.ExternalIdentity) (*models.Owner, models.Role, error) {
	claimed := models.NormalizeRole(identity.RoleClaim)
	if s.opts.RoleSource != RoleSourceStore {
		return nil, claimed, nil
	}

	actor, err := s.resolveActor(ctx, identity)
	if err != nil {
		return nil, "", err
	}
	if actor == nil {
		return nil, models.RoleViewer, nil
	}

	stored := models.NormalizeRole(actor.Role)
	if stored != claimed {
		s.logger.Warn("role claim disagrees with stored role",
			"subject", identity.SubjectID,
			"claimed", identity.RoleClaim,
			"stored", actor.Role,
		)
	}
	return actor, stored, nil
}

func (s *DecisionService) resolveActor(ctx context.Context, identity models.ExternalIdentity) (*models.Owner, error) {
	if s.opts.RequireVerifiedEmail && !identity.EmailVerified {
		return nil, nil
	}
	owner, err := s.identities.ResolveOwner(ctx, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("resolve actor %s: %w", identity.SubjectID, err)
	}
	return owner, nil
}

func (s *DecisionService) record(d models.Decision) {
	recordDecision(d)

	attrs := []any{
		"role", d.Role,
		"resource", d.Resource,
		"action", d.Action,
		"authorized", d.Authorized,
	}
	if d.OwnerID != nil {
		attrs = append(attrs, "owner_id", *d.OwnerID)
	}
	if !d.Authorized {
		attrs = append(attrs, "reason", d.Reason)
	}
	s.logger.Debug("authorization decision", attrs...)
}
