package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"newsroom/internal/domain"
	"newsroom/internal/domain/models"
	"newsroom/internal/domain/repositories"

	"golang.org/x/sync/singleflight"
)

// IdentityResolver maps an external identity's email to the internal owner record.
type IdentityResolver struct {
	repo   repositories.IdentityRepository
	cache  IdentityCache
	group  singleflight.Group
	logger *slog.Logger
}

// NewIdentityResolver creates a resolver. cache may be nil to disable memoization.
func NewIdentityResolver(repo repositories.IdentityRepository, cache IdentityCache, logger *slog.Logger) *IdentityResolver {
	return &IdentityResolver{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// NormalizeEmail trims surrounding whitespace and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResolveOwner returns the live user whose normalized email matches, or nil if none does.
// An empty email returns nil without touching the store.
func (r *IdentityResolver) ResolveOwner(ctx context.Context, email string) (*models.Owner, error) {
	key := NormalizeEmail(email)
	if key == "" {
		return nil, nil
	}

	if r.cache != nil {
		if owner, ok := r.cache.Get(key); ok {
			IdentityCacheHitsTotal.Inc()
			return owner, nil
		}
		IdentityCacheMissesTotal.Inc()
	}

	// Concurrent misses for one email share a single store read. The read is detached
	// from any one caller's cancellation; each caller stops waiting on its own ctx.
	ch := r.group.DoChan(key, func() (interface{}, error) {
		owner, err := r.repo.FindByEmail(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			r.cache.Set(key, owner)
		}
		return owner, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		StoreErrorsTotal.WithLabelValues("resolve_owner").Inc()
		r.logger.Warn("identity lookup abandoned", "error", ctx.Err())
		return nil, &domain.StoreUnavailableError{Op: "resolve owner", Err: ctx.Err()}
	}

	v, err := res.Val, res.Err
	if err != nil {
		StoreErrorsTotal.WithLabelValues("resolve_owner").Inc()
		var storeErr *domain.StoreUnavailableError
		if errors.As(err, &storeErr) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &domain.StoreUnavailableError{Op: "resolve owner", Err: err}
	}

	owner, _ := v.(*models.Owner)
	if owner == nil {
		return nil, nil
	}
	cp := *owner
	return &cp, nil
}

// ResolveOwnerID returns the owner id for an email; ok is false when no live user matches.
func (r *IdentityResolver) ResolveOwnerID(ctx context.Context, email string) (id models.OwnerID, ok bool, err error) {
	owner, err := r.ResolveOwner(ctx, email)
	if err != nil {
		return 0, false, fmt.Errorf("resolve owner id: %w", err)
	}
	if owner == nil {
		return 0, false, nil
	}
	return owner.ID, true, nil
}

// Forget drops any cached mapping for the email so the next lookup hits the store.
func (r *IdentityResolver) Forget(email string) {
	if r.cache != nil {
		r.cache.Invalidate(NormalizeEmail(email))
	}
}
