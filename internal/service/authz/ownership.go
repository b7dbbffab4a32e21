package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"newsroom/internal/domain"
	"newsroom/internal/domain/models"
	"newsroom/internal/domain/repositories"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jackc/pgx/v5/pgtype"
)

// OwnershipResolver reads and compares resource owners.
type OwnershipResolver struct {
	repo repositories.OwnershipRepository
}

// NewOwnershipResolver creates an ownership resolver
func NewOwnershipResolver(repo repositories.OwnershipRepository) *OwnershipResolver {
	return &OwnershipResolver{repo: repo}
}

// FetchOwnerID performs one point read and returns the resource's owner id.
// ok is false when the row is absent or its owner is NULL; that is not a 404 signal,
// callers confirm existence separately.
func (o *OwnershipResolver) FetchOwnerID(ctx context.Context, loc models.Locator) (id models.OwnerID, ok bool, err error) {
	if err := validateLocator(loc); err != nil {
		return 0, false, fmt.Errorf("%w: locator: %v", domain.ErrValidation, err)
	}

	raw, found, err := o.repo.FetchOwner(ctx, loc)
	if err != nil {
		StoreErrorsTotal.WithLabelValues("fetch_owner").Inc()
		return 0, false, fmt.Errorf("fetch owner id of %s %v: %w", loc.Table, loc.ResourceID, err)
	}
	if !found {
		return 0, false, nil
	}

	id, ok = ParseOwnerID(raw)
	return id, ok, nil
}

func validateLocator(loc models.Locator) error {
	return validation.ValidateStruct(&loc,
		validation.Field(&loc.Table, validation.Required),
		validation.Field(&loc.IDColumn, validation.Required),
		validation.Field(&loc.OwnerColumn, validation.Required),
		validation.Field(&loc.ResourceID, validation.NotNil),
	)
}

// IsOwner compares two owner ids after numeric coercion.
// A nil or non-numeric value on either side is never an owner.
func IsOwner(resourceOwner, requesting any) bool {
	a, ok := ParseOwnerID(resourceOwner)
	if !ok {
		return false
	}
	b, ok := ParseOwnerID(requesting)
	if !ok {
		return false
	}
	return a == b
}

// ParseOwnerID coerces the value of an owner column (or a caller-supplied id) to an OwnerID.
func ParseOwnerID(v any) (models.OwnerID, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case models.OwnerID:
		return x, true
	case *models.OwnerID:
		if x == nil {
			return 0, false
		}
		return *x, true
	case int:
		return models.OwnerID(x), true
	case int8:
		return models.OwnerID(x), true
	case int16:
		return models.OwnerID(x), true
	case int32:
		return models.OwnerID(x), true
	case int64:
		return models.OwnerID(x), true
	case *int64:
		if x == nil {
			return 0, false
		}
		return models.OwnerID(*x), true
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return models.OwnerID(x), true
	case uint16:
		return models.OwnerID(x), true
	case uint32:
		return models.OwnerID(x), true
	case uint64:
		return fromUint(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case string:
		return fromString(x)
	case []byte:
		return fromString(string(x))
	case json.Number:
		return fromString(string(x))
	case pgtype.Int8:
		return models.OwnerID(x.Int64), x.Valid
	case pgtype.Int4:
		return models.OwnerID(x.Int32), x.Valid
	case pgtype.Int2:
		return models.OwnerID(x.Int16), x.Valid
	case pgtype.Numeric:
		if !x.Valid || x.NaN || x.InfinityModifier != pgtype.Finite {
			return 0, false
		}
		if x.Exp < 0 {
			// Only integral decimals are ids; 7.0 is stored as 70e-1.
			f, err := x.Float64Value()
			if err != nil || !f.Valid {
				return 0, false
			}
			return fromFloat(f.Float64)
		}
		i, err := x.Int64Value()
		if err != nil || !i.Valid {
			return 0, false
		}
		return models.OwnerID(i.Int64), true
	}
	return 0, false
}

func fromUint(u uint64) (models.OwnerID, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return models.OwnerID(u), true
}

func fromFloat(f float64) (models.OwnerID, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return models.OwnerID(f), true
}

func fromString(s string) (models.OwnerID, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return models.OwnerID(i), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return fromFloat(f)
}
