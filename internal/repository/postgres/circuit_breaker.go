package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"
	"newsroom/internal/domain"
	"newsroom/internal/domain/models"
	"newsroom/internal/domain/repositories"
)

var (
	// BreakerState reports 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "authz_store_breaker_state",
			Help: "Circuit breaker state of authorization store reads (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	BreakerRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_store_breaker_rejected_total",
			Help: "Store reads rejected without a query because the breaker was open",
		},
		[]string{"name"},
	)
)

// BreakerSettings tunes the store circuit breaker.
type BreakerSettings struct {
	Name string
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// HalfOpenRequests may reach the store while half-open.
	HalfOpenRequests uint32
}

// DefaultBreakerSettings returns the production breaker tuning.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:                "authz-store",
		ConsecutiveFailures: 5,
		OpenTimeout:         10 * time.Second,
		HalfOpenRequests:    1,
	}
}

// StoreBreaker guards identity and ownership reads with one circuit breaker.
// While open, reads fail immediately with *domain.StoreUnavailableError.
type StoreBreaker struct {
	cb     *gobreaker.CircuitBreaker[any]
	name   string
	logger *slog.Logger
}

// NewStoreBreaker creates a breaker shared by the repositories of one database.
func NewStoreBreaker(settings BreakerSettings, logger *slog.Logger) *StoreBreaker {
	BreakerState.WithLabelValues(settings.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("store circuit breaker state change",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &StoreBreaker{cb: cb, name: settings.Name, logger: logger}
}

// State returns the current breaker state.
func (b *StoreBreaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *StoreBreaker) execute(op string, fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		BreakerRejectedTotal.WithLabelValues(b.name).Inc()
		return nil, &domain.StoreUnavailableError{Op: op, Err: err}
	}
	return result, err
}

// Identities wraps an identity repository with the breaker.
func (b *StoreBreaker) Identities(repo repositories.IdentityRepository) repositories.IdentityRepository {
	return &breakerIdentityRepository{repo: repo, breaker: b}
}

// Ownership wraps an ownership repository with the breaker.
func (b *StoreBreaker) Ownership(repo repositories.OwnershipRepository) repositories.OwnershipRepository {
	return &breakerOwnershipRepository{repo: repo, breaker: b}
}

type breakerIdentityRepository struct {
	repo    repositories.IdentityRepository
	breaker *StoreBreaker
}

func (r *breakerIdentityRepository) FindByEmail(ctx context.Context, normalizedEmail string) (*models.Owner, error) {
	result, err := r.breaker.execute("find user by email", func() (any, error) {
		return r.repo.FindByEmail(ctx, normalizedEmail)
	})
	if err != nil {
		return nil, err
	}
	owner, _ := result.(*models.Owner)
	return owner, nil
}

type breakerOwnershipRepository struct {
	repo    repositories.OwnershipRepository
	breaker *StoreBreaker
}

type ownerRead struct {
	owner any
	found bool
}

func (r *breakerOwnershipRepository) FetchOwner(ctx context.Context, loc models.Locator) (any, bool, error) {
	result, err := r.breaker.execute("fetch owner", func() (any, error) {
		owner, found, err := r.repo.FetchOwner(ctx, loc)
		return ownerRead{owner: owner, found: found}, err
	})
	if err != nil {
		return nil, false, err
	}
	read, _ := result.(ownerRead)
	return read.owner, read.found, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// isBreakerSuccess reports whether err leaves the breaker's failure count alone.
// Only an unavailable store counts. Cancellations do not, and neither do locators
// naming a missing table or column: those fail one caller, not the database.
func isBreakerSuccess(err error) bool {
	if err == nil || IsPgUndefinedError(err) {
		return true
	}
	return !errors.Is(err, domain.ErrStoreUnavailable)
}
