package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"newsroom/internal/domain/models"
)

var (
	// DecisionsTotal counts authorization decisions by role, resource, action and outcome.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"role", "resource", "action", "decision"},
	)

	// DeniedTotal tracks denials by reason, for alerting on unexpected spikes.
	DeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_denied_total",
			Help: "Total number of authorization denials by reason",
		},
		[]string{"role", "resource", "reason"},
	)

	// StoreErrorsTotal counts identity/ownership reads that failed.
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_store_errors_total",
			Help: "Total number of failed identity or ownership reads",
		},
		[]string{"op"},
	)

	// IdentityCacheHitsTotal counts identity lookups answered from the cache.
	IdentityCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_identity_cache_hits_total",
			Help: "Total number of identity cache hits",
		},
	)

	// IdentityCacheMissesTotal counts identity lookups that went to the store.
	IdentityCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_identity_cache_misses_total",
			Help: "Total number of identity cache misses",
		},
	)

	// PublishDowngradesTotal counts "published" requests coerced to "draft".
	PublishDowngradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_publish_downgrades_total",
			Help: "Total number of publish requests downgraded to draft",
		},
		[]string{"role", "resource"},
	)
)

func recordDecision(d models.Decision) {
	outcome := "allow"
	if !d.Authorized {
		outcome = "deny"
		DeniedTotal.WithLabelValues(string(d.Role), string(d.Resource), string(d.Reason)).Inc()
	}
	DecisionsTotal.WithLabelValues(string(d.Role), string(d.Resource), string(d.Action), outcome).Inc()
}
