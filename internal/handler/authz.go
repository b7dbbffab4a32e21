package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"newsroom/internal/domain"
	"newsroom/internal/domain/models"
	"newsroom/internal/domain/services"
	"newsroom/internal/httputil"
)

// AuthzHandler exposes authorization decisions to the CMS front end and other services
type AuthzHandler struct {
	authorizer services.Authorizer
	governor   services.StatusGovernor
	catalog    services.PermissionCatalog
	logger     *slog.Logger
}

// NewAuthzHandler creates a new authorization handler
func NewAuthzHandler(
	authorizer services.Authorizer,
	governor services.StatusGovernor,
	catalog services.PermissionCatalog,
	logger *slog.Logger,
) *AuthzHandler {
	return &AuthzHandler{
		authorizer: authorizer,
		governor:   governor,
		catalog:    catalog,
		logger:     logger,
	}
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *AuthzHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}

// Me describes the caller: effective role, resolved user id and permission row
// GET /api/authz/me
func (h *AuthzHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := httputil.GetIdentity(r)
	if !ok {
		handleError(w, domain.ErrUnauthorized)
		return
	}

	actor, role, err := h.authorizer.ResolveActor(r.Context(), identity)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := MeResponse{
		SubjectID:   identity.SubjectID,
		Email:       identity.Email,
		Role:        role,
		Permissions: h.catalog.Row(role),
	}
	if actor != nil {
		id := actor.ID
		resp.OwnerID = &id
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// Check evaluates one (resource, action) request for the caller
// POST /api/authz/check
func (h *AuthzHandler) Check(w http.ResponseWriter, r *http.Request) {
	identity, ok := httputil.GetIdentity(r)
	if !ok {
		handleError(w, domain.ErrUnauthorized)
		return
	}

	var req CheckRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	if err := validate(req); err != nil {
		handleError(w, err)
		return
	}

	var decision models.Decision
	loc, ownable := models.LocatorFor(req.Resource, req.ResourceID.Value())
	if req.ResourceID != nil && ownable {
		d, err := h.authorizer.CheckWithOwnership(r.Context(), identity, req.Resource, req.Action, loc)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		decision = d
	} else {
		role, err := h.authorizer.EffectiveRole(r.Context(), identity)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		decision = h.authorizer.CheckSimple(string(role), req.Resource, req.Action)
	}

	if err := decision.Err(); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, decision)
}

// Status resolves the content status a write by the caller would persist
// POST /api/authz/status
func (h *AuthzHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := httputil.GetIdentity(r)
	if !ok {
		handleError(w, domain.ErrUnauthorized)
		return
	}

	var req StatusRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	if err := validate(req); err != nil {
		handleError(w, err)
		return
	}

	role, err := h.authorizer.EffectiveRole(r.Context(), identity)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	status := h.governor.ResolvePatch(string(role), req.Resource, req.Status.Value)
	httputil.RespondJSON(w, http.StatusOK, StatusResponse{Status: status})
}

// fail logs an unexpected service error before mapping it to a response.
func (h *AuthzHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	level := slog.LevelError
	if errors.Is(err, domain.ErrStoreUnavailable) {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, "authorization failed",
		"path", r.URL.Path,
		"request_id", httputil.GetRequestID(r),
		"error", err,
	)
	handleError(w, err)
}
