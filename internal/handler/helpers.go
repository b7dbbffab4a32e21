package handler

import (
	"errors"
	"net/http"
	"strconv"

	"newsroom/internal/domain"
	"newsroom/internal/httputil"
)

// retryAfterSeconds is sent with 503 responses caused by an unavailable store.
const retryAfterSeconds = 1

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var deniedErr *domain.PermissionDeniedError

	switch {
	case errors.As(err, &deniedErr):
		httputil.RespondErrorWithExtras(w, http.StatusForbidden, deniedErr.Reason, map[string]interface{}{
			"role":     deniedErr.Role,
			"resource": deniedErr.Resource,
			"action":   deniedErr.Action,
			"reason":   deniedErr.Reason,
		})
	case errors.Is(err, domain.ErrStoreUnavailable):
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		httputil.RespondError(w, http.StatusServiceUnavailable, "authorization store unavailable")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
