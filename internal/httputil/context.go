package httputil

import (
	"context"
	"net/http"

	"newsroom/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	identityKey  contextKey = "identity"
	requestIDKey contextKey = "requestID"
)

// WithIdentity adds the authenticated caller to the request context
func WithIdentity(r *http.Request, identity models.ExternalIdentity) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, identity)
	return r.WithContext(ctx)
}

// GetIdentity retrieves the authenticated caller; ok is false on unauthenticated routes
func GetIdentity(r *http.Request) (models.ExternalIdentity, bool) {
	identity, ok := r.Context().Value(identityKey).(models.ExternalIdentity)
	return identity, ok
}

// WithRequestID adds the request id to the request context
func WithRequestID(r *http.Request, id string) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDKey, id)
	return r.WithContext(ctx)
}

// GetRequestID retrieves the request id, returns empty string if not found
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
