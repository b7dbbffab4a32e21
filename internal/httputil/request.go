package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"newsroom/internal/config"
	"newsroom/internal/domain"
)

// ParseJSON decodes JSON from the request body into the given destination.
// The body is size-limited and unknown fields are rejected; decode failures
// wrap domain.ErrValidation.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", domain.ErrValidation, err)
	}

	return nil
}
