package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"newsroom/internal/config"
	"newsroom/internal/domain"
	"newsroom/internal/domain/models"
	"newsroom/internal/httputil"
)

// CheckRequest asks whether the caller may perform action on resource.
// With a resource id, ownership-scoped permissions are evaluated against that row.
type CheckRequest struct {
	Resource   models.Resource `json:"resource"`
	Action     models.Action   `json:"action"`
	ResourceID *ResourceID     `json:"resource_id,omitempty"`
}

// Validate implements validation.Validatable
func (r CheckRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Resource, validation.Required, validation.By(knownResource)),
		validation.Field(&r.Action, validation.Required, validation.By(knownAction)),
		validation.Field(&r.ResourceID),
	)
}

// StatusRequest asks which status a write requesting status would persist.
// An absent or null status stays absent.
type StatusRequest struct {
	Resource models.Resource                         `json:"resource"`
	Status   httputil.Optional[models.ContentStatus] `json:"status"`
}

// Validate implements validation.Validatable
func (r StatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Resource, validation.Required, validation.By(knownResource)),
		validation.Field(&r.Status, validation.By(knownStatus)),
	)
}

// StatusResponse carries the status the write should persist.
type StatusResponse struct {
	Status *models.ContentStatus `json:"status"`
}

// MeResponse describes the authenticated caller as the authorization core sees them.
type MeResponse struct {
	SubjectID   string                                                         `json:"subject_id"`
	Email       string                                                         `json:"email"`
	Role        models.Role                                                    `json:"role"`
	OwnerID     *models.OwnerID                                                `json:"owner_id"`
	Permissions map[models.Resource]map[models.Action]models.PermissionValue `json:"permissions"`
}

// ResourceID is a row key given either as a JSON integer or a string.
type ResourceID struct {
	value any
}

// NewResourceID wraps an int64 or string row key.
func NewResourceID(v any) *ResourceID {
	return &ResourceID{value: v}
}

// Value returns the key as int64 or string.
func (id *ResourceID) Value() any {
	if id == nil {
		return nil
	}
	return id.value
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ResourceID) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return fmt.Errorf("resource_id must be an integer or a string, got %s", t)
		}
		id.value = n
	case string:
		id.value = t
	default:
		return fmt.Errorf("resource_id must be an integer or a string")
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (id ResourceID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// Validate implements validation.Validatable
func (id ResourceID) Validate() error {
	if s, ok := id.value.(string); ok {
		return validation.Validate(s,
			validation.Required.Error("resource_id cannot be empty"),
			validation.RuneLength(1, config.MaxResourceIDLength),
		)
	}
	return nil
}

func knownResource(value interface{}) error {
	if r, _ := value.(models.Resource); r != "" && !r.Valid() {
		return errors.New("unknown resource")
	}
	return nil
}

func knownAction(value interface{}) error {
	if a, _ := value.(models.Action); a != "" && !a.Valid() {
		return errors.New("unknown action")
	}
	return nil
}

func knownStatus(value interface{}) error {
	opt, _ := value.(httputil.Optional[models.ContentStatus])
	if s := opt.Value; s != nil && !s.Valid() {
		return errors.New("status must be draft or published")
	}
	return nil
}

// validate runs a request's rules and tags failures as validation errors.
func validate(v validation.Validatable) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
