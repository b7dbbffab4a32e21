package models

import (
	"fmt"

	"newsroom/internal/domain"
)

// Role is the privilege tier carried by an authenticated user.
// Roles are not ordered; every permission is looked up independently.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleContentManager    Role = "content_manager"
	RoleContentSpecialist Role = "content_specialist"
	RoleViewer            Role = "viewer"
)

// Roles lists every role in the fixed enum.
var Roles = []Role{RoleAdmin, RoleContentManager, RoleContentSpecialist, RoleViewer}

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleContentManager, RoleContentSpecialist, RoleViewer:
		return true
	}
	return false
}

// NormalizeRole maps a free-text role claim onto the enum.
// Anything that is not an exact match becomes RoleViewer.
func NormalizeRole(claim string) Role {
	if r := Role(claim); r.Valid() {
		return r
	}
	return RoleViewer
}

// Resource is a category of object under access control.
type Resource string

const (
	ResourceArticles  Resource = "articles"
	ResourceNews      Resource = "news"
	ResourceSections  Resource = "sections"
	ResourceTags      Resource = "tags"
	ResourceTweets    Resource = "tweets"
	ResourceUsers     Resource = "users"
	ResourceSettings  Resource = "settings"
	ResourceAnalytics Resource = "analytics"
)

// Resources lists every resource in the fixed enum.
var Resources = []Resource{
	ResourceArticles, ResourceNews, ResourceSections, ResourceTags,
	ResourceTweets, ResourceUsers, ResourceSettings, ResourceAnalytics,
}

// Action is an operation requested against a resource.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionList    Action = "list"
	ActionPublish Action = "publish"
)

// Actions lists every action in the fixed enum.
var Actions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionList, ActionPublish}

var (
	crud        = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionList}
	publishable = append(append([]Action{}, crud...), ActionPublish)
)

// supportedActions is the shape of the permission matrix: which actions a resource defines.
var supportedActions = map[Resource][]Action{
	ResourceArticles:  publishable,
	ResourceNews:      publishable,
	ResourceTweets:    publishable,
	ResourceSections:  crud,
	ResourceTags:      crud,
	ResourceUsers:     crud,
	ResourceSettings:  {ActionRead, ActionUpdate},
	ResourceAnalytics: {ActionRead, ActionList},
}

// SupportedActions returns the actions defined for a resource, nil for unknown resources.
func SupportedActions(res Resource) []Action {
	actions := supportedActions[res]
	if actions == nil {
		return nil
	}
	return append([]Action(nil), actions...)
}

// Supports reports whether the resource defines the action.
func (res Resource) Supports(action Action) bool {
	for _, a := range supportedActions[res] {
		if a == action {
			return true
		}
	}
	return false
}

// Valid reports whether res is one of the fixed resources.
func (res Resource) Valid() bool {
	_, ok := supportedActions[res]
	return ok
}

// Valid reports whether a is one of the fixed actions.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// PermissionValue is the outcome of a catalog lookup.
// The zero value is PermissionDeny.
type PermissionValue int

const (
	PermissionDeny PermissionValue = iota
	PermissionAllow
	PermissionAllowIfOwner
)

func (p PermissionValue) String() string {
	switch p {
	case PermissionAllow:
		return "allow"
	case PermissionAllowIfOwner:
		return "own"
	default:
		return "deny"
	}
}

// ParsePermissionValue parses the catalog spelling of a permission value.
func ParsePermissionValue(s string) (PermissionValue, error) {
	switch s {
	case "allow":
		return PermissionAllow, nil
	case "own":
		return PermissionAllowIfOwner, nil
	case "deny":
		return PermissionDeny, nil
	}
	return PermissionDeny, fmt.Errorf("unknown permission value %q", s)
}

// MarshalText renders the catalog spelling.
func (p PermissionValue) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses the catalog spelling.
func (p *PermissionValue) UnmarshalText(text []byte) error {
	v, err := ParsePermissionValue(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// OwnerID is the integer key of a content owner (a row in the users table).
type OwnerID int64

// DenialReason explains why a Decision is not authorized.
type DenialReason string

const (
	ReasonMissingPermission  DenialReason = "missing permission"
	ReasonIdentityUnresolved DenialReason = "identity unresolved"
	ReasonNotOwner           DenialReason = "not owner"
)

// Decision is the per-request outcome of an authorization check.
type Decision struct {
	Authorized bool         `json:"authorized"`
	OwnerID    *OwnerID     `json:"owner_id"`
	Reason     DenialReason `json:"denial_reason,omitempty"`
	Role       Role         `json:"role"`
	Resource   Resource     `json:"resource"`
	Action     Action       `json:"action"`
}

// Err converts a denied decision into a *domain.PermissionDeniedError.
// Authorized decisions return nil.
func (d Decision) Err() error {
	if d.Authorized {
		return nil
	}
	return &domain.PermissionDeniedError{
		Role:     string(d.Role),
		Resource: string(d.Resource),
		Action:   string(d.Action),
		Reason:   string(d.Reason),
	}
}

// ContentStatus is the visibility state of publishable content.
type ContentStatus string

const (
	StatusDraft     ContentStatus = "draft"
	StatusPublished ContentStatus = "published"
)

// Valid reports whether s is a status content can be stored with.
func (s ContentStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Locator identifies one resource row and the column holding its owner id.
type Locator struct {
	Table       string
	IDColumn    string
	ResourceID  any
	OwnerColumn string
}

// ownerColumns records where each ownership-capable resource stores its owner.
var ownerColumns = map[Resource]Locator{
	ResourceArticles: {Table: "articles", IDColumn: "id", OwnerColumn: "author_id"},
	ResourceNews:     {Table: "news", IDColumn: "id", OwnerColumn: "author_id"},
	ResourceTweets:   {Table: "tweet_queue", IDColumn: "id", OwnerColumn: "created_by"},
	ResourceSections: {Table: "sections", IDColumn: "id", OwnerColumn: "created_by"},
	ResourceTags:     {Table: "tags", IDColumn: "id", OwnerColumn: "created_by"},
	ResourceUsers:    {Table: "users", IDColumn: "id", OwnerColumn: "id"},
}

// LocatorFor returns the conventional locator for a resource row.
// ok is false for resources without an owner notion (settings, analytics).
func LocatorFor(res Resource, id any) (Locator, bool) {
	loc, ok := ownerColumns[res]
	if !ok {
		return Locator{}, false
	}
	loc.ResourceID = id
	return loc, true
}
