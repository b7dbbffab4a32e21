package authz

import "newsroom/internal/domain/models"

// Engine answers "may this role perform this action on this resource?" from the catalog.
type Engine struct {
	catalog *Catalog
}

// NewEngine creates an engine over a loaded catalog.
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Decide returns the permission for a free-text role claim.
// Roles outside the fixed enum are treated as viewer, never as an error.
func (e *Engine) Decide(role string, resource models.Resource, action models.Action) models.PermissionValue {
	return e.catalog.PermissionFor(models.NormalizeRole(role), resource, action)
}

// CanPublish reports whether the role holds an unconditional publish right on the resource.
func (e *Engine) CanPublish(role string, resource models.Resource) bool {
	return e.Decide(role, resource, models.ActionPublish) == models.PermissionAllow
}
