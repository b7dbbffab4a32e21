package authz

import (
	"newsroom/internal/domain/models"
	"newsroom/internal/domain/services"
)

// PublishGovernor narrows requested content status to what the role may persist.
//
// It only ever turns "published" into "draft". Going back from published to draft
// needs no special right: any role allowed to update the content may unpublish it.
type PublishGovernor struct {
	engine *Engine
}

var _ services.StatusGovernor = (*PublishGovernor)(nil)

// NewPublishGovernor creates a governor over the engine.
func NewPublishGovernor(engine *Engine) *PublishGovernor {
	return &PublishGovernor{engine: engine}
}

// ResolveStatus returns the status to persist. Publish rights are evaluated on every
// call, so a demoted user cannot publish even if an earlier request did.
func (g *PublishGovernor) ResolveStatus(role string, resource models.Resource, requested models.ContentStatus) models.ContentStatus {
	if requested != models.StatusPublished {
		return requested
	}
	if g.engine.CanPublish(role, resource) {
		return requested
	}
	PublishDowngradesTotal.WithLabelValues(string(models.NormalizeRole(role)), string(resource)).Inc()
	return models.StatusDraft
}

// ResolvePatch applies ResolveStatus to the optional status of a partial update.
// A nil status (field absent) stays nil.
func (g *PublishGovernor) ResolvePatch(role string, resource models.Resource, requested *models.ContentStatus) *models.ContentStatus {
	if requested == nil {
		return nil
	}
	status := g.ResolveStatus(role, resource, *requested)
	return &status
}
