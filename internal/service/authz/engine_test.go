package authz

import (
	"testing"

	"newsroom/internal/domain/models"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(loadCatalog(t))
}

func TestEngine_UnknownRoleBehavesAsViewer(t *testing.T) {
	engine := newEngine(t)

	claims := []string{"bogus", "", "ADMIN", "Admin ", "root", "content-manager"}

	for _, claim := range claims {
		for _, res := range models.Resources {
			for _, action := range models.Actions {
				got := engine.Decide(claim, res, action)
				want := engine.Decide("viewer", res, action)
				if got != want {
					t.Errorf("Decide(%q, %s, %s) = %v, viewer gets %v", claim, res, action, got, want)
				}
			}
		}
	}
}

func TestEngine_Decide(t *testing.T) {
	engine := newEngine(t)

	tests := []struct {
		role     string
		resource models.Resource
		action   models.Action
		want     models.PermissionValue
	}{
		{"admin", models.ResourceUsers, models.ActionDelete, models.PermissionAllow},
		{"content_specialist", models.ResourceArticles, models.ActionUpdate, models.PermissionAllowIfOwner},
		{"content_specialist", models.ResourceUsers, models.ActionUpdate, models.PermissionAllowIfOwner},
		{"viewer", models.ResourceTweets, models.ActionRead, models.PermissionDeny},
		{"bogus", models.ResourceArticles, models.ActionRead, models.PermissionAllow},
		{"bogus", models.ResourceArticles, models.ActionCreate, models.PermissionDeny},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+string(tt.resource)+"/"+string(tt.action), func(t *testing.T) {
			if got := engine.Decide(tt.role, tt.resource, tt.action); got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_CanPublish(t *testing.T) {
	engine := newEngine(t)

	tests := []struct {
		role     string
		resource models.Resource
		want     bool
	}{
		{"admin", models.ResourceArticles, true},
		{"content_manager", models.ResourceNews, true},
		{"content_manager", models.ResourceTweets, true},
		{"content_specialist", models.ResourceArticles, false},
		{"viewer", models.ResourceArticles, false},
		{"admin", models.ResourceSections, false},
		{"bogus", models.ResourceArticles, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+string(tt.resource), func(t *testing.T) {
			if got := engine.CanPublish(tt.role, tt.resource); got != tt.want {
				t.Errorf("CanPublish() = %v, want %v", got, tt.want)
			}
		})
	}
}
