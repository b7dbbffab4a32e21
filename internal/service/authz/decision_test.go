package authz

import (
	"context"
	"errors"
	"testing"

	"newsroom/internal/domain"
	"newsroom/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type decisionFixture struct {
	identities *fakeIdentityRepo
	owners     *fakeOwnershipRepo
	svc        *DecisionService
}

// newDecisionFixture seeds actor 7 (specialist), actor 9 (specialist), a manager and an admin.
// Article 42 is owned by 7, article 99 by 9, article 100 has no owner.
func newDecisionFixture(t *testing.T, opts DecisionOptions) *decisionFixture {
	t.Helper()
	identities := (&fakeIdentityRepo{}).
		add(7, "writer@example.com", "content_specialist").
		add(9, "other@example.com", "content_specialist").
		add(3, "manager@example.com", "content_manager").
		add(1, "admin@example.com", "admin")
	owners := newFakeOwnershipRepo().
		put("articles", 42, int64(7)).
		put("articles", 99, int64(9)).
		put("articles", 100, nil).
		put("users", 7, int64(7))

	engine := newEngine(t)
	svc := NewDecisionService(
		engine,
		NewIdentityResolver(identities, nil, discardLogger()),
		NewOwnershipResolver(owners),
		opts,
		discardLogger(),
	)
	return &decisionFixture{identities: identities, owners: owners, svc: svc}
}

func identity(email, role string) models.ExternalIdentity {
	return models.ExternalIdentity{SubjectID: "sub-" + email, Email: email, RoleClaim: role, EmailVerified: true}
}

func article(id any) models.Locator {
	loc, _ := models.LocatorFor(models.ResourceArticles, id)
	return loc
}

func TestCheckSimple(t *testing.T) {
	f := newDecisionFixture(t, DecisionOptions{})

	tests := []struct {
		role       string
		resource   models.Resource
		action     models.Action
		authorized bool
	}{
		{"content_specialist", models.ResourceArticles, models.ActionCreate, true},
		{"content_specialist", models.ResourceSections, models.ActionCreate, false},
		{"viewer", models.ResourceArticles, models.ActionList, true},
		{"viewer", models.ResourceArticles, models.ActionCreate, false},
		{"bogus", models.ResourceArticles, models.ActionCreate, false},
		{"admin", models.ResourceSettings, models.ActionUpdate, true},
		// AllowIfOwner is not an unconditional grant.
		{"content_specialist", models.ResourceArticles, models.ActionUpdate, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+string(tt.resource)+"/"+string(tt.action), func(t *testing.T) {
			d := f.svc.CheckSimple(tt.role, tt.resource, tt.action)
			if d.Authorized != tt.authorized {
				t.Fatalf("Authorized = %v, want %v", d.Authorized, tt.authorized)
			}
			if !d.Authorized && d.Reason != models.ReasonMissingPermission {
				t.Errorf("Reason = %q, want %q", d.Reason, models.ReasonMissingPermission)
			}
			if d.Authorized && d.Reason != "" {
				t.Errorf("authorized decision carries reason %q", d.Reason)
			}
		})
	}

	if f.identities.callCount() != 0 || f.owners.callCount() != 0 {
		t.Error("CheckSimple must not touch the store")
	}
}

func TestCheckWithOwnership_Scenarios(t *testing.T) {
	ctx := context.Background()
	f := newDecisionFixture(t, DecisionOptions{})
	writer := identity("writer@example.com", "content_specialist")

	t.Run("owner may update own article", func(t *testing.T) {
		d, err := f.svc.CheckWithOwnership(ctx, writer, models.ResourceArticles, models.ActionUpdate, article(42))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.Authorized {
			t.Fatalf("expected authorized, got reason %q", d.Reason)
		}
		if d.OwnerID == nil || *d.OwnerID != 7 {
			t.Errorf("OwnerID = %v, want 7", d.OwnerID)
		}
	})

	t.Run("non-owner is denied", func(t *testing.T) {
		d, err := f.svc.CheckWithOwnership(ctx, writer, models.ResourceArticles, models.ActionUpdate, article(99))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Authorized || d.Reason != models.ReasonNotOwner {
			t.Errorf("got (%v, %q), want (false, %q)", d.Authorized, d.Reason, models.ReasonNotOwner)
		}
		if err := d.Err(); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("Err() = %v, want ErrForbidden", err)
		}
	})

	t.Run("resource without owner is not owned", func(t *testing.T) {
		d, _ := f.svc.CheckWithOwnership(ctx, writer, models.ResourceArticles, models.ActionDelete, article(100))
		if d.Authorized || d.Reason != models.ReasonNotOwner {
			t.Errorf("got (%v, %q), want not owner", d.Authorized, d.Reason)
		}
	})

	t.Run("missing resource is not owned", func(t *testing.T) {
		d, _ := f.svc.CheckWithOwnership(ctx, writer, models.ResourceArticles, models.ActionDelete, article(12345))
		if d.Authorized || d.Reason != models.ReasonNotOwner {
			t.Errorf("got (%v, %q), want not owner", d.Authorized, d.Reason)
		}
	})

	t.Run("string resource owner is coerced", func(t *testing.T) {
		f.owners.put("articles", "55", "7")
		d, _ := f.svc.CheckWithOwnership(ctx, writer, models.ResourceArticles, models.ActionUpdate, article("55"))
		if !d.Authorized {
			t.Errorf("expected authorized, got %q", d.Reason)
		}
	})

	t.Run("manager needs no ownership", func(t *testing.T) {
		before := f.owners.callCount()
		d, err := f.svc.CheckWithOwnership(ctx, identity("manager@example.com", "content_manager"), models.ResourceArticles, models.ActionDelete, article(99))
		if err != nil || !d.Authorized {
			t.Fatalf("got (%v, %v), want authorized", d.Authorized, err)
		}
		if d.OwnerID == nil || *d.OwnerID != 3 {
			t.Errorf("OwnerID = %v, want actor id 3 for auditing", d.OwnerID)
		}
		if f.owners.callCount() != before {
			t.Error("Allow must not read the resource owner")
		}
	})

	t.Run("allow with unresolved actor still authorizes", func(t *testing.T) {
		d, err := f.svc.CheckWithOwnership(ctx, identity("ghost-admin@example.com", "admin"), models.ResourceArticles, models.ActionDelete, article(42))
		if err != nil || !d.Authorized {
			t.Fatalf("got (%v, %v), want authorized", d.Authorized, err)
		}
		if d.OwnerID != nil {
			t.Errorf("OwnerID = %v, want nil", *d.OwnerID)
		}
	})

	t.Run("specialist may manage own user record", func(t *testing.T) {
		loc, _ := models.LocatorFor(models.ResourceUsers, 7)
		d, _ := f.svc.CheckWithOwnership(ctx, writer, models.ResourceUsers, models.ActionUpdate, loc)
		if !d.Authorized {
			t.Errorf("expected authorized, got %q", d.Reason)
		}
	})
}

func TestCheckWithOwnership_DenyReadsNothing(t *testing.T) {
	ctx := context.Background()
	f := newDecisionFixture(t, DecisionOptions{})

	cases := []models.ExternalIdentity{
		identity("writer@example.com", "viewer"),
		identity("writer@example.com", "bogus"),
		identity("", ""),
	}
	for _, id := range cases {
		d, err := f.svc.CheckWithOwnership(ctx, id, models.ResourceArticles, models.ActionUpdate, article(42))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Authorized || d.Reason != models.ReasonMissingPermission {
			t.Errorf("role %q: got (%v, %q), want missing permission", id.RoleClaim, d.Authorized, d.Reason)
		}
	}

	if n := f.owners.callCount(); n != 0 {
		t.Errorf("ownership reads = %d, want 0", n)
	}
	if n := f.identities.callCount(); n != 0 {
		t.Errorf("identity reads = %d, want 0", n)
	}
}

func TestCheckWithOwnership_UnresolvedIdentityFailsClosed(t *testing.T) {
	ctx := context.Background()
	f := newDecisionFixture(t, DecisionOptions{})

	for _, id := range []any{42, 100, 12345} {
		d, err := f.svc.CheckWithOwnership(ctx, identity("stranger@example.com", "content_specialist"), models.ResourceArticles, models.ActionUpdate, article(id))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Authorized || d.Reason != models.ReasonIdentityUnresolved {
			t.Errorf("article %v: got (%v, %q), want identity unresolved", id, d.Authorized, d.Reason)
		}
	}

	if n := f.owners.callCount(); n != 0 {
		t.Errorf("ownership reads = %d, want 0 when the actor is unresolved", n)
	}
}

func TestCheckWithOwnership_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newDecisionFixture(t, DecisionOptions{})
	writer := identity("writer@example.com", "content_specialist")

	first, err := f.svc.CheckWithOwnership(ctx, writer, models.ResourceArticles, models.ActionUpdate, article(99))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		again, err := f.svc.CheckWithOwnership(ctx, writer, models.ResourceArticles, models.ActionUpdate, article(99))
		if err != nil {
			t.Fatal(err)
		}
		if again.Authorized != first.Authorized || again.Reason != first.Reason || *again.OwnerID != *first.OwnerID {
			t.Fatalf("call %d: %+v differs from %+v", i, again, first)
		}
	}
}

func TestCheckWithOwnership_UnpublishNeedsOnlyUpdate(t *testing.T) {
	ctx := context.Background()
	f := newDecisionFixture(t, DecisionOptions{})
	engine := newEngine(t)

	if engine.CanPublish("content_specialist", models.ResourceArticles) {
		t.Fatal("fixture assumes specialists cannot publish")
	}
	d, err := f.svc.CheckWithOwnership(ctx, identity("writer@example.com", "content_specialist"), models.ResourceArticles, models.ActionUpdate, article(42))
	if err != nil || !d.Authorized {
		t.Fatalf("got (%v, %v), want authorized", d.Authorized, err)
	}
	// The governor leaves a draft request alone, so the published→draft write goes through.
	if got := NewPublishGovernor(engine).ResolveStatus("content_specialist", models.ResourceArticles, models.StatusDraft); got != models.StatusDraft {
		t.Errorf("ResolveStatus(draft) = %q", got)
	}
}

func TestCheckWithOwnership_StoreErrors(t *testing.T) {
	ctx := context.Background()
	writer := identity("writer@example.com", "content_specialist")

	t.Run("identity store down", func(t *testing.T) {
		f := newDecisionFixture(t, DecisionOptions{})
		f.identities.err = errors.New("dial tcp: connection refused")

		_, err := f.svc.CheckWithOwnership(ctx, writer, models.ResourceArticles, models.ActionUpdate, article(42))
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
		if errors.Is(err, domain.ErrForbidden) {
			t.Error("store failure must not look like a denial")
		}
	})

	t.Run("ownership store down", func(t *testing.T) {
		f := newDecisionFixture(t, DecisionOptions{})
		f.owners.err = &domain.StoreUnavailableError{Op: "fetch owner", Err: errors.New("timeout")}

		_, err := f.svc.CheckWithOwnership(ctx, writer, models.ResourceArticles, models.ActionUpdate, article(42))
		if !errors.Is(err, domain.ErrStoreUnavailable) || !domain.IsRetryable(err) {
			t.Fatalf("expected retryable store error, got %v", err)
		}
	})
}

func TestCheckWithOwnership_RequireVerifiedEmail(t *testing.T) {
	ctx := context.Background()
	f := newDecisionFixture(t, DecisionOptions{RequireVerifiedEmail: true})

	unverified := identity("writer@example.com", "content_specialist")
	unverified.EmailVerified = false

	d, err := f.svc.CheckWithOwnership(ctx, unverified, models.ResourceArticles, models.ActionUpdate, article(42))
	if err != nil {
		t.Fatal(err)
	}
	if d.Authorized || d.Reason != models.ReasonIdentityUnresolved {
		t.Errorf("got (%v, %q), want identity unresolved", d.Authorized, d.Reason)
	}
	if f.identities.callCount() != 0 {
		t.Error("unverified email must not be looked up")
	}
}

func TestEffectiveRole(t *testing.T) {
	ctx := context.Background()

	t.Run("claim source", func(t *testing.T) {
		f := newDecisionFixture(t, DecisionOptions{RoleSource: RoleSourceClaim})
		role, err := f.svc.EffectiveRole(ctx, identity("writer@example.com", "admin"))
		if err != nil || role != models.RoleAdmin {
			t.Errorf("EffectiveRole() = (%q, %v), want admin", role, err)
		}
		if f.identities.callCount() != 0 {
			t.Error("claim mode must not read the store")
		}
	})

	t.Run("store source overrides a forged claim", func(t *testing.T) {
		f := newDecisionFixture(t, DecisionOptions{RoleSource: RoleSourceStore})
		forged := identity("writer@example.com", "admin")

		role, err := f.svc.EffectiveRole(ctx, forged)
		if err != nil || role != models.RoleContentSpecialist {
			t.Errorf("EffectiveRole() = (%q, %v), want content_specialist", role, err)
		}

		d, err := f.svc.CheckWithOwnership(ctx, forged, models.ResourceArticles, models.ActionUpdate, article(99))
		if err != nil {
			t.Fatal(err)
		}
		if d.Authorized || d.Reason != models.ReasonNotOwner {
			t.Errorf("forged admin claim: got (%v, %q), want not owner", d.Authorized, d.Reason)
		}
	})

	t.Run("store source, unresolved identity is viewer", func(t *testing.T) {
		f := newDecisionFixture(t, DecisionOptions{RoleSource: RoleSourceStore})
		role, err := f.svc.EffectiveRole(ctx, identity("stranger@example.com", "admin"))
		if err != nil || role != models.RoleViewer {
			t.Errorf("EffectiveRole() = (%q, %v), want viewer", role, err)
		}
	})
}

func TestResolveActor_SingleLookup(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		source   RoleSource
		email    string
		claim    string
		wantID   models.OwnerID
		wantRole models.Role
	}{
		{"claim source", RoleSourceClaim, "writer@example.com", "admin", 7, models.RoleAdmin},
		{"store source", RoleSourceStore, "writer@example.com", "admin", 7, models.RoleContentSpecialist},
		{"store source, unresolved", RoleSourceStore, "stranger@example.com", "admin", 0, models.RoleViewer},
		{"claim source, unresolved", RoleSourceClaim, "stranger@example.com", "content_manager", 0, models.RoleContentManager},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDecisionFixture(t, DecisionOptions{RoleSource: tt.source})

			actor, role, err := f.svc.ResolveActor(ctx, identity(tt.email, tt.claim))
			if err != nil {
				t.Fatal(err)
			}
			if role != tt.wantRole {
				t.Errorf("role = %q, want %q", role, tt.wantRole)
			}
			switch {
			case tt.wantID == 0 && actor != nil:
				t.Errorf("actor = %+v, want nil", actor)
			case tt.wantID != 0 && (actor == nil || actor.ID != tt.wantID):
				t.Errorf("actor = %+v, want id %d", actor, tt.wantID)
			}
			if n := f.identities.callCount(); n != 1 {
				t.Errorf("store read %d times, want 1", n)
			}
		})
	}
}

func TestDecisionMetrics(t *testing.T) {
	f := newDecisionFixture(t, DecisionOptions{})

	denied := DeniedTotal.WithLabelValues("viewer", "tags", string(models.ReasonMissingPermission))
	allowed := DecisionsTotal.WithLabelValues("admin", "tags", "delete", "allow")
	beforeDenied := testutil.ToFloat64(denied)
	beforeAllowed := testutil.ToFloat64(allowed)

	f.svc.CheckSimple("viewer", models.ResourceTags, models.ActionDelete)
	f.svc.CheckSimple("admin", models.ResourceTags, models.ActionDelete)

	if got := testutil.ToFloat64(denied) - beforeDenied; got != 1 {
		t.Errorf("denied counter delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(allowed) - beforeAllowed; got != 1 {
		t.Errorf("allowed counter delta = %v, want 1", got)
	}
}
