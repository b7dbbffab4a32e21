package authz

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"newsroom/internal/domain/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeIdentityRepo is an in-memory users table keyed by stored (raw) email.
type fakeIdentityRepo struct {
	mu      sync.Mutex
	users   []fakeUser
	err     error
	calls   int
	queried []string
}

type fakeUser struct {
	owner   models.Owner
	deleted bool
}

func (f *fakeIdentityRepo) add(id models.OwnerID, email, role string) *fakeIdentityRepo {
	f.users = append(f.users, fakeUser{owner: models.Owner{ID: id, Email: email, Role: role}})
	return f
}

func (f *fakeIdentityRepo) addDeleted(id models.OwnerID, email, role string) *fakeIdentityRepo {
	f.users = append(f.users, fakeUser{owner: models.Owner{ID: id, Email: email, Role: role}, deleted: true})
	return f
}

func (f *fakeIdentityRepo) FindByEmail(ctx context.Context, normalizedEmail string) (*models.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queried = append(f.queried, normalizedEmail)
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if !u.deleted && NormalizeEmail(u.owner.Email) == normalizedEmail {
			owner := u.owner
			return &owner, nil
		}
	}
	return nil, nil
}

func (f *fakeIdentityRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeOwnershipRepo maps table → resource id → stored owner value.
type fakeOwnershipRepo struct {
	mu    sync.Mutex
	rows  map[string]map[any]any
	err   error
	calls int
	last  models.Locator
}

func newFakeOwnershipRepo() *fakeOwnershipRepo {
	return &fakeOwnershipRepo{rows: make(map[string]map[any]any)}
}

func (f *fakeOwnershipRepo) put(table string, id, owner any) *fakeOwnershipRepo {
	if f.rows[table] == nil {
		f.rows[table] = make(map[any]any)
	}
	f.rows[table][id] = owner
	return f
}

func (f *fakeOwnershipRepo) FetchOwner(ctx context.Context, loc models.Locator) (any, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = loc
	if f.err != nil {
		return nil, false, f.err
	}
	owner, ok := f.rows[loc.Table][loc.ResourceID]
	return owner, ok, nil
}

func (f *fakeOwnershipRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
