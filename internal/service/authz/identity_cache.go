package authz

import (
	"sync"
	"time"

	"newsroom/internal/domain/models"
)

// DefaultIdentityCacheTTL bounds how stale a cached email → owner mapping may be.
const DefaultIdentityCacheTTL = 60 * time.Second

// IdentityCache memoizes identity lookups across requests.
// A cached nil owner records that the email did not resolve.
type IdentityCache interface {
	// Get returns the cached owner and whether the entry was present and fresh.
	Get(email string) (owner *models.Owner, ok bool)
	// Set stores an owner (or nil for "no such user") under a normalized email.
	Set(email string, owner *models.Owner)
	// Invalidate drops one email, e.g. after its user row changed.
	Invalidate(email string)
	// Purge drops every entry.
	Purge()
}

// MemoryIdentityCache is an in-process IdentityCache with a fixed TTL.
type MemoryIdentityCache struct {
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	items    map[string]identityEntry
	stopChan chan struct{}
	stopOnce sync.Once
}

type identityEntry struct {
	owner     *models.Owner
	expiresAt time.Time
}

// NewMemoryIdentityCache creates a cache and starts its expiry sweeper.
// Call Close to stop the sweeper.
func NewMemoryIdentityCache(ttl time.Duration) *MemoryIdentityCache {
	return newMemoryIdentityCache(ttl, time.Now)
}

func newMemoryIdentityCache(ttl time.Duration, now func() time.Time) *MemoryIdentityCache {
	if ttl <= 0 {
		ttl = DefaultIdentityCacheTTL
	}
	c := &MemoryIdentityCache{
		ttl:      ttl,
		now:      now,
		items:    make(map[string]identityEntry),
		stopChan: make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get implements IdentityCache.
func (c *MemoryIdentityCache) Get(email string) (*models.Owner, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.items[email]
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	if entry.owner == nil {
		return nil, true
	}
	owner := *entry.owner
	return &owner, true
}

// Set implements IdentityCache.
func (c *MemoryIdentityCache) Set(email string, owner *models.Owner) {
	var stored *models.Owner
	if owner != nil {
		cp := *owner
		stored = &cp
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[email] = identityEntry{owner: stored, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate implements IdentityCache.
func (c *MemoryIdentityCache) Invalidate(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, email)
}

// Purge implements IdentityCache.
func (c *MemoryIdentityCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]identityEntry)
}

// Len returns the number of stored entries, expired ones included until the next sweep.
func (c *MemoryIdentityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the sweeper. It is safe to call more than once.
func (c *MemoryIdentityCache) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	return nil
}

func (c *MemoryIdentityCache) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *MemoryIdentityCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.items {
		if !now.Before(entry.expiresAt) {
			delete(c.items, key)
		}
	}
}
