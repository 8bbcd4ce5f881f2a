package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CacheResult is what the revocation cache knows about a rotation id.
type CacheResult int

const (
	// CacheUnknown means the cache has no opinion; callers fall through to
	// the session store. A cache outage therefore never fails closed.
	CacheUnknown CacheResult = iota
	// CacheValid means the entry is present and marked valid. The session
	// store's hash comparison still runs; the cache may be momentarily stale.
	CacheValid
	// CacheRevoked means the entry is present and marked revoked; the refresh
	// can be rejected without touching the store.
	CacheRevoked
)

// RevocationCache is the fast pre-check for refresh-token validity. It is a
// pure optimization over the session store; every implementation must be safe
// to lose entirely.
type RevocationCache interface {
	// Set records the validity of a rotation id for ttl.
	Set(ctx context.Context, identityID uuid.UUID, rotationID string, valid bool, ttl time.Duration) error

	// Check looks up a rotation id. Errors are treated as CacheUnknown by
	// callers.
	Check(ctx context.Context, identityID uuid.UUID, rotationID string) (CacheResult, error)

	// Invalidate drops a single entry.
	Invalidate(ctx context.Context, identityID uuid.UUID, rotationID string) error

	// InvalidateAll drops every entry for an identity (logout-all,
	// deactivation).
	InvalidateAll(ctx context.Context, identityID uuid.UUID) error
}

// NoopCache is the always-miss RevocationCache used when no cache backend is
// configured. Calling code never branches on whether the cache is up.
type NoopCache struct{}

// NewNoopCache creates a new no-op revocation cache
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (c *NoopCache) Set(ctx context.Context, identityID uuid.UUID, rotationID string, valid bool, ttl time.Duration) error {
	return nil
}

func (c *NoopCache) Check(ctx context.Context, identityID uuid.UUID, rotationID string) (CacheResult, error) {
	return CacheUnknown, nil
}

func (c *NoopCache) Invalidate(ctx context.Context, identityID uuid.UUID, rotationID string) error {
	return nil
}

func (c *NoopCache) InvalidateAll(ctx context.Context, identityID uuid.UUID) error {
	return nil
}

type cacheEntry struct {
	identityID uuid.UUID
	valid      bool
	expiresAt  time.Time
}

// MemoryCache is an in-process RevocationCache with per-entry TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry // keyed by rotation id
}

// NewMemoryCache creates a new in-memory revocation cache. A cleanup
// goroutine evicts expired entries at the given interval.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]cacheEntry),
	}
	if cleanupInterval > 0 {
		go c.cleanup(cleanupInterval)
	}
	return c
}

func (c *MemoryCache) Set(ctx context.Context, identityID uuid.UUID, rotationID string, valid bool, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[rotationID] = cacheEntry{
		identityID: identityID,
		valid:      valid,
		expiresAt:  time.Now().UTC().Add(ttl),
	}
	return nil
}

func (c *MemoryCache) Check(ctx context.Context, identityID uuid.UUID, rotationID string) (CacheResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[rotationID]
	if !ok || entry.identityID != identityID || time.Now().UTC().After(entry.expiresAt) {
		return CacheUnknown, nil
	}
	if entry.valid {
		return CacheValid, nil
	}
	return CacheRevoked, nil
}

func (c *MemoryCache) Invalidate(ctx context.Context, identityID uuid.UUID, rotationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, rotationID)
	return nil
}

func (c *MemoryCache) InvalidateAll(ctx context.Context, identityID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for rotationID, entry := range c.entries {
		if entry.identityID == identityID {
			delete(c.entries, rotationID)
		}
	}
	return nil
}

func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now().UTC()
		c.mu.Lock()
		for rotationID, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, rotationID)
			}
		}
		c.mu.Unlock()
	}
}
