package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetAndCheck(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()
	identityID := uuid.New()

	require.NoError(t, cache.Set(ctx, identityID, "rot-1", true, time.Minute))

	result, err := cache.Check(ctx, identityID, "rot-1")
	require.NoError(t, err)
	assert.Equal(t, CacheValid, result)

	// entries are scoped to the identity that set them
	result, err = cache.Check(ctx, uuid.New(), "rot-1")
	require.NoError(t, err)
	assert.Equal(t, CacheUnknown, result)
}

func TestMemoryCacheRevokedEntry(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()
	identityID := uuid.New()

	require.NoError(t, cache.Set(ctx, identityID, "rot-1", false, time.Minute))

	result, err := cache.Check(ctx, identityID, "rot-1")
	require.NoError(t, err)
	assert.Equal(t, CacheRevoked, result)
}

func TestMemoryCacheMissIsUnknown(t *testing.T) {
	cache := NewMemoryCache(0)

	result, err := cache.Check(context.Background(), uuid.New(), "absent")
	require.NoError(t, err)
	assert.Equal(t, CacheUnknown, result, "a miss must fail open, never closed")
}

func TestMemoryCacheTTL(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()
	identityID := uuid.New()

	require.NoError(t, cache.Set(ctx, identityID, "rot-1", true, 30*time.Millisecond))
	time.Sleep(60 * time.Millisecond)

	result, err := cache.Check(ctx, identityID, "rot-1")
	require.NoError(t, err)
	assert.Equal(t, CacheUnknown, result)
}

func TestMemoryCacheInvalidate(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()
	identityID := uuid.New()

	require.NoError(t, cache.Set(ctx, identityID, "rot-1", true, time.Minute))
	require.NoError(t, cache.Invalidate(ctx, identityID, "rot-1"))

	result, err := cache.Check(ctx, identityID, "rot-1")
	require.NoError(t, err)
	assert.Equal(t, CacheUnknown, result)
}

func TestMemoryCacheInvalidateAll(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()
	identityID := uuid.New()
	otherID := uuid.New()

	require.NoError(t, cache.Set(ctx, identityID, "rot-1", true, time.Minute))
	require.NoError(t, cache.Set(ctx, identityID, "rot-2", true, time.Minute))
	require.NoError(t, cache.Set(ctx, otherID, "rot-3", true, time.Minute))

	require.NoError(t, cache.InvalidateAll(ctx, identityID))

	for _, rotationID := range []string{"rot-1", "rot-2"} {
		result, err := cache.Check(ctx, identityID, rotationID)
		require.NoError(t, err)
		assert.Equal(t, CacheUnknown, result)
	}

	result, err := cache.Check(ctx, otherID, "rot-3")
	require.NoError(t, err)
	assert.Equal(t, CacheValid, result)
}

func TestNoopCacheAlwaysUnknown(t *testing.T) {
	cache := NewNoopCache()
	ctx := context.Background()
	identityID := uuid.New()

	require.NoError(t, cache.Set(ctx, identityID, "rot-1", true, time.Minute))

	result, err := cache.Check(ctx, identityID, "rot-1")
	require.NoError(t, err)
	assert.Equal(t, CacheUnknown, result)

	require.NoError(t, cache.Invalidate(ctx, identityID, "rot-1"))
	require.NoError(t, cache.InvalidateAll(ctx, identityID))
}
