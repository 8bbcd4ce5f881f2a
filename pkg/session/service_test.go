package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(NewInMemRepository())
}

func createParams(identityID uuid.UUID) CreateParams {
	return CreateParams{
		IdentityID: identityID,
		RotationID: uuid.New().String(),
		TokenHash:  uuid.New().String(),
		IPAddress:  "203.0.113.7",
		UserAgent:  "test-agent",
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

func TestCreateSessionValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("MissingIdentity", func(t *testing.T) {
		params := createParams(uuid.Nil)
		_, err := svc.CreateSession(ctx, params)
		assert.Error(t, err)
	})

	t.Run("ExpiryInPast", func(t *testing.T) {
		params := createParams(uuid.New())
		params.ExpiresAt = time.Now().Add(-time.Minute)
		_, err := svc.CreateSession(ctx, params)
		assert.Error(t, err)
	})

	t.Run("Valid", func(t *testing.T) {
		params := createParams(uuid.New())
		session, err := svc.CreateSession(ctx, params)
		require.NoError(t, err)
		assert.True(t, session.Active)
		assert.Equal(t, params.RotationID, session.RotationID)
	})
}

func TestRotateReplacesLineage(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	params := createParams(uuid.New())

	_, err := svc.CreateSession(ctx, params)
	require.NoError(t, err)

	rotated, err := svc.Rotate(ctx, RotateParams{
		OldRotationID: params.RotationID,
		OldTokenHash:  params.TokenHash,
		NewRotationID: "new-rotation",
		NewTokenHash:  "new-hash",
		ExpiresAt:     time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "new-rotation", rotated.RotationID)

	// old lineage id no longer resolves
	_, err = svc.GetByRotationID(ctx, params.RotationID)
	assert.ErrorIs(t, err, ErrNotFound)

	// new lineage does
	session, err := svc.GetByRotationID(ctx, "new-rotation")
	require.NoError(t, err)
	assert.Equal(t, params.IdentityID, session.IdentityID)
}

func TestRotateReplayFails(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	params := createParams(uuid.New())

	_, err := svc.CreateSession(ctx, params)
	require.NoError(t, err)

	rotate := RotateParams{
		OldRotationID: params.RotationID,
		OldTokenHash:  params.TokenHash,
		NewRotationID: "rotation-2",
		NewTokenHash:  "hash-2",
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	_, err = svc.Rotate(ctx, rotate)
	require.NoError(t, err)

	// presenting the spent pair again must conflict
	rotate.NewRotationID = "rotation-3"
	rotate.NewTokenHash = "hash-3"
	_, err = svc.Rotate(ctx, rotate)
	assert.ErrorIs(t, err, ErrRotationConflict)
}

func TestRotateHashMismatchFails(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	params := createParams(uuid.New())

	_, err := svc.CreateSession(ctx, params)
	require.NoError(t, err)

	_, err = svc.Rotate(ctx, RotateParams{
		OldRotationID: params.RotationID,
		OldTokenHash:  "stale-hash",
		NewRotationID: "rotation-2",
		NewTokenHash:  "hash-2",
		ExpiresAt:     time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrRotationConflict)
}

func TestConcurrentRotationExactlyOneWins(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	params := createParams(uuid.New())

	_, err := svc.CreateSession(ctx, params)
	require.NoError(t, err)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Rotate(ctx, RotateParams{
				OldRotationID: params.RotationID,
				OldTokenHash:  params.TokenHash,
				NewRotationID: uuid.New().String(),
				NewTokenHash:  uuid.New().String(),
				ExpiresAt:     time.Now().Add(time.Hour),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, ErrRotationConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent rotation may succeed")
	assert.Equal(t, attempts-1, conflicts)
}

func TestExpiredSessionIsNotFound(t *testing.T) {
	repo := NewInMemRepository()
	svc := NewService(repo)
	ctx := context.Background()

	params := createParams(uuid.New())
	params.ExpiresAt = time.Now().Add(50 * time.Millisecond)
	_, err := svc.CreateSession(ctx, params)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	_, err = svc.GetByRotationID(ctx, params.RotationID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevokeAll(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	identityID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateSession(ctx, createParams(identityID))
		require.NoError(t, err)
	}
	// a session belonging to someone else stays untouched
	other := createParams(uuid.New())
	_, err := svc.CreateSession(ctx, other)
	require.NoError(t, err)

	count, err := svc.RevokeAll(ctx, identityID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	sessions, err := svc.ListActive(ctx, identityID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	remaining, err := svc.ListActive(ctx, other.IdentityID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestRevokeSingle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	params := createParams(uuid.New())

	_, err := svc.CreateSession(ctx, params)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, params.RotationID))

	_, err = svc.GetByRotationID(ctx, params.RotationID)
	assert.ErrorIs(t, err, ErrNotFound)
}
