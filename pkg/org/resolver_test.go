package org

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExplicitMember(t *testing.T) {
	repo := NewInMemRepository()
	svc := NewService(repo)
	resolver := NewResolver(repo)
	ctx := context.Background()

	identityID := uuid.New()
	organization, err := svc.CreateOrganization(ctx, identityID, "Acme", "")
	require.NoError(t, err)

	resolved, err := resolver.Resolve(ctx, ResolveInput{
		IdentityID: identityID,
		Explicit:   organization.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, organization.ID, resolved)
}

func TestResolveExplicitStrangerForbidden(t *testing.T) {
	repo := NewInMemRepository()
	svc := NewService(repo)
	resolver := NewResolver(repo)
	ctx := context.Background()

	organization, err := svc.CreateOrganization(ctx, uuid.New(), "Acme", "")
	require.NoError(t, err)

	// stranger with their own org elsewhere still cannot name this one
	strangerID := uuid.New()
	_, err = svc.CreateOrganization(ctx, strangerID, "Other Corp", "")
	require.NoError(t, err)

	_, err = resolver.Resolve(ctx, ResolveInput{
		IdentityID: strangerID,
		Explicit:   organization.ID,
	})
	assert.ErrorIs(t, err, ErrNotMember, "authorization error, not not-found")
}

func TestResolveSuspendedMembershipForbidden(t *testing.T) {
	repo := NewInMemRepository()
	resolver := NewResolver(repo)
	ctx := context.Background()

	identityID := uuid.New()
	orgID := uuid.New()
	_, err := repo.CreateMembership(ctx, CreateMembershipParams{
		IdentityID:     identityID,
		OrganizationID: orgID,
		Role:           "member",
		Status:         StatusSuspended,
	})
	require.NoError(t, err)

	_, err = resolver.Resolve(ctx, ResolveInput{IdentityID: identityID, Explicit: orgID})
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestResolveCachedBeatsFallback(t *testing.T) {
	repo := NewInMemRepository()
	svc := NewService(repo)
	resolver := NewResolver(repo)
	ctx := context.Background()

	identityID := uuid.New()
	first, err := svc.CreateOrganization(ctx, identityID, "First", "")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.CreateOrganization(ctx, identityID, "Second", "")
	require.NoError(t, err)

	resolved, err := resolver.Resolve(ctx, ResolveInput{
		IdentityID: identityID,
		Cached:     second.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, second.ID, resolved)

	// explicit beats cached
	resolved, err = resolver.Resolve(ctx, ResolveInput{
		IdentityID: identityID,
		Explicit:   first.ID,
		Cached:     second.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, resolved)
}

func TestResolveFallsBackToOldestMembership(t *testing.T) {
	repo := NewInMemRepository()
	svc := NewService(repo)
	resolver := NewResolver(repo)
	ctx := context.Background()

	identityID := uuid.New()
	first, err := svc.CreateOrganization(ctx, identityID, "First", "")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = svc.CreateOrganization(ctx, identityID, "Second", "")
	require.NoError(t, err)

	resolved, err := resolver.Resolve(ctx, ResolveInput{IdentityID: identityID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, resolved, "deterministic oldest-membership default")
}

func TestResolveNoOrganization(t *testing.T) {
	resolver := NewResolver(NewInMemRepository())

	_, err := resolver.Resolve(context.Background(), ResolveInput{IdentityID: uuid.New()})
	assert.ErrorIs(t, err, ErrNoOrganization)
}

func TestResolveSuperadmin(t *testing.T) {
	repo := NewInMemRepository()
	svc := NewService(repo)
	resolver := NewResolver(repo)
	ctx := context.Background()

	organization, err := svc.CreateOrganization(ctx, uuid.New(), "Acme", "")
	require.NoError(t, err)

	adminID := uuid.New()

	t.Run("BypassesMembershipCheck", func(t *testing.T) {
		resolved, err := resolver.Resolve(ctx, ResolveInput{
			IdentityID: adminID,
			Superadmin: true,
			Explicit:   organization.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, organization.ID, resolved)
	})

	t.Run("StillNeedsAnOrganization", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, ResolveInput{
			IdentityID: adminID,
			Superadmin: true,
		})
		assert.ErrorIs(t, err, ErrNoOrganization)
	})
}
