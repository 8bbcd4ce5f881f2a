package rbac

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMemberships maps (identity, org) pairs to raw role labels.
type fakeMemberships struct {
	roles map[uuid.UUID]map[uuid.UUID]string
}

func newFakeMemberships() *fakeMemberships {
	return &fakeMemberships{roles: make(map[uuid.UUID]map[uuid.UUID]string)}
}

func (f *fakeMemberships) add(identityID, orgID uuid.UUID, role string) {
	if f.roles[identityID] == nil {
		f.roles[identityID] = make(map[uuid.UUID]string)
	}
	f.roles[identityID][orgID] = role
}

func (f *fakeMemberships) ActiveRole(ctx context.Context, identityID, orgID uuid.UUID) (string, error) {
	role, ok := f.roles[identityID][orgID]
	if !ok {
		return "", ErrNoMembership
	}
	return role, nil
}

func TestHasPermissionSuperadminBypass(t *testing.T) {
	checker := NewChecker(newFakeMemberships())
	actor := Actor{ID: uuid.New(), Superadmin: true}

	allowed, err := checker.HasPermission(context.Background(), actor, uuid.New(), "delete_org")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestHasPermissionNoMembership(t *testing.T) {
	checker := NewChecker(newFakeMemberships())
	actor := Actor{ID: uuid.New()}

	for _, action := range []string{"", "view_task", "create_project", "delete_org"} {
		allowed, err := checker.HasPermission(context.Background(), actor, uuid.New(), action)
		require.NoError(t, err)
		assert.False(t, allowed, "action %q", action)
	}
}

func TestHasPermissionBareMembership(t *testing.T) {
	memberships := newFakeMemberships()
	actor := Actor{ID: uuid.New()}
	orgID := uuid.New()
	memberships.add(actor.ID, orgID, "viewer")
	checker := NewChecker(memberships)

	allowed, err := checker.HasPermission(context.Background(), actor, orgID, "")
	require.NoError(t, err)
	assert.True(t, allowed, "bare membership grants read-level access")
}

func TestHasPermissionLegacyViewerCannotWriteTasks(t *testing.T) {
	memberships := newFakeMemberships()
	actor := Actor{ID: uuid.New()}
	orgID := uuid.New()
	memberships.add(actor.ID, orgID, "viewer")
	checker := NewChecker(memberships)

	role, ok := Normalize("viewer")
	require.True(t, ok)
	assert.Equal(t, RoleClient, role)

	allowed, err := checker.HasPermission(context.Background(), actor, orgID, "create_task")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = checker.HasPermission(context.Background(), actor, orgID, "view_task")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestHasPermissionUnrecognizedRoleDenied(t *testing.T) {
	memberships := newFakeMemberships()
	actor := Actor{ID: uuid.New()}
	orgID := uuid.New()
	memberships.add(actor.ID, orgID, "wizard")
	checker := NewChecker(memberships)

	allowed, err := checker.HasPermission(context.Background(), actor, orgID, "view_task")
	require.NoError(t, err)
	assert.False(t, allowed, "unknown role must never default to privilege")
}

func TestHasPermissionUnknownActionDenied(t *testing.T) {
	memberships := newFakeMemberships()
	actor := Actor{ID: uuid.New()}
	orgID := uuid.New()
	memberships.add(actor.ID, orgID, "owner")
	checker := NewChecker(memberships)

	allowed, err := checker.HasPermission(context.Background(), actor, orgID, "launch_rockets")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasAllPermissions(t *testing.T) {
	memberships := newFakeMemberships()
	orgID := uuid.New()

	member := Actor{ID: uuid.New()}
	memberships.add(member.ID, orgID, "employee")

	client := Actor{ID: uuid.New()}
	memberships.add(client.ID, orgID, "client")

	checker := NewChecker(memberships)

	// assign_task expands to task:write and member:read; employee holds both.
	allowed, err := checker.HasAllPermissions(context.Background(), member, orgID, "assign_task")
	require.NoError(t, err)
	assert.True(t, allowed)

	// client holds neither, and under ANY semantics still holds neither.
	allowed, err = checker.HasAllPermissions(context.Background(), client, orgID, "assign_task")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRoleHierarchySpotChecks(t *testing.T) {
	t.Run("OwnerCanDeleteOrg", func(t *testing.T) {
		assert.True(t, RoleHasAny(RoleOwner, ExpandAction("delete_org")))
	})
	t.Run("AdminCannotDeleteOrg", func(t *testing.T) {
		assert.False(t, RoleHasAny(RoleAdmin, ExpandAction("delete_org")))
	})
	t.Run("AdminCanManageMembers", func(t *testing.T) {
		assert.True(t, RoleHasAny(RoleAdmin, ExpandAction("manage_members")))
	})
	t.Run("MemberCannotManageMembers", func(t *testing.T) {
		assert.False(t, RoleHasAny(RoleMember, ExpandAction("manage_members")))
	})
	t.Run("MemberCanCreateTasks", func(t *testing.T) {
		assert.True(t, RoleHasAny(RoleMember, ExpandAction("create_task")))
	})
	t.Run("ClientCanComment", func(t *testing.T) {
		assert.True(t, RoleHasAny(RoleClient, ExpandAction("comment")))
	})
}
