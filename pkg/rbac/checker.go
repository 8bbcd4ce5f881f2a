package rbac

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNoMembership is returned by a MembershipSource when the identity has no
// active membership in the organization.
var ErrNoMembership = errors.New("no active membership")

// Actor is the authenticated identity a permission check runs for.
type Actor struct {
	ID         uuid.UUID
	Superadmin bool
}

// MembershipSource looks up the raw role label of an identity's active
// membership in an organization. Implemented by the org service.
type MembershipSource interface {
	ActiveRole(ctx context.Context, identityID, orgID uuid.UUID) (string, error)
}

// Checker decides whether an actor may perform an action within an
// organization. It is side-effect-free and holds no cache, so it is safe to
// call repeatedly per request and never serves a stale role after a
// concurrent role update.
type Checker struct {
	memberships MembershipSource
}

// NewChecker creates a new permission Checker
func NewChecker(memberships MembershipSource) *Checker {
	return &Checker{memberships: memberships}
}

// HasPermission reports whether the actor may perform action in the
// organization. Superadmins are allowed unconditionally. With an empty action,
// bare active membership is sufficient (read-level access). Otherwise the
// membership's role is normalized and its permission set must intersect the
// action's resolved tokens.
func (c *Checker) HasPermission(ctx context.Context, actor Actor, orgID uuid.UUID, action string) (bool, error) {
	return c.check(ctx, actor, orgID, action, RoleHasAny)
}

// HasAllPermissions is the strict variant: every token the action resolves to
// must be present in the role's permission set.
func (c *Checker) HasAllPermissions(ctx context.Context, actor Actor, orgID uuid.UUID, action string) (bool, error) {
	return c.check(ctx, actor, orgID, action, RoleHasAll)
}

func (c *Checker) check(ctx context.Context, actor Actor, orgID uuid.UUID, action string, match func(Role, []Permission) bool) (bool, error) {
	if actor.Superadmin {
		return true, nil
	}

	rawRole, err := c.memberships.ActiveRole(ctx, actor.ID, orgID)
	if err != nil {
		if errors.Is(err, ErrNoMembership) {
			return false, nil
		}
		return false, err
	}

	if action == "" {
		return true, nil
	}

	role, ok := Normalize(rawRole)
	if !ok {
		return false, nil
	}

	return match(role, ExpandAction(action)), nil
}
