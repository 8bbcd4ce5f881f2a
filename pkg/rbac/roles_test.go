package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLegacyAliases(t *testing.T) {
	cases := map[string]Role{
		"org_owner":     RoleOwner,
		"founder":       RoleOwner,
		"administrator": RoleAdmin,
		"manager":       RoleAdmin,
		"org_admin":     RoleAdmin,
		"employee":      RoleMember,
		"staff":         RoleMember,
		"contributor":   RoleMember,
		"user":          RoleMember,
		"viewer":        RoleClient,
		"guest":         RoleClient,
		"readonly":      RoleClient,
		"external":      RoleClient,
	}

	for raw, want := range cases {
		role, ok := Normalize(raw)
		assert.True(t, ok, "alias %q should normalize", raw)
		assert.Equal(t, want, role, "alias %q", raw)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	// Normalizing a canonical value is a no-op.
	for raw := range roleAliases {
		role, ok := Normalize(raw)
		assert.True(t, ok)

		again, ok := Normalize(string(role))
		assert.True(t, ok)
		assert.Equal(t, role, again)
	}
}

func TestNormalizeUnknown(t *testing.T) {
	for _, raw := range []string{"", "superuser", "root", "OWNER", "Admin "} {
		role, ok := Normalize(raw)
		assert.False(t, ok, "raw %q", raw)
		assert.Empty(t, role)
	}
}
