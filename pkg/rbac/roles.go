package rbac

// Role is one of the canonical organization-level privilege levels, ordered by
// decreasing privilege. The global superadmin flag is orthogonal to these and
// lives on the identity, not the membership.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleClient Role = "client"
)

// roleAliases maps every historical role spelling onto a canonical role. New
// aliases are additive; the canonical set is closed.
var roleAliases = map[string]Role{
	// canonical spellings map to themselves so Normalize is idempotent
	"owner":  RoleOwner,
	"admin":  RoleAdmin,
	"member": RoleMember,
	"client": RoleClient,

	// legacy vocabulary
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

// Normalize maps a raw role label onto the canonical role set. Unrecognized
// input returns ok=false and must be treated as carrying no organization-level
// privilege, never defaulted upward.
func Normalize(raw string) (Role, bool) {
	role, ok := roleAliases[raw]
	return role, ok
}
