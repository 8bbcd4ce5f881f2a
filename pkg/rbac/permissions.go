package rbac

// Permission is a fine-grained permission token.
type Permission string

const (
	PermOrgRead       Permission = "org:read"
	PermOrgWrite      Permission = "org:write"
	PermOrgDelete     Permission = "org:delete"
	PermMemberRead    Permission = "member:read"
	PermMemberWrite   Permission = "member:write"
	PermProjectRead   Permission = "project:read"
	PermProjectWrite  Permission = "project:write"
	PermProjectDelete Permission = "project:delete"
	PermTaskRead      Permission = "task:read"
	PermTaskWrite     Permission = "task:write"
	PermTaskDelete    Permission = "task:delete"
	PermCommentWrite  Permission = "comment:write"
	PermBillingRead   Permission = "billing:read"
	PermBillingWrite  Permission = "billing:write"
	PermAuditRead     Permission = "audit:read"
)

// rolePermissions is the static permission set per canonical role. The tables
// are fixed and independent of organization.
var rolePermissions = map[Role]map[Permission]struct{}{
	RoleOwner: permSet(
		PermOrgRead, PermOrgWrite, PermOrgDelete,
		PermMemberRead, PermMemberWrite,
		PermProjectRead, PermProjectWrite, PermProjectDelete,
		PermTaskRead, PermTaskWrite, PermTaskDelete,
		PermCommentWrite,
		PermBillingRead, PermBillingWrite,
		PermAuditRead,
	),
	RoleAdmin: permSet(
		PermOrgRead, PermOrgWrite,
		PermMemberRead, PermMemberWrite,
		PermProjectRead, PermProjectWrite, PermProjectDelete,
		PermTaskRead, PermTaskWrite, PermTaskDelete,
		PermCommentWrite,
		PermBillingRead,
		PermAuditRead,
	),
	RoleMember: permSet(
		PermOrgRead,
		PermMemberRead,
		PermProjectRead, PermProjectWrite,
		PermTaskRead, PermTaskWrite,
		PermCommentWrite,
	),
	RoleClient: permSet(
		PermOrgRead,
		PermProjectRead,
		PermTaskRead,
		PermCommentWrite,
	),
}

// actionAliases expands the coarse action names supplied by the route layer
// into one or more fine-grained permission tokens.
var actionAliases = map[string][]Permission{
	"view_org":       {PermOrgRead},
	"update_org":     {PermOrgWrite},
	"delete_org":     {PermOrgDelete},
	"view_members":   {PermMemberRead},
	"manage_members": {PermMemberWrite},
	"invite_member":  {PermMemberWrite},
	"view_project":   {PermProjectRead},
	"create_project": {PermProjectWrite},
	"update_project": {PermProjectWrite},
	"delete_project": {PermProjectDelete},
	"view_task":      {PermTaskRead},
	"create_task":    {PermTaskWrite},
	"update_task":    {PermTaskWrite},
	"assign_task":    {PermTaskWrite, PermMemberRead},
	"delete_task":    {PermTaskDelete},
	"comment":        {PermCommentWrite},
	"view_billing":   {PermBillingRead},
	"manage_billing": {PermBillingWrite},
	"view_audit_log": {PermAuditRead},
}

func permSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// ExpandAction resolves a coarse action name into its permission tokens. An
// unknown action resolves to nothing, which every role denies.
func ExpandAction(action string) []Permission {
	return actionAliases[action]
}

// RoleHasAny reports whether the role's permission set intersects the tokens.
func RoleHasAny(role Role, tokens []Permission) bool {
	set, ok := rolePermissions[role]
	if !ok || len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if _, found := set[tok]; found {
			return true
		}
	}
	return false
}

// RoleHasAll reports whether the role's permission set contains every token.
func RoleHasAll(role Role, tokens []Permission) bool {
	set, ok := rolePermissions[role]
	if !ok || len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if _, found := set[tok]; !found {
			return false
		}
	}
	return true
}
