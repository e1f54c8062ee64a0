package roles

import "github.com/projectdesk/projectdesk/internal/identity"

// PrincipalLevel returns the level of the principal's own role record,
// falling back to the built-in name table. Zero means unknown.
func PrincipalLevel(roles []Role, p identity.Principal) int {
	for _, role := range roles {
		if role.ID == p.RoleID && role.Level > 0 {
			return role.Level
		}
	}
	return levelByTitle[p.Role]
}

// VisibleTo filters roles shown to the principal. A role is visible when the
// principal created it, when it is a level 6 role below the principal's
// level, or when the principal is level 1 and the role is Super Admin.
// An unknown principal level never satisfies the level comparison.
func VisibleTo(roles []Role, p identity.Principal, level int) []Role {
	out := make([]Role, 0, len(roles))
	for _, role := range roles {
		switch {
		case role.CreatedBy == p.ID:
		case level > 0 && role.Level > level && role.Level == 6:
		case level == 1 && role.Title == SuperAdminTitle:
		default:
			continue
		}
		out = append(out, role)
	}
	return out
}
