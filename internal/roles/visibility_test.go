package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/projectdesk/projectdesk/internal/identity"
)

func titles(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = r.Title
	}
	return out
}

func TestVisibleToClauses(t *testing.T) {
	roles := []Role{
		{ID: 1, Title: "Super Admin", Level: 1, CreatedBy: 99},
		{ID: 2, Title: "Account Manager", Level: 2, CreatedBy: 99},
		{ID: 3, Title: "Sr. Designer", Level: 3, CreatedBy: 99},
		{ID: 4, Title: "Mine", Level: 2, CreatedBy: 7},
		{ID: 5, Title: "Viewer", Level: 6, CreatedBy: 99},
		{ID: 6, Title: "Contractor", Level: 5, CreatedBy: 99},
	}

	designer := identity.Principal{ID: 7, Role: "Sr. Designer", RoleID: 3}
	assert.Equal(t, []string{"Mine", "Viewer"}, titles(VisibleTo(roles, designer, PrincipalLevel(roles, designer))))

	admin := identity.Principal{ID: 8, Role: "Super Admin", RoleID: 1}
	assert.Equal(t, []string{"Super Admin", "Viewer"}, titles(VisibleTo(roles, admin, PrincipalLevel(roles, admin))))
}

func TestVisibleToLevelSixPrincipalSeesNoLevelSixRoles(t *testing.T) {
	roles := []Role{{ID: 5, Title: "Viewer", Level: 6, CreatedBy: 99}, {ID: 6, Title: "Other", Level: 6, CreatedBy: 99}}
	p := identity.Principal{ID: 1, RoleID: 5}
	assert.Empty(t, VisibleTo(roles, p, PrincipalLevel(roles, p)))
}

func TestVisibleToUnknownLevel(t *testing.T) {
	roles := []Role{{ID: 5, Title: "Viewer", Level: 6, CreatedBy: 99}, {ID: 9, Title: "Own", Level: 6, CreatedBy: 1}}
	p := identity.Principal{ID: 1, Role: "Freelancer", RoleID: 42}
	assert.Equal(t, 0, PrincipalLevel(roles, p))
	assert.Equal(t, []string{"Own"}, titles(VisibleTo(roles, p, 0)))
}

func TestPrincipalLevelPrefersRoleRecord(t *testing.T) {
	roles := []Role{{ID: 3, Title: "Designer", Level: 2}}
	assert.Equal(t, 2, PrincipalLevel(roles, identity.Principal{Role: "Designer", RoleID: 3}))
	assert.Equal(t, 4, PrincipalLevel(nil, identity.Principal{Role: "Designer", RoleID: 3}))
}
