package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/rbac"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine("http://assets.local")
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestPageCarriesPrincipalAndAccess(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	ctx := identity.ContextWithPrincipal(req.Context(), identity.Principal{ID: 3, FirstName: "Ana"})
	matrix := rbac.NewMatrix()
	matrix[rbac.ProjectManagement][rbac.ActionView] = true
	ctx = rbac.ContextWithResolution(ctx, rbac.Resolution{State: rbac.StateResolved, Matrix: matrix})

	page := Page(req.WithContext(ctx), "Projects", nil)
	require.NotNil(t, page.Principal)
	assert.Equal(t, "Ana", page.Principal.FirstName)
	assert.Equal(t, "/projects", page.CurrentPath)
	assert.True(t, page.Access.Allowed(rbac.ProjectManagement, rbac.ActionView))
	assert.False(t, page.Access.Allowed(rbac.ProjectManagement, rbac.ActionDelete))
}

func TestNavHidesDeniedModules(t *testing.T) {
	engine, err := NewEngine("")
	require.NoError(t, err)

	matrix := rbac.NewMatrix()
	matrix[rbac.ProjectManagement][rbac.ActionView] = true
	data := TemplateData{
		Title:     "Dashboard",
		Principal: &identity.Principal{ID: 1, FirstName: "Ana", Role: "Designer"},
		Access:    rbac.Resolution{State: rbac.StateResolved, Matrix: matrix},
		Data:      map[string]any{},
	}
	rr := httptest.NewRecorder()
	require.NoError(t, engine.Render(rr, "pages/dashboard.html", data))
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `href="/projects"`))
	assert.False(t, strings.Contains(body, `href="/users"`))
	assert.False(t, strings.Contains(body, `href="/roles"`))
}

func TestMoneyFormatsThousands(t *testing.T) {
	assert.Equal(t, "1,234.50", moneyPrinter.Sprintf("%.2f", toFloat(1234.5)))
}
