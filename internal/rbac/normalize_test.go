package rbac

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTypedKeys(t *testing.T) {
	m, err := Normalize(json.RawMessage(`{"ProjectManagement":{"view":true,"edit":"true","delete":false},"Bogus":{"view":true}}`))
	require.NoError(t, err)
	assert.True(t, m[ProjectManagement][ActionView])
	assert.True(t, m[ProjectManagement][ActionEdit])
	assert.False(t, m[ProjectManagement][ActionDelete])
	assert.Len(t, m, len(AllModules))
	for _, module := range AllModules {
		assert.Len(t, m[module], len(AllActions))
	}
}

func TestNormalizeDisplayKeysInString(t *testing.T) {
	raw, err := json.Marshal(`{"User Management":{"Full Access":true,"View":1},"Reviews/Feedback & Comments":{"create":true},"Invoicing & Payment":{"read":true}}`)
	require.NoError(t, err)

	m, err := Normalize(raw)
	require.NoError(t, err)
	assert.True(t, m[UserManagement][ActionFullAccess])
	assert.True(t, m[UserManagement][ActionView])
	assert.False(t, m[UserManagement][ActionCreate])
	assert.True(t, m[ReviewsComments][ActionCreate])
	assert.True(t, m[InvoicingAndPayment][ActionView])
}

func TestNormalizeEmpty(t *testing.T) {
	for _, raw := range []string{``, `null`, `""`, `"null"`} {
		m, err := Normalize(json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, NewMatrix(), m)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func TestParseModuleAliases(t *testing.T) {
	m, ok := ParseModule("Installation & Delivery Scheduling")
	require.True(t, ok)
	assert.Equal(t, InstallationScheduling, m)
	_, ok = ParseModule("Payroll")
	assert.False(t, ok)
}
