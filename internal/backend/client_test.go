package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectdesk/projectdesk/internal/platform/httpx"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", time.Second)
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"data":[{"id":3,"title":"Designer","desc":"d","defaultPermissionLevel":"4","createdBy":1,"permissions":"{}"}]}`))
	})

	ctx := ContextWithToken(context.Background(), "tok")
	roles, err := client.ListRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "/api/roles", gotPath)
	require.Len(t, roles, 1)
	assert.Equal(t, "Designer", roles[0].Title)
	assert.Equal(t, "d", roles[0].Description)
	assert.Equal(t, 4.0, roles[0].DefaultPermissionLevel.Float())
}

func TestClientMapsErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token expired"}`))
	})

	_, err := client.ListUsers(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "token expired", apiErr.UserMessage())
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestClientTransportErrorIsUpstream(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/api", 200*time.Millisecond)
	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, httpx.ErrUpstream)
}

func TestUsersByRoleEscapesRole(t *testing.T) {
	var rawPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"users":[{"id":7,"firstName":"Ana"}]}`))
	})

	users, err := client.UsersByRole(context.Background(), "Sr. Designer")
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/users-by-role/Sr.%20Designer", rawPath)
	require.Len(t, users, 1)
	assert.Equal(t, int64(7), users[0].ID)
}

func TestUpdateProjectSendsMultipart(t *testing.T) {
	var fields map[string]string
	var fileBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		f, _, err := r.FormFile("files")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		fileBody = string(data)
		w.WriteHeader(http.StatusOK)
	})

	form := NewForm().
		Set("name", "Loft").
		SetJSON("assignedTeamRoles", TeamRoles{{Role: "Designer", Users: []int64{4, 9}}}).
		SetJSON("removedFiles", []string{}).
		Attach(Upload{Field: "files", Filename: "plan.pdf", Content: strings.NewReader("pdf")})
	require.NoError(t, client.UpdateProject(context.Background(), 12, form))

	assert.Equal(t, "Loft", fields["name"])
	assert.JSONEq(t, `[{"role":"Designer","users":[4,9]}]`, fields["assignedTeamRoles"])
	assert.Equal(t, "[]", fields["removedFiles"])
	assert.Equal(t, "pdf", fileBody)
}

func TestCommentDecodesEitherAuthorCase(t *testing.T) {
	var comments []Comment
	payload := `[
		{"id":1,"message":"hi","User":{"id":2,"firstName":"Ana","lastName":"Diaz"},"createdAt":"2024-05-01T10:00:00Z"},
		{"id":2,"comment":"ok","customer":{"id":5,"full_name":"Ben Ode"},"createdAt":"2024-05-02"}
	]`
	require.NoError(t, json.Unmarshal([]byte(payload), &comments))
	require.Len(t, comments, 2)
	assert.Equal(t, "Ana Diaz", comments[0].User.Name())
	assert.Nil(t, comments[0].Customer)
	assert.Equal(t, "Ben Ode", comments[1].Customer.Name())
	assert.Equal(t, 2, comments[1].CreatedAt.Day())
}

func TestFlexibleTypes(t *testing.T) {
	var p Project
	payload := `{"id":1,"totalValue":"1200.50","advancePayment":100,
		"assignedTeamRoles":"[{\"role\":\"Designer\",\"users\":[3]}]",
		"fileUrls":"[\"uploads/a.png\"]","startDate":"","estimatedCompletion":null}`
	require.NoError(t, json.Unmarshal([]byte(payload), &p))
	assert.Equal(t, 1200.5, p.TotalValue.Float())
	assert.Equal(t, 100.0, p.AdvancePayment.Float())
	assert.True(t, p.AssignedTeamRoles.Includes(3))
	assert.False(t, p.AssignedTeamRoles.Includes(4))
	assert.Equal(t, StringList{"uploads/a.png"}, p.FileURLs)
	assert.True(t, p.StartDate.IsZero())
	assert.Equal(t, "", p.EstimatedCompletion.DateString())
}
