package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/projectdesk/projectdesk/internal/platform/httpx"
)

// PermissionsHandler exposes the principal's resolved matrix as JSON for
// scripted pages.
type PermissionsHandler struct{}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler() *PermissionsHandler {
	return &PermissionsHandler{}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
}

type permissionsResponse struct {
	State       string `json:"state"`
	RoleID      int64  `json:"roleId"`
	Permissions Matrix `json:"permissions"`
	Error       string `json:"error,omitempty"`
}

func (h *PermissionsHandler) show(w http.ResponseWriter, r *http.Request) {
	res := ResolutionFromContext(r.Context())
	body := permissionsResponse{State: res.State.String(), RoleID: res.RoleID, Permissions: res.Matrix}
	if body.Permissions == nil {
		body.Permissions = NewMatrix()
	}
	if res.Err != nil {
		body.Error = "permissions unavailable"
	}
	httpx.JSON(w, http.StatusOK, body)
}
