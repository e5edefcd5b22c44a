package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rolegate/rolegate/internal/platform/httpx"
)

// PermissionsHandler exposes the static permission catalogue.
type PermissionsHandler struct {
	rbac Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(string(PermRoleRead)))
		r.Get("/", h.listPermissions)
	})
}

type permissionView struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms := AllPermissions()
	out := make([]permissionView, 0, len(perms))
	for _, p := range perms {
		view := permissionView{Name: string(p), Roles: []string{}}
		for _, role := range Roles() {
			for _, granted := range rolePermissions[role] {
				if granted == p {
					view.Roles = append(view.Roles, string(role))
					break
				}
			}
		}
		out = append(out, view)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": out})
}
