package roles

import (
	"fmt"
	"time"

	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/rbac"
)

// ErrRoleNotFound is returned when the mirror row for a role is missing.
var ErrRoleNotFound = fmt.Errorf("role: %w", httpx.ErrNotFound)

// Role is the persisted mirror of an rbac.Role. It exists so that accounts can
// reference roles by foreign key; permissions are always taken from rbac.
type Role struct {
	ID          int64     `json:"id"`
	Name        rbac.Role `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Descriptions holds the seeded description of each role.
var Descriptions = map[rbac.Role]string{
	rbac.RoleUser:       "Regular user with read access to the directory",
	rbac.RoleManager:    "Manages user profiles",
	rbac.RoleAdmin:      "Administers accounts and role assignments",
	rbac.RoleSuperAdmin: "Unrestricted access",
}

// View pairs a role row with its static permission set.
type View struct {
	Role
	Permissions []rbac.Permission `json:"permissions"`
}
