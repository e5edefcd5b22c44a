package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPermission indicates a permission outside the enumeration.
var ErrUnknownPermission = errors.New("rbac: unknown permission")

// Permission is an atomic resource:action capability.
type Permission string

// Permission constants.
const (
	PermUserRead    Permission = "user:read"
	PermUserCreate  Permission = "user:create"
	PermUserUpdate  Permission = "user:update"
	PermUserDelete  Permission = "user:delete"
	PermUserPromote Permission = "user:promote"
	PermUserDemote  Permission = "user:demote"
	PermRoleRead    Permission = "role:read"
)

var allPermissions = []Permission{
	PermUserRead,
	PermUserCreate,
	PermUserUpdate,
	PermUserDelete,
	PermUserPromote,
	PermUserDemote,
	PermRoleRead,
}

// rolePermissions is the single source of truth for authorization.
// Each tier lists its own permissions; containment between tiers is not derived.
var rolePermissions = map[Role][]Permission{
	RoleUser: {
		PermUserRead,
	},
	RoleManager: {
		PermUserRead,
		PermUserUpdate,
		PermRoleRead,
	},
	RoleAdmin: {
		PermUserRead,
		PermUserCreate,
		PermUserUpdate,
		PermUserDelete,
		PermUserPromote,
		PermRoleRead,
	},
	RoleSuperAdmin: {
		PermUserRead,
		PermUserCreate,
		PermUserUpdate,
		PermUserDelete,
		PermUserPromote,
		PermUserDemote,
		PermRoleRead,
	},
}

func (p Permission) String() string { return string(p) }

// ParsePermission resolves a wire name to a Permission. Role authorities
// (ROLE_*) are not permissions and are rejected.
func ParsePermission(name string) (Permission, error) {
	if strings.HasPrefix(name, RolePrefix) {
		return "", fmt.Errorf("%w: %q is a role authority", ErrUnknownPermission, name)
	}
	for _, p := range allPermissions {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPermission, name)
}

// AllPermissions returns every known permission.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// PermissionStrings converts permissions to their string form.
func PermissionStrings(perms []Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
