package rbac

import (
	"errors"
	"fmt"
)

// ErrUnknownRole indicates a role name outside the closed role set.
var ErrUnknownRole = errors.New("rbac: unknown role")

// Role is one authorization tier of the closed role enumeration.
type Role string

// Roles known to the system, lowest privilege first.
const (
	RoleUser       Role = "USER"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// RolePrefix is prepended to a role name to form its implicit authority.
const RolePrefix = "ROLE_"

var roleOrder = []Role{RoleUser, RoleManager, RoleAdmin, RoleSuperAdmin}

// Roles returns every role ordered from lowest to highest privilege.
func Roles() []Role {
	out := make([]Role, len(roleOrder))
	copy(out, roleOrder)
	return out
}

// LowestRole is assigned to accounts provisioned without an explicit role.
func LowestRole() Role {
	return roleOrder[0]
}

// ParseRole resolves a wire name to a Role.
func ParseRole(name string) (Role, error) {
	for _, r := range roleOrder {
		if string(r) == name {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

func (r Role) String() string { return string(r) }

// Valid reports whether r is part of the role enumeration.
func (r Role) Valid() bool {
	return r.rank() >= 0
}

// Authority returns the implicit ROLE_<name> authority.
func (r Role) Authority() string {
	return RolePrefix + string(r)
}

// Permissions returns a copy of the permission set owned by the role.
// Returns nil for unknown roles.
func (r Role) Permissions() []Permission {
	perms, ok := rolePermissions[r]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Next returns the role one tier above r.
func (r Role) Next() (Role, bool) {
	i := r.rank()
	if i < 0 || i+1 >= len(roleOrder) {
		return "", false
	}
	return roleOrder[i+1], true
}

// Previous returns the role one tier below r.
func (r Role) Previous() (Role, bool) {
	i := r.rank()
	if i <= 0 {
		return "", false
	}
	return roleOrder[i-1], true
}

// AtLeast reports whether r sits on the same tier as other or above it.
// Unknown roles never qualify.
func (r Role) AtLeast(other Role) bool {
	a, b := r.rank(), other.rank()
	return a >= 0 && b >= 0 && a >= b
}

func (r Role) rank() int {
	for i, candidate := range roleOrder {
		if candidate == r {
			return i
		}
	}
	return -1
}
