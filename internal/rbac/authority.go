package rbac

import (
	"errors"
	"fmt"
)

// BuildAuthorities flattens roles and extra permissions into a de-duplicated
// authority list. For each role it emits ROLE_<name> followed by the role's
// permissions; extra values are appended verbatim. Order of first occurrence
// is preserved.
//
// An empty role list or an unknown role name fails with ErrUnknownRole.
func BuildAuthorities(roleNames []string, extra []string) ([]string, error) {
	if len(roleNames) == 0 {
		return nil, fmt.Errorf("%w: no role supplied", ErrUnknownRole)
	}
	seen := make(map[string]struct{})
	authorities := make([]string, 0, len(roleNames)*4+len(extra))
	add := func(a string) {
		if a == "" {
			return
		}
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		authorities = append(authorities, a)
	}

	for _, name := range roleNames {
		role, err := ParseRole(name)
		if err != nil {
			return nil, err
		}
		add(role.Authority())
		for _, p := range rolePermissions[role] {
			add(string(p))
		}
	}
	for _, p := range extra {
		add(p)
	}
	return authorities, nil
}

// IsUnknownRole reports whether err signals a role outside the enumeration.
func IsUnknownRole(err error) bool {
	return errors.Is(err, ErrUnknownRole)
}
