package shared

import "strings"

// Principal is the authenticated identity attached to a single request.
// A new Principal is built for every verified request and never persisted.
type Principal struct {
	Login       string   `json:"login"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Authorities []string `json:"authorities"`
	// Token echoes the bearer credential for calls that must re-present it.
	Token string `json:"-"`
}

// HasAuthority reports whether the principal carries the given authority.
func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// DisplayName joins first and last name, falling back to the login.
func (p *Principal) DisplayName() string {
	if p == nil {
		return ""
	}
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Login
	}
	return name
}
