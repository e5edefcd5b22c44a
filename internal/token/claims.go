package token

import "github.com/golang-jwt/jwt/v5"

// Kind distinguishes access tokens from refresh tokens.
type Kind string

// Token kinds.
const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Identity carries the profile and authorization claims of an access token.
type Identity struct {
	FirstName   string
	LastName    string
	Role        string
	Permissions []string
}

// Claims is the payload of every token issued by this package.
type Claims struct {
	jwt.RegisteredClaims
	Kind        Kind     `json:"kind"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Identity extracts the identity claims.
func (c *Claims) Identity() Identity {
	return Identity{
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Role:        c.Role,
		Permissions: append([]string(nil), c.Permissions...),
	}
}
