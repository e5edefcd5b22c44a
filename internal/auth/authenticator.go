package auth

import (
	"context"
	"errors"

	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
	"github.com/rolegate/rolegate/internal/token"
)

// Verifier checks access tokens.
type Verifier interface {
	VerifyAccess(tok string) (*token.Claims, error)
}

// Authenticator turns a bearer credential into a principal.
type Authenticator struct {
	verifier   Verifier
	reconciler *Reconciler
}

// NewAuthenticator constructs an Authenticator. A nil reconciler limits it to
// basic verification.
func NewAuthenticator(verifier Verifier, reconciler *Reconciler) *Authenticator {
	return &Authenticator{verifier: verifier, reconciler: reconciler}
}

// Authenticate verifies raw and builds a fresh principal. In strong mode the
// subject is reconciled against the user store first.
//
// Token failures wrap token.ErrInvalidToken, tampered role claims wrap
// rbac.ErrUnknownRole and disabled accounts return users.ErrAccountDisabled.
// Anything else is an internal failure.
func (a *Authenticator) Authenticate(ctx context.Context, raw string, mode Mode) (*shared.Principal, error) {
	claims, err := a.verifier.VerifyAccess(raw)
	if err != nil {
		return nil, err
	}

	var principal *shared.Principal
	switch mode {
	case ModeStrong:
		if a.reconciler == nil {
			return nil, errors.New("auth: strong verification requested without a reconciler")
		}
		principal, err = a.reconciler.Reconcile(ctx, claims, raw)
		if err != nil {
			return nil, err
		}
	default:
		principal = basicPrincipal(claims, raw)
	}

	authorities, err := rbac.BuildAuthorities([]string{principal.Role}, principal.Permissions)
	if err != nil {
		return nil, err
	}
	principal.Authorities = authorities
	return principal, nil
}

func basicPrincipal(claims *token.Claims, raw string) *shared.Principal {
	id := claims.Identity()
	return &shared.Principal{
		Login:       claims.Subject,
		FirstName:   id.FirstName,
		LastName:    id.LastName,
		Role:        id.Role,
		Permissions: id.Permissions,
		Token:       raw,
	}
}
