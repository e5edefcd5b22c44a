package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/roles"
	"github.com/rolegate/rolegate/internal/shared"
	"github.com/rolegate/rolegate/internal/token"
	"github.com/rolegate/rolegate/internal/users"
)

// provisionTimeout bounds a first-login account creation.
const provisionTimeout = 10 * time.Second

// DefaultExternalScopes are granted to every identity that passes strong
// verification.
var DefaultExternalScopes = []string{"openid", "profile", "email"}

// AccountStore is the user store consumed during reconciliation.
type AccountStore interface {
	FindByLogin(ctx context.Context, login string) (users.Account, bool, error)
	Create(ctx context.Context, acct users.Account) (users.Account, error)
}

// RoleStore resolves the persisted row of a role.
type RoleStore interface {
	FindByName(ctx context.Context, name rbac.Role) (roles.Role, bool, error)
}

// Reconciler loads the account behind a verified token, provisioning it on
// first sight. Store failures are returned unchanged for the caller to
// surface as internal errors.
type Reconciler struct {
	accounts AccountStore
	roles    RoleStore
	scopes   []string
	logger   *slog.Logger
	group    singleflight.Group
}

// NewReconciler constructs a Reconciler. A nil scopes slice selects
// provisionTimeout bounds a first-login account creation.
const provisionTimeout = 10 * time.Second

// DefaultExternalScopes.
func NewReconciler(accounts AccountStore, roles RoleStore, scopes []string, logger *slog.Logger) *Reconciler {
	if scopes == nil {
		scopes = DefaultExternalScopes
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{
		accounts: accounts,
		roles:    roles,
		scopes:   append([]string(nil), scopes...),
		logger:   logger,
	}
}

// Reconcile returns the principal for claims. Authorities are left empty;
// the caller derives them from Role and Permissions.
func (r *Reconciler) Reconcile(ctx context.Context, claims *token.Claims, raw string) (*shared.Principal, error) {
	login := claims.Subject
	acct, found, err := r.accounts.FindByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("auth: reconcile %s: %w", login, err)
	}
	if !found {
		acct, err = r.provision(ctx, claims)
		if err != nil {
			return nil, err
		}
		return &shared.Principal{
			Login:     acct.Login,
			FirstName: acct.FirstName,
			LastName:  acct.LastName,
			Role:      string(acct.Role),
			Token:     raw,
		}, nil
	}
	if !acct.Active() {
		return nil, users.ErrAccountDisabled
	}
	return &shared.Principal{
		Login:       acct.Login,
		FirstName:   acct.FirstName,
		LastName:    acct.LastName,
		Role:        string(acct.Role),
		Permissions: mergePermissions(acct.Permissions, r.scopes),
		Token:       raw,
	}, nil
}

// provision creates the minimal account for a first login. Concurrent first
// logins of the same subject share one creation.
func (r *Reconciler) provision(ctx context.Context, claims *token.Claims) (users.Account, error) {
	login := claims.Subject
	ch := r.group.DoChan(login, func() (interface{}, error) {
		// Shared by every caller waiting on login; not tied to the request
		// that started it.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), provisionTimeout)
		defer cancel()
		return r.create(ctx, claims)
	})
	select {
	case <-ctx.Done():
		return users.Account{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return users.Account{}, res.Err
		}
		return res.Val.(users.Account), nil
	}
}

func (r *Reconciler) create(ctx context.Context, claims *token.Claims) (users.Account, error) {
	login := claims.Subject
	lowest := rbac.LowestRole()
	role, found, err := r.roles.FindByName(ctx, lowest)
	if err != nil {
		return users.Account{}, fmt.Errorf("auth: provision %s: %w", login, err)
	}
	if !found {
		return users.Account{}, fmt.Errorf("auth: provision %s: %w", login, roles.ErrRoleNotFound)
	}

	acct, err := r.accounts.Create(ctx, users.Account{
		Login:     login,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Role:      lowest,
		RoleID:    role.ID,
	})
	if errors.Is(err, users.ErrLoginTaken) {
		// Another process provisioned the subject between lookup and insert.
		existing, found, ferr := r.accounts.FindByLogin(ctx, login)
		if ferr != nil {
			return users.Account{}, fmt.Errorf("auth: provision %s: %w", login, ferr)
		}
		if !found {
			return users.Account{}, fmt.Errorf("auth: provision %s: %w", login, err)
		}
		if !existing.Active() {
			return users.Account{}, users.ErrAccountDisabled
		}
		return existing, nil
	}
	if err != nil {
		return users.Account{}, fmt.Errorf("auth: provision %s: %w", login, err)
	}
	r.logger.Info("provisioned account on first login",
		slog.String("login", login),
		slog.String("role", string(lowest)),
	)
	return acct, nil
}

// mergePermissions returns stored followed by scopes with duplicates removed,
// keeping the first occurrence.
func mergePermissions(stored, scopes []string) []string {
	seen := make(map[string]struct{}, len(stored)+len(scopes))
	merged := make([]string, 0, len(stored)+len(scopes))
	for _, list := range [][]string{stored, scopes} {
		for _, p := range list {
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			merged = append(merged, p)
		}
	}
	return merged
}
