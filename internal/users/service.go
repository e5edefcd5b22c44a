package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/roles"
	"github.com/rolegate/rolegate/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	FindByLogin(ctx context.Context, login string) (Account, bool, error)
	FindByID(ctx context.Context, id int64) (Account, error)
	Create(ctx context.Context, acct Account) (Account, error)
	List(ctx context.Context, filter ListFilter) ([]Account, error)
	UpdateNames(ctx context.Context, id int64, firstName, lastName string) (Account, error)
	UpdateRole(ctx context.Context, id int64, roleID int64) (Account, error)
	SoftDelete(ctx context.Context, id int64) error
}

// RoleResolver maps a role to its persisted mirror row.
type RoleResolver interface {
	Resolve(ctx context.Context, name rbac.Role) (roles.Role, error)
}

// Service handles user business logic.
type Service struct {
	repo     RepositoryPort
	roles    RoleResolver
	hashCost int
}

// Option customises a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleResolver, opts ...Option) *Service {
	s := &Service{repo: repo, roles: roles, hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a self-service account with the lowest role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Account, error) {
	return s.create(ctx, in, rbac.LowestRole(), nil)
}

// Create creates an account with an explicit role and extra permissions.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	role := rbac.LowestRole()
	if in.Role != "" {
		parsed, err := rbac.ParseRole(in.Role)
		if err != nil {
			return Account{}, fmt.Errorf("role %q: %w", in.Role, httpx.ErrValidation)
		}
		role = parsed
	}
	perms, err := ParseGrants(in.Permissions)
	if err != nil {
		return Account{}, err
	}
	return s.create(ctx, in.RegisterInput, role, perms)
}

// ParseGrants checks extra permissions requested for an account. Only
// enumerated permissions are accepted; duplicates are dropped.
func ParseGrants(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	seen := make(map[rbac.Permission]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		perm, err := rbac.ParsePermission(name)
		if err != nil {
			return nil, fmt.Errorf("permission %q: %w", name, httpx.ErrValidation)
		}
		if _, ok := seen[perm]; ok {
			continue
		}
		seen[perm] = struct{}{}
		out = append(out, string(perm))
	}
	return out, nil
}

func (s *Service) create(ctx context.Context, in RegisterInput, role rbac.Role, perms []string) (Account, error) {
	login := strings.TrimSpace(in.Login)
	if login == "" || in.Password == "" {
		return Account{}, fmt.Errorf("login and password are required: %w", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return Account{}, fmt.Errorf("users: hash password: %w", err)
	}
	roleRow, err := s.roles.Resolve(ctx, role)
	if err != nil {
		return Account{}, fmt.Errorf("users: resolve role %s: %w", role, err)
	}
	return s.repo.Create(ctx, Account{
		Login:        login,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
		RoleID:       roleRow.ID,
		Permissions:  perms,
	})
}

// Authenticate validates login/password credentials. Unknown, disabled and
// mismatching accounts all fail with shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, login, password string) (Account, error) {
	acct, found, err := s.repo.FindByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return Account{}, err
	}
	if !found || !acct.Active() || acct.PasswordHash == "" {
		return Account{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return Account{}, shared.ErrInvalidCredentials
	}
	return acct, nil
}

// GetByLogin returns a live account by login.
func (s *Service) GetByLogin(ctx context.Context, login string) (Account, error) {
	acct, found, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		return Account{}, err
	}
	if !found {
		return Account{}, ErrAccountNotFound
	}
	if !acct.Active() {
		return Account{}, ErrAccountDisabled
	}
	return acct, nil
}

// Get returns a live account by id.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns accounts.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Account, error) {
	return s.repo.List(ctx, filter)
}

// UpdateNames changes profile names.
func (s *Service) UpdateNames(ctx context.Context, id int64, in UpdateInput) (Account, error) {
	return s.repo.UpdateNames(ctx, id, strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName))
}

// Promote moves the account one tier up. The actor cannot grant a role
// above its own.
func (s *Service) Promote(ctx context.Context, actor rbac.Role, id int64) (Account, error) {
	return s.shift(ctx, actor, id, rbac.Role.Next)
}

// Demote moves the account one tier down. The actor cannot demote an
// account that outranks it.
func (s *Service) Demote(ctx context.Context, actor rbac.Role, id int64) (Account, error) {
	return s.shift(ctx, actor, id, rbac.Role.Previous)
}

func (s *Service) shift(ctx context.Context, actor rbac.Role, id int64, step func(rbac.Role) (rbac.Role, bool)) (Account, error) {
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	target, ok := step(acct.Role)
	if !ok {
		return Account{}, ErrRoleBoundary
	}
	if !actor.AtLeast(acct.Role) || !actor.AtLeast(target) {
		return Account{}, fmt.Errorf("users: %s cannot move %s to %s: %w", actor, acct.Role, target, httpx.ErrForbidden)
	}
	roleRow, err := s.roles.Resolve(ctx, target)
	if err != nil {
		return Account{}, fmt.Errorf("users: resolve role %s: %w", target, err)
	}
	return s.repo.UpdateRole(ctx, id, roleRow.ID)
}

// Delete soft-deletes the account.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}
