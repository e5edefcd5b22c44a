package roles

import (
	"context"

	"github.com/rolegate/rolegate/internal/rbac"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	FindByName(ctx context.Context, name rbac.Role) (Role, bool, error)
	List(ctx context.Context) ([]Role, error)
}

// Service handles role queries.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Resolve returns the mirror row for name, failing with ErrRoleNotFound when
// the roles table has not been seeded.
func (s *Service) Resolve(ctx context.Context, name rbac.Role) (Role, error) {
	role, found, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return Role{}, err
	}
	if !found {
		return Role{}, ErrRoleNotFound
	}
	return role, nil
}

// List returns every mirror row with the static permissions of its role.
// Rows whose name is not a known role are skipped.
func (s *Service) List(ctx context.Context) ([]View, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		if !row.Name.Valid() {
			continue
		}
		views = append(views, View{Role: row, Permissions: row.Name.Permissions()})
	}
	return views, nil
}
