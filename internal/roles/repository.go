package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rolegate/rolegate/internal/rbac"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository provides PostgreSQL backed persistence for the role mirror.
type Repository struct {
	db DBTX
}

// NewRepository constructs a repository.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

const selectRole = `SELECT id, name, description, created_at, updated_at FROM roles`

// FindByName loads the mirror row for name. A missing row is reported through
// the found flag, not as an error.
func (r *Repository) FindByName(ctx context.Context, name rbac.Role) (Role, bool, error) {
	row := r.db.QueryRow(ctx, selectRole+` WHERE name = $1`, string(name))
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, false, nil
		}
		return Role{}, false, fmt.Errorf("roles: find %s: %w", name, err)
	}
	return role, true, nil
}

// List returns all mirror rows ordered by id.
func (r *Repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.db.Query(ctx, selectRole+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("roles: list: %w", err)
	}
	defer rows.Close()
	var out []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("roles: scan: %w", err)
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roles: list: %w", err)
	}
	return out, nil
}

// Upsert inserts the mirror row for name or refreshes its description.
func (r *Repository) Upsert(ctx context.Context, name rbac.Role, description string) (Role, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO roles (name, description, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, updated_at = NOW()
RETURNING id, name, description, created_at, updated_at`, string(name), description)
	role, err := scanRole(row)
	if err != nil {
		return Role{}, fmt.Errorf("roles: upsert %s: %w", name, err)
	}
	return role, nil
}

func scanRole(row pgx.Row) (Role, error) {
	var (
		role Role
		name string
	)
	if err := row.Scan(&role.ID, &name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return Role{}, err
	}
	role.Name = rbac.Role(name)
	return role, nil
}
