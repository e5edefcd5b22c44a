package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rolegate/rolegate/internal/rbac"
)

const uniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	db DBTX
}

// NewRepository constructs a repository.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

const accountColumns = `u.id, u.login, u.password_hash, u.first_name, u.last_name, r.name, u.role_id,
COALESCE(u.permissions, '{}'), u.deleted, u.created_at, u.updated_at`

const selectAccount = `SELECT ` + accountColumns + ` FROM users u JOIN roles r ON r.id = u.role_id`

// FindByLogin loads an account, soft-deleted or not. Absence is reported
// through the found flag.
func (r *Repository) FindByLogin(ctx context.Context, login string) (Account, bool, error) {
	acct, err := scanAccount(r.db.QueryRow(ctx, selectAccount+` WHERE u.login = $1`, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, false, nil
		}
		return Account{}, false, fmt.Errorf("users: find by login: %w", err)
	}
	return acct, true, nil
}

// FindByID loads a live account.
func (r *Repository) FindByID(ctx context.Context, id int64) (Account, error) {
	acct, err := scanAccount(r.db.QueryRow(ctx, selectAccount+` WHERE u.id = $1 AND NOT u.deleted`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("users: find by id: %w", err)
	}
	return acct, nil
}

// Create inserts acct. RoleID must reference an existing roles row.
func (r *Repository) Create(ctx context.Context, acct Account) (Account, error) {
	perms := acct.Permissions
	if perms == nil {
		perms = []string{}
	}
	row := r.db.QueryRow(ctx, `WITH u AS (
	INSERT INTO users (login, password_hash, first_name, last_name, role_id, permissions, deleted, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW())
	RETURNING *
)
SELECT `+accountColumns+` FROM u JOIN roles r ON r.id = u.role_id`,
		acct.Login, acct.PasswordHash, acct.FirstName, acct.LastName, acct.RoleID, perms)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Account{}, ErrLoginTaken
		}
		return Account{}, fmt.Errorf("users: create: %w", err)
	}
	return created, nil
}

// List returns accounts ordered by id.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Account, error) {
	query := selectAccount
	if !filter.IncludeDeleted {
		query += ` WHERE NOT u.deleted`
	}
	query += ` ORDER BY u.id`
	var args []interface{}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return accounts, nil
}

// UpdateNames changes the profile names of a live account.
func (r *Repository) UpdateNames(ctx context.Context, id int64, firstName, lastName string) (Account, error) {
	return r.update(ctx, "update names",
		`UPDATE users SET first_name = $2, last_name = $3, updated_at = NOW() WHERE id = $1 AND NOT deleted RETURNING *`,
		id, firstName, lastName)
}

// UpdateRole points a live account at another roles row.
func (r *Repository) UpdateRole(ctx context.Context, id int64, roleID int64) (Account, error) {
	return r.update(ctx, "update role",
		`UPDATE users SET role_id = $2, updated_at = NOW() WHERE id = $1 AND NOT deleted RETURNING *`,
		id, roleID)
}

// SoftDelete flags a live account as deleted; the row is kept.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET deleted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT deleted`, id)
	if err != nil {
		return fmt.Errorf("users: soft delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *Repository) update(ctx context.Context, op, stmt string, args ...interface{}) (Account, error) {
	row := r.db.QueryRow(ctx, `WITH u AS (`+stmt+`)
SELECT `+accountColumns+` FROM u JOIN roles r ON r.id = u.role_id`, args...)
	acct, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("users: %s: %w", op, err)
	}
	return acct, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acct Account
		role string
	)
	err := row.Scan(&acct.ID, &acct.Login, &acct.PasswordHash, &acct.FirstName, &acct.LastName,
		&role, &acct.RoleID, &acct.Permissions, &acct.Deleted, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	acct.Role = rbac.Role(role)
	return acct, nil
}
