package users

import (
	"fmt"
	"time"

	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/rbac"
)

// Account errors. Each wraps an httpx sentinel so handlers can map it to a status.
var (
	ErrAccountNotFound = fmt.Errorf("account: %w", httpx.ErrNotFound)
	ErrLoginTaken      = fmt.Errorf("login already registered: %w", httpx.ErrDuplicate)
	ErrRoleBoundary    = fmt.Errorf("no role beyond the current tier: %w", httpx.ErrValidation)
	ErrAccountDisabled = fmt.Errorf("account is disabled: %w", httpx.ErrUnauthorized)
)

// Account is a user record as stored in postgres.
type Account struct {
	ID           int64     `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         rbac.Role `json:"role"`
	RoleID       int64     `json:"-"`
	Permissions  []string  `json:"permissions"`
	Deleted      bool      `json:"deleted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Active reports whether the account may authenticate.
func (a Account) Active() bool { return !a.Deleted }

// RegisterInput is the self-service registration payload.
type RegisterInput struct {
	Login     string `json:"login" validate:"required,min=3,max=64"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// CreateInput is the administrative creation payload.
type CreateInput struct {
	RegisterInput
	Role        string   `json:"role" validate:"omitempty,oneof=USER MANAGER ADMIN SUPER_ADMIN"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,required,max=100"`
}

// UpdateInput changes profile names.
type UpdateInput struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// ListFilter narrows List results.
type ListFilter struct {
	IncludeDeleted bool
	Limit          int
	Offset         int
}
