package users_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/roles"
	"github.com/rolegate/rolegate/internal/users"
)

// memRepo is an in-memory users.RepositoryPort.
type memRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]users.Account
	creates  int
	err      error
}

func newMemRepo() *memRepo {
	return &memRepo{accounts: make(map[int64]users.Account)}
}

func (m *memRepo) FindByLogin(_ context.Context, login string) (users.Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return users.Account{}, false, m.err
	}
	for _, acct := range m.accounts {
		if acct.Login == login {
			return acct, true, nil
		}
	}
	return users.Account{}, false, nil
}

func (m *memRepo) FindByID(_ context.Context, id int64) (users.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return users.Account{}, m.err
	}
	acct, ok := m.accounts[id]
	if !ok || acct.Deleted {
		return users.Account{}, users.ErrAccountNotFound
	}
	return acct, nil
}

func (m *memRepo) Create(_ context.Context, acct users.Account) (users.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return users.Account{}, m.err
	}
	for _, existing := range m.accounts {
		if existing.Login == acct.Login {
			return users.Account{}, users.ErrLoginTaken
		}
	}
	m.nextID++
	m.creates++
	acct.ID = m.nextID
	acct.CreatedAt = time.Now()
	acct.UpdatedAt = acct.CreatedAt
	if acct.Permissions == nil {
		acct.Permissions = []string{}
	}
	m.accounts[acct.ID] = acct
	return acct, nil
}

func (m *memRepo) List(_ context.Context, filter users.ListFilter) ([]users.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []users.Account
	for _, acct := range m.accounts {
		if acct.Deleted && !filter.IncludeDeleted {
			continue
		}
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) UpdateNames(_ context.Context, id int64, firstName, lastName string) (users.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[id]
	if !ok || acct.Deleted {
		return users.Account{}, users.ErrAccountNotFound
	}
	acct.FirstName, acct.LastName = firstName, lastName
	m.accounts[id] = acct
	return acct, nil
}

func (m *memRepo) UpdateRole(_ context.Context, id int64, roleID int64) (users.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[id]
	if !ok || acct.Deleted {
		return users.Account{}, users.ErrAccountNotFound
	}
	acct.RoleID = roleID
	acct.Role = rbac.Roles()[roleID-1]
	m.accounts[id] = acct
	return acct, nil
}

func (m *memRepo) SoftDelete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[id]
	if !ok || acct.Deleted {
		return users.ErrAccountNotFound
	}
	acct.Deleted = true
	m.accounts[id] = acct
	return nil
}

// seed inserts an account directly, bypassing hashing.
func (m *memRepo) seed(login string, role rbac.Role) users.Account {
	acct, _ := m.Create(context.Background(), users.Account{Login: login, Role: role, RoleID: roleID(role)})
	return acct
}

// staticRoles resolves mirror rows with ids following the tier order.
type staticRoles struct{}

func (staticRoles) Resolve(_ context.Context, name rbac.Role) (roles.Role, error) {
	if !name.Valid() {
		return roles.Role{}, roles.ErrRoleNotFound
	}
	return roles.Role{ID: roleID(name), Name: name}, nil
}

func roleID(name rbac.Role) int64 {
	for i, r := range rbac.Roles() {
		if r == name {
			return int64(i + 1)
		}
	}
	return 0
}
