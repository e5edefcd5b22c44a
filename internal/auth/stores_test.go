package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/roles"
	"github.com/rolegate/rolegate/internal/users"
)

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]users.Account
	creates  int
	findErr  error
	delay    time.Duration
	// started is closed when the first Create begins.
	started chan struct{}
}

func newMemAccounts(accts ...users.Account) *memAccounts {
	m := &memAccounts{accounts: make(map[string]users.Account)}
	for _, a := range accts {
		m.accounts[a.Login] = a
	}
	return m
}

func (m *memAccounts) FindByLogin(_ context.Context, login string) (users.Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return users.Account{}, false, m.findErr
	}
	acct, ok := m.accounts[login]
	return acct, ok, nil
}

func (m *memAccounts) Create(ctx context.Context, acct users.Account) (users.Account, error) {
	m.mu.Lock()
	if m.started != nil {
		close(m.started)
		m.started = nil
	}
	m.mu.Unlock()
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return users.Account{}, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[acct.Login]; ok {
		return users.Account{}, users.ErrLoginTaken
	}
	m.creates++
	acct.ID = int64(len(m.accounts) + 1)
	m.accounts[acct.Login] = acct
	return acct, nil
}

func (m *memAccounts) createCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}

type memRoles struct {
	err error
}

func (m memRoles) FindByName(_ context.Context, name rbac.Role) (roles.Role, bool, error) {
	if m.err != nil {
		return roles.Role{}, false, m.err
	}
	for i, r := range rbac.Roles() {
		if r == name {
			return roles.Role{ID: int64(i + 1), Name: r}, true, nil
		}
	}
	return roles.Role{}, false, nil
}
