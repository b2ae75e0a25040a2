package userstorage

import (
	"context"
	"sync"

	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/entity"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/errors/mark"
)

var _ Store = &MemoryStore{}

// MemoryStore keeps accounts in process memory. Nothing survives a
// restart - lifetime of an account is the lifetime of the server.
type MemoryStore struct {
	mutex    sync.RWMutex
	accounts map[string]userentity.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: map[string]userentity.Account{},
	}
}

func (m *MemoryStore) GetAccount(ctx context.Context, username string) (userentity.Account, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	account, ok := m.accounts[username]
	if !ok {
		return userentity.Account{}, mark.Message(AccountNotFoundMark, "Account is not found")
	}

	return account, nil
}

func (m *MemoryStore) CreateAccount(ctx context.Context, account userentity.Account) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.accounts[account.Username]; ok {
		return mark.Message(AccountExistsMark, "An account with this username already exists")
	}

	m.accounts[account.Username] = account
	return nil
}

func (m *MemoryStore) FindAccountByEmail(ctx context.Context, email string) (userentity.Account, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, account := range m.accounts {
		if account.Email == email {
			return account, nil
		}
	}

	return userentity.Account{}, mark.Message(AccountNotFoundMark, "Account is not found")
}
