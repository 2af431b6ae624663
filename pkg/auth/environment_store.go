package auth

import (
	"os"
	"time"
)

const (
	envCookie    = "NHDL_COOKIE"
	envUserAgent = "NHDL_USER_AGENT"
)

// EnvironmentStore reads a single account from NHDL_COOKIE and NHDL_USER_AGENT.
// It is read-only.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account under the requested name, or
// "default" when name is empty.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	cookie := os.Getenv(envCookie)
	if cookie == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = "default"
	}

	return &Account{
		Name:         name,
		Cookie:       cookie,
		UserAgent:    os.Getenv(envUserAgent),
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(envCookie) != ""
}
