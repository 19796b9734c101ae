// Package auth stores the portal token in the OS keychain so CLI
// sessions survive across invocations without a token file on disk.
package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/errandhub-dev/errandhub/internal/authclient"
)

const service = "errandhub-cli"

// KeyringStore implements authclient.TokenStore on top of the OS
// keychain/credential manager. Tokens are keyed per auth service host
// so pointing the CLI at a staging portal does not clobber production
// credentials.
type KeyringStore struct {
	account string
}

// NewKeyringStore returns a store scoped to the given account key,
// normally the auth service host.
func NewKeyringStore(account string) *KeyringStore {
	return &KeyringStore{account: account}
}

func (k *KeyringStore) key() string {
	return fmt.Sprintf("%s-%s", authclient.TokenKey, k.account)
}

func (k *KeyringStore) SaveToken(token string) error {
	if err := keyring.Set(service, k.key(), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (k *KeyringStore) LoadToken() (string, error) {
	token, err := keyring.Get(service, k.key())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", authclient.ErrNoToken
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

func (k *KeyringStore) DeleteToken() error {
	if err := keyring.Delete(service, k.key()); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
