package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name used in the OS keyring
	KeyringService = "infrakit"
	// AccountArgoCD is the keyring account holding the ArgoCD password
	AccountArgoCD = "argocd-password"
	// fallbackPrefix prefixes credential files in the config directory
	fallbackPrefix = ".credential-"
)

// ErrCredentialNotFound is returned when neither the keyring nor the
// fallback file holds the requested account
var ErrCredentialNotFound = errors.New("credential not found in keyring or file storage")

var accountPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// StoreCredential stores value for account in the OS keyring.
// Falls back to file storage if keyring is unavailable
func StoreCredential(account, value string) error {
	if err := validateAccount(account); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("credential cannot be empty")
	}

	err := keyring.Set(KeyringService, account, value)
	if err == nil {
		return nil
	}

	return storeCredentialInFile(account, value)
}

// LoadCredential retrieves the credential for account from the OS keyring.
// Falls back to file storage if keyring is unavailable
func LoadCredential(account string) (string, error) {
	if err := validateAccount(account); err != nil {
		return "", err
	}

	value, err := keyring.Get(KeyringService, account)
	if err == nil {
		return value, nil
	}

	return loadCredentialFromFile(account)
}

// ClearCredential removes the credential for account from both stores
func ClearCredential(account string) error {
	if err := validateAccount(account); err != nil {
		return err
	}

	keyringErr := keyring.Delete(KeyringService, account)
	fileErr := deleteCredentialFile(account)

	if keyringErr != nil && fileErr != nil {
		return fmt.Errorf("failed to clear credential from keyring (%v) and file (%v)", keyringErr, fileErr)
	}

	return nil
}

func validateAccount(account string) error {
	if !accountPattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q", account)
	}
	return nil
}

// storeCredentialInFile stores the value in a file only the owner can read
func storeCredentialInFile(account, value string) error {
	path, err := credentialFilePath(account)
	if err != nil {
		return fmt.Errorf("failed to get credential file path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(value), 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}

	return nil
}

func loadCredentialFromFile(account string) (string, error) {
	path, err := credentialFilePath(account)
	if err != nil {
		return "", fmt.Errorf("failed to get credential file path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrCredentialNotFound, account)
		}
		return "", fmt.Errorf("failed to read credential file: %w", err)
	}

	return string(data), nil
}

func deleteCredentialFile(account string) error {
	path, err := credentialFilePath(account)
	if err != nil {
		return fmt.Errorf("failed to get credential file path: %w", err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credential file: %w", err)
	}

	return nil
}

// credentialFilePath returns the fallback file for account.
// Respects INFRAKIT_CONFIG_DIR environment variable if set
func credentialFilePath(account string) (string, error) {
	if dir := os.Getenv("INFRAKIT_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, fallbackPrefix+account), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".infrakit", fallbackPrefix+account), nil
}
