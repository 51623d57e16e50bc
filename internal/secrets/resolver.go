package secrets

import (
	"fmt"
	"os"
)

// Resolver turns a reference into its value
type Resolver interface {
	Resolve(ref Ref) (string, error)
}

// EnvResolver resolves ${env:NAME} references from the process environment
type EnvResolver struct {
	lookup func(string) (string, bool)
}

// NewEnvResolver creates a resolver backed by os.LookupEnv
func NewEnvResolver() *EnvResolver {
	return &EnvResolver{lookup: os.LookupEnv}
}

// Resolve returns the variable value; unset or empty variables are errors
func (e *EnvResolver) Resolve(ref Ref) (string, error) {
	if ref.Source != SourceEnv {
		return "", fmt.Errorf("env resolver cannot resolve %s references", ref.Source)
	}

	value, ok := e.lookup(ref.Name)
	if !ok || value == "" {
		return "", fmt.Errorf("environment variable %s not set", ref.Name)
	}

	return value, nil
}

// KeyringResolver resolves ${keyring:account} references through the
// credential store in auth.go
type KeyringResolver struct{}

// NewKeyringResolver creates a keyring-backed resolver
func NewKeyringResolver() *KeyringResolver {
	return &KeyringResolver{}
}

// Resolve loads the stored credential for ref.Name
func (k *KeyringResolver) Resolve(ref Ref) (string, error) {
	if ref.Source != SourceKeyring {
		return "", fmt.Errorf("keyring resolver cannot resolve %s references", ref.Source)
	}
	return LoadCredential(ref.Name)
}

// DefaultResolver resolves both environment and keyring references
func DefaultResolver() *ChainResolver {
	return NewChainResolver(NewEnvResolver(), NewKeyringResolver())
}
