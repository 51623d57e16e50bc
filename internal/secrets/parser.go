package secrets

import (
	"fmt"
	"regexp"
	"strings"
)

// Reference sources
const (
	SourceEnv     = "env"
	SourceKeyring = "keyring"
)

// Ref is a parsed value reference such as ${env:ARGOCD_PASSWORD}
type Ref struct {
	Source string // env or keyring
	Name   string // variable name or keyring account
	Raw    string // original ${source:name}
}

var (
	// refPattern matches ${env:NAME} and ${keyring:account}
	// Group 1: source
	// Group 2: name (alphanumeric, dot, dash, underscore)
	refPattern = regexp.MustCompile(`^\$\{(env|keyring):([a-zA-Z0-9._-]+)\}$`)
)

// ParseRef parses a reference string into a Ref.
// Returns nil, nil if the string is not a reference at all.
func ParseRef(s string) (*Ref, error) {
	s = strings.TrimSpace(s)

	if !IsRef(s) {
		return nil, nil
	}

	matches := refPattern.FindStringSubmatch(s)
	if matches == nil {
		return nil, fmt.Errorf("invalid reference format: %s (expected: ${env:NAME} or ${keyring:account})", s)
	}

	return &Ref{
		Source: matches[1],
		Name:   matches[2],
		Raw:    s,
	}, nil
}

// IsRef checks if a string appears to be a reference.
// This is a lightweight check - use ParseRef for full validation
func IsRef(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "}") {
		return false
	}
	return strings.HasPrefix(s, "${"+SourceEnv+":") || strings.HasPrefix(s, "${"+SourceKeyring+":")
}

// String returns the original raw reference string
func (r *Ref) String() string {
	if r.Raw != "" {
		return r.Raw
	}
	return fmt.Sprintf("${%s:%s}", r.Source, r.Name)
}
