package secrets

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ChainResolver tries multiple resolvers in order until one succeeds
type ChainResolver struct {
	resolvers []Resolver
}

// NewChainResolver creates a new chain resolver with the given resolvers
// Resolvers are tried in the order they are provided
func NewChainResolver(resolvers ...Resolver) *ChainResolver {
	return &ChainResolver{
		resolvers: resolvers,
	}
}

// Resolve tries each resolver in order until one succeeds.
// If all fail, the returned error aggregates every attempt.
func (c *ChainResolver) Resolve(ref Ref) (string, error) {
	if len(c.resolvers) == 0 {
		return "", fmt.Errorf("no resolvers configured")
	}

	var result *multierror.Error
	for _, resolver := range c.resolvers {
		value, err := resolver.Resolve(ref)
		if err == nil {
			return value, nil
		}
		result = multierror.Append(result, err)
	}

	return "", fmt.Errorf("failed to resolve %s: %w", ref.String(), result)
}
