package secrets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResolver struct {
	value string
	err   error
	calls int
}

func (m *mockResolver) Resolve(ref Ref) (string, error) {
	m.calls++
	return m.value, m.err
}

func TestChainResolver(t *testing.T) {
	ref := Ref{Source: SourceEnv, Name: "TOKEN"}

	t.Run("no resolvers", func(t *testing.T) {
		_, err := NewChainResolver().Resolve(ref)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no resolvers configured")
	})

	t.Run("first resolver wins", func(t *testing.T) {
		first := &mockResolver{value: "one"}
		second := &mockResolver{value: "two"}

		got, err := NewChainResolver(first, second).Resolve(ref)
		require.NoError(t, err)
		assert.Equal(t, "one", got)
		assert.Equal(t, 0, second.calls)
	})

	t.Run("falls through to later resolver", func(t *testing.T) {
		first := &mockResolver{err: errors.New("not here")}
		second := &mockResolver{value: "two"}

		got, err := NewChainResolver(first, second).Resolve(ref)
		require.NoError(t, err)
		assert.Equal(t, "two", got)
		assert.Equal(t, 1, first.calls)
	})

	t.Run("all fail", func(t *testing.T) {
		errA := errors.New("env miss")
		errB := errors.New("keyring miss")

		_, err := NewChainResolver(&mockResolver{err: errA}, &mockResolver{err: errB}).Resolve(ref)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to resolve ${env:TOKEN}")
		assert.Contains(t, err.Error(), "env miss")
		assert.Contains(t, err.Error(), "keyring miss")
		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, errB)
	})
}
