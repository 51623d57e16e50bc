package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommand(t *testing.T) {
	cmd := newCommand()

	var names []string
	for _, c := range cmd.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"onboard", "sync", "status", "list", "releases", "login", "logout", "config"}, names)

	for _, flag := range []string{"config", "debug"} {
		found := false
		for _, f := range cmd.Flags {
			for _, n := range f.Names() {
				if n == flag {
					found = true
				}
			}
		}
		assert.True(t, found, "missing global flag %s", flag)
	}
}

func TestConfigEnvVar(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("INFRAKIT_CONFIG_DIR", dir)
	t.Setenv("INFRAKIT_CONFIG", "staging")

	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out
	cmd.ErrWriter = &bytes.Buffer{}

	err := cmd.Run(context.Background(), []string{"infrakit", "config", "validate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging.yaml")
}
