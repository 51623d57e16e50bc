package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/catalystcommunity/infrakit/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
argocd:
  apiUrl: https://argocd.example.com
  username: admin
  password: secret
postgresql:
  url: postgres://localhost/infrakit
redis:
  url: redis://localhost:6379/0
`

func TestLoad(t *testing.T) {
	fixturesDir, err := filepath.Abs("../../test/fixtures")
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config file",
			path: filepath.Join(fixturesDir, "valid-config.yaml"),
		},
		{
			name:    "non-existent file",
			path:    filepath.Join(fixturesDir, "does-not-exist.yaml"),
			wantErr: true,
			errMsg:  "config file not found",
		},
		{
			name:    "unknown top-level section",
			path:    filepath.Join(fixturesDir, "invalid-config-unknown-field.yaml"),
			wantErr: true,
			errMsg:  "schema validation failed",
		},
		{
			name:    "no argocd credentials",
			path:    filepath.Join(fixturesDir, "invalid-config-no-auth.yaml"),
			wantErr: true,
			errMsg:  "either token or username is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := Load(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, config)
			} else {
				require.NoError(t, err)
				require.NotNil(t, config)
				assert.Equal(t, "https://argocd.example.com", config.ArgoCD.APIURL)
				assert.Equal(t, "${env:INFRAKIT_TEST_ARGOCD_PASSWORD}", config.ArgoCD.Password)
				assert.Len(t, config.Clusters, 2)
			}
		})
	}
}

func TestLoadFromReader(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		errMsg  string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "minimal config gets defaults",
			yaml: minimalYAML,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultArgoCDNamespace, cfg.ArgoCD.Namespace)
				assert.Equal(t, DefaultArgoCDProject, cfg.ArgoCD.Project)
				assert.Empty(t, cfg.GoService.Path)
			},
		},
		{
			name: "token auth",
			yaml: `
argocd:
  apiUrl: http://localhost:8080
  token: abc
  insecure: true
postgresql:
  url: postgres://localhost/infrakit
redis:
  url: localhost:6379
`,
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.ArgoCD.UsesBasicAuth())
				assert.True(t, cfg.ArgoCD.Insecure)
			},
		},
		{
			name:    "empty document",
			yaml:    ``,
			wantErr: true,
			errMsg:  "schema validation failed",
		},
		{
			name: "missing redis",
			yaml: `
argocd:
  apiUrl: https://argocd.example.com
  username: admin
postgresql:
  url: postgres://localhost/infrakit
`,
			wantErr: true,
			errMsg:  "redis",
		},
		{
			name: "wrong type",
			yaml: `
argocd:
  apiUrl: https://argocd.example.com
  username: admin
  insecure: "maybe"
postgresql:
  url: postgres://localhost/infrakit
redis:
  url: redis://localhost
`,
			wantErr: true,
			errMsg:  "schema validation failed",
		},
		{
			name:    "invalid yaml",
			yaml:    "argocd: [unclosed",
			wantErr: true,
			errMsg:  "failed to convert YAML to JSON",
		},
		{
			name:    "malformed reference",
			yaml:    strings.Replace(minimalYAML, "password: secret", "password: ${env:}", 1),
			wantErr: true,
			errMsg:  "invalid reference format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromReader(strings.NewReader(tt.yaml))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadResolved(t *testing.T) {
	fixturesDir, err := filepath.Abs("../../test/fixtures")
	require.NoError(t, err)
	path := filepath.Join(fixturesDir, "valid-config.yaml")

	t.Run("references resolved", func(t *testing.T) {
		t.Setenv("INFRAKIT_TEST_ARGOCD_PASSWORD", "from-env")

		cfg, err := LoadResolved(path, secrets.NewEnvResolver())
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.ArgoCD.Password)
	})

	t.Run("unresolvable reference", func(t *testing.T) {
		os.Unsetenv("INFRAKIT_TEST_ARGOCD_PASSWORD")

		_, err := LoadResolved(path, secrets.NewEnvResolver())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "INFRAKIT_TEST_ARGOCD_PASSWORD")
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := DefaultConfig()
	original.Clusters = map[string]ClusterConfig{
		"prod": {Server: "https://prod.example.com"},
	}
	require.NoError(t, Save(original, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.NoError(t, ValidateRefs(cfg))
	assert.Equal(t, "${keyring:argocd-password}", cfg.ArgoCD.Password)
}
