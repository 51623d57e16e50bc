package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaIsValidJSON(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal(Schema(), &doc))
	assert.Equal(t, "object", doc["type"])
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{name: "minimal", data: minimalYAML},
		{
			name: "clusters map",
			data: minimalYAML + `
clusters:
  prod:
    server: https://prod
`,
		},
		{
			name:   "null document",
			data:   "",
			errMsg: "Invalid type",
		},
		{
			name:   "unknown redis field",
			data:   minimalYAML + "  verify: true\n",
			errMsg: "redis",
		},
		{
			name: "cluster unknown field",
			data: minimalYAML + `
clusters:
  prod:
    context: prod-admin
`,
			errMsg: "clusters.prod",
		},
		{
			name:   "postgres url not a string",
			data:   "argocd:\n  apiUrl: x\npostgresql:\n  url: 5\nredis:\n  url: r\n",
			errMsg: "postgresql.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema([]byte(tt.data))
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "schema validation failed")
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
