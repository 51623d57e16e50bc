package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Ref
		wantErr bool
	}{
		{
			name:  "env reference",
			input: "${env:ARGOCD_PASSWORD}",
			want:  &Ref{Source: SourceEnv, Name: "ARGOCD_PASSWORD", Raw: "${env:ARGOCD_PASSWORD}"},
		},
		{
			name:  "keyring reference",
			input: "${keyring:argocd-password}",
			want:  &Ref{Source: SourceKeyring, Name: "argocd-password", Raw: "${keyring:argocd-password}"},
		},
		{
			name:  "surrounding whitespace",
			input: "  ${env:PG_URL}  ",
			want:  &Ref{Source: SourceEnv, Name: "PG_URL", Raw: "${env:PG_URL}"},
		},
		{
			name:  "plain value",
			input: "postgres://localhost/infrakit",
			want:  nil,
		},
		{
			name:  "unknown source is not a reference",
			input: "${vault:path}",
			want:  nil,
		},
		{
			name:    "empty name",
			input:   "${env:}",
			wantErr: true,
		},
		{
			name:    "invalid characters",
			input:   "${env:BAD NAME}",
			wantErr: true,
		},
		{
			name:    "nested braces",
			input:   "${env:${OTHER}}",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRef(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid reference format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsRef(t *testing.T) {
	assert.True(t, IsRef("${env:HOME}"))
	assert.True(t, IsRef("${keyring:argocd-password}"))
	assert.True(t, IsRef("${env:}"))
	assert.False(t, IsRef("${env:HOME"))
	assert.False(t, IsRef("$env:HOME}"))
	assert.False(t, IsRef("admin"))
	assert.False(t, IsRef(""))
}

func TestRefString(t *testing.T) {
	assert.Equal(t, "${env:X}", (&Ref{Source: SourceEnv, Name: "X"}).String())
	assert.Equal(t, " raw ", (&Ref{Source: SourceEnv, Name: "X", Raw: " raw "}).String())
}
