package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gild/internal/core/domain"
)

func TestSelectEnvironment(t *testing.T) {
	envs := domain.DefaultEnvironments()

	tests := []struct {
		name       string
		input      string
		wantName   string
		wantOutput string
		wantMinify bool
	}{
		{name: "empty defaults to dev", input: "", wantName: "dev", wantOutput: "builds/development"},
		{name: "dev", input: "dev", wantName: "dev", wantOutput: "builds/development"},
		{name: "production", input: " production ", wantName: "production", wantOutput: "builds/production", wantMinify: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := domain.SelectEnvironment(envs, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, env.Name)
			assert.Equal(t, tt.wantOutput, env.OutputDir)
			assert.Equal(t, tt.wantMinify, env.Minify)
		})
	}
}

func TestSelectEnvironment_Unknown(t *testing.T) {
	_, err := domain.SelectEnvironment(domain.DefaultEnvironments(), "staging")
	require.ErrorIs(t, err, domain.ErrUnknownEnvironment)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestDefaultEnvironments_NotInverted(t *testing.T) {
	envs := domain.DefaultEnvironments()
	assert.Equal(t, domain.SassExpanded, envs[domain.EnvDevelopment].SassStyle)
	assert.True(t, envs[domain.EnvDevelopment].Comments)
	assert.Equal(t, domain.SassCompressed, envs[domain.EnvProduction].SassStyle)
	assert.NotEqual(t, envs[domain.EnvDevelopment].OutputDir, envs[domain.EnvProduction].OutputDir)
}

func TestRecord(t *testing.T) {
	r := domain.NewRecord("src/js", "./lib/../app.js", []byte("x"))
	assert.Equal(t, "app.js", r.Path)
	assert.Equal(t, "src/js/app.js", r.Source())
	assert.Equal(t, ".js", r.Ext())

	moved := r.WithPath("script.js").WithContents([]byte("y"))
	assert.Equal(t, "script.js", moved.Path)
	assert.Equal(t, []byte("y"), moved.Contents)
	assert.Equal(t, []byte("x"), r.Contents)
}
