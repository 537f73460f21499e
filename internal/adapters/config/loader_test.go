package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gild/internal/adapters/config"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ConfigFileName), []byte(content), 0o600))
}

func newLoader(t *testing.T) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	return config.NewLoader(mocks.NewMockLogger(ctrl))
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	dir := t.TempDir()
	cfg, err := config.NewLoader(log).Load(dir, "")
	require.NoError(t, err)

	want := domain.DefaultConfig()
	want.Root = dir
	assert.Equal(t, want, cfg)
}

func TestLoader_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "")

	cfg, err := newLoader(t).Load(dir, domain.ConfigFileName)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig().Sources, cfg.Sources)
	assert.Equal(t, dir, cfg.Root)
}

func TestLoader_Overrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
buildDir: dist
debounce: 250ms
jobs: 2
sources:
  js: ["app/**/*.js"]
vendor:
  css: ["node_modules/normalize.css/normalize.css"]
server:
  host: 0.0.0.0
  port: 8080
  open: false
sprite:
  selector: "sprite-%s"
  maxWidth: 24
`)

	cfg, err := newLoader(t).Load(dir, domain.ConfigFileName)
	require.NoError(t, err)

	assert.Equal(t, "dist", cfg.BuildDir)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 2, cfg.Jobs)
	assert.Equal(t, []string{"app/**/*.js"}, cfg.Sources.JS)
	assert.Equal(t, domain.DefaultConfig().Sources.Sass, cfg.Sources.Sass)
	assert.Equal(t, []string{"node_modules/normalize.css/normalize.css"}, cfg.Vendor.CSS)
	assert.Equal(t, domain.Server{Host: "0.0.0.0", Port: 8080, Open: false}, cfg.Server)
	assert.Equal(t, domain.Sprite{Selector: "sprite-%s", MaxWidth: 24, MaxHeight: 16}, cfg.Sprite)

	assert.Equal(t, "dist/development", cfg.Environments[domain.EnvDevelopment].OutputDir)
	assert.Equal(t, "dist/production", cfg.Environments[domain.EnvProduction].OutputDir)
}

func TestLoader_Environments(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
environments:
  production:
    sourceMaps: true
  staging:
    minify: true
    sassStyle: compressed
`)

	cfg, err := newLoader(t).Load(dir, domain.ConfigFileName)
	require.NoError(t, err)

	prod := cfg.Environments[domain.EnvProduction]
	assert.True(t, prod.SourceMaps)
	assert.True(t, prod.Minify)
	assert.Equal(t, domain.SassCompressed, prod.SassStyle)

	assert.Equal(t, domain.BuildEnvironment{
		Name:       "staging",
		OutputDir:  "builds/staging",
		Minify:     true,
		Comments:   true,
		SourceMaps: true,
		SassStyle:  domain.SassCompressed,
	}, cfg.Environments["staging"])
}

func TestLoader_RootRelativeToConfigFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "config")
	require.NoError(t, os.MkdirAll(sub, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "site.yaml"), []byte("root: ..\n"), 0o600))

	cfg, err := newLoader(t).Load(dir, "config/site.yaml")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Root)
}

func TestLoader_Invalid(t *testing.T) {
	tests := map[string]string{
		"port too high":     "server:\n  port: 70000\n",
		"port zero":         "server:\n  port: 0\n",
		"negative jobs":     "jobs: -1\n",
		"bad debounce":      "debounce: soon\n",
		"escaping buildDir": "buildDir: ../out\n",
		"absolute outDir":   "environments:\n  dev:\n    outputDir: /tmp/out\n",
		"bad sass style":    "environments:\n  dev:\n    sassStyle: nested\n",
		"bad selector":      "sprite:\n  selector: icon\n",
		"bad sprite width":  "sprite:\n  maxWidth: 0\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, content)

			_, err := newLoader(t).Load(dir, domain.ConfigFileName)
			require.ErrorIs(t, err, domain.ErrInvalidConfig)
			assert.True(t, domain.IsConfigurationError(err))
		})
	}
}

func TestLoader_ParseErrors(t *testing.T) {
	tests := map[string]string{
		"unknown key": "tasks:\n  build: {}\n",
		"wrong type":  "jobs: many\n",
		"broken yaml": "sources: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, content)

			_, err := newLoader(t).Load(dir, domain.ConfigFileName)
			require.ErrorIs(t, err, domain.ErrConfigParseFailed)
		})
	}
}

func TestLoader_ReadError(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the file cannot be read.
	require.NoError(t, os.Mkdir(filepath.Join(dir, domain.ConfigFileName), 0o750))

	_, err := newLoader(t).Load(dir, domain.ConfigFileName)
	require.ErrorIs(t, err, domain.ErrConfigReadFailed)
	assert.ErrorIs(t, err, domain.ErrIO)
}
