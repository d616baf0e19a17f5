package config

// Test Plan for Configuration:
// - Default config is valid and carries the Rust include pattern
// - Loader falls back to defaults when no config file exists
// - Loader reads overrides from .exodoc/config.yaml
// - Environment variables override file values
// - A malformed config file fails loading
// - Validate rejects empty includes, negative workers, out-of-range limits
// - IndexPath and LedgerPath live under the state directory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, rootDir, content string) {
	t.Helper()
	dir := filepath.Join(rootDir, StateDirName)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Contains(t, cfg.Paths.Include, "**/*.rs")
	assert.Contains(t, cfg.Paths.Exclude, "target/**")
	assert.Equal(t, 0, cfg.Migration.Workers)
	assert.Equal(t, 10, cfg.Search.Limit)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigFromDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default().Paths.Include, cfg.Paths.Include)
	assert.Equal(t, Default().Search.Limit, cfg.Search.Limit)
}

func TestLoad_FileOverrides(t *testing.T) {
	rootDir := t.TempDir()
	writeConfig(t, rootDir, `
paths:
  include:
    - "crates/**/*.rs"
migration:
  workers: 4
  inline_paths: true
search:
  limit: 25
`)

	cfg, err := LoadConfigFromDir(rootDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"crates/**/*.rs"}, cfg.Paths.Include)
	assert.Equal(t, 4, cfg.Migration.Workers)
	assert.True(t, cfg.Migration.InlinePaths)
	assert.Equal(t, 25, cfg.Search.Limit)
	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Paths.Exclude, cfg.Paths.Exclude)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	rootDir := t.TempDir()
	writeConfig(t, rootDir, "migration:\n  workers: 4\n")
	t.Setenv("EXODOC_MIGRATION_WORKERS", "8")

	cfg, err := LoadConfigFromDir(rootDir)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Migration.Workers)
}

func TestLoad_MalformedFileFails(t *testing.T) {
	rootDir := t.TempDir()
	writeConfig(t, rootDir, "paths: [not: valid: yaml\n")

	_, err := LoadConfigFromDir(rootDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr error
	}{
		{"no includes", func(cfg *Config) { cfg.Paths.Include = nil }, ErrEmptyInclude},
		{"blank include", func(cfg *Config) { cfg.Paths.Include = []string{"  "} }, ErrEmptyInclude},
		{"negative workers", func(cfg *Config) { cfg.Migration.Workers = -1 }, ErrInvalidWorkers},
		{"zero limit", func(cfg *Config) { cfg.Search.Limit = 0 }, ErrInvalidLimit},
		{"huge limit", func(cfg *Config) { cfg.Search.Limit = 500 }, ErrInvalidLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStatePaths(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("proj", StateDirName, "index.bleve"), IndexPath("proj"))
	assert.Equal(t, filepath.Join("proj", StateDirName, "ledger.db"), LedgerPath("proj"))
}
