package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load() uses defaults when no config file exists
// - Load() reads .propscan/config.yml and .propscan/config.yaml
// - Load() merges a partial config file with defaults
// - Environment variables override config file values
// - NewFileLoader() reads an explicit file
// - Load() returns error for malformed YAML and invalid values
// - Validate() rejects empty includes, bad globs, bad workers, negative cache size
// - Validate() rejects unknown scope modes and output formats
// - Validate() reports every invalid field and keeps each sentinel reachable
// - GetSourceExtensions() extracts unique extensions from include globs

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	cfgDir := filepath.Join(dir, ".propscan")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, name), []byte(content), 0644))
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Contains(t, cfg.Paths.Include, "**/*.rb")
	assert.Contains(t, cfg.Paths.Ignore, "vendor/**")
	assert.Positive(t, cfg.Scan.Workers)
	assert.Equal(t, 10_000, cfg.Scan.CacheSize)
	assert.Equal(t, "frames", cfg.Analysis.ScopeMode)
	assert.Equal(t, ".propscan/records.db", cfg.Storage.DBPath)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, dsl.ScopeFrames, cfg.ScopeMode())

	assert.NoError(t, Validate(cfg))
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	defaults := Default()
	assert.Equal(t, defaults.Paths, cfg.Paths)
	assert.Equal(t, defaults.Scan, cfg.Scan)
	assert.Equal(t, defaults.Analysis, cfg.Analysis)
	assert.Equal(t, defaults.Storage, cfg.Storage)
	assert.Equal(t, defaults.Output, cfg.Output)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"config.yml", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, name, `
paths:
  include:
    - "app/**/*.rb"
  ignore:
    - "spec/**"
scan:
  workers: 3
  cache_size: 50
analysis:
  scope_mode: legacy
storage:
  db_path: out/records.db
output:
  format: yaml
`)

			cfg, err := NewLoader(dir).Load()
			require.NoError(t, err)

			assert.Equal(t, []string{"app/**/*.rb"}, cfg.Paths.Include)
			assert.Equal(t, []string{"spec/**"}, cfg.Paths.Ignore)
			assert.Equal(t, 3, cfg.Scan.Workers)
			assert.Equal(t, 50, cfg.Scan.CacheSize)
			assert.Equal(t, dsl.ScopeLegacy, cfg.ScopeMode())
			assert.Equal(t, "out/records.db", cfg.Storage.DBPath)
			assert.Equal(t, "yaml", cfg.Output.Format)
		})
	}
}

func TestLoad_MergesPartialFileWithDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "scan:\n  workers: 2\n")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scan.Workers)
	assert.Equal(t, Default().Scan.CacheSize, cfg.Scan.CacheSize)
	assert.Equal(t, Default().Paths.Include, cfg.Paths.Include)
	assert.Equal(t, "frames", cfg.Analysis.ScopeMode)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "scan:\n  workers: 2\noutput:\n  format: json\n")

	t.Setenv("PROPSCAN_SCAN_WORKERS", "7")
	t.Setenv("PROPSCAN_ANALYSIS_SCOPE_MODE", "legacy")
	t.Setenv("PROPSCAN_OUTPUT_FORMAT", "yaml")
	t.Setenv("PROPSCAN_STORAGE_DB_PATH", "env.db")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Scan.Workers)
	assert.Equal(t, "legacy", cfg.Analysis.ScopeMode)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, "env.db", cfg.Storage.DBPath)
}

func TestNewFileLoader_ReadsExplicitFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: yaml\n"), 0644))

	cfg, err := NewFileLoader(dir, path).Load()
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output.Format)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeConfig(t, dir, "config.yml", "scan: [workers\n")

		_, err := NewLoader(dir).Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeConfig(t, dir, "config.yml", "analysis:\n  scope_mode: sideways\n")

		_, err := NewLoader(dir).Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidScopeMode)
	})
}

func TestValidate_RejectsInvalidFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty include", func(c *Config) { c.Paths.Include = nil }, ErrEmptyInclude},
		{"bad include glob", func(c *Config) { c.Paths.Include = []string{"[*.rb"} }, ErrInvalidPattern},
		{"bad ignore glob", func(c *Config) { c.Paths.Ignore = []string{"[vendor"} }, ErrInvalidPattern},
		{"zero workers", func(c *Config) { c.Scan.Workers = 0 }, ErrInvalidWorkers},
		{"negative cache", func(c *Config) { c.Scan.CacheSize = -1 }, ErrInvalidCacheSize},
		{"scope mode", func(c *Config) { c.Analysis.ScopeMode = "stack" }, ErrInvalidScopeMode},
		{"format", func(c *Config) { c.Output.Format = "xml" }, ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_RejectsBadIgnorePattern(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Paths.Ignore = append(cfg.Paths.Ignore, "[vendor")

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.Contains(t, err.Error(), `"[vendor"`)
	assert.NotErrorIs(t, err, ErrEmptyInclude)
}

func TestValidate_AcceptsZeroCacheAndUppercaseFormat(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Scan.CacheSize = 0
	cfg.Output.Format = "YAML"
	cfg.Analysis.ScopeMode = ""
	assert.NoError(t, Validate(cfg))
}

func TestValidate_ReportsMultipleErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Scan.Workers = -1
	cfg.Output.Format = "toml"
	cfg.Paths.Include = nil

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.ErrorIs(t, err, ErrInvalidWorkers)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.ErrorIs(t, err, ErrEmptyInclude)
}

func TestGetSourceExtensions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Paths.Include = []string{"**/*.rb", "lib/*.rb", "**/*.rbi", "Gemfile"}
	assert.Equal(t, []string{".rb", ".rbi"}, cfg.GetSourceExtensions())
}
