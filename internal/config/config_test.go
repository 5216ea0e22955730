package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ddupe/internal/config"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	configDir := filepath.Join(dir, "ddupe")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.Workers)
	assert.Nil(t, cfg.Defaults.SkipHidden)
	assert.Empty(t, cfg.Defaults.Exclude)
	assert.Nil(t, cfg.Theme.Keep)
}

func TestLoad_FullConfig(t *testing.T) {
	writeConfig(t, `
[defaults]
workers = 16
scan_workers = 4
min_size = "1K"
max_size = "2G"
prefix_bytes = "8K"
io_limit = "100MB"
skip_hidden = true
report = "/tmp/ddupe.json"
exclude = ["node_modules/", "*.tmp"]

[theme]
keep = "#00ff00"
dupe = "#ff0000"
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.Workers)
	assert.Equal(t, 16, *cfg.Defaults.Workers)
	require.NotNil(t, cfg.Defaults.ScanWorkers)
	assert.Equal(t, 4, *cfg.Defaults.ScanWorkers)
	require.NotNil(t, cfg.Defaults.MinSize)
	assert.Equal(t, "1K", *cfg.Defaults.MinSize)
	require.NotNil(t, cfg.Defaults.MaxSize)
	assert.Equal(t, "2G", *cfg.Defaults.MaxSize)
	require.NotNil(t, cfg.Defaults.PrefixBytes)
	assert.Equal(t, "8K", *cfg.Defaults.PrefixBytes)
	require.NotNil(t, cfg.Defaults.IOLimit)
	assert.Equal(t, "100MB", *cfg.Defaults.IOLimit)
	require.NotNil(t, cfg.Defaults.SkipHidden)
	assert.True(t, *cfg.Defaults.SkipHidden)
	require.NotNil(t, cfg.Defaults.Report)
	assert.Equal(t, "/tmp/ddupe.json", *cfg.Defaults.Report)
	assert.Equal(t, []string{"node_modules/", "*.tmp"}, cfg.Defaults.Exclude)

	require.NotNil(t, cfg.Theme.Keep)
	assert.Equal(t, "#00ff00", *cfg.Theme.Keep)
	require.NotNil(t, cfg.Theme.Dupe)
	assert.Equal(t, "#ff0000", *cfg.Theme.Dupe)

	// Unset fields should remain nil.
	assert.Nil(t, cfg.Theme.Accent)
	assert.Nil(t, cfg.Theme.Bright)
}

func TestLoad_PartialConfig(t *testing.T) {
	writeConfig(t, `
[theme]
bright = "#ffffff"
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	// Defaults section entirely absent.
	assert.Nil(t, cfg.Defaults.Workers)
	assert.Nil(t, cfg.Defaults.MinSize)

	require.NotNil(t, cfg.Theme.Bright)
	assert.Equal(t, "#ffffff", *cfg.Theme.Bright)
}

func TestLoad_InvalidTOML(t *testing.T) {
	writeConfig(t, "invalid [[[")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_UnknownKey(t *testing.T) {
	writeConfig(t, `
[defaults]
verify = true
`)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defaults.verify")
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/ddupe/config.toml", config.Path())
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	workers := 8
	hidden := true
	in := config.Config{Defaults: config.DefaultsConfig{
		Workers:    &workers,
		SkipHidden: &hidden,
		Exclude:    []string{".git/"},
	}}

	require.NoError(t, config.Save(path, in))

	out, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSave_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0o644))

	err := config.Save(path, config.Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrExist)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))
}
