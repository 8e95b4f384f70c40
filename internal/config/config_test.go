package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.Name)
	assert.Equal(t, "~/facebook/messages/inbox", cfg.Archive.Path)
	assert.Equal(t, "message*.json", cfg.Archive.FragmentPattern)
	assert.Equal(t, "stickers_used", cfg.Archive.StickersDir)
	assert.Equal(t, 50, cfg.Report.TopN)
	assert.Equal(t, "Local", cfg.Report.Timezone)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadValidYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
name: "Jane Doe"
archive:
  path: "/data/inbox"
report:
  top_n: 20
  timezone: "UTC"
logging:
  level: "debug"
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, "Jane Doe", cfg.Name)
	assert.Equal(t, "/data/inbox", cfg.Archive.Path)
	assert.Equal(t, 20, cfg.Report.TopN)
	assert.Equal(t, "UTC", cfg.Report.Timezone)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Non-overridden values remain defaults
	assert.Equal(t, "message*.json", cfg.Archive.FragmentPattern)
	assert.Equal(t, "stickers_used", cfg.Archive.StickersDir)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadInvalidYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(cfgPath, []byte(":::not valid yaml{{{"), 0644)
	require.NoError(t, err)

	_, err = Load(cfgPath)
	assert.Error(t, err)
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing", "config.yaml"))
	assert.Error(t, err)
}

func TestLoadOrCreateCreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "deep", "config.yaml")

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Report.TopN)
	assert.Equal(t, "message*.json", cfg.Archive.FragmentPattern)

	// File should now exist on disk
	_, statErr := os.Stat(cfgPath)
	assert.NoError(t, statErr)

	// File should be valid YAML loadable again
	cfg2, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Report.TopN, cfg2.Report.TopN)
	assert.Equal(t, cfg.Archive.Path, cfg2.Archive.Path)
}

func TestLoadOrCreateLoadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(cfgPath, []byte("name: \"Sam\"\n"), 0644)
	require.NoError(t, err)

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "Sam", cfg.Name)
	assert.Equal(t, 50, cfg.Report.TopN)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "Jane Doe"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing name", func(c *Config) { c.Name = "" }, "name is required"},
		{"missing archive path", func(c *Config) { c.Archive.Path = "" }, "archive.path"},
		{"zero top_n", func(c *Config) { c.Report.TopN = 0 }, "top_n"},
		{"bad timezone", func(c *Config) { c.Report.Timezone = "Mars/Olympus" }, "report.timezone"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Report.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/inbox")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "inbox"), got)

	got, err = ExpandPath("/abs/inbox")
	require.NoError(t, err)
	assert.Equal(t, "/abs/inbox", got)
}
