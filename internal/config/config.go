package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/inboxlens/config.yaml"

// Config holds all inboxlens configuration.
type Config struct {
	// Name is the archive owner's display name as it appears in sender_name.
	Name    string        `yaml:"name"`
	Archive ArchiveConfig `yaml:"archive"`
	Report  ReportConfig  `yaml:"report"`
	Logging LoggingConfig `yaml:"logging"`
}

type ArchiveConfig struct {
	Path            string `yaml:"path"`
	FragmentPattern string `yaml:"fragment_pattern"`
	StickersDir     string `yaml:"stickers_dir"`
}

type ReportConfig struct {
	TopN     int    `yaml:"top_n"`
	Timezone string `yaml:"timezone"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate reports the first setting that would make a run meaningless.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required (your display name in the export)")
	}
	if c.Archive.Path == "" {
		return fmt.Errorf("archive.path is required")
	}
	if c.Report.TopN <= 0 {
		return fmt.Errorf("report.top_n must be positive, got %d", c.Report.TopN)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'console' or 'json', got %q", c.Logging.Format)
	}
	return nil
}

// Location resolves report.timezone; months are bucketed in this zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Report.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, fmt.Errorf("report.timezone: %w", err)
	}
	return loc, nil
}

// ArchivePath returns archive.path with a leading ~ expanded.
func (c *Config) ArchivePath() (string, error) {
	return ExpandPath(c.Archive.Path)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
