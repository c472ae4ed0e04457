// Package config provides configuration management for Drachma.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/drachma/internal/fileutil"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Home    string        `yaml:"home" json:"home"`
	Secrets SecretsConfig `yaml:"secrets" json:"secrets"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SecretsConfig selects and locates the secret store backends.
type SecretsConfig struct {
	// Backend is "keyring" (OS keychain + encrypted file) or "memory".
	Backend        string `yaml:"backend" json:"backend"`
	KeyringService string `yaml:"keyring_service" json:"keyring_service"`
	StoreFile      string `yaml:"store_file" json:"store_file"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
	Color         string `yaml:"color" json:"color"`
	Verbose       bool   `yaml:"verbose" json:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeKB int64  `yaml:"max_size_kb" json:"max_size_kb"`
	MaxRolls  int    `yaml:"max_rolls" json:"max_rolls"`
}

// Load reads configuration from the specified file.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, drmerr.WithCause(drmerr.ErrConfigInvalid, err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when it does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

// Save writes configuration to the specified file atomically.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Validate rejects values the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.Secrets.Backend {
	case "keyring", "memory":
	default:
		return drmerr.WithDetails(drmerr.ErrConfigInvalid, map[string]string{
			"secrets.backend": c.Secrets.Backend,
		})
	}

	switch c.Output.DefaultFormat {
	case "auto", "text", "json":
	default:
		return drmerr.WithDetails(drmerr.ErrConfigInvalid, map[string]string{
			"output.default_format": c.Output.DefaultFormat,
		})
	}

	if c.Logging.MaxSizeKB < 0 || c.Logging.MaxRolls < 0 {
		return drmerr.WithDetails(drmerr.ErrConfigInvalid, map[string]string{
			"logging": "max_size_kb and max_rolls must not be negative",
		})
	}
	return nil
}

// GetHome returns the drachma home directory with "~" expanded.
func (c *Config) GetHome() string {
	return ExpandPath(c.Home)
}

// GetStoreFile returns the Tier B store path. Relative paths are resolved
// against the home directory.
func (c *Config) GetStoreFile() string {
	p := ExpandPath(c.Secrets.StoreFile)
	if p != "" && !filepath.IsAbs(p) {
		p = filepath.Join(c.GetHome(), p)
	}
	return p
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the log file path, resolved against the home
// directory when relative.
func (c *Config) GetLoggingFile() string {
	p := ExpandPath(c.Logging.File)
	if p != "" && !filepath.IsAbs(p) {
		p = filepath.Join(c.GetHome(), p)
	}
	return p
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default drachma home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".drachma"
	}
	return filepath.Join(home, ".drachma")
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
