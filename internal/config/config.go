// Package config loads epubedit CLI settings from defaults, an optional
// config file and EPUBEDIT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

const (
	// AppName is the directory name used under the user config directory.
	AppName = "epubedit"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// EnvPrefix prefixes every environment variable override.
	EnvPrefix = "EPUBEDIT"
)

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the CLI settings.
type Config struct {
	// LogLevel is a charmbracelet/log level name (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// OutputSuffix is appended to the source file's base name when set
	// writes a copy and no output path was given.
	OutputSuffix string `mapstructure:"output_suffix"`

	// InPlace makes set overwrite the source archive by default.
	InPlace bool `mapstructure:"in_place"`

	// MaxEntrySize caps the decompressed size of a single archive entry.
	MaxEntrySize int64 `mapstructure:"max_entry_size"`

	// ScratchDir is the parent of the temporary extraction directories;
	// empty means the system temp directory.
	ScratchDir string `mapstructure:"scratch_dir"`

	// Jobs bounds how many archives show loads concurrently.
	Jobs int `mapstructure:"jobs"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		OutputSuffix: "_edited",
		InPlace:      false,
		MaxEntrySize: 256 * 1024 * 1024,
		ScratchDir:   "",
		Jobs:         4,
	}
}

// ConfigDir returns the directory holding the default config file.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// Load resolves the configuration. A non-empty path must name a readable
// config file; otherwise the default file is used when it exists. Returns
// the config and the path of the file that was read, if any.
func Load(path string) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("output_suffix", defaults.OutputSuffix)
	v.SetDefault("in_place", defaults.InPlace)
	v.SetDefault("max_entry_size", defaults.MaxEntrySize)
	v.SetDefault("scratch_dir", defaults.ScratchDir)
	v.SetDefault("jobs", defaults.Jobs)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolved := ""
	if path != "" {
		if err := readFile(v, path); err != nil {
			return nil, "", err
		}
		resolved = path
	} else if dir, err := ConfigDir(); err == nil {
		if candidate := filepath.Join(dir, ConfigFileName); fileExists(candidate) {
			if err := readFile(v, candidate); err != nil {
				return nil, "", err
			}
			resolved = candidate
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q: %w", ErrInvalidConfig, c.LogLevel, err)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("%w: jobs must be at least 1, got %d", ErrInvalidConfig, c.Jobs)
	}
	if c.MaxEntrySize < 1 {
		return fmt.Errorf("%w: max_entry_size must be positive, got %d", ErrInvalidConfig, c.MaxEntrySize)
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func readFile(v *viper.Viper, path string) error {
	if !fileExists(path) {
		return fmt.Errorf("config file not found: %s", path)
	}
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
