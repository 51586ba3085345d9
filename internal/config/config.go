package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-cfg-query/internal/log"
	"github.com/l3aro/go-cfg-query/pkg/cfg"
)

// Format selects how analysis results are rendered.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// Formats lists every supported output format.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatMsgpack}

// Config holds all configuration for gcfg
type Config struct {
	// MaxDepth bounds syntax tree traversal depth; 0 means unbounded
	MaxDepth int `yaml:"max_depth" env:"GCFG_MAX_DEPTH"`

	// MaxNesting bounds statement nesting while building graphs; 0 means unbounded
	MaxNesting int `yaml:"max_nesting" env:"GCFG_MAX_NESTING"`

	// Workers is the number of files analyzed concurrently
	Workers int `yaml:"workers" env:"GCFG_WORKERS"`

	// Output
	Format Format `yaml:"format" env:"GCFG_FORMAT"`

	// Logging
	LogLevel string `yaml:"log_level" env:"GCFG_LOG_LEVEL"`
	JSONLogs bool   `yaml:"json_logs" env:"GCFG_JSON_LOGS"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxDepth:   0,
		MaxNesting: cfg.DefaultMaxNesting,
		Workers:    4,
		Format:     FormatText,
		LogLevel:   "info",
		JSONLogs:   false,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.gcfg/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".gcfg", "config.yaml")
	}
	return filepath.Join(home, ".gcfg", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.gcfg/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".gcfg", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.gcfg/config.yaml)
// 3. Global config (~/.gcfg/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	c := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		if err := mergeFile(c, path, true); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	c := DefaultConfig()

	if err := mergeFile(c, path, false); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// mergeFile overlays the YAML at path onto c. Keys absent from the file keep
// their current values.
func mergeFile(c *Config, path string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(c *Config) error {
	ints := []struct {
		env string
		dst *int
	}{
		{"GCFG_MAX_DEPTH", &c.MaxDepth},
		{"GCFG_MAX_NESTING", &c.MaxNesting},
		{"GCFG_WORKERS", &c.Workers},
	}
	for _, o := range ints {
		v := os.Getenv(o.env)
		if v == "" {
			continue
		}
		i, err := parseInt(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", o.env, err)
		}
		*o.dst = i
	}

	if v := os.Getenv("GCFG_FORMAT"); v != "" {
		c.Format = Format(strings.ToLower(v))
	}
	if v := os.Getenv("GCFG_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GCFG_JSON_LOGS"); v != "" {
		c.JSONLogs = parseBool(v)
	}
	return nil
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}
	if c.MaxNesting < 0 {
		return fmt.Errorf("max_nesting must be non-negative")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if _, err := ParseFormat(string(c.Format)); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// Level returns the configured log level, falling back to info.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid format: %s (must be one of text, json, yaml, msgpack)", s)
}

// parseInt attempts to parse a string as int
func parseInt(s string) (int, error) {
	var i int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &i); err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return i, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
