package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for txdep
type Config struct {
	// SnapshotDir is where interpolant snapshots are written
	SnapshotDir string `yaml:"snapshot_dir" env:"TXDEP_SNAPSHOT_DIR"`

	// CoreOnly restricts exported stores to unsat-core locations by default
	CoreOnly bool `yaml:"core_only" env:"TXDEP_CORE_ONLY"`

	// MaxTraceEvents caps the number of events replayed from one trace
	MaxTraceEvents int `yaml:"max_trace_events" env:"TXDEP_MAX_TRACE_EVENTS"`

	// BindArrays rewrites symbolic array identifiers to bound variables on export
	BindArrays bool `yaml:"bind_arrays" env:"TXDEP_BIND_ARRAYS"`

	// Logging
	Verbose  bool `yaml:"verbose" env:"TXDEP_VERBOSE"`
	JSONLogs bool `yaml:"json_logs" env:"TXDEP_JSON_LOGS"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SnapshotDir:    ".txdep/snapshots",
		CoreOnly:       false,
		MaxTraceEvents: 1_000_000,
		BindArrays:     true,
		Verbose:        false,
		JSONLogs:       false,
	}
}

// globalConfigFilePath returns the global config file path (~/.txdep/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".txdep/config.yaml"
	}
	return filepath.Join(home, ".txdep", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.txdep/config.yaml)
func projectConfigFilePath() string {
	return ".txdep/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.txdep/config.yaml)
// 3. Global config (~/.txdep/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
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
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TXDEP_SNAPSHOT_DIR"); v != "" {
		cfg.SnapshotDir = v
	}
	if v := os.Getenv("TXDEP_CORE_ONLY"); v != "" {
		cfg.CoreOnly = isTruthy(v)
	}
	if v := os.Getenv("TXDEP_MAX_TRACE_EVENTS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.MaxTraceEvents = i
		}
	}
	if v := os.Getenv("TXDEP_BIND_ARRAYS"); v != "" {
		cfg.BindArrays = isTruthy(v)
	}
	if v := os.Getenv("TXDEP_VERBOSE"); v != "" {
		cfg.Verbose = isTruthy(v)
	}
	if v := os.Getenv("TXDEP_JSON_LOGS"); v != "" {
		cfg.JSONLogs = isTruthy(v)
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if c.SnapshotDir == "" {
		return fmt.Errorf("snapshot_dir must not be empty")
	}
	if c.MaxTraceEvents <= 0 {
		return fmt.Errorf("max_trace_events must be positive")
	}
	return nil
}

// isTruthy interprets common boolean environment values
func isTruthy(v string) bool {
	return v == "true" || v == "1" || v == "yes"
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
