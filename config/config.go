// Package config provides CLI configuration management for the delib
// command-line tool. It supports loading configuration from YAML files,
// environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultOutputDir    = "."
	DefaultRollupPrefix = "metaverse"
	DefaultConcurrency  = 1
	DefaultConfigDir    = ".delib"
	DefaultConfigFile   = "config.yaml"
)

// DefaultExcludeScreenNames lists screen names dropped from every report.
// "Record" is the platform's recording pseudo-participant.
var DefaultExcludeScreenNames = []string{"Record"}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// OutputDir is the directory report files are written into.
	OutputDir string `yaml:"output_dir"`

	// ExcludeScreenNames lists participant screen names excluded from
	// report output.
	ExcludeScreenNames []string `yaml:"exclude_screen_names"`

	// RollupPrefix is the file name prefix for rollup outputs.
	RollupPrefix string `yaml:"rollup_prefix"`

	// Concurrency is the number of session files processed at once.
	Concurrency int `yaml:"concurrency"`

	// BOM prepends a UTF-8 byte order mark to CSV files for Excel.
	BOM bool `yaml:"bom,omitempty"`

	// Overwrite replaces existing report files instead of renaming.
	Overwrite bool `yaml:"overwrite,omitempty"`

	// RunLog is an optional path for a JSON-lines log of each run.
	RunLog string `yaml:"run_log,omitempty"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		OutputDir:          DefaultOutputDir,
		ExcludeScreenNames: append([]string(nil), DefaultExcludeScreenNames...),
		RollupPrefix:       DefaultRollupPrefix,
		Concurrency:        DefaultConcurrency,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $DELIB_CONFIG_DIR if set, otherwise ~/.delib
func ConfigDir() (string, error) {
	if dir := os.Getenv("DELIB_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment
// variables. Configuration is loaded in this order (later sources override
// earlier):
// 1. Default values
// 2. Config file (~/.delib/config.yaml or $DELIB_CONFIG_DIR/config.yaml)
// 3. Environment variables (DELIB_OUTPUT_DIR, DELIB_ROLLUP_PREFIX, ...)
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadConfigFrom loads configuration from an explicit file path instead of
// the default location. Environment overrides and validation still apply.
func LoadConfigFrom(path string) (*CLIConfig, error) {
	cfg := DefaultConfig()

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}
	if err := loadFromFile(cfg, expanded); err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg CLIConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.OutputDir != "" {
		cfg.OutputDir = fileCfg.OutputDir
	}
	if fileCfg.ExcludeScreenNames != nil {
		cfg.ExcludeScreenNames = fileCfg.ExcludeScreenNames
	}
	if fileCfg.RollupPrefix != "" {
		cfg.RollupPrefix = fileCfg.RollupPrefix
	}
	if fileCfg.Concurrency != 0 {
		cfg.Concurrency = fileCfg.Concurrency
	}
	if fileCfg.RunLog != "" {
		cfg.RunLog = fileCfg.RunLog
	}
	cfg.BOM = fileCfg.BOM
	cfg.Overwrite = fileCfg.Overwrite
	cfg.Debug = fileCfg.Debug

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("DELIB_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}

	if v := os.Getenv("DELIB_EXCLUDE_SCREEN_NAMES"); v != "" {
		var names []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		cfg.ExcludeScreenNames = names
	}

	if v := os.Getenv("DELIB_ROLLUP_PREFIX"); v != "" {
		cfg.RollupPrefix = v
	}

	if v := os.Getenv("DELIB_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}

	if v := os.Getenv("DELIB_RUN_LOG"); v != "" {
		cfg.RunLog = v
	}

	if v := os.Getenv("DELIB_BOM"); v == "true" || v == "1" {
		cfg.BOM = true
	}

	if v := os.Getenv("DELIB_OVERWRITE"); v == "true" || v == "1" {
		cfg.Overwrite = true
	}

	if v := os.Getenv("DELIB_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}

	if c.RollupPrefix == "" {
		return fmt.Errorf("rollup_prefix is required")
	}

	return nil
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
