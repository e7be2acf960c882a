// Package config provides CLI configuration management for the delib command-line tool.
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// TestDefaultConfig verifies default configuration values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %v, want %v", cfg.OutputDir, DefaultOutputDir)
	}
	if cfg.RollupPrefix != DefaultRollupPrefix {
		t.Errorf("RollupPrefix = %v, want %v", cfg.RollupPrefix, DefaultRollupPrefix)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %v, want %v", cfg.Concurrency, DefaultConcurrency)
	}
	if !reflect.DeepEqual(cfg.ExcludeScreenNames, []string{"Record"}) {
		t.Errorf("ExcludeScreenNames = %v, want [Record]", cfg.ExcludeScreenNames)
	}
	if cfg.Debug {
		t.Error("Debug should be false by default")
	}
	if cfg.BOM {
		t.Error("BOM should be false by default")
	}
}

// TestDefaultConstants verifies default constant values.
func TestDefaultConstants(t *testing.T) {
	if DefaultRollupPrefix != "metaverse" {
		t.Errorf("DefaultRollupPrefix = %v, want metaverse", DefaultRollupPrefix)
	}
	if DefaultConfigDir != ".delib" {
		t.Errorf("DefaultConfigDir = %v, want .delib", DefaultConfigDir)
	}
	if DefaultConfigFile != "config.yaml" {
		t.Errorf("DefaultConfigFile = %v, want config.yaml", DefaultConfigFile)
	}
}

// TestCLIConfig_Validate verifies configuration validation.
func TestCLIConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *CLIConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "missing output dir",
			cfg:     &CLIConfig{RollupPrefix: "metaverse", Concurrency: 1},
			wantErr: true,
		},
		{
			name:    "zero concurrency",
			cfg:     &CLIConfig{OutputDir: ".", RollupPrefix: "metaverse"},
			wantErr: true,
		},
		{
			name:    "negative concurrency",
			cfg:     &CLIConfig{OutputDir: ".", RollupPrefix: "metaverse", Concurrency: -1},
			wantErr: true,
		},
		{
			name:    "missing rollup prefix",
			cfg:     &CLIConfig{OutputDir: ".", Concurrency: 1},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

// TestConfigDir_EnvOverride verifies DELIB_CONFIG_DIR takes precedence.
func TestConfigDir_EnvOverride(t *testing.T) {
	t.Setenv("DELIB_CONFIG_DIR", "/tmp/delib-test-config")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if dir != "/tmp/delib-test-config" {
		t.Errorf("ConfigDir() = %v, want /tmp/delib-test-config", dir)
	}
}

// TestConfigDir_Default verifies the home-directory default.
func TestConfigDir_Default(t *testing.T) {
	t.Setenv("DELIB_CONFIG_DIR", "")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}
	want := filepath.Join(home, DefaultConfigDir)
	if dir != want {
		t.Errorf("ConfigDir() = %v, want %v", dir, want)
	}
}

// TestLoadConfig_Defaults verifies loading with no config file.
func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DELIB_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %v, want %v", cfg.OutputDir, DefaultOutputDir)
	}
	if cfg.RollupPrefix != DefaultRollupPrefix {
		t.Errorf("RollupPrefix = %v, want %v", cfg.RollupPrefix, DefaultRollupPrefix)
	}
}

// TestLoadConfig_FromFile verifies loading from a YAML config file.
func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DELIB_CONFIG_DIR", dir)

	configContent := `output_dir: /data/reports
exclude_screen_names:
  - Record
  - Tech Support
rollup_prefix: forum
concurrency: 4
bom: true
debug: true
`
	configPath := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.OutputDir != "/data/reports" {
		t.Errorf("OutputDir = %v, want /data/reports", cfg.OutputDir)
	}
	if !reflect.DeepEqual(cfg.ExcludeScreenNames, []string{"Record", "Tech Support"}) {
		t.Errorf("ExcludeScreenNames = %v", cfg.ExcludeScreenNames)
	}
	if cfg.RollupPrefix != "forum" {
		t.Errorf("RollupPrefix = %v, want forum", cfg.RollupPrefix)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %v, want 4", cfg.Concurrency)
	}
	if !cfg.BOM {
		t.Error("BOM should be true")
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
}

// TestLoadConfig_InvalidYAML verifies parse errors are surfaced.
func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DELIB_CONFIG_DIR", dir)

	configPath := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(configPath, []byte("output_dir: [unterminated"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should fail on invalid YAML")
	}
}

// TestLoadConfig_EnvOverrides verifies env vars override file values.
func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DELIB_CONFIG_DIR", dir)

	configPath := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(configPath, []byte("output_dir: /from/file\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("DELIB_OUTPUT_DIR", "/from/env")
	t.Setenv("DELIB_ROLLUP_PREFIX", "envprefix")
	t.Setenv("DELIB_CONCURRENCY", "8")
	t.Setenv("DELIB_EXCLUDE_SCREEN_NAMES", "Record, Helper ,")
	t.Setenv("DELIB_DEBUG", "1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.OutputDir != "/from/env" {
		t.Errorf("OutputDir = %v, want /from/env", cfg.OutputDir)
	}
	if cfg.RollupPrefix != "envprefix" {
		t.Errorf("RollupPrefix = %v, want envprefix", cfg.RollupPrefix)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("Concurrency = %v, want 8", cfg.Concurrency)
	}
	if !reflect.DeepEqual(cfg.ExcludeScreenNames, []string{"Record", "Helper"}) {
		t.Errorf("ExcludeScreenNames = %v", cfg.ExcludeScreenNames)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
}

// TestSaveConfig_RoundTrip verifies config saves and reloads intact.
func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("DELIB_CONFIG_DIR", t.TempDir())

	cfg := DefaultConfig()
	cfg.OutputDir = "/saved/reports"
	cfg.Concurrency = 2
	cfg.RunLog = "/var/log/delib.jsonl"

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if loaded.OutputDir != cfg.OutputDir {
		t.Errorf("OutputDir = %v, want %v", loaded.OutputDir, cfg.OutputDir)
	}
	if loaded.Concurrency != cfg.Concurrency {
		t.Errorf("Concurrency = %v, want %v", loaded.Concurrency, cfg.Concurrency)
	}
	if loaded.RunLog != cfg.RunLog {
		t.Errorf("RunLog = %v, want %v", loaded.RunLog, cfg.RunLog)
	}
}

// TestExpandPath verifies tilde expansion.
func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~/reports", filepath.Join(home, "reports")},
	}

	for _, tc := range tests {
		got, err := ExpandPath(tc.in)
		if err != nil {
			t.Fatalf("ExpandPath(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ExpandPath(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// TestLoadConfigFrom verifies loading from an explicit file path.
func TestLoadConfigFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "delib.yaml")

	content := "output_dir: /tmp/reports\nrollup_prefix: summit\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom() error = %v", err)
	}

	if cfg.OutputDir != "/tmp/reports" {
		t.Errorf("OutputDir = %v, want /tmp/reports", cfg.OutputDir)
	}
	if cfg.RollupPrefix != "summit" {
		t.Errorf("RollupPrefix = %v, want summit", cfg.RollupPrefix)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %v, want %v", cfg.Concurrency, DefaultConcurrency)
	}
}

// TestLoadConfigFrom_MissingFile verifies an explicit path must exist.
func TestLoadConfigFrom_MissingFile(t *testing.T) {
	if _, err := LoadConfigFrom(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfigFrom() error = nil, want error for missing file")
	}
}
