// Package system provides infrastructure for system-level configuration.
// This covers the host config file (~/.parserkit/config.yaml): redaction
// rules, WASM limits and streaming defaults.
package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Config represents the global configuration file (~/.parserkit/config.yaml).
type Config struct {
	Redaction         RedactionConfig `yaml:"redaction"`
	Plugins           PluginsConfig   `yaml:"plugins"`
	Secrets           SecretsConfig   `yaml:"secrets"`
	WasmMemoryLimitMB int             `yaml:"wasm_memory_limit_mb"`
	ChunkSizeBytes    int             `yaml:"chunk_size_bytes"`
}

// RedactionConfig configures how secrets are scrubbed from parsed output and
// plugin stdio.
type RedactionConfig struct {
	HashMode        HashModeConfig `yaml:"hash_mode"`
	Patterns        []string       `yaml:"patterns"`
	DisableGitleaks bool           `yaml:"disable_gitleaks"`
}

// HashModeConfig controls hash-based redaction.
type HashModeConfig struct {
	Salt    string `yaml:"salt"`
	Enabled bool   `yaml:"enabled"`
}

// PluginsConfig configures where WASM plugins are looked up by name.
type PluginsConfig struct {
	// Dirs are searched for <name>.wasm when a plugin reference is a bare name
	Dirs []string `yaml:"dirs"`
}

// SecretsConfig maps secret names used in plugin config files
// ({{ .secrets.name }}) to where their values live.
type SecretsConfig struct {
	// Local values, for development only
	Local map[string]string `yaml:"local"`
	// Env maps a secret name to an environment variable
	Env map[string]string `yaml:"env"`
	// Files maps a secret name to a file holding the value
	Files map[string]string `yaml:"files"`
}

// ConfigLoader loads system configuration from disk.
type ConfigLoader struct{}

// NewConfigLoader creates a new system config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// DefaultPath returns ~/.parserkit/config.yaml, or "" when there is no home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".parserkit", "config.yaml")
}

// DefaultConfig returns a Config with safe defaults for all fields.
// This is used when no system config file exists.
func DefaultConfig() *Config {
	return &Config{
		Redaction: RedactionConfig{
			Patterns: []string{},
		},
		Plugins: PluginsConfig{
			Dirs: []string{},
		},
		WasmMemoryLimitMB: 0, // 0 means use runtime default
		ChunkSizeBytes:    0, // 0 means use driver default
	}
}

// Load loads the system configuration from the specified path.
// If the file does not exist, returns DefaultConfig().
func (l *ConfigLoader) Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	//nolint:gosec // G304: path is user-provided config file, validated to exist above
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}
	if config.WasmMemoryLimitMB < -1 {
		return nil, fmt.Errorf("invalid wasm_memory_limit_mb: %d (must be >= -1)", config.WasmMemoryLimitMB)
	}
	if config.ChunkSizeBytes < 0 {
		return nil, fmt.Errorf("invalid chunk_size_bytes: %d", config.ChunkSizeBytes)
	}

	return config, nil
}
