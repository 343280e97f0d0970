// Package config provides infrastructure for loading plugin configuration.
// This package handles YAML parsing, variable substitution, JSON Schema
// validation and conversion into typed config values.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
)

// PluginConfig is the content of a plugin config file:
//
//	general:
//	  log_level: debug
//	vars:
//	  logdir: /var/log/app
//	configs:
//	  delimiter: "\n"
//	  files_id: ["{{ .vars.logdir }}/app.log"]
type PluginConfig struct {
	General GeneralSection `yaml:"general"`
	Vars    map[string]any `yaml:"vars"`
	Configs map[string]any `yaml:"configs"`
}

// GeneralSection mirrors the general config handed to init.
type GeneralSection struct {
	LogLevel string `yaml:"log_level"`
}

// LoadOption configures how a plugin config file is loaded.
type LoadOption func(*substituter)

// WithSecrets resolves {{ .secrets.name }} references through lookup. Without
// it such references are an error.
func WithSecrets(lookup func(name string) (string, error)) LoadOption {
	return func(s *substituter) {
		s.secrets = lookup
	}
}

// LoadPluginConfig loads and parses a plugin config file.
func LoadPluginConfig(path string, opts ...LoadOption) (*PluginConfig, error) {
	// Security: Use os.OpenRoot to prevent path traversal attacks
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open config directory: %w", err)
	}
	defer func() {
		_ = root.Close() // Best-effort cleanup
	}()

	file, err := root.Open(filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		_ = file.Close() // Best-effort cleanup
	}()

	return LoadPluginConfigFromReader(file, opts...)
}

// LoadPluginConfigFromReader parses a plugin config document and applies
// variable and secret substitution.
func LoadPluginConfigFromReader(r io.Reader, opts ...LoadOption) (*PluginConfig, error) {
	var cfg PluginConfig
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode plugin config YAML: %w", err)
	}
	if cfg.Configs == nil {
		cfg.Configs = make(map[string]any)
	}

	sub := &substituter{vars: cfg.Vars}
	for _, opt := range opts {
		opt(sub)
	}
	for id, v := range cfg.Configs {
		substituted, err := sub.apply(v)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", id, err)
		}
		cfg.Configs[id] = substituted
	}
	return &cfg, nil
}

// Reference pattern: {{ .vars.key }} or {{ .secrets.name }}
var refPattern = regexp.MustCompile(`\{\{\s*\.(vars|secrets)\.([a-zA-Z0-9_.]+)\s*\}\}`)

type substituter struct {
	vars    map[string]any
	secrets func(name string) (string, error)
}

// apply replaces references in strings and lists of strings. Nested var keys
// use dots ({{ .vars.paths.logs }}).
func (s *substituter) apply(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return s.applyString(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			r, err := s.apply(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

func (s *substituter) applyString(in string) (string, error) {
	var lastErr error
	result := refPattern.ReplaceAllStringFunc(in, func(match string) string {
		m := refPattern.FindStringSubmatch(match)
		kind, path := m[1], m[2]

		if kind == "secrets" {
			if s.secrets == nil {
				lastErr = fmt.Errorf("secret %s referenced but no secrets are configured", path)
				return match
			}
			value, err := s.secrets(path)
			if err != nil {
				lastErr = err
				return match
			}
			return value
		}

		value, ok := lookupVar(s.vars, path)
		if !ok {
			lastErr = fmt.Errorf("variable not found: %s", path)
			return match
		}
		return fmt.Sprint(value)
	})
	return result, lastErr
}

func lookupVar(vars map[string]any, path string) (any, bool) {
	var current any = vars
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	switch current.(type) {
	case map[string]any, []any:
		return nil, false
	}
	return current, true
}

// ParseSetFlags turns "id=value" pairs into raw config values. Values stay
// strings; Resolve converts them according to the schema.
func ParseSetFlags(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		id, value, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --set value %q: expected id=value", pair)
		}
		out[id] = value
	}
	return out, nil
}
