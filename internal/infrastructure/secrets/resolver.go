// Package secrets resolves the secret values plugin config files refer to,
// from the sources listed in the system config.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/reglet-dev/parserkit/internal/application/ports"
	"github.com/reglet-dev/parserkit/internal/infrastructure/system"
)

var _ ports.SecretResolver = (*Resolver)(nil)

// Resolver implements ports.SecretResolver. Every resolved value is handed to
// the tracker so it is scrubbed from redacted output and plugin stdio.
type Resolver struct {
	config  system.SecretsConfig
	tracker ports.SensitiveValueTracker
	cache   map[string]string
	mu      sync.Mutex
}

// NewResolver creates a secret resolver. tracker may be nil.
func NewResolver(config system.SecretsConfig, tracker ports.SensitiveValueTracker) *Resolver {
	return &Resolver{
		config:  config,
		tracker: tracker,
		cache:   make(map[string]string),
	}
}

// Resolve returns the secret value by name, checking local values, then
// environment variables, then files.
func (r *Resolver) Resolve(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value, ok := r.cache[name]; ok {
		return value, nil
	}

	value, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	r.cache[name] = value
	if r.tracker != nil {
		r.tracker.Track(value)
	}
	return value, nil
}

func (r *Resolver) lookup(name string) (string, error) {
	if value, ok := r.config.Local[name]; ok {
		return value, nil
	}

	if envVar, ok := r.config.Env[name]; ok {
		value := os.Getenv(envVar)
		if value == "" {
			return "", fmt.Errorf("secret %q: env var %q is not set", name, envVar)
		}
		return value, nil
	}

	if filePath, ok := r.config.Files[name]; ok {
		return readSecretFile(name, filePath)
	}

	return "", fmt.Errorf("secret %q not found in local, env, or files", name)
}

func readSecretFile(name, filePath string) (string, error) {
	// Security: Use os.OpenRoot to prevent path traversal
	dir := filepath.Dir(filePath)
	root, err := os.OpenRoot(dir)
	if err != nil {
		return "", fmt.Errorf("secret %q: failed to open directory %q: %w", name, dir, err)
	}
	defer func() { _ = root.Close() }()

	f, err := root.Open(filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("secret %q: failed to open file: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("secret %q: reading %q: %w", name, filePath, err)
	}
	return strings.TrimSpace(string(data)), nil
}
