// Package adapters provides adapter implementations that bridge infrastructure
// types to application port interfaces.
package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "github.com/reglet-dev/parserkit/internal/application/errors"
	"github.com/reglet-dev/parserkit/internal/application/ports"
	"github.com/reglet-dev/parserkit/internal/infrastructure/config"
	"github.com/reglet-dev/parserkit/internal/infrastructure/redaction"
	"github.com/reglet-dev/parserkit/internal/infrastructure/system"
	"github.com/reglet-dev/parserkit/internal/infrastructure/validation"
	"github.com/reglet-dev/parserkit/internal/infrastructure/wasm"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// Compile-time interface compliance checks.
var (
	_ ports.ParserPlugin            = (*PluginAdapter)(nil)
	_ ports.ParserSession           = (*wasm.Session)(nil)
	_ ports.PluginLoader            = (*WasmLoaderAdapter)(nil)
	_ ports.PluginDirectoryProvider = (*SystemConfigAdapter)(nil)
)

// WasmLoaderAdapter adapts wasm.Runtime to ports.PluginLoader.
type WasmLoaderAdapter struct {
	runtime *wasm.Runtime

	mu    sync.Mutex
	paths map[string]string // plugin name -> absolute path it was loaded from
}

// NewWasmLoaderAdapter creates the WASM runtime and wraps it.
func NewWasmLoaderAdapter(ctx context.Context, redactor *redaction.Redactor, memoryLimitMB int) (*WasmLoaderAdapter, error) {
	runtime, err := wasm.NewRuntimeWithOptions(ctx, redactor, memoryLimitMB)
	if err != nil {
		return nil, err
	}
	return &WasmLoaderAdapter{runtime: runtime, paths: make(map[string]string)}, nil
}

// Load reads a .wasm file and compiles it. The plugin is named after the file.
func (a *WasmLoaderAdapter) Load(ctx context.Context, path string) (ports.ParserPlugin, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plugin path %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	if err := validation.ValidatePluginName(name); err != nil {
		return nil, apperrors.NewPluginError(name, "load", "invalid plugin file name", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if prev, ok := a.paths[name]; ok {
		if prev != abs {
			return nil, apperrors.NewPluginError(name, "load",
				fmt.Sprintf("already loaded from %s", prev), nil)
		}
		if p, ok := a.runtime.GetPlugin(name); ok {
			return NewPluginAdapter(p), nil
		}
	}

	wasmBytes, err := os.ReadFile(abs) //nolint:gosec // G304: user-selected plugin path
	if err != nil {
		return nil, apperrors.NewPluginError(name, "load", "failed to read plugin", err)
	}
	p, err := a.runtime.LoadPlugin(ctx, name, wasmBytes)
	if err != nil {
		return nil, apperrors.NewPluginError(name, "load", "failed to compile plugin", err)
	}
	a.paths[name] = abs
	return NewPluginAdapter(p), nil
}

// Close closes the underlying runtime and every plugin compiled in it.
func (a *WasmLoaderAdapter) Close(ctx context.Context) error {
	return a.runtime.Close(ctx)
}

// PluginAdapter adapts wasm.Plugin to ports.ParserPlugin.
type PluginAdapter struct {
	plugin *wasm.Plugin
}

// NewPluginAdapter wraps a compiled WASM plugin.
func NewPluginAdapter(p *wasm.Plugin) *PluginAdapter {
	return &PluginAdapter{plugin: p}
}

// Name returns the plugin name.
func (a *PluginAdapter) Name() string {
	return a.plugin.Name()
}

// Describe reads the advertisement and validates it.
func (a *PluginAdapter) Describe(ctx context.Context) (*ports.PluginInfo, error) {
	info, err := a.plugin.Describe(ctx)
	if err != nil {
		return nil, apperrors.NewPluginError(a.Name(), "describe", "failed to read plugin metadata", err)
	}

	out := &ports.PluginInfo{
		Name:       info.Name,
		Version:    info.Version,
		APIVersion: info.APIVersion,
		Schemas:    info.Schemas,
		Render:     info.Render,
	}
	if err := validation.ValidatePluginInfo(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Open instantiates a session. wasm.Session already satisfies ports.ParserSession.
func (a *PluginAdapter) Open(ctx context.Context, configs []parsersdk.ConfigValueItem) (ports.ParserSession, error) {
	s, err := a.plugin.Open(ctx, configs)
	if err != nil {
		return nil, apperrors.NewPluginError(a.Name(), "open", "failed to instantiate plugin", err)
	}
	return s, nil
}

// SystemConfigAdapter loads the host configuration file.
type SystemConfigAdapter struct {
	loader *system.ConfigLoader
	cfg    *config.RuntimeConfig
}

// NewSystemConfigAdapter creates a new system config adapter.
func NewSystemConfigAdapter() *SystemConfigAdapter {
	return &SystemConfigAdapter{loader: system.NewConfigLoader()}
}

// LoadConfig loads system configuration. An empty path means the default
// location under the home directory.
func (a *SystemConfigAdapter) LoadConfig(_ context.Context, path string) (*system.Config, error) {
	if path == "" {
		path = system.DefaultPath()
	}
	cfg, err := a.loader.Load(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError("system", "failed to load "+path, err)
	}

	rc := config.FromSystemConfig(cfg)
	rc.ApplyDefaults()
	a.cfg = rc
	return cfg, nil
}

// RuntimeConfig returns the runtime view of the last loaded config, with
// defaults applied.
func (a *SystemConfigAdapter) RuntimeConfig() *config.RuntimeConfig {
	if a.cfg == nil {
		rc := config.FromSystemConfig(system.DefaultConfig())
		rc.ApplyDefaults()
		a.cfg = rc
	}
	return a.cfg
}

// PluginDirs implements ports.PluginDirectoryProvider.
func (a *SystemConfigAdapter) PluginDirs() []string {
	return a.RuntimeConfig().PluginDirs
}

// SlogLogSink returns a plugin log sink that writes to logger tagged with the
// plugin name.
func SlogLogSink(logger *slog.Logger, plugin string) parsersdk.LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return parsersdk.SlogSink{Logger: logger.With("plugin", plugin)}
}
