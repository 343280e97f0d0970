package wasm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/reglet-dev/parserkit/internal/infrastructure/redaction"
	"github.com/reglet-dev/parserkit/internal/infrastructure/wasm/hostfuncs"
)

// globalCache speeds up compilation across runtimes.
var globalCache = wazero.NewCompilationCache()

// DefaultMemoryLimitMB applies when the caller passes 0.
const DefaultMemoryLimitMB = 256

// Runtime manages WASM execution.
type Runtime struct {
	runtime  wazero.Runtime
	mu       sync.RWMutex       // Protects plugins map from concurrent access
	plugins  map[string]*Plugin // Loaded plugins by name
	redactor *redaction.Redactor
}

// NewRuntime creates a runtime with the default memory limit and no redaction.
func NewRuntime(ctx context.Context) (*Runtime, error) {
	return NewRuntimeWithOptions(ctx, nil, 0)
}

// NewRuntimeWithOptions initializes a runtime with an optional redactor for
// plugin stdout/stderr and a memory limit per instance.
//
// memoryLimitMB: 0 = default (256MB), -1 = unlimited, >0 = explicit limit.
func NewRuntimeWithOptions(ctx context.Context, redactor *redaction.Redactor, memoryLimitMB int) (*Runtime, error) {
	switch {
	case memoryLimitMB == 0:
		memoryLimitMB = DefaultMemoryLimitMB
		slog.Debug("using default WASM memory limit", "mb", memoryLimitMB)
	case memoryLimitMB == -1:
		slog.Warn("WASM memory limit disabled (unlimited memory)")
	case memoryLimitMB > 0:
		if memoryLimitMB < 16 {
			slog.Warn("WASM memory limit very low, plugins may fail", "mb", memoryLimitMB)
		}
	default:
		return nil, fmt.Errorf("invalid WASM memory limit: %d (must be >= -1)", memoryLimitMB)
	}

	config := wazero.NewRuntimeConfig().
		WithCompilationCache(globalCache).
		WithCloseOnContextDone(true)
	if memoryLimitMB > 0 {
		// 1 page = 64KB, so 1 MB = 16 pages
		config = config.WithMemoryLimitPages(uint32(memoryLimitMB * 16)) //nolint:gosec // G115: bounded by int MB input
	}

	r := wazero.NewRuntimeWithConfig(ctx, config)

	// WASI for clock, random and the read-only file mounts.
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	if err := hostfuncs.RegisterHostFunctions(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return &Runtime{
		runtime:  r,
		plugins:  make(map[string]*Plugin),
		redactor: redactor,
	}, nil
}

// LoadPlugin compiles and caches a plugin. Loading the same name twice returns
// the cached plugin.
func (r *Runtime) LoadPlugin(ctx context.Context, name string, wasmBytes []byte) (*Plugin, error) {
	r.mu.RLock()
	if p, ok := r.plugins[name]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have loaded it while we waited for the lock
	if p, ok := r.plugins[name]; ok {
		return p, nil
	}

	compiled, err := r.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile plugin %s: %w", name, err)
	}

	exported := compiled.ExportedFunctions()
	for _, fn := range requiredExports {
		if _, ok := exported[fn]; !ok {
			_ = compiled.Close(ctx)
			return nil, fmt.Errorf("plugin %s does not export %s()", name, fn)
		}
	}

	// Plugin stdout/stderr go to our stderr, never to the record stream.
	var stdout, stderr io.Writer = os.Stderr, os.Stderr
	if r.redactor != nil {
		stdout = redaction.NewWriter(os.Stderr, r.redactor)
		stderr = redaction.NewWriter(os.Stderr, r.redactor)
	}

	plugin := &Plugin{
		name:    name,
		module:  compiled,
		runtime: r.runtime,
		stdout:  stdout,
		stderr:  stderr,
	}
	r.plugins[name] = plugin
	return plugin, nil
}

// GetPlugin retrieves a loaded plugin by name.
func (r *Runtime) GetPlugin(name string) (*Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Close closes the runtime and every instance created from it.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}
