package config

import (
	"github.com/reglet-dev/parserkit/internal/infrastructure/system"
)

// DefaultChunkSize is the buffer size handed to parse when nothing else is configured.
const DefaultChunkSize = 64 << 10

// RuntimeConfig aggregates all runtime configuration.
// This is a value object that flows through the system.
type RuntimeConfig struct {
	// WASM
	WasmMemoryLimitMB int

	// Streaming
	ChunkSize int

	// Plugin lookup
	PluginDirs []string
}

// FromSystemConfig creates RuntimeConfig from system config.
func FromSystemConfig(sys *system.Config) *RuntimeConfig {
	return &RuntimeConfig{
		WasmMemoryLimitMB: sys.WasmMemoryLimitMB,
		ChunkSize:         sys.ChunkSizeBytes,
		PluginDirs:        append([]string(nil), sys.Plugins.Dirs...),
	}
}

// ApplyDefaults applies defaults for zero values.
func (r *RuntimeConfig) ApplyDefaults() {
	if r.ChunkSize <= 0 {
		r.ChunkSize = DefaultChunkSize
	}
	// WasmMemoryLimitMB stays 0: the runtime picks its own default.
}
