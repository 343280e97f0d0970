package ports

import (
	"context"
)

// PluginLoader compiles WASM parser plugins from disk.
type PluginLoader interface {
	// Load reads and compiles the module at path. Loading the same path twice
	// returns the cached plugin.
	Load(ctx context.Context, path string) (ParserPlugin, error)

	// Close releases every loaded plugin.
	Close(ctx context.Context) error
}

// PluginDirectoryProvider lists the directories searched for bare plugin names.
type PluginDirectoryProvider interface {
	PluginDirs() []string
}
