// Package hostfuncs provides host functions for WASM parser plugins
package hostfuncs

import (
	"context"
	"log/slog"
)

type contextKey struct {
	name string
}

var (
	pluginNameKey = &contextKey{name: "plugin_name"}
	loggerKey     = &contextKey{name: "logger"}
)

// WithPluginName adds the plugin name to the context
func WithPluginName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, pluginNameKey, name)
}

// PluginNameFromContext retrieves the plugin name from the context
func PluginNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(pluginNameKey).(string)
	return name, ok
}

// WithLogger sets the logger that receives plugin log messages.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the logger set by WithLogger, or slog.Default().
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
