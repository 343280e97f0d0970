// Package wasm provides the WebAssembly host for parser plugins.
// It loads plugins with wazero, reads their advertisement and drives one
// long-lived instance per parsing session.
package wasm

import (
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// Exported function names every parser plugin must provide.
const (
	exportAllocate         = "allocate"
	exportDeallocate       = "deallocate"
	exportGetVersion       = "get_version"
	exportGetConfigSchemas = "get_config_schemas"
	exportGetRenderOptions = "get_render_options"
	exportInit             = "init"
	exportParse            = "parse"
)

var requiredExports = []string{
	exportAllocate,
	exportDeallocate,
	exportGetVersion,
	exportGetConfigSchemas,
	exportGetRenderOptions,
	exportInit,
	exportParse,
}

// PluginInfo is what a plugin advertises before init.
type PluginInfo struct {
	Name       string
	Version    parsersdk.Version
	APIVersion string
	Schemas    []parsersdk.ConfigSchemaItem
	Render     parsersdk.RenderOptions
}
