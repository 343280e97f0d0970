// Package dto contains data transfer objects for application layer use cases.
package dto

import (
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// ParseRequest encapsulates all inputs needed to stream a source through a parser plugin.
type ParseRequest struct {
	// PluginRef is a .wasm path or builtin:<name>
	PluginRef string

	// SourcePath is the file to parse; empty reads standard input
	SourcePath string

	General  parsersdk.GeneralConfig
	Configs  []parsersdk.ConfigValueItem
	Options  ParseOptions
	Metadata RequestMetadata
}

// ParseOptions controls how the source is fed to the plugin.
type ParseOptions struct {
	// ChunkSize is the size of each buffer handed to parse (0 = default)
	ChunkSize int

	// Follow keeps reading as the source file grows until cancelled
	Follow bool

	// FilterExpression is an expr-lang boolean expression over parsed records
	FilterExpression string

	// UseFileTimestamp passes the source modification time as the timestamp hint
	UseFileTimestamp bool
}

// RequestMetadata contains metadata for request tracking.
type RequestMetadata struct {
	// RequestID uniquely identifies this request and is passed to the plugin as its session ID
	RequestID string
}
