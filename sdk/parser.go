package parsersdk

import "log/slog"

// GeneralConfig holds the host settings every plugin receives at init.
type GeneralConfig struct {
	LogLevel Level
	// SessionID correlates plugin logs with the host session. Optional.
	SessionID string
}

// InitParams is handed to Parser.Init once the host configuration has been
// validated against the declared schema.
type InitParams struct {
	General GeneralConfig
	Configs Configs
	// Logger writes through the session's logging gate.
	Logger *slog.Logger
}

// Parser is implemented by plugin authors. A Session calls it under its own lock,
// one call at a time, and checks every result before handing it to the host.
//
// Parse must not retain data after returning. Bytes that belong to an incomplete
// trailing record are copied into the parser's own carry buffer and still counted
// as consumed.
type Parser interface {
	// Version is the plugin's own version.
	Version() Version
	// ConfigSchemas declares the configuration inputs, in display order.
	ConfigSchemas() []ConfigSchemaItem
	// RenderOptions is fixed for the life of the parser value.
	RenderOptions() RenderOptions
	// Init receives the resolved configuration.
	Init(params InitParams) error
	// Parse decodes data. maybeTimestamp is a host hint (unix millis) that may be
	// used when no timestamp can be extracted from the records.
	Parse(data []byte, maybeTimestamp *uint64) (ParseResult, error)
}
