// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"
	"io"
	"time"

	"github.com/reglet-dev/parserkit/internal/application/dto"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// PluginInfo contains everything a parser plugin advertises before init.
// This is the application-layer representation of plugin metadata.
type PluginInfo struct {
	Name       string
	Version    parsersdk.Version
	APIVersion string
	Schemas    []parsersdk.ConfigSchemaItem
	Render     parsersdk.RenderOptions
}

// ParserPlugin is a loaded parser plugin, WASM or in-process.
type ParserPlugin interface {
	// Name identifies the plugin in logs and output.
	Name() string

	// Describe returns the plugin's advertisement. Results are cached.
	Describe(ctx context.Context) (*PluginInfo, error)

	// Open creates a new, uninitialized session. configs are the values that
	// will be passed to Init; implementations may use them to prepare the
	// sandbox (e.g. mount the directories they reference).
	Open(ctx context.Context, configs []parsersdk.ConfigValueItem) (ParserSession, error)
}

// ParserSession is one plugin instance driven through init and parse.
// Calls must not overlap.
type ParserSession interface {
	Init(ctx context.Context, general parsersdk.GeneralConfig, configs []parsersdk.ConfigValueItem) error
	Parse(ctx context.Context, data []byte, maybeTimestamp *uint64) (parsersdk.ParseResult, error)
	Close(ctx context.Context) error
}

// PluginResolver turns a plugin reference (a .wasm path or builtin:<name>)
// into a loaded plugin.
type PluginResolver interface {
	Resolve(ctx context.Context, ref string) (ParserPlugin, error)
	Close(ctx context.Context) error
}

// RecordFilter decides whether a parsed record is written out.
type RecordFilter interface {
	Match(record dto.ParsedRecord) (bool, error)
}

// RecordSink receives parsed records in order.
type RecordSink interface {
	WriteRecord(record dto.ParsedRecord) error
}

// OutputFormatter formats plugin metadata and parsed records.
type OutputFormatter interface {
	RecordSink
	FormatInfo(info *PluginInfo) error
	Flush() error
}

// Source is a byte stream fed to a parser session.
type Source interface {
	io.ReadCloser
	// Name is the path, or "-" for standard input.
	Name() string
	// ModTime is the modification time when the source was opened, zero if unknown.
	ModTime() time.Time
}

// SourceOpener opens parse inputs. With follow set, reads block at end of file
// until more data is written or ctx is done.
type SourceOpener interface {
	Open(ctx context.Context, path string, follow bool) (Source, error)
}

// FieldRedactor scrubs secrets from parsed message fields. Implementations
// return a new slice.
type FieldRedactor interface {
	ScrubFields(fields []string) []string
}

// FormatterOptions configures output formatters.
type FormatterOptions struct {
	// Render is the plugin's layout; the table formatter sizes columns from it
	Render parsersdk.RenderOptions
	Indent bool
	Color  bool
	// Width is the terminal width used to bound auto-width columns (0 = unbounded)
	Width int
}

// OutputFormatterFactory creates formatters by name.
type OutputFormatterFactory interface {
	Create(format string, writer io.Writer, options FormatterOptions) (OutputFormatter, error)
	SupportedFormats() []string
}

// Closer is a common interface for resources that need cleanup.
type Closer interface {
	io.Closer
}

// SecretResolver looks up named secrets referenced by plugin config files.
type SecretResolver interface {
	Resolve(name string) (string, error)
}

// SensitiveValueTracker records literal values that must never appear in output.
type SensitiveValueTracker interface {
	Track(value string)
}
