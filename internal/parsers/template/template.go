// Package template is the minimal reference parser. It shows the full plugin
// surface (schema with several input kinds, both render modes, gated logging)
// with trivial parsing: every buffer becomes one message describing its length.
package template

import (
	"fmt"
	"log/slog"

	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// Mode selects the rendering mode at construction time.
type Mode int

const (
	// ModeLine emits single-column Line messages.
	ModeLine Mode = iota
	// ModeColumns emits two-column messages.
	ModeColumns
)

// Config IDs.
const (
	BoolID  = "bool_id"
	TextID  = "text_id"
	FilesID = "files_id"
)

// StaticMessage fills the first column in ModeColumns.
const StaticMessage = "static message"

// ParseMode converts "line"/"columns" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "line":
		return ModeLine, nil
	case "columns":
		return ModeColumns, nil
	default:
		return ModeLine, fmt.Errorf("unknown column mode %q (want line or columns)", s)
	}
}

// Parser implements parsersdk.Parser.
type Parser struct {
	mode   Mode
	logger *slog.Logger
}

// New returns a template parser in the given mode.
func New(mode Mode) *Parser {
	return &Parser{mode: mode, logger: slog.Default()}
}

func (p *Parser) Version() parsersdk.Version {
	return parsersdk.NewVersion(0, 1, 0)
}

func (p *Parser) ConfigSchemas() []parsersdk.ConfigSchemaItem {
	return []parsersdk.ConfigSchemaItem{
		parsersdk.NewConfigSchemaItem(BoolID, "Boolean Configuration",
			"Demonstrate a boolean configuration item", parsersdk.BooleanInput{Default: true}),
		parsersdk.NewConfigSchemaItem(TextID, "Text Configuration",
			"Demonstrate a text configuration item", parsersdk.TextInput{Default: "Default text"}),
		parsersdk.NewConfigSchemaItem(FilesID, "Files Configuration",
			"Demonstrate files configuration item", parsersdk.FilesInput{}),
	}
}

func (p *Parser) RenderOptions() parsersdk.RenderOptions {
	if p.mode == ModeLine {
		return parsersdk.SingleColumn()
	}
	return parsersdk.MultiColumn(30, 600,
		parsersdk.ColumnInfo{Caption: "First Column", Description: "First Column Description", Width: 110},
		parsersdk.ColumnInfo{Caption: "Second Column", Description: "Second Column Description", Width: parsersdk.AutoWidth},
	)
}

func (p *Parser) Init(params parsersdk.InitParams) error {
	p.logger = params.Logger
	p.logger.Info("init called", "log_level", params.General.LogLevel.String())

	for _, item := range p.ConfigSchemas() {
		v, _ := params.Configs.Value(item.ID)
		p.logger.Debug("configuration item", "id", item.ID, "type", v.Kind(), "value", fmt.Sprint(v))
	}
	return nil
}

func (p *Parser) Parse(data []byte, maybeTimestamp *uint64) (parsersdk.ParseResult, error) {
	p.logger.Debug("parse called", "bytes", len(data))

	summary := fmt.Sprintf("The length of provided bytes: %d", len(data))
	var msg parsersdk.ParsedMessage = parsersdk.Line(summary)
	if p.mode == ModeColumns {
		msg = parsersdk.Columns{StaticMessage, summary}
	}

	return parsersdk.ParseResult{
		Items:     []parsersdk.ParseItem{parsersdk.Emit(len(data), msg)},
		Timestamp: maybeTimestamp,
	}, nil
}
