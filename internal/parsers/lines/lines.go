// Package lines parses delimiter-separated text logs. Each record becomes one
// Line, or in columns mode a time/level/message triple extracted with a regular
// expression. Timestamps are recognized with dateparse.
package lines

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/reglet-dev/parserkit/internal/parsers/split"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// Config IDs.
const (
	DelimiterID      = "delimiter"
	MaxRecordBytesID = "max_record_bytes"
	SkipEmptyID      = "skip_empty"
	PatternID        = "pattern"
)

// Delimiter options as shown to the user.
const (
	DelimiterLF   = `\n`
	DelimiterCRLF = `\r\n`
)

// DefaultMaxRecordBytes bounds a single record unless configured otherwise.
const DefaultMaxRecordBytes = 64 * 1024

// DefaultPattern matches "<timestamp> <LEVEL> <message>" with an optional
// bracketed level, e.g. "2024-05-01T12:00:00Z [WARN] disk almost full".
const DefaultPattern = `^(?P<time>\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?)\s+\[?(?P<level>[A-Za-z]+)\]?:?\s+(?P<message>.*)$`

var delimiters = map[string][]byte{
	DelimiterLF:   []byte("\n"),
	DelimiterCRLF: []byte("\r\n"),
}

// Mode selects the rendering mode at construction time.
type Mode int

const (
	ModeLine Mode = iota
	ModeColumns
)

// ParseMode reads a mode name as used in build flags: "line" (or empty) and
// "columns".
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "line":
		return ModeLine, nil
	case "columns":
		return ModeColumns, nil
	}
	return ModeLine, fmt.Errorf("unknown column mode %q (want line or columns)", name)
}

// Parser implements parsersdk.Parser.
type Parser struct {
	mode Mode

	logger    *slog.Logger
	splitter  *split.Splitter
	pattern   *regexp.Regexp
	skipEmpty bool
	location  *time.Location
}

// New returns a lines parser in the given mode.
func New(mode Mode) *Parser {
	return &Parser{mode: mode, logger: slog.Default(), location: time.UTC}
}

func (p *Parser) Version() parsersdk.Version {
	return parsersdk.NewVersion(0, 2, 0)
}

func (p *Parser) ConfigSchemas() []parsersdk.ConfigSchemaItem {
	return []parsersdk.ConfigSchemaItem{
		parsersdk.NewConfigSchemaItem(DelimiterID, "Record delimiter", "Byte sequence that ends a record",
			parsersdk.DropdownInput{Options: []string{DelimiterLF, DelimiterCRLF}, Default: DelimiterLF}),
		parsersdk.NewConfigSchemaItem(MaxRecordBytesID, "Maximum record size",
			"Records longer than this are split without waiting for a delimiter",
			parsersdk.IntegerInput{Default: DefaultMaxRecordBytes}),
		parsersdk.NewConfigSchemaItem(SkipEmptyID, "Skip empty records", "",
			parsersdk.BooleanInput{Default: true}),
		parsersdk.NewConfigSchemaItem(PatternID, "Record pattern",
			"Regular expression with named groups time, level and message. Empty uses the built-in pattern",
			parsersdk.TextInput{}),
	}
}

func (p *Parser) RenderOptions() parsersdk.RenderOptions {
	if p.mode == ModeLine {
		return parsersdk.SingleColumn()
	}
	return parsersdk.MultiColumn(40, 800,
		parsersdk.ColumnInfo{Caption: "Time", Description: "Record timestamp", Width: 30},
		parsersdk.ColumnInfo{Caption: "Level", Description: "Severity", Width: 8},
		parsersdk.ColumnInfo{Caption: "Message", Width: parsersdk.AutoWidth},
	)
}

func (p *Parser) Init(params parsersdk.InitParams) error {
	p.logger = params.Logger
	cfg := params.Configs

	delimName, err := cfg.Dropdown(DelimiterID)
	if err != nil {
		return err
	}
	maxRecord, err := cfg.Integer(MaxRecordBytesID)
	if err != nil {
		return err
	}
	if maxRecord <= 0 {
		return parsersdk.NewInvalidConfigError(MaxRecordBytesID, fmt.Sprintf("must be positive, got %d", maxRecord))
	}
	if p.skipEmpty, err = cfg.Bool(SkipEmptyID); err != nil {
		return err
	}
	expr, err := cfg.Text(PatternID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(expr) == "" {
		expr = DefaultPattern
	}
	if p.pattern, err = regexp.Compile(expr); err != nil {
		return parsersdk.NewInvalidConfigError(PatternID, err.Error())
	}

	if p.splitter, err = split.New(delimiters[delimName], int(maxRecord)); err != nil {
		return parsersdk.NewInitError(parsersdk.InitOther, "cannot create splitter", err)
	}

	p.logger.Debug("lines parser configured",
		"delimiter", delimName,
		"max_record_bytes", maxRecord,
		"skip_empty", p.skipEmpty,
		"pattern", expr)
	return nil
}

func (p *Parser) Parse(data []byte, maybeTimestamp *uint64) (parsersdk.ParseResult, error) {
	records, carried := p.splitter.Split(data)

	result := parsersdk.ParseResult{Items: make([]parsersdk.ParseItem, 0, len(records)+1)}
	for _, rec := range records {
		if rec.Truncated {
			p.logger.Warn("record exceeds max_record_bytes, emitting it without a delimiter", "bytes", len(rec.Data))
		}
		text := strings.ToValidUTF8(string(rec.Data), "\uFFFD")
		if text == "" && p.skipEmpty {
			result.Items = append(result.Items, parsersdk.Skip(rec.Consumed))
			continue
		}

		f := p.extract(text)
		if result.Timestamp == nil {
			if ts, ok := p.timestamp(f.time); ok {
				result.Timestamp = &ts
			}
		}
		result.Items = append(result.Items, parsersdk.Emit(rec.Consumed, p.render(text, f)))
	}
	if carried > 0 {
		p.logger.Debug("carrying incomplete record", "bytes", p.splitter.Pending())
		result.Items = append(result.Items, parsersdk.Skip(carried))
	}
	if result.Timestamp == nil {
		result.Timestamp = maybeTimestamp
	}
	return result, nil
}

type fields struct {
	time    string
	level   string
	message string
	matched bool
}

func (p *Parser) extract(text string) fields {
	m := p.pattern.FindStringSubmatch(text)
	if m == nil {
		return fields{message: text}
	}
	f := fields{matched: true}
	for i, name := range p.pattern.SubexpNames() {
		switch name {
		case "time":
			f.time = m[i]
		case "level":
			f.level = m[i]
		case "message":
			f.message = m[i]
		}
	}
	return f
}

func (p *Parser) render(text string, f fields) parsersdk.ParsedMessage {
	if p.mode == ModeLine {
		return parsersdk.Line(text)
	}
	if !f.matched {
		return parsersdk.Columns{"", "", text}
	}
	return parsersdk.Columns{f.time, strings.ToUpper(f.level), f.message}
}

func (p *Parser) timestamp(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	t, err := dateparse.ParseIn(s, p.location)
	if err != nil || t.UnixMilli() < 0 {
		return 0, false
	}
	return uint64(t.UnixMilli()), true //nolint:gosec // G115: checked non-negative
}
