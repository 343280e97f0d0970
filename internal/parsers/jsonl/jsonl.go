// Package jsonl parses JSON-lines logs into Time, Level and Message columns.
// Fields are located with gjson paths, so nested documents work without a
// schema ("fields.level", "log.0.msg", ...).
package jsonl

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/tidwall/gjson"

	"github.com/reglet-dev/parserkit/internal/parsers/split"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// Config IDs.
const (
	TimePathID    = "time_path"
	LevelPathID   = "level_path"
	MessagePathID = "message_path"
	StrictID      = "strict"
)

const maxRecordBytes = 1 << 20

// Parser implements parsersdk.Parser.
type Parser struct {
	logger   *slog.Logger
	splitter *split.Splitter

	timePath    string
	levelPath   string
	messagePath string
	strict      bool
	line        int
}

// New returns a jsonl parser.
func New() *Parser {
	return &Parser{logger: slog.Default()}
}

func (p *Parser) Version() parsersdk.Version {
	return parsersdk.NewVersion(0, 1, 0)
}

func (p *Parser) ConfigSchemas() []parsersdk.ConfigSchemaItem {
	return []parsersdk.ConfigSchemaItem{
		parsersdk.NewConfigSchemaItem(TimePathID, "Time field", "gjson path of the timestamp", parsersdk.TextInput{Default: "time"}),
		parsersdk.NewConfigSchemaItem(LevelPathID, "Level field", "gjson path of the severity", parsersdk.TextInput{Default: "level"}),
		parsersdk.NewConfigSchemaItem(MessagePathID, "Message field", "gjson path of the message", parsersdk.TextInput{Default: "msg"}),
		parsersdk.NewConfigSchemaItem(StrictID, "Strict", "Fail the call on lines that are not valid JSON", parsersdk.BooleanInput{}),
	}
}

func (p *Parser) RenderOptions() parsersdk.RenderOptions {
	return parsersdk.MultiColumn(40, 800,
		parsersdk.ColumnInfo{Caption: "Time", Width: 30},
		parsersdk.ColumnInfo{Caption: "Level", Width: 8},
		parsersdk.ColumnInfo{Caption: "Message", Width: parsersdk.AutoWidth},
	)
}

func (p *Parser) Init(params parsersdk.InitParams) error {
	p.logger = params.Logger
	cfg := params.Configs

	var err error
	paths := []struct {
		id  string
		dst *string
	}{
		{TimePathID, &p.timePath},
		{LevelPathID, &p.levelPath},
		{MessagePathID, &p.messagePath},
	}
	for _, path := range paths {
		if *path.dst, err = cfg.Text(path.id); err != nil {
			return err
		}
		if strings.TrimSpace(*path.dst) == "" {
			return parsersdk.NewInvalidConfigError(path.id, "path must not be empty")
		}
	}
	if p.strict, err = cfg.Bool(StrictID); err != nil {
		return err
	}

	p.splitter, err = split.New([]byte("\n"), maxRecordBytes)
	if err != nil {
		return parsersdk.NewInitError(parsersdk.InitOther, "cannot create splitter", err)
	}
	return nil
}

// Parse emits one item per complete line. A strict failure leaves the carry
// buffer and line count as they were before the call, since the host drops the
// whole buffer.
func (p *Parser) Parse(data []byte, maybeTimestamp *uint64) (parsersdk.ParseResult, error) {
	checkpoint, line := p.splitter.Checkpoint(), p.line
	records, carried := p.splitter.Split(data)

	result := parsersdk.ParseResult{Items: make([]parsersdk.ParseItem, 0, len(records)+1)}
	for _, rec := range records {
		p.line++
		doc := bytes.TrimSpace(rec.Data)
		if len(doc) == 0 {
			result.Items = append(result.Items, parsersdk.Skip(rec.Consumed))
			continue
		}

		if rec.Truncated || !gjson.ValidBytes(doc) {
			if p.strict {
				bad := p.line
				p.splitter.Rollback(checkpoint)
				p.line = line
				return parsersdk.ParseResult{}, parsersdk.NewParseError(fmt.Sprintf("line %d is not valid JSON", bad), nil)
			}
			p.logger.Debug("line is not valid JSON, passing it through", "line", p.line)
			raw := strings.ToValidUTF8(string(doc), "\uFFFD")
			result.Items = append(result.Items, parsersdk.Emit(rec.Consumed, parsersdk.Columns{"", "", raw}))
			continue
		}

		tv := gjson.GetBytes(doc, p.timePath)
		if result.Timestamp == nil {
			if ts, ok := timestamp(tv); ok {
				result.Timestamp = &ts
			}
		}
		result.Items = append(result.Items, parsersdk.Emit(rec.Consumed, parsersdk.Columns{
			tv.String(),
			strings.ToUpper(gjson.GetBytes(doc, p.levelPath).String()),
			gjson.GetBytes(doc, p.messagePath).String(),
		}))
	}
	if carried > 0 {
		result.Items = append(result.Items, parsersdk.Skip(carried))
	}
	if result.Timestamp == nil {
		result.Timestamp = maybeTimestamp
	}
	return result, nil
}

// timestamp reads unix seconds or millis from numbers and any dateparse
// layout from strings.
func timestamp(v gjson.Result) (uint64, bool) {
	var t time.Time
	switch v.Type {
	case gjson.Number:
		n := v.Int()
		if n <= 0 {
			return 0, false
		}
		if n < 1e11 {
			n *= 1000
		}
		return uint64(n), true //nolint:gosec // G115: checked positive
	case gjson.String:
		parsed, err := dateparse.ParseIn(v.Str, time.UTC)
		if err != nil {
			return 0, false
		}
		t = parsed
	default:
		return 0, false
	}
	if t.UnixMilli() < 0 {
		return 0, false
	}
	return uint64(t.UnixMilli()), true //nolint:gosec // G115: checked non-negative
}
