package parsersdk

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/reglet-dev/parserkit/wireformat"
)

// Conversions between the SDK model and the JSON wire format. They are used by
// the guest dispatcher and by hosts decoding guest responses.

// VersionToWire encodes v together with APIVersion.
func VersionToWire(v Version) wireformat.VersionWire {
	return wireformat.VersionWire{Major: v.Major, Minor: v.Minor, Patch: v.Patch, APIVersion: APIVersion}
}

// VersionFromWire returns the plugin version and the API version it reports.
func VersionFromWire(w wireformat.VersionWire) (Version, string) {
	return NewVersion(w.Major, w.Minor, w.Patch), w.APIVersion
}

// ConfigSchemasToWire encodes schema items in order.
func ConfigSchemasToWire(items []ConfigSchemaItem) []wireformat.ConfigSchemaItemWire {
	out := make([]wireformat.ConfigSchemaItemWire, 0, len(items))
	for _, item := range items {
		out = append(out, wireformat.ConfigSchemaItemWire{
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
			Input:       configInputToWire(item.Input),
		})
	}
	return out
}

func configInputToWire(in ConfigInput) wireformat.ConfigInputWire {
	w := wireformat.ConfigInputWire{}
	if in == nil {
		return w
	}
	w.Type = in.Kind()
	switch v := in.(type) {
	case BooleanInput:
		w.Bool = &v.Default
	case TextInput:
		w.Text = &v.Default
	case DropdownInput:
		w.Options = slices.Clone(v.Options)
		w.Text = &v.Default
	case FilesInput:
		w.Extensions = slices.Clone(v.Extensions)
	case IntegerInput:
		w.Integer = &v.Default
	case FloatInput:
		w.Float = &v.Default
	}
	return w
}

// ConfigSchemasFromWire decodes schema items. Unknown input types are rejected.
func ConfigSchemasFromWire(items []wireformat.ConfigSchemaItemWire) ([]ConfigSchemaItem, error) {
	out := make([]ConfigSchemaItem, 0, len(items))
	for _, item := range items {
		in, err := configInputFromWire(item.Input)
		if err != nil {
			return nil, fmt.Errorf("config schema %q: %w", item.ID, err)
		}
		out = append(out, ConfigSchemaItem{
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
			Input:       in,
		})
	}
	return out, nil
}

func configInputFromWire(w wireformat.ConfigInputWire) (ConfigInput, error) {
	switch w.Type {
	case wireformat.TypeBoolean:
		return BooleanInput{Default: deref(w.Bool)}, nil
	case wireformat.TypeText:
		return TextInput{Default: deref(w.Text)}, nil
	case wireformat.TypeDropdown:
		return DropdownInput{Options: slices.Clone(w.Options), Default: deref(w.Text)}, nil
	case wireformat.TypeFiles:
		return FilesInput{Extensions: slices.Clone(w.Extensions)}, nil
	case wireformat.TypeDirectories:
		return DirectoriesInput{}, nil
	case wireformat.TypeInteger:
		return IntegerInput{Default: deref(w.Integer)}, nil
	case wireformat.TypeFloat:
		return FloatInput{Default: deref(w.Float)}, nil
	default:
		return nil, fmt.Errorf("unknown input type %q", w.Type)
	}
}

// ConfigValuesToWire encodes config values in order.
func ConfigValuesToWire(items []ConfigValueItem) []wireformat.ConfigItemWire {
	out := make([]wireformat.ConfigItemWire, 0, len(items))
	for _, item := range items {
		out = append(out, wireformat.ConfigItemWire{ID: item.ID, Value: ConfigValueToWire(item.Value)})
	}
	return out
}

// ConfigValueToWire encodes a single value.
func ConfigValueToWire(v ConfigValue) wireformat.ConfigValueWire {
	w := wireformat.ConfigValueWire{}
	if v == nil {
		return w
	}
	w.Type = v.Kind()
	switch val := v.(type) {
	case BoolValue:
		b := bool(val)
		w.Bool = &b
	case IntegerValue:
		i := int32(val)
		w.Integer = &i
	case FloatValue:
		f := float32(val)
		w.Float = &f
	case TextValue:
		s := string(val)
		w.Text = &s
	case DropdownValue:
		s := string(val)
		w.Text = &s
	case FilesValue:
		w.Paths = slices.Clone([]string(val))
	case DirectoriesValue:
		w.Paths = slices.Clone([]string(val))
	}
	return w
}

// ConfigValuesFromWire decodes config values. A value whose payload does not
// match its type is rejected as invalid config.
func ConfigValuesFromWire(items []wireformat.ConfigItemWire) ([]ConfigValueItem, error) {
	out := make([]ConfigValueItem, 0, len(items))
	for _, item := range items {
		v, err := ConfigValueFromWire(item.Value)
		if err != nil {
			return nil, NewInvalidConfigError(item.ID, err.Error())
		}
		out = append(out, ConfigValueItem{ID: item.ID, Value: v})
	}
	return out, nil
}

// ConfigValueFromWire decodes a single value.
func ConfigValueFromWire(w wireformat.ConfigValueWire) (ConfigValue, error) {
	missing := func() error { return fmt.Errorf("%s value without payload", w.Type) }
	switch w.Type {
	case wireformat.TypeBoolean:
		if w.Bool == nil {
			return nil, missing()
		}
		return BoolValue(*w.Bool), nil
	case wireformat.TypeInteger:
		if w.Integer == nil {
			return nil, missing()
		}
		return IntegerValue(*w.Integer), nil
	case wireformat.TypeFloat:
		if w.Float == nil {
			return nil, missing()
		}
		return FloatValue(*w.Float), nil
	case wireformat.TypeText:
		return TextValue(deref(w.Text)), nil
	case wireformat.TypeDropdown:
		if w.Text == nil {
			return nil, missing()
		}
		return DropdownValue(*w.Text), nil
	case wireformat.TypeFiles:
		return FilesValue(slices.Clone(w.Paths)), nil
	case wireformat.TypeDirectories:
		return DirectoriesValue(slices.Clone(w.Paths)), nil
	default:
		return nil, fmt.Errorf("unknown value type %q", w.Type)
	}
}

// RenderOptionsToWire encodes render options.
func RenderOptionsToWire(r RenderOptions) wireformat.RenderOptionsWire {
	if r.Columns == nil {
		return wireformat.RenderOptionsWire{}
	}
	cols := make([]wireformat.ColumnInfoWire, 0, len(r.Columns.Columns))
	for _, c := range r.Columns.Columns {
		cols = append(cols, wireformat.ColumnInfoWire{Caption: c.Caption, Description: c.Description, Width: c.Width})
	}
	return wireformat.RenderOptionsWire{Columns: &wireformat.ColumnsLayoutWire{
		MinWidth: r.Columns.MinWidth,
		MaxWidth: r.Columns.MaxWidth,
		Columns:  cols,
	}}
}

// RenderOptionsFromWire decodes render options.
func RenderOptionsFromWire(w wireformat.RenderOptionsWire) RenderOptions {
	if w.Columns == nil {
		return SingleColumn()
	}
	cols := make([]ColumnInfo, 0, len(w.Columns.Columns))
	for _, c := range w.Columns.Columns {
		cols = append(cols, ColumnInfo{Caption: c.Caption, Description: c.Description, Width: c.Width})
	}
	return MultiColumn(w.Columns.MinWidth, w.Columns.MaxWidth, cols...)
}

// GeneralConfigToWire encodes host settings.
func GeneralConfigToWire(g GeneralConfig) wireformat.GeneralConfigWire {
	return wireformat.GeneralConfigWire{LogLevel: g.LogLevel.String(), SessionID: g.SessionID}
}

// GeneralConfigFromWire decodes host settings.
func GeneralConfigFromWire(w wireformat.GeneralConfigWire) (GeneralConfig, error) {
	level, err := ParseLevel(w.LogLevel)
	if err != nil {
		return GeneralConfig{}, err
	}
	return GeneralConfig{LogLevel: level, SessionID: w.SessionID}, nil
}

// ParseResultToWire encodes a successful parse result.
func ParseResultToWire(r ParseResult) wireformat.ParseResponseWire {
	items := make([]wireformat.ParseItemWire, 0, len(r.Items))
	for _, item := range r.Items {
		w := wireformat.ParseItemWire{Consumed: item.Consumed}
		switch m := item.Value.(type) {
		case Line:
			w.Message = &wireformat.ParsedMessageWire{Type: wireformat.MessageLine, Line: string(m)}
		case Columns:
			w.Message = &wireformat.ParsedMessageWire{Type: wireformat.MessageColumns, Columns: slices.Clone([]string(m))}
		}
		if a := item.Attachment; a != nil {
			w.Attachment = &wireformat.AttachmentWire{
				Name:       a.Name,
				Size:       a.Size,
				CreatedAt:  a.CreatedAt,
				ModifiedAt: a.ModifiedAt,
				Messages:   slices.Clone(a.Messages),
				Data:       slices.Clone(a.Data),
			}
		}
		items = append(items, w)
	}
	return wireformat.ParseResponseWire{Items: items, Timestamp: r.Timestamp}
}

// ParseResultFromWire decodes a parse response. A response carrying an error
// returns it reconstructed with ErrorFromWire.
func ParseResultFromWire(w wireformat.ParseResponseWire) (ParseResult, error) {
	if w.Error != nil {
		return ParseResult{}, ErrorFromWire(w.Error)
	}
	result := ParseResult{Items: make([]ParseItem, 0, len(w.Items)), Timestamp: w.Timestamp}
	for i, item := range w.Items {
		p := ParseItem{Consumed: item.Consumed}
		if m := item.Message; m != nil {
			switch m.Type {
			case wireformat.MessageLine:
				p.Value = Line(m.Line)
			case wireformat.MessageColumns:
				p.Value = Columns(m.Columns)
			default:
				return ParseResult{}, fmt.Errorf("item %d: unknown message type %q", i, m.Type)
			}
		}
		if a := item.Attachment; a != nil {
			p.Attachment = &Attachment{
				Name:       a.Name,
				Size:       a.Size,
				CreatedAt:  a.CreatedAt,
				ModifiedAt: a.ModifiedAt,
				Messages:   a.Messages,
				Data:       a.Data,
			}
		}
		result.Items = append(result.Items, p)
	}
	return result, nil
}

// LogRecordToWire encodes a log record for the log_message host import.
func LogRecordToWire(r LogRecord) wireformat.LogMessageWire {
	attrs := make([]wireformat.LogAttrWire, 0, len(r.Attrs))
	for _, a := range r.Attrs {
		attrs = append(attrs, logAttrToWire(a))
	}
	return wireformat.LogMessageWire{
		Level:     r.Level.String(),
		Message:   r.Message,
		Timestamp: r.Time,
		SessionID: r.SessionID,
		Attrs:     attrs,
	}
}

// LogRecordFromWire decodes a guest log message. Unknown levels map to Info.
func LogRecordFromWire(w wireformat.LogMessageWire) LogRecord {
	level, err := ParseLevel(w.Level)
	if err != nil {
		level = LevelInfo
	}
	attrs := make([]slog.Attr, 0, len(w.Attrs))
	for _, a := range w.Attrs {
		attrs = append(attrs, logAttrFromWire(a))
	}
	return LogRecord{Time: w.Timestamp, Level: level, Message: w.Message, SessionID: w.SessionID, Attrs: attrs}
}

func logAttrToWire(a slog.Attr) wireformat.LogAttrWire {
	v := a.Value.Resolve()
	w := wireformat.LogAttrWire{Key: a.Key}
	switch v.Kind() {
	case slog.KindString:
		w.Type, w.Value = "string", v.String()
	case slog.KindInt64:
		w.Type, w.Value = "int64", strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		w.Type, w.Value = "int64", strconv.FormatUint(v.Uint64(), 10)
	case slog.KindBool:
		w.Type, w.Value = "bool", strconv.FormatBool(v.Bool())
	case slog.KindFloat64:
		w.Type, w.Value = "float64", strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindTime:
		w.Type, w.Value = "time", v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		w.Type, w.Value = "string", v.Duration().String()
	default:
		if err, ok := v.Any().(error); ok {
			w.Type, w.Value = "error", err.Error()
		} else {
			w.Type, w.Value = "any", v.String()
		}
	}
	return w
}

func logAttrFromWire(a wireformat.LogAttrWire) slog.Attr {
	switch a.Type {
	case "string":
		return slog.String(a.Key, a.Value)
	case "int64":
		if v, err := strconv.ParseInt(a.Value, 10, 64); err == nil {
			return slog.Int64(a.Key, v)
		}
	case "bool":
		if v, err := strconv.ParseBool(a.Value); err == nil {
			return slog.Bool(a.Key, v)
		}
	case "float64":
		if v, err := strconv.ParseFloat(a.Value, 64); err == nil {
			return slog.Float64(a.Key, v)
		}
	case "time":
		if v, err := time.Parse(time.RFC3339Nano, a.Value); err == nil {
			return slog.Time(a.Key, v)
		}
	case "error":
		return slog.Any(a.Key, errors.New(a.Value))
	}
	return slog.String(a.Key, a.Value)
}

// ErrorToWire encodes one of the SDK error types. Other errors become
// "internal" details.
func ErrorToWire(err error) *wireformat.ErrorDetail {
	if err == nil {
		return nil
	}
	var (
		initErr  *InitError
		parseErr *ParseError
		protoErr *ProtocolError
	)
	switch {
	case errors.As(err, &initErr):
		d := &wireformat.ErrorDetail{
			Type:     wireformat.ErrorTypeInit,
			Code:     string(initErr.Kind),
			ConfigID: initErr.ID,
			Message:  initErr.Message,
		}
		if initErr.Cause != nil {
			d.Wrapped = &wireformat.ErrorDetail{Type: wireformat.ErrorTypeInternal, Message: initErr.Cause.Error()}
		}
		return d
	case errors.As(err, &parseErr):
		d := &wireformat.ErrorDetail{Type: wireformat.ErrorTypeParse, Code: string(parseErr.Kind), Message: parseErr.Message}
		if parseErr.Cause != nil {
			d.Wrapped = &wireformat.ErrorDetail{Type: wireformat.ErrorTypeInternal, Message: parseErr.Cause.Error()}
		}
		return d
	case errors.As(err, &protoErr):
		return &wireformat.ErrorDetail{Type: wireformat.ErrorTypeProtocol, Code: protoErr.State.String(), Message: protoErr.Op}
	default:
		return &wireformat.ErrorDetail{Type: wireformat.ErrorTypeInternal, Message: err.Error()}
	}
}

// ErrorFromWire rebuilds the SDK error type described by d, so hosts can use
// errors.As the same way plugins do.
func ErrorFromWire(d *wireformat.ErrorDetail) error {
	if d == nil {
		return nil
	}
	var cause error
	if d.Wrapped != nil {
		cause = ErrorFromWire(d.Wrapped)
	}
	switch d.Type {
	case wireformat.ErrorTypeInit:
		return &InitError{Kind: InitErrorKind(d.Code), ID: d.ConfigID, Message: d.Message, Cause: cause}
	case wireformat.ErrorTypeParse:
		return &ParseError{Kind: ParseErrorKind(d.Code), Message: d.Message, Cause: cause}
	case wireformat.ErrorTypeProtocol:
		return &ProtocolError{Op: d.Message, State: stateFromString(d.Code)}
	default:
		return d
	}
}

func stateFromString(s string) State {
	for _, st := range []State{StateUnconfigured, StateInitialized, StateParsing, StateFailed} {
		if st.String() == s {
			return st
		}
	}
	return State(-1)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
