package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/reglet-dev/parserkit/internal/application/dto"
	"github.com/reglet-dev/parserkit/internal/application/ports"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// JSONFormatter writes one JSON object per record (JSON lines). Plugin info
// is a single document, indented when requested.
type JSONFormatter struct {
	writer io.Writer
	indent bool
	render parsersdk.RenderOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(w io.Writer, indent bool, render parsersdk.RenderOptions) *JSONFormatter {
	return &JSONFormatter{
		writer: w,
		indent: indent,
		render: render,
	}
}

// WriteRecord writes rec as one line.
func (f *JSONFormatter) WriteRecord(rec dto.ParsedRecord) error {
	data, err := json.Marshal(NewRecordView(rec, f.render))
	if err != nil {
		return fmt.Errorf("failed to encode record %d: %w", rec.Index, err)
	}
	data = append(data, '\n')
	_, err = f.writer.Write(data)
	return err
}

// FormatInfo writes the plugin advertisement.
func (f *JSONFormatter) FormatInfo(info *ports.PluginInfo) error {
	var data []byte
	var err error

	if f.indent {
		data, err = json.MarshalIndent(NewInfoView(info), "", "  ")
	} else {
		data, err = json.Marshal(NewInfoView(info))
	}
	if err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = f.writer.Write(data)
	return err
}

// Flush is a no-op; records are written as they arrive.
func (f *JSONFormatter) Flush() error {
	return nil
}
