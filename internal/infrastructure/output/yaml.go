package output

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/reglet-dev/parserkit/internal/application/dto"
	"github.com/reglet-dev/parserkit/internal/application/ports"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// YAMLFormatter writes each record as its own YAML document.
type YAMLFormatter struct {
	writer io.Writer
	render parsersdk.RenderOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(w io.Writer, render parsersdk.RenderOptions) *YAMLFormatter {
	return &YAMLFormatter{writer: w, render: render}
}

// WriteRecord writes rec as a "---" separated document.
func (f *YAMLFormatter) WriteRecord(rec dto.ParsedRecord) error {
	if err := f.encode(NewRecordView(rec, f.render)); err != nil {
		return fmt.Errorf("failed to encode record %d: %w", rec.Index, err)
	}
	return nil
}

// FormatInfo writes the plugin advertisement.
func (f *YAMLFormatter) FormatInfo(info *ports.PluginInfo) error {
	return f.encode(NewInfoView(info))
}

func (f *YAMLFormatter) encode(v any) error {
	data, err := yaml.MarshalWithOptions(v, yaml.Indent(2))
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f.writer, "---\n"); err != nil {
		return err
	}
	_, err = f.writer.Write(data)
	return err
}

// Flush is a no-op.
func (f *YAMLFormatter) Flush() error {
	return nil
}
