package output

import (
	"fmt"
	"io"

	"github.com/reglet-dev/parserkit/internal/application/ports"
)

var _ ports.OutputFormatterFactory = (*FormatterFactory)(nil)

// FormatterFactory implements ports.OutputFormatterFactory.
type FormatterFactory struct{}

// NewFormatterFactory creates a new formatter factory.
func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

// Create returns a formatter for the given format name.
func (f *FormatterFactory) Create(
	format string,
	writer io.Writer,
	options ports.FormatterOptions,
) (ports.OutputFormatter, error) {
	switch format {
	case "table":
		t := NewTableFormatter(writer, options.Render, options.Width)
		t.EnableColor = options.Color
		return t, nil
	case "json":
		return NewJSONFormatter(writer, options.Indent, options.Render), nil
	case "yaml":
		return NewYAMLFormatter(writer, options.Render), nil
	default:
		return nil, fmt.Errorf(
			"unknown format: %s (supported: %v)",
			format, f.SupportedFormats(),
		)
	}
}

// SupportedFormats returns list of available format names.
func (f *FormatterFactory) SupportedFormats() []string {
	return []string{"table", "json", "yaml"}
}
