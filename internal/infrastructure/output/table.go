package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/reglet-dev/parserkit/internal/application/dto"
	"github.com/reglet-dev/parserkit/internal/application/ports"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

const (
	colorReset = "\033[0m"
	colorGray  = "\033[90m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

const (
	columnSeparator = " │ "
	ellipsis        = "…"
	minAutoWidth    = 10
)

// TableFormatter prints records as aligned columns sized from the plugin's
// render options. Line-mode records are printed as they are.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool

	render        parsersdk.RenderOptions
	widths        []int
	headerWritten bool
}

// NewTableFormatter creates a table formatter. termWidth bounds the row width
// together with the layout's min and max widths; 0 leaves it to the layout.
func NewTableFormatter(w io.Writer, render parsersdk.RenderOptions, termWidth int) *TableFormatter {
	return &TableFormatter{
		writer:      w,
		EnableColor: true,
		render:      render,
		widths:      columnWidths(render, termWidth),
	}
}

// colorize returns the string wrapped in ANSI color codes if enabled.
func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

// columnWidths resolves declared widths to display cells. A 0 entry means the
// column is printed unpadded (the trailing auto column of an unbounded row).
func columnWidths(render parsersdk.RenderOptions, termWidth int) []int {
	if !render.IsColumns() {
		return nil
	}
	layout := render.Columns
	rowWidth := termWidth
	if layout.MaxWidth > 0 && (rowWidth == 0 || rowWidth > int(layout.MaxWidth)) {
		rowWidth = int(layout.MaxWidth)
	}
	if rowWidth > 0 && rowWidth < int(layout.MinWidth) {
		rowWidth = int(layout.MinWidth)
	}

	n := len(layout.Columns)
	widths := make([]int, n)
	used := runewidth.StringWidth(columnSeparator) * max(n-1, 0)
	for i, c := range layout.Columns {
		switch {
		case c.Width > 0:
			widths[i] = int(c.Width)
		case i < n-1:
			widths[i] = max(runewidth.StringWidth(c.Caption), 2*minAutoWidth)
		default:
			continue
		}
		used += widths[i]
	}
	if n > 0 && layout.Columns[n-1].Width <= 0 && rowWidth > 0 {
		widths[n-1] = max(rowWidth-used, minAutoWidth)
	}
	return widths
}

// cell pads or truncates s to width display cells.
func cell(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 {
		return s
	}
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, ellipsis)
	}
	return runewidth.FillRight(s, width)
}

func (f *TableFormatter) row(values []string) string {
	cells := make([]string, len(f.widths))
	for i, w := range f.widths {
		var v string
		if i < len(values) {
			v = values[i]
		}
		cells[i] = cell(v, w)
	}
	return strings.TrimRight(strings.Join(cells, columnSeparator), " ")
}

// WriteRecord prints one record, with a header before the first column row.
func (f *TableFormatter) WriteRecord(rec dto.ParsedRecord) error {
	switch m := rec.Message.(type) {
	case parsersdk.Line:
		if _, err := fmt.Fprintln(f.writer, string(m)); err != nil {
			return err
		}
	case parsersdk.Columns:
		if err := f.writeHeader(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(f.writer, f.row(m)); err != nil {
			return err
		}
	}

	if a := rec.Attachment; a != nil {
		note := fmt.Sprintf("[attachment %s, %d bytes]", a.Name, a.Size)
		if _, err := fmt.Fprintln(f.writer, f.colorize(note, colorGray)); err != nil {
			return err
		}
	}
	return nil
}

func (f *TableFormatter) writeHeader() error {
	if f.headerWritten || !f.render.IsColumns() {
		return nil
	}
	f.headerWritten = true

	captions := make([]string, len(f.render.Columns.Columns))
	for i, c := range f.render.Columns.Columns {
		captions[i] = c.Caption
	}
	header := f.row(captions)
	if _, err := fmt.Fprintln(f.writer, f.colorize(header, colorBold)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", runewidth.StringWidth(header)), colorGray))
	return err
}

// FormatInfo prints the advertisement for humans.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatInfo(info *ports.PluginInfo) error {
	fmt.Fprintf(f.writer, "Plugin: %s (v%s, api %s)\n", f.colorize(info.Name, colorBold), info.Version, info.APIVersion)

	if info.Render.IsColumns() {
		layout := info.Render.Columns
		fmt.Fprintf(f.writer, "Render: columns (min width %d, max width %d)\n", layout.MinWidth, layout.MaxWidth)
		for i, c := range layout.Columns {
			width := fmt.Sprint(c.Width)
			if c.Width == parsersdk.AutoWidth {
				width = "auto"
			}
			fmt.Fprintf(f.writer, "  %d. %s (width %s)", i+1, f.colorize(c.Caption, colorCyan), width)
			if c.Description != "" {
				fmt.Fprintf(f.writer, ": %s", c.Description)
			}
			fmt.Fprintln(f.writer)
		}
	} else {
		fmt.Fprintln(f.writer, "Render: single line")
	}

	if len(info.Schemas) == 0 {
		fmt.Fprintln(f.writer, "Configs: none")
		return nil
	}
	fmt.Fprintln(f.writer, "Configs:")
	for _, item := range info.Schemas {
		cv := newConfigView(item)
		fmt.Fprintf(f.writer, "  %s [%s] %s\n", f.colorize(cv.ID, colorCyan), cv.Type, cv.Title)
		if cv.Description != "" {
			fmt.Fprintf(f.writer, "      %s\n", cv.Description)
		}
		if cv.Default != nil {
			fmt.Fprintf(f.writer, "      default: %v\n", cv.Default)
		}
		if len(cv.Options) > 0 {
			fmt.Fprintf(f.writer, "      options: %s\n", strings.Join(cv.Options, ", "))
		}
		if len(cv.Extensions) > 0 {
			fmt.Fprintf(f.writer, "      extensions: %s\n", strings.Join(cv.Extensions, ", "))
		}
	}
	return nil
}

// Flush is a no-op; rows are written as they arrive.
func (f *TableFormatter) Flush() error {
	return nil
}
