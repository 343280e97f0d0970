package parsersdk

import (
	"fmt"
	"slices"
)

// AutoWidth as a column width means "fill the remaining space".
const AutoWidth int16 = -1

// ColumnInfo describes one column of the log view.
type ColumnInfo struct {
	Caption     string
	Description string
	Width       int16
}

// ColumnsLayout holds the column hints for multi-column plugins.
type ColumnsLayout struct {
	MinWidth uint16
	MaxWidth uint16
	Columns  []ColumnInfo
}

// RenderOptions is negotiated once, before init, and holds for the life of the
// plugin instance. A nil Columns means every message is a Line; otherwise every
// message is Columns with len(Columns.Columns) entries.
type RenderOptions struct {
	Columns *ColumnsLayout
}

// SingleColumn returns render options for line-mode plugins.
func SingleColumn() RenderOptions {
	return RenderOptions{}
}

// MultiColumn returns render options for column-mode plugins.
func MultiColumn(minWidth, maxWidth uint16, columns ...ColumnInfo) RenderOptions {
	return RenderOptions{Columns: &ColumnsLayout{
		MinWidth: minWidth,
		MaxWidth: maxWidth,
		Columns:  columns,
	}}
}

// IsColumns reports whether the plugin runs in multi-column mode.
func (r RenderOptions) IsColumns() bool {
	return r.Columns != nil
}

// ColumnCount returns the declared arity, or 0 in single-column mode.
func (r RenderOptions) ColumnCount() int {
	if r.Columns == nil {
		return 0
	}
	return len(r.Columns.Columns)
}

// Validate checks the layout itself.
func (r RenderOptions) Validate() error {
	if r.Columns == nil {
		return nil
	}
	if len(r.Columns.Columns) == 0 {
		return fmt.Errorf("columns layout declares no columns")
	}
	if r.Columns.MinWidth > r.Columns.MaxWidth {
		return fmt.Errorf("columns min width %d exceeds max width %d", r.Columns.MinWidth, r.Columns.MaxWidth)
	}
	for i, c := range r.Columns.Columns {
		if c.Width < AutoWidth {
			return fmt.Errorf("column %d (%q): invalid width %d", i, c.Caption, c.Width)
		}
	}
	return nil
}

// CheckMessage verifies that msg matches the declared rendering mode.
func (r RenderOptions) CheckMessage(msg ParsedMessage) error {
	switch m := msg.(type) {
	case nil:
		return nil
	case Line:
		if r.Columns != nil {
			return fmt.Errorf("line message emitted by a %d-column plugin", len(r.Columns.Columns))
		}
	case Columns:
		if r.Columns == nil {
			return fmt.Errorf("columns message emitted by a single-column plugin")
		}
		if len(m) != len(r.Columns.Columns) {
			return fmt.Errorf("columns message has %d columns, declared %d", len(m), len(r.Columns.Columns))
		}
	default:
		return fmt.Errorf("unknown message type %T", msg)
	}
	return nil
}

// Clone returns a deep copy.
func (r RenderOptions) Clone() RenderOptions {
	if r.Columns == nil {
		return RenderOptions{}
	}
	layout := *r.Columns
	layout.Columns = slices.Clone(r.Columns.Columns)
	return RenderOptions{Columns: &layout}
}
