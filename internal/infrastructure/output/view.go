// Package output renders plugin advertisements and parsed records for the
// terminal (table) and for machines (JSON lines, YAML).
package output

import (
	"github.com/reglet-dev/parserkit/internal/application/dto"
	"github.com/reglet-dev/parserkit/internal/application/ports"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// RecordView is the serialized form of a parsed record.
type RecordView struct {
	Index      uint64            `json:"index" yaml:"index"`
	Offset     uint64            `json:"offset" yaml:"offset"`
	Consumed   uint64            `json:"consumed" yaml:"consumed"`
	Timestamp  *uint64           `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Line       *string           `json:"line,omitempty" yaml:"line,omitempty"`
	Columns    map[string]string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Fields     []string          `json:"fields,omitempty" yaml:"fields,omitempty"`
	Attachment *AttachmentView   `json:"attachment,omitempty" yaml:"attachment,omitempty"`
}

// AttachmentView describes an attachment without its payload.
type AttachmentView struct {
	Name       string   `json:"name" yaml:"name"`
	Size       uint64   `json:"size" yaml:"size"`
	CreatedAt  *string  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	ModifiedAt *string  `json:"modified_at,omitempty" yaml:"modified_at,omitempty"`
	Messages   []uint64 `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// NewRecordView converts a record. Column messages are keyed by caption;
// Fields keeps the positional values as well so duplicate captions lose nothing.
func NewRecordView(rec dto.ParsedRecord, render parsersdk.RenderOptions) RecordView {
	v := RecordView{
		Index:     rec.Index,
		Offset:    rec.Offset,
		Consumed:  rec.Consumed,
		Timestamp: rec.Timestamp,
	}
	switch m := rec.Message.(type) {
	case parsersdk.Line:
		s := string(m)
		v.Line = &s
	case parsersdk.Columns:
		v.Fields = append([]string(nil), m...)
		if render.IsColumns() {
			v.Columns = make(map[string]string, len(m))
			for i, c := range render.Columns.Columns {
				if i < len(m) {
					v.Columns[c.Caption] = m[i]
				}
			}
		}
	}
	if a := rec.Attachment; a != nil {
		v.Attachment = &AttachmentView{
			Name:       a.Name,
			Size:       a.Size,
			CreatedAt:  a.CreatedAt,
			ModifiedAt: a.ModifiedAt,
			Messages:   a.Messages,
		}
	}
	return v
}

// InfoView is the serialized form of a plugin advertisement.
type InfoView struct {
	Name       string       `json:"name" yaml:"name"`
	Version    string       `json:"version" yaml:"version"`
	APIVersion string       `json:"api_version" yaml:"api_version"`
	Render     RenderView   `json:"render" yaml:"render"`
	Configs    []ConfigView `json:"configs" yaml:"configs"`
}

// RenderView describes the layout.
type RenderView struct {
	Mode     string       `json:"mode" yaml:"mode"`
	MinWidth uint16       `json:"min_width,omitempty" yaml:"min_width,omitempty"`
	MaxWidth uint16       `json:"max_width,omitempty" yaml:"max_width,omitempty"`
	Columns  []ColumnView `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// ColumnView describes one column.
type ColumnView struct {
	Caption     string `json:"caption" yaml:"caption"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Width       int16  `json:"width" yaml:"width"`
}

// ConfigView describes one config schema item.
type ConfigView struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string   `json:"type" yaml:"type"`
	Default     any      `json:"default,omitempty" yaml:"default,omitempty"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
	Extensions  []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// NewInfoView converts a plugin advertisement.
func NewInfoView(info *ports.PluginInfo) InfoView {
	v := InfoView{
		Name:       info.Name,
		Version:    info.Version.String(),
		APIVersion: info.APIVersion,
		Render:     RenderView{Mode: "line"},
		Configs:    make([]ConfigView, 0, len(info.Schemas)),
	}
	if info.Render.IsColumns() {
		layout := info.Render.Columns
		v.Render = RenderView{Mode: "columns", MinWidth: layout.MinWidth, MaxWidth: layout.MaxWidth}
		for _, c := range layout.Columns {
			v.Render.Columns = append(v.Render.Columns, ColumnView{Caption: c.Caption, Description: c.Description, Width: c.Width})
		}
	}
	for _, item := range info.Schemas {
		v.Configs = append(v.Configs, newConfigView(item))
	}
	return v
}

func newConfigView(item parsersdk.ConfigSchemaItem) ConfigView {
	cv := ConfigView{ID: item.ID, Title: item.Title}
	if item.Description != nil {
		cv.Description = *item.Description
	}
	if item.Input == nil {
		return cv
	}
	cv.Type = item.Input.Kind()
	switch in := item.Input.(type) {
	case parsersdk.BooleanInput:
		cv.Default = in.Default
	case parsersdk.TextInput:
		if in.Default != "" {
			cv.Default = in.Default
		}
	case parsersdk.DropdownInput:
		cv.Default = in.Default
		cv.Options = in.Options
	case parsersdk.FilesInput:
		cv.Extensions = in.Extensions
	case parsersdk.IntegerInput:
		cv.Default = in.Default
	case parsersdk.FloatInput:
		cv.Default = in.Default
	}
	return cv
}
