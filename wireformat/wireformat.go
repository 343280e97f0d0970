// Package wireformat defines the JSON wire format structures for communication
// between the WASM host and guest (parser plugins). These types must remain stable
// and backward compatible as they define the ABI contract.
//
// Ownership: every payload is copied when it crosses the boundary. The host writes
// request bytes into memory obtained from the guest's allocate export and releases
// it with deallocate after the call; the guest allocates responses, the host copies
// them out and releases them with deallocate. Neither side keeps a pointer into the
// other's memory once a call has returned.
package wireformat

import (
	"fmt"
	"time"
)

// Tagged-union discriminators shared by config inputs and config values.
const (
	TypeBoolean     = "boolean"
	TypeInteger     = "integer"
	TypeFloat       = "float"
	TypeText        = "text"
	TypeDropdown    = "dropdown"
	TypeFiles       = "files"
	TypeDirectories = "directories"
)

// Parsed message discriminators.
const (
	MessageLine    = "line"
	MessageColumns = "columns"
)

// Error types carried in ErrorDetail.Type.
const (
	ErrorTypeInit     = "init"
	ErrorTypeParse    = "parse"
	ErrorTypeProtocol = "protocol"
	ErrorTypeInternal = "internal"
)

// VersionWire is returned by get_version.
type VersionWire struct {
	Major uint16 `json:"major"`
	Minor uint16 `json:"minor"`
	Patch uint16 `json:"patch"`
	// APIVersion is the contract version the plugin was built against ("0.1.0").
	APIVersion string `json:"api_version"`
}

// ConfigInputWire is the tagged encoding of a config input kind.
type ConfigInputWire struct {
	Type       string   `json:"type"`
	Bool       *bool    `json:"bool,omitempty"`
	Integer    *int32   `json:"integer,omitempty"`
	Float      *float32 `json:"float,omitempty"`
	Text       *string  `json:"text,omitempty"`
	Options    []string `json:"options,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
}

// ConfigSchemaItemWire is one element of the get_config_schemas response.
type ConfigSchemaItemWire struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Input       ConfigInputWire `json:"input"`
}

// ConfigValueWire is the tagged encoding of a resolved config value.
type ConfigValueWire struct {
	Type    string   `json:"type"`
	Bool    *bool    `json:"bool,omitempty"`
	Integer *int32   `json:"integer,omitempty"`
	Float   *float32 `json:"float,omitempty"`
	Text    *string  `json:"text,omitempty"`
	Paths   []string `json:"paths,omitempty"`
}

// ConfigItemWire pairs a schema ID with the value the host resolved for it.
type ConfigItemWire struct {
	ID    string          `json:"id"`
	Value ConfigValueWire `json:"value"`
}

// ColumnInfoWire describes one column of the render layout.
type ColumnInfoWire struct {
	Caption     string `json:"caption"`
	Description string `json:"description,omitempty"`
	Width       int16  `json:"width"`
}

// ColumnsLayoutWire holds the multi-column render hints.
type ColumnsLayoutWire struct {
	MinWidth uint16           `json:"min_width"`
	MaxWidth uint16           `json:"max_width"`
	Columns  []ColumnInfoWire `json:"columns"`
}

// RenderOptionsWire is returned by get_render_options.
type RenderOptionsWire struct {
	Columns *ColumnsLayoutWire `json:"columns,omitempty"`
}

// GeneralConfigWire carries host settings common to all parser plugins.
type GeneralConfigWire struct {
	LogLevel  string `json:"log_level"`
	SessionID string `json:"session_id,omitempty"` // For log correlation
}

// InitRequestWire is the JSON payload passed to init.
type InitRequestWire struct {
	General GeneralConfigWire `json:"general"`
	Configs []ConfigItemWire  `json:"configs"`
}

// InitResponseWire is returned by init.
type InitResponseWire struct {
	OK    bool         `json:"ok"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ParsedMessageWire is the tagged encoding of a parsed message.
type ParsedMessageWire struct {
	Type    string   `json:"type"`
	Line    string   `json:"line,omitempty"`
	Columns []string `json:"columns,omitempty"`
}

// AttachmentWire is a binary artifact extracted from the input.
type AttachmentWire struct {
	Name       string   `json:"name"`
	Size       uint64   `json:"size"`
	CreatedAt  *string  `json:"created_at,omitempty"`
	ModifiedAt *string  `json:"modified_at,omitempty"`
	Messages   []uint64 `json:"messages,omitempty"`
	Data       []byte   `json:"data,omitempty"` // Base64 in JSON
}

// ParseItemWire is one entry of a parse response.
type ParseItemWire struct {
	Consumed   uint64             `json:"consumed"`
	Message    *ParsedMessageWire `json:"message,omitempty"`
	Attachment *AttachmentWire    `json:"attachment,omitempty"`
}

// ParseResponseWire is returned by parse. Error is set instead of Items on failure.
type ParseResponseWire struct {
	Items     []ParseItemWire `json:"items,omitempty"`
	Timestamp *uint64         `json:"timestamp,omitempty"`
	Error     *ErrorDetail    `json:"error,omitempty"`
}

// LogMessageWire is the JSON wire format for a log message from Guest to Host.
type LogMessageWire struct {
	Level     string        `json:"level"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id,omitempty"`
	Attrs     []LogAttrWire `json:"attrs,omitempty"`
}

// LogAttrWire represents a single slog attribute.
type LogAttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "bool", "float64", "time", "error", "any"
	Value string `json:"value"` // String representation of the value
}

// ErrorDetail provides structured error information, consistent across host and SDK.
// Type is one of "init", "parse", "protocol", "internal"; Code carries the kind
// within the type (e.g. "missing-config", "unrecoverable").
type ErrorDetail struct {
	Message  string       `json:"message"`
	Type     string       `json:"type"`
	Code     string       `json:"code,omitempty"`
	// ConfigID names the config value an init error is about
	ConfigID string       `json:"config_id,omitempty"`
	Wrapped  *ErrorDetail `json:"wrapped,omitempty"`
}

// Error implements the error interface for ErrorDetail.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.ConfigID != "" {
		msg = fmt.Sprintf("%s: %s", e.ConfigID, msg)
	}
	if e.Type != "" && e.Type != ErrorTypeInternal {
		msg = fmt.Sprintf("%s: %s", e.Type, msg)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Code)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped.Error())
	}
	return msg
}

// PackPtrLen packs a guest pointer and length into the single i64 used for results.
// Pointer in high 32 bits, length in low 32 bits.
func PackPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

// UnpackPtrLen is the inverse of PackPtrLen.
func UnpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32) //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed)    //nolint:gosec // G115: Packed format stores 32-bit values
	return ptr, length
}
