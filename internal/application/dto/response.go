package dto

import (
	"time"

	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// ParsedRecord is one parse item as seen by the host, with stream positions.
type ParsedRecord struct {
	// Index counts emitted messages from 0
	Index uint64

	// Offset is the stream position of the first byte this item consumed
	Offset uint64

	Consumed   uint64
	Message    parsersdk.ParsedMessage
	Attachment *parsersdk.Attachment

	// Timestamp is the call-level timestamp (unix millis) reported with the item, if any
	Timestamp *uint64
}

// Fields returns the message as a list of column texts. Line messages have one field.
func (r ParsedRecord) Fields() []string {
	switch m := r.Message.(type) {
	case parsersdk.Line:
		return []string{string(m)}
	case parsersdk.Columns:
		return []string(m)
	default:
		return nil
	}
}

// Text returns the message joined with single spaces.
func (r ParsedRecord) Text() string {
	fields := r.Fields()
	if len(fields) == 1 {
		return fields[0]
	}
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += " "
		}
		out += f
	}
	return out
}

// ParseResponse summarizes a finished parse run.
type ParseResponse struct {
	Metadata ResponseMetadata

	// BytesRead is the number of source bytes handed to the plugin
	BytesRead uint64

	// Consumed is the sum of consumed bytes reported by the plugin
	Consumed uint64

	// Messages is the number of items carrying a message
	Messages uint64

	// Written is the number of records that passed the filter
	Written uint64

	// ParseErrors counts recoverable parse errors
	ParseErrors uint64
}

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	// RequestID from the original request
	RequestID string

	// ProcessedAt is when the request was processed
	ProcessedAt time.Time

	// Duration is how long the request took
	Duration time.Duration
}
