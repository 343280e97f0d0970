package parsersdk

import (
	"bytes"
	"slices"
)

// ParsedMessage is the closed set of renderable outputs: Line or Columns.
type ParsedMessage interface {
	isParsedMessage()
}

// Line is a single-column message.
type Line string

// Columns is a multi-column message; its length matches the declared layout.
type Columns []string

func (Line) isParsedMessage()    {}
func (Columns) isParsedMessage() {}

// Attachment is a binary artifact recovered from the input (e.g. a file
// transferred inside the log stream).
type Attachment struct {
	Name       string
	Size       uint64
	CreatedAt  *string
	ModifiedAt *string
	// Messages holds indices of parsed messages the attachment relates to.
	Messages []uint64
	Data     []byte
}

// ParseItem accounts for Consumed bytes from the front of the remaining input.
// A nil Value means the bytes were consumed without anything to emit yet.
type ParseItem struct {
	Consumed   uint64
	Value      ParsedMessage
	Attachment *Attachment
}

// ParseResult is the outcome of one parse call, owned by the caller.
type ParseResult struct {
	Items []ParseItem
	// Timestamp is one best-effort timestamp (unix millis) for the whole call.
	Timestamp *uint64
}

// Emit returns an item carrying msg.
func Emit(consumed int, msg ParsedMessage) ParseItem {
	return ParseItem{Consumed: uint64(consumed), Value: msg} //nolint:gosec // G115: lengths are non-negative
}

// Skip returns an item that consumes bytes without output.
func Skip(consumed int) ParseItem {
	return ParseItem{Consumed: uint64(consumed)} //nolint:gosec // G115: lengths are non-negative
}

// Timestamp returns a pointer to v, for ParseResult.Timestamp.
func Timestamp(v uint64) *uint64 {
	return &v
}

// Consumed returns the total bytes accounted for by all items.
func (r ParseResult) Consumed() uint64 {
	var total uint64
	for _, item := range r.Items {
		total += item.Consumed
	}
	return total
}

// detach copies every buffer that could alias host input. Strings are
// immutable in Go; columns and attachments are cloned.
func (r ParseResult) detach() ParseResult {
	out := ParseResult{Items: make([]ParseItem, len(r.Items))}
	if r.Timestamp != nil {
		out.Timestamp = Timestamp(*r.Timestamp)
	}
	for i, item := range r.Items {
		out.Items[i] = ParseItem{Consumed: item.Consumed, Value: item.Value}
		if cols, ok := item.Value.(Columns); ok {
			out.Items[i].Value = Columns(slices.Clone(cols))
		}
		if item.Attachment != nil {
			a := *item.Attachment
			a.Messages = slices.Clone(a.Messages)
			a.Data = bytes.Clone(a.Data)
			out.Items[i].Attachment = &a
		}
	}
	return out
}
