// Package split cuts a byte stream into delimiter-terminated records. Records
// may straddle parse calls; the incomplete tail of one buffer is copied into a
// carry buffer and completed by the next.
package split

import (
	"bytes"
	"fmt"
)

// Record is one complete record. Data excludes the delimiter and is owned by
// the caller. Consumed counts only the bytes of the current buffer that the
// record accounts for, delimiter included.
type Record struct {
	Data      []byte
	Consumed  int
	Truncated bool // Flushed at the size limit without a delimiter
}

// Splitter keeps the carry buffer for one session.
type Splitter struct {
	delim     []byte
	maxRecord int
	carry     []byte
}

// New creates a Splitter. maxRecord bounds the carry buffer: a record that grows
// past it is flushed as Truncated.
func New(delim []byte, maxRecord int) (*Splitter, error) {
	if len(delim) == 0 {
		return nil, fmt.Errorf("empty delimiter")
	}
	if maxRecord <= 0 {
		return nil, fmt.Errorf("max record size must be positive, got %d", maxRecord)
	}
	return &Splitter{delim: bytes.Clone(delim), maxRecord: maxRecord}, nil
}

// Pending returns the number of carried bytes waiting for a delimiter.
func (s *Splitter) Pending() int {
	return len(s.carry)
}

// Checkpoint is the carry state of a Splitter at one point in the stream.
type Checkpoint struct {
	carry []byte
}

// Checkpoint captures the carry buffer. Rollback restores it, undoing every
// Split made in between.
func (s *Splitter) Checkpoint() Checkpoint {
	return Checkpoint{carry: s.carry}
}

// Rollback restores the carry buffer captured by c.
func (s *Splitter) Rollback(c Checkpoint) {
	s.carry = c.carry
}

// Split returns the records completed by data and the number of bytes of data
// moved into the carry buffer. The Consumed values plus carried always add up
// to len(data).
func (s *Splitter) Split(data []byte) (records []Record, carried int) {
	prev := len(s.carry)
	buf := make([]byte, 0, prev+len(data))
	buf = append(buf, s.carry...)
	buf = append(buf, data...)

	start := 0
	for start < len(buf) {
		rest := buf[start:]
		idx := bytes.Index(rest, s.delim)

		var rec Record
		var end int
		switch {
		case idx >= 0 && idx <= s.maxRecord:
			rec.Data = bytes.Clone(rest[:idx])
			end = start + idx + len(s.delim)
		case len(rest) > s.maxRecord:
			rec.Data = bytes.Clone(rest[:s.maxRecord])
			rec.Truncated = true
			end = start + s.maxRecord
		default:
			s.carry = bytes.Clone(rest)
			return records, len(buf) - max(start, prev)
		}

		rec.Consumed = max(0, end-max(start, prev))
		records = append(records, rec)
		start = end
	}

	s.carry = nil
	return records, 0
}
