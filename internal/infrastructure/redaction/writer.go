package redaction

import (
	"io"
	"sync"
)

// Writer scrubs everything written through it. Safe for concurrent use.
type Writer struct {
	underlying io.Writer
	redactor   *Redactor
	mu         sync.Mutex
}

// NewWriter wraps w. A nil redactor passes data through unchanged.
func NewWriter(w io.Writer, r *Redactor) *Writer {
	return &Writer{underlying: w, redactor: r}
}

// Write implements io.Writer. It reports len(p) on success even when the
// redacted text has a different length.
func (w *Writer) Write(p []byte) (int, error) {
	out := p
	if w.redactor != nil {
		out = []byte(w.redactor.ScrubString(string(p)))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.underlying.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
