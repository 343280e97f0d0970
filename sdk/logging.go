package parsersdk

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// LogRecord is one message handed to a LogSink.
type LogRecord struct {
	Time      time.Time
	Level     Level
	Message   string
	SessionID string
	Attrs     []slog.Attr
}

// LogSink is the host's logging capability. It is fire-and-forget: no return
// value and no failure surfaced to the plugin.
type LogSink interface {
	Log(record LogRecord)
}

// LogSinkFunc adapts a function to LogSink.
type LogSinkFunc func(record LogRecord)

// Log calls f(record).
func (f LogSinkFunc) Log(record LogRecord) {
	f(record)
}

// SlogSink forwards records to a slog.Logger (slog.Default() when Logger is nil).
type SlogSink struct {
	Logger *slog.Logger
}

// Log implements LogSink.
func (s SlogSink) Log(record LogRecord) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := record.Attrs
	if record.SessionID != "" {
		attrs = append([]slog.Attr{slog.String("session_id", record.SessionID)}, attrs...)
	}
	logger.LogAttrs(context.Background(), record.Level.Slog(), record.Message, attrs...)
}

// Gate decides whether a message is worth sending to the sink at all. The
// threshold starts at LevelError and is latched by Session.Init, so messages
// the host would discard are never formatted or marshaled.
type Gate struct {
	threshold atomic.Int32
	sink      LogSink

	mu        sync.RWMutex
	sessionID string
}

// NewGate creates a gate with the default threshold (errors only).
func NewGate(sink LogSink) *Gate {
	if sink == nil {
		sink = defaultSink()
	}
	g := &Gate{sink: sink}
	g.threshold.Store(int32(LevelError))
	return g
}

// SetThreshold replaces the active threshold.
func (g *Gate) SetThreshold(l Level) {
	g.threshold.Store(int32(l)) //nolint:gosec // G115: Level values are small
}

// Threshold returns the active threshold.
func (g *Gate) Threshold() Level {
	return Level(g.threshold.Load())
}

// Enabled reports whether a message at level l would reach the sink.
func (g *Gate) Enabled(l Level) bool {
	return g.Threshold().Allows(l)
}

func (g *Gate) setSessionID(id string) {
	g.mu.Lock()
	g.sessionID = id
	g.mu.Unlock()
}

// Log forwards the message if its level passes the threshold.
func (g *Gate) Log(l Level, msg string, attrs ...slog.Attr) {
	if !g.Enabled(l) {
		return
	}
	g.mu.RLock()
	id := g.sessionID
	g.mu.RUnlock()
	g.sink.Log(LogRecord{
		Time:      time.Now(),
		Level:     l,
		Message:   msg,
		SessionID: id,
		Attrs:     attrs,
	})
}

// Logger returns a slog.Logger whose records pass through the gate.
func (g *Gate) Logger() *slog.Logger {
	return slog.New(&gateHandler{gate: g})
}

// gateHandler is a slog.Handler that consults the gate before building anything.
type gateHandler struct {
	gate   *Gate
	attrs  []slog.Attr
	prefix string
}

func (h *gateHandler) Enabled(_ context.Context, l slog.Level) bool {
	return h.gate.Enabled(LevelFromSlog(l))
}

func (h *gateHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify(a))
		return true
	})
	h.gate.Log(LevelFromSlog(r.Level), r.Message, attrs...)
	return nil
}

func (h *gateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &gateHandler{gate: h.gate, prefix: h.prefix}
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, h.qualify(a))
	}
	return next
}

func (h *gateHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &gateHandler{gate: h.gate, attrs: h.attrs, prefix: h.prefix + name + "."}
}

func (h *gateHandler) qualify(a slog.Attr) slog.Attr {
	if h.prefix == "" {
		return a
	}
	return slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
}
