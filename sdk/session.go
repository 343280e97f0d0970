package parsersdk

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Session drives one Parser through the plugin lifecycle. It owns the logging
// gate and the state machine; no state is shared between sessions.
type Session struct {
	mu sync.Mutex

	parser  Parser
	gate    *Gate
	state   State
	schemas []ConfigSchemaItem
	render  RenderOptions
	version Version
}

// Option configures a Session.
type Option func(*Session)

// WithLogSink routes the session's gated log output to sink.
func WithLogSink(sink LogSink) Option {
	return func(s *Session) {
		s.gate = NewGate(sink)
	}
}

// NewSession validates the parser's advertisement and returns a session in the
// Unconfigured state. An error here is a bug in the plugin, not a runtime
// condition.
func NewSession(p Parser, opts ...Option) (*Session, error) {
	if p == nil {
		return nil, fmt.Errorf("parser is nil")
	}
	s := &Session{
		parser:  p,
		state:   StateUnconfigured,
		version: p.Version(),
		schemas: CloneSchemas(p.ConfigSchemas()),
		render:  p.RenderOptions().Clone(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gate == nil {
		s.gate = NewGate(nil)
	}

	if err := ValidateSchemas(s.schemas); err != nil {
		return nil, fmt.Errorf("invalid config schemas: %w", err)
	}
	if err := s.render.Validate(); err != nil {
		return nil, fmt.Errorf("invalid render options: %w", err)
	}
	return s, nil
}

// Version returns the plugin's own version. Never fails.
func (s *Session) Version() Version {
	return s.version
}

// ConfigSchemas returns a copy of the declared schema. Never fails.
func (s *Session) ConfigSchemas() []ConfigSchemaItem {
	return CloneSchemas(s.schemas)
}

// RenderOptions returns a copy of the declared render options. Never fails.
func (s *Session) RenderOptions() RenderOptions {
	return s.render.Clone()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Gate returns the session's logging gate.
func (s *Session) Gate() *Gate {
	return s.gate
}

// Init latches the log threshold, validates configs against the schema and
// initializes the parser. Any failure leaves the session Failed.
func (s *Session) Init(general GeneralConfig, configs []ConfigValueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnconfigured {
		return s.violation("init")
	}

	s.gate.SetThreshold(general.LogLevel)
	s.gate.setSessionID(general.SessionID)
	logger := s.gate.Logger()

	resolved, unknown, err := ResolveConfigs(s.schemas, configs)
	for _, id := range unknown {
		logger.Warn("ignoring unknown config id", "id", id)
	}
	if err != nil {
		return s.failInit(err)
	}

	if err := s.callInit(InitParams{General: general, Configs: resolved, Logger: logger}); err != nil {
		return s.failInit(err)
	}

	s.state = StateInitialized
	logger.Debug("plugin initialized", "version", s.version.String(), "configs", resolved.Len())
	return nil
}

func (s *Session) callInit(params InitParams) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewInitError(InitOther, fmt.Sprintf("panic during init: %v", r), nil)
		}
	}()
	return s.parser.Init(params)
}

func (s *Session) failInit(err error) error {
	s.state = StateFailed
	var initErr *InitError
	if !errors.As(err, &initErr) {
		initErr = NewInitError(InitOther, "parser init failed", err)
	}
	s.gate.Log(LevelError, "init failed", slog.String("kind", string(initErr.Kind)), slog.String("error", initErr.Error()))
	return initErr
}

// Parse hands data to the parser and checks the result against the consumed
// bytes rule and the declared render mode. The returned result shares no
// memory with data.
func (s *Session) Parse(data []byte, maybeTimestamp *uint64) (ParseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.CanParse() {
		return ParseResult{}, s.violation("parse")
	}

	result, err := s.callParse(data, maybeTimestamp)
	if err != nil {
		return ParseResult{}, s.failParse(err)
	}
	if err := s.checkResult(result, len(data)); err != nil {
		return ParseResult{}, s.failParse(NewUnrecoverableError("parser broke the output contract", err))
	}

	s.state = StateParsing
	return result.detach(), nil
}

func (s *Session) callParse(data []byte, maybeTimestamp *uint64) (result ParseResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewUnrecoverableError(fmt.Sprintf("panic during parse: %v", r), nil)
		}
	}()
	return s.parser.Parse(data, maybeTimestamp)
}

func (s *Session) failParse(err error) error {
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		parseErr = NewParseError("parser returned an error", err)
	}
	if !parseErr.Recoverable() {
		s.state = StateFailed
		s.gate.Log(LevelError, "parse failed, session is no longer usable", slog.String("error", parseErr.Error()))
	} else {
		s.gate.Log(LevelWarn, "parse failed", slog.String("kind", string(parseErr.Kind)), slog.String("error", parseErr.Error()))
	}
	return parseErr
}

func (s *Session) checkResult(result ParseResult, inputLen int) error {
	return CheckResult(s.render, result, inputLen)
}

// CheckResult verifies that result consumes no more than inputLen bytes and
// that every message matches the render options. Hosts run it on results
// decoded from the wire.
func CheckResult(render RenderOptions, result ParseResult, inputLen int) error {
	remaining := uint64(inputLen) //nolint:gosec // G115: lengths are non-negative
	for i, item := range result.Items {
		if item.Consumed > remaining {
			return fmt.Errorf("item %d consumes %d bytes, only %d left of %d", i, item.Consumed, remaining, inputLen)
		}
		remaining -= item.Consumed
		if err := render.CheckMessage(item.Value); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func (s *Session) violation(op string) error {
	err := &ProtocolError{Op: op, State: s.state}
	s.gate.Log(LevelError, err.Error())
	return err
}
