package parsersdk

import (
	"errors"
	"fmt"
)

// InitErrorKind classifies init failures.
type InitErrorKind string

const (
	// InitMissingConfig means a declared config value was not supplied.
	InitMissingConfig InitErrorKind = "missing-config"
	// InitInvalidConfig means a value failed type or range validation.
	InitInvalidConfig InitErrorKind = "invalid-config"
	// InitIO means an external resource could not be acquired.
	InitIO InitErrorKind = "io"
	// InitUnsupported means the requested setup is not supported.
	InitUnsupported InitErrorKind = "unsupported"
	// InitOther covers everything else.
	InitOther InitErrorKind = "other"
)

// InitError is returned by init. The plugin instance must not be used afterwards.
type InitError struct {
	Kind    InitErrorKind
	ID      string // Config ID for config errors
	Message string
	Cause   error
}

func (e *InitError) Error() string {
	msg := fmt.Sprintf("init failed (%s): %s", e.Kind, e.Message)
	if e.ID != "" {
		msg = fmt.Sprintf("init failed (%s): %s: %s", e.Kind, e.ID, e.Message)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *InitError) Unwrap() error {
	return e.Cause
}

// NewInitError creates an InitError.
func NewInitError(kind InitErrorKind, message string, cause error) *InitError {
	return &InitError{Kind: kind, Message: message, Cause: cause}
}

// NewMissingConfigError reports a declared config ID with no value.
func NewMissingConfigError(id string) *InitError {
	return &InitError{Kind: InitMissingConfig, ID: id, Message: "value not provided"}
}

// NewInvalidConfigError reports a config value that failed validation.
func NewInvalidConfigError(id, reason string) *InitError {
	return &InitError{Kind: InitInvalidConfig, ID: id, Message: reason}
}

// ParseErrorKind classifies parse failures.
type ParseErrorKind string

const (
	// ParseMalformed is a recoverable error in the supplied bytes.
	ParseMalformed ParseErrorKind = "parse"
	// ParseIncomplete means more input is needed; recoverable.
	ParseIncomplete ParseErrorKind = "incomplete"
	// ParseUnrecoverable means the session is broken and moves to Failed.
	ParseUnrecoverable ParseErrorKind = "unrecoverable"
)

// ParseError is returned by parse. It is distinct from a successful result with
// no output.
type ParseError struct {
	Kind    ParseErrorKind
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse failed (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse failed (%s): %s", e.Kind, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Recoverable reports whether the session can keep parsing after this error.
func (e *ParseError) Recoverable() bool {
	return e.Kind != ParseUnrecoverable
}

// NewParseError creates a recoverable ParseError.
func NewParseError(message string, cause error) *ParseError {
	return &ParseError{Kind: ParseMalformed, Message: message, Cause: cause}
}

// NewUnrecoverableError creates a ParseError that fails the session.
func NewUnrecoverableError(message string, cause error) *ParseError {
	return &ParseError{Kind: ParseUnrecoverable, Message: message, Cause: cause}
}

// ErrProtocolViolation is wrapped by every ProtocolError.
var ErrProtocolViolation = errors.New("protocol violation")

// ProtocolError reports an operation called out of order, e.g. parse before a
// successful init or init twice. It signals a host bug.
type ProtocolError struct {
	Op    string
	State State
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s called in state %s", ErrProtocolViolation, e.Op, e.State)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocolViolation
}
