// Package apperrors defines application-level error types.
package apperrors

import (
	"fmt"
)

// ValidationError indicates plugin metadata or configuration failed validation.
type ValidationError struct {
	Field   string   // Field that failed validation
	Message string   // Error message
	Details []string // Additional details
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s (%d issues)", e.Field, e.Message, len(e.Details))
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, details ...string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: details,
	}
}

// PluginError indicates a plugin could not be loaded or broke the ABI
// (missing export, unreadable memory, undecodable response).
type PluginError struct {
	Cause   error
	Plugin  string
	Op      string
	Message string
}

func (e *PluginError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("plugin %s: %s: %s: %v", e.Plugin, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("plugin %s: %s: %s", e.Plugin, e.Op, e.Message)
}

func (e *PluginError) Unwrap() error {
	return e.Cause
}

// NewPluginError creates a new plugin error.
func NewPluginError(plugin, op, message string, cause error) *PluginError {
	return &PluginError{
		Plugin:  plugin,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// ConfigurationError indicates system config or setup issue.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}
