package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a conversation ID cannot be found
// in the store.
var ErrSessionNotFound = errors.New("session not found")

// ConfigError reports a broken tree definition: duplicate identifiers,
// indistinct disambiguation labels, and the like. Config errors are fatal
// and raised before the tree handles any input.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// NewConfigError builds a ConfigError from a format string.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// ProtocolError reports a violation of the per-turn control protocol,
// such as Handle running without a prior affirmative CanHandle, or
// initiative claimed without producing an act. Protocol errors are fatal.
type ProtocolError struct {
	ControlID string
	Phase     string
	Reason    string
}

func (e *ProtocolError) Error() string {
	if e.ControlID == "" {
		return fmt.Sprintf("protocol violation in %s: %s", e.Phase, e.Reason)
	}
	return fmt.Sprintf("protocol violation in %s of control %q: %s", e.Phase, e.ControlID, e.Reason)
}

// NewProtocolError builds a ProtocolError for the given control and phase.
func NewProtocolError(controlID, phase, format string, args ...any) *ProtocolError {
	return &ProtocolError{ControlID: controlID, Phase: phase, Reason: fmt.Sprintf(format, args...)}
}
