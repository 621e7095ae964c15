package pricing

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a malformed ServiceConfig. It is raised at
// configuration-save time and when the engine cannot dispatch on the model.
type ConfigurationError struct {
	Model  string
	Issues []string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Issues) == 0 {
		return fmt.Sprintf("pricing: invalid service config (model %q)", e.Model)
	}
	return fmt.Sprintf("pricing: invalid service config (model %q): %s", e.Model, strings.Join(e.Issues, "; "))
}

// UnknownFrequencyError signals a frequency key that matches neither the
// built-in multipliers nor the tenant's custom options. The caller decides
// whether to reject the request or surface the allowed keys to the user.
type UnknownFrequencyError struct {
	Key     string
	Allowed []string
}

// Error implements the error interface.
func (e *UnknownFrequencyError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("pricing: unknown frequency %q (allowed: %s)", e.Key, strings.Join(e.Allowed, ", "))
}

// InvariantViolationError indicates the assembled breakdown failed the
// accounting identity. It always means an engine bug, never user error, and
// must be surfaced loudly.
type InvariantViolationError struct {
	Expected Money
	Got      Money
	Detail   string
}

// Error implements the error interface.
func (e *InvariantViolationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("pricing: accounting invariant violated (%s): expected %d, got %d", e.Detail, e.Expected, e.Got)
}
