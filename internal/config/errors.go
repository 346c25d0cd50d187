package config

import (
	"fmt"
	"strings"
)

// MissingKeysError reports required keys absent from every configuration
// source. Keys holds the canonical spellings in declaration order.
type MissingKeysError struct {
	Path string
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("%s: missing required keys: %s", e.Path, strings.Join(e.Keys, ", "))
}

// InvalidEventIDError reports an eventID value that is not a non-negative
// integer.
type InvalidEventIDError struct {
	Path  string
	Value string
}

func (e *InvalidEventIDError) Error() string {
	return fmt.Sprintf("%s: eventID %q must be a non-negative integer", e.Path, e.Value)
}

// UnreadableError reports a configuration file that could not be read.
type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("reading config %s: %v", e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() error {
	return e.Err
}

// ValidationError reports a configuration value that is present but
// malformed. Field holds the canonical key name when the failure is tied to
// a single key.
type ValidationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s': %s", e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}
