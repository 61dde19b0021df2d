package errors

import (
	"errors"
	"fmt"
)

// ErrNothingToRender is returned when the active form encodes to an empty payload
var ErrNothingToRender = errors.New("nothing to render")

// ValidationError represents an error when validation fails
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// RenderError represents a failed render pass. Nothing from the pass is exposed.
type RenderError struct {
	Stage string
	Err   error
}

// Error returns the error message
func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed during %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error
func (e *RenderError) Unwrap() error {
	return e.Err
}

// StorageError represents a failure of the key-value medium
type StorageError struct {
	Op  string
	Key string
	Err error
}

// Error returns the error message
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// ExportError represents a failure of a download or clipboard export
type ExportError struct {
	Target  string
	Message string
	Err     error
}

// Error returns the error message
func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %s", e.Target, e.Message)
}

// Unwrap returns the underlying error
func (e *ExportError) Unwrap() error {
	return e.Err
}

// Suggestion names the alternate export path. With nothing rendered no path
// can succeed, so the user is asked to generate a code first.
func (e *ExportError) Suggestion() string {
	if errors.Is(e.Err, ErrNothingToRender) {
		return "There is no QR code yet. Fill in the form and generate one first."
	}
	if e.Target == "clipboard" {
		return "Failed to copy QR code. Please try downloading instead."
	}
	return "Failed to download QR code. Please try copying it instead."
}

// ConfigError represents an error related to configuration
type ConfigError struct {
	Section string
	Message string
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Section, e.Message)
}
