package gqlbind

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failures of the generation pipeline.
var (
	// ErrFormatterUnavailable is returned when the source formatter is
	// missing or fails. The unformatted output is still written.
	ErrFormatterUnavailable = errors.New("gqlbind: formatter unavailable")

	// ErrFileSystem is returned when a temporary or output file cannot be
	// written, read or removed.
	ErrFileSystem = errors.New("gqlbind: file system error")

	// ErrPluginResolution is returned when a configured plugin name cannot
	// be resolved. It is reported before any schema is processed.
	ErrPluginResolution = errors.New("gqlbind: plugin resolution failed")
)

// FormatError represents a formatter that could not be run or that failed
// on a file.
type FormatError struct {
	Command string // Formatter command
	Path    string // File being formatted
	Err     error  // Underlying error
}

// Error returns the error string.
func (e *FormatError) Error() string {
	return fmt.Sprintf("gqlbind: format %s with %q: %v", e.Path, e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches FormatError.
// This allows errors.Is(formatErr, ErrFormatterUnavailable) to return true.
func (e *FormatError) Is(err error) bool {
	return err == ErrFormatterUnavailable
}

// NewFormatError returns a new FormatError.
func NewFormatError(command, path string, err error) *FormatError {
	return &FormatError{Command: command, Path: path, Err: err}
}

// IsFormatError returns true if the error is a FormatError.
func IsFormatError(err error) bool {
	if err == nil {
		return false
	}
	var e *FormatError
	return errors.As(err, &e)
}

// FileError represents a failed file system operation.
type FileError struct {
	Op   string // "create", "write", "read", "remove", "rename"
	Path string
	Err  error
}

// Error returns the error string.
func (e *FileError) Error() string {
	return fmt.Sprintf("gqlbind: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FileError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches FileError.
func (e *FileError) Is(err error) bool {
	return err == ErrFileSystem
}

// NewFileError returns a new FileError.
func NewFileError(op, path string, err error) *FileError {
	return &FileError{Op: op, Path: path, Err: err}
}

// IsFileError returns true if the error is a FileError.
func IsFileError(err error) bool {
	if err == nil {
		return false
	}
	var e *FileError
	return errors.As(err, &e)
}

// PluginError represents a plugin that could not be resolved or loaded.
type PluginError struct {
	Name   string // Plugin name
	Output string // Output path the plugin was configured for, if any
	Err    error  // Optional underlying error
}

// Error returns the error string.
func (e *PluginError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "gqlbind: plugin %q", e.Name)
	if e.Output != "" {
		fmt.Fprintf(&sb, " for %s", e.Output)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	} else {
		sb.WriteString(": not registered")
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *PluginError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches PluginError.
func (e *PluginError) Is(err error) bool {
	return err == ErrPluginResolution
}

// NewPluginError returns a new PluginError.
func NewPluginError(name, output string, err error) *PluginError {
	return &PluginError{Name: name, Output: output, Err: err}
}

// IsPluginError returns true if the error is a PluginError.
func IsPluginError(err error) bool {
	if err == nil {
		return false
	}
	var e *PluginError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "gqlbind: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("gqlbind: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
