// Package apperr classifies pipeline failures so the HTTP layer can map
// them to status codes without string matching.
package apperr

import "fmt"

// ValidationError means the caller supplied bad or missing input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation creates a ValidationError with a formatted message.
func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError means the external API failed or returned a malformed
// or error-bearing response.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream wraps err as an UpstreamError.
func Upstream(err error, format string, args ...any) error {
	return &UpstreamError{Message: fmt.Sprintf(format, args...), Err: err}
}

// StorageError means a store connection, read or write failed.
type StorageError struct {
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError.
func Storage(err error, format string, args ...any) error {
	return &StorageError{Message: fmt.Sprintf(format, args...), Err: err}
}
