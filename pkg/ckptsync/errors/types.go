package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for remote store operations.
// Backends wrap these so callers can use errors.Is.
var (
	// ErrNotAuthenticated indicates an operation ran before Authenticate succeeded.
	ErrNotAuthenticated = errors.New("session not authenticated")

	// ErrNotFound indicates the remote item does not exist.
	ErrNotFound = errors.New("remote item not found")

	// ErrAccessDenied indicates the caller lacks permission on the item.
	ErrAccessDenied = errors.New("remote access denied")
)

// AuthenticationError indicates the backend session is not established
// or the backend rejected the credentials.
type AuthenticationError struct {
	Backend string
	Err     error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("authenticate %s: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("authenticate: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// BackendError indicates a remote API failure (not found, permission, network).
type BackendError struct {
	// Op is the operation that failed ("find", "delete", ...).
	Op string
	// Item is the remote item ID or search term involved, if any.
	Item string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("remote %s %q: %v", e.Op, e.Item, e.Err)
	}
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// TransferError indicates an upload or download failed mid-stream.
// A failed download may leave a truncated file at Path.
type TransferError struct {
	// Op is "upload" or "download".
	Op string
	// Path is the local file path.
	Path string
	// Item is the remote item ID, if known.
	Item string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *TransferError) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Path, e.Item, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransferError) Unwrap() error {
	return e.Err
}

// MisuseError indicates a caller passed invalid or missing configuration.
// It is always raised before any remote call is made.
type MisuseError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *MisuseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid usage: %s", e.Message)
}

// Misuse creates a MisuseError for the given field.
func Misuse(field, message string) *MisuseError {
	return &MisuseError{Field: field, Message: message}
}
