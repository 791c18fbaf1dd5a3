// Package errors defines the error taxonomy shared by the remote store,
// the transfer executor and the checkpointer.
//
// Errors fall into three categories:
//   - Transient: a later attempt may succeed (network, throttling).
//   - Permanent: retrying will not help (not found, access denied, bad credentials).
//   - Misuse: the caller configured something incorrectly.
//
// Nothing in this module retries. The category is advisory so callers
// driving a training loop can decide whether to restart an epoch.
package errors

import (
	"errors"
	"fmt"
)

// Category represents how an error should be handled by the caller.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	// Examples: connection resets, throttling, timeouts.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retry won't help.
	// Examples: missing objects, denied access, rejected credentials.
	CategoryPermanent

	// CategoryMisuse indicates the caller passed invalid configuration.
	CategoryMisuse
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryMisuse:
		return "misuse"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with an explicit category.
// Backends use it to mark failures whose category cannot be derived
// from the error type alone.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s)", e.Context, e.Err, e.Category)
	}
	return fmt.Sprintf("%s (category: %s)", e.Err, e.Category)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// Transient creates a transient error.
func Transient(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryTransient, context)
}

// Permanent creates a permanent error.
func Permanent(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryPermanent, context)
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent // shouldn't happen, fail safe
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	var misuse *MisuseError
	if errors.As(err, &misuse) {
		return CategoryMisuse
	}

	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return CategoryPermanent
	}

	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAccessDenied) {
		return CategoryPermanent
	}

	// Transfers fail mid-stream mostly on network trouble.
	var transferErr *TransferError
	if errors.As(err, &transferErr) {
		return CategoryTransient
	}

	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return CategoryTransient
	}

	// Unknown errors are permanent (fail safe)
	return CategoryPermanent
}

// IsRetryable reports whether a later attempt could succeed.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}

// IsMisuse reports whether the error was caused by caller misconfiguration.
func IsMisuse(err error) bool {
	return Categorize(err) == CategoryMisuse
}
