package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCategoryString(t *testing.T) {
	tests := []struct {
		category Category
		expected string
	}{
		{CategoryTransient, "transient"},
		{CategoryPermanent, "permanent"},
		{CategoryMisuse, "misuse"},
		{Category(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.category.String(); got != tt.expected {
				t.Errorf("Category(%d).String() = %s, want %s", tt.category, got, tt.expected)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Category
	}{
		{"nil error", nil, CategoryPermanent},
		{"misuse", Misuse("compare", "required"), CategoryMisuse},
		{"authentication", &AuthenticationError{Backend: "s3", Err: ErrNotAuthenticated}, CategoryPermanent},
		{"backend not found", &BackendError{Op: "delete", Item: "a", Err: ErrNotFound}, CategoryPermanent},
		{"backend access denied", &BackendError{Op: "find", Err: ErrAccessDenied}, CategoryPermanent},
		{"backend network", &BackendError{Op: "find", Err: errors.New("connection reset")}, CategoryTransient},
		{"transfer", &TransferError{Op: "upload", Path: "m.h5", Err: errors.New("eof")}, CategoryTransient},
		{"transfer wrapping not found", &TransferError{Op: "download", Err: ErrNotFound}, CategoryPermanent},
		{"categorized", Transient(errors.New("slow down"), "put"), CategoryTransient},
		{"wrapped categorized", fmt.Errorf("outer: %w", Permanent(errors.New("x"), "y")), CategoryPermanent},
		{"unknown", errors.New("unknown"), CategoryPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.err); got != tt.expected {
				t.Errorf("Categorize() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestCategorizedError(t *testing.T) {
	t.Run("error message with context", func(t *testing.T) {
		err := NewCategorized(errors.New("failed"), CategoryTransient, "upload part")
		expected := "upload part: failed (category: transient)"
		if got := err.Error(); got != expected {
			t.Errorf("Error() = %q, want %q", got, expected)
		}
	})

	t.Run("error message without context", func(t *testing.T) {
		err := &CategorizedError{Err: errors.New("failed"), Category: CategoryPermanent}
		if got := err.Error(); got != "failed (category: permanent)" {
			t.Errorf("Error() = %q", got)
		}
	})

	t.Run("unwrap", func(t *testing.T) {
		inner := errors.New("inner error")
		err := NewCategorized(inner, CategoryPermanent, "test")
		if !errors.Is(err, inner) {
			t.Error("Unwrap should return inner error")
		}
	})
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"auth with backend", &AuthenticationError{Backend: "minio", Err: ErrNotAuthenticated}, "authenticate minio: session not authenticated"},
		{"auth without backend", &AuthenticationError{Err: ErrNotAuthenticated}, "authenticate: session not authenticated"},
		{"backend with item", &BackendError{Op: "delete", Item: "ckpt/model_0.h5", Err: ErrNotFound}, `remote delete "ckpt/model_0.h5": remote item not found`},
		{"backend without item", &BackendError{Op: "list", Err: ErrAccessDenied}, "remote list: remote access denied"},
		{"transfer with item", &TransferError{Op: "download", Path: "/tmp/m", Item: "ckpt/m", Err: ErrNotFound}, "download /tmp/m (ckpt/m): remote item not found"},
		{"transfer without item", &TransferError{Op: "upload", Path: "m.h5", Err: errors.New("disk")}, "upload m.h5: disk"},
		{"misuse with field", Misuse("compare", "function is required"), "invalid compare: function is required"},
		{"misuse without field", &MisuseError{Message: "nope"}, "invalid usage: nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUnwrapChains(t *testing.T) {
	if !errors.Is(&BackendError{Op: "delete", Err: ErrNotFound}, ErrNotFound) {
		t.Error("BackendError should unwrap to ErrNotFound")
	}
	if !errors.Is(&AuthenticationError{Err: ErrNotAuthenticated}, ErrNotAuthenticated) {
		t.Error("AuthenticationError should unwrap to ErrNotAuthenticated")
	}
	if !errors.Is(&TransferError{Op: "upload", Err: ErrAccessDenied}, ErrAccessDenied) {
		t.Error("TransferError should unwrap to ErrAccessDenied")
	}
}

func TestHelperFunctions(t *testing.T) {
	transient := &BackendError{Op: "find", Err: errors.New("timeout")}
	permanent := &BackendError{Op: "find", Err: ErrNotFound}
	misuse := Misuse("path", "required")

	t.Run("IsRetryable", func(t *testing.T) {
		if !IsRetryable(transient) {
			t.Error("network failure should be retryable")
		}
		if IsRetryable(permanent) {
			t.Error("not found should not be retryable")
		}
	})

	t.Run("IsMisuse", func(t *testing.T) {
		if !IsMisuse(misuse) {
			t.Error("misuse error should be misuse")
		}
		if IsMisuse(permanent) {
			t.Error("not found should not be misuse")
		}
	})
}
