package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
)

// Session gates every backend operation behind a successful Authenticate.
type Session struct {
	backend Backend
	logger  *slog.Logger

	mu            sync.RWMutex
	authenticated bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the session logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession wraps a backend. The session starts unauthenticated.
func NewSession(backend Backend, opts ...SessionOption) *Session {
	s := &Session{backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the wrapped backend.
func (s *Session) Backend() Backend {
	return s.backend
}

// Authenticate establishes the session. Calling it again after success
// is a no-op.
func (s *Session) Authenticate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authenticated {
		return nil
	}
	if err := s.backend.Authenticate(ctx); err != nil {
		return &ckerr.AuthenticationError{Backend: s.backend.Name(), Err: err}
	}
	s.authenticated = true
	if s.logger != nil {
		s.logger.Debug("remote session authenticated", slog.String("backend", s.backend.Name()))
	}
	return nil
}

// Authenticated reports whether Authenticate has succeeded.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Session) check() error {
	if !s.Authenticated() {
		return &ckerr.AuthenticationError{Backend: s.backend.Name(), Err: ckerr.ErrNotAuthenticated}
	}
	return nil
}

// Find returns every item whose name contains name, in listing order.
// Folders match as well as files. The result may be empty.
func (s *Session) Find(ctx context.Context, name string) ([]Item, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	items, err := s.backend.List(ctx)
	if err != nil {
		return nil, backendError("find", name, err)
	}

	matches := []Item{}
	for _, it := range expandFolders(items) {
		if strings.Contains(it.Name, name) {
			matches = append(matches, it)
		}
	}
	return matches, nil
}

// NewUpload prepares a chunked upload.
func (s *Session) NewUpload(ctx context.Context, req UploadRequest) (Upload, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.backend.NewUpload(ctx, req)
}

// NewDownload prepares a chunked download of item into w.
func (s *Session) NewDownload(ctx context.Context, item Item, w io.Writer) (Chunker, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.backend.NewDownload(ctx, item, w)
}

// Delete removes the item from the store.
func (s *Session) Delete(ctx context.Context, item Item) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, item); err != nil {
		return backendError("delete", item.ID, err)
	}
	return nil
}

func backendError(op, item string, err error) error {
	var be *ckerr.BackendError
	if errors.As(err, &be) {
		return err
	}
	return &ckerr.BackendError{Op: op, Item: item, Err: err}
}
