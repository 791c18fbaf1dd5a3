// Package board launches a TensorBoard server over a training log directory.
package board

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync/atomic"
	"time"

	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
)

// Defaults applied by Launch.
const (
	DefaultBinary      = "tensorboard"
	DefaultHost        = "localhost"
	DefaultPort        = 6006
	DefaultStopTimeout = 5 * time.Second
)

// Options configures Launch.
type Options struct {
	// Binary is the executable name or path. Default: "tensorboard".
	Binary string
	// LogDir is created if it does not exist.
	LogDir string
	Host   string
	Port   int
	// Args are appended after the generated flags.
	Args []string
	// Output receives the server's stdout and stderr. Nil discards it.
	Output io.Writer
	// StopTimeout bounds how long Stop waits after interrupting before
	// killing the process.
	StopTimeout time.Duration
	Logger      *slog.Logger
}

// Server is a running visualization server.
type Server struct {
	url     string
	cmd     *exec.Cmd
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	stopped atomic.Bool
}

// Launch starts the server and returns once the process is running.
// It does not wait for the server to accept connections.
func Launch(ctx context.Context, opts Options) (*Server, error) {
	if opts.LogDir == "" {
		return nil, ckerr.Misuse("log_dir", "a log directory is required")
	}
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}

	bin, err := exec.LookPath(opts.Binary)
	if err != nil {
		return nil, ckerr.Misuse("binary", fmt.Sprintf("%s not found: %v", opts.Binary, err))
	}

	if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", opts.LogDir, err)
	}

	args := append([]string{
		"--logdir", opts.LogDir,
		"--host", opts.Host,
		"--port", strconv.Itoa(opts.Port),
	}, opts.Args...)

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Stdout = opts.Output
	cmd.Stderr = opts.Output
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = opts.StopTimeout

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", opts.Binary, err)
	}

	s := &Server{
		url:    "http://" + net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)) + "/",
		cmd:    cmd,
		ctx:    runCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		s.err = cmd.Wait()
		cancel()
		close(s.done)
	}()

	if opts.Logger != nil {
		opts.Logger.Info("board started",
			slog.String("url", s.url),
			slog.String("log_dir", opts.LogDir),
			slog.Int("pid", cmd.Process.Pid),
		)
	}
	return s, nil
}

// URL returns the address the server listens on.
func (s *Server) URL() string {
	return s.url
}

// Context is canceled once the process exits or Stop is called.
func (s *Server) Context() context.Context {
	return s.ctx
}

// Wait blocks until the process exits. A process ended by Stop is not
// an error.
func (s *Server) Wait() error {
	<-s.done
	if s.stopped.Load() {
		return nil
	}
	return s.err
}

// Stop interrupts the process and waits for it to exit.
// If it had already exited on its own, its exit error is returned.
func (s *Server) Stop() error {
	select {
	case <-s.done:
		if s.stopped.Load() {
			return nil
		}
		return s.err
	default:
	}
	s.stopped.Store(true)
	s.cancel()
	<-s.done
	return nil
}
