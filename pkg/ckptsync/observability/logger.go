// Package observability provides structured logging, metrics, and tracing
// for remote transfers and checkpoint decisions.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// EnrichLogger adds run context to a logger.
// Returns a new logger with run_id and epoch fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", 7)
//	enriched.Info("saving") // includes run_id, epoch
func EnrichLogger(logger *slog.Logger, runID string, epoch int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.Int("epoch", epoch),
	)
}

// LogTransferStart logs the start of an upload or download.
func LogTransferStart(logger *slog.Logger, op, path, item string) {
	if logger == nil {
		return
	}
	logger.Debug("transfer starting",
		slog.String("operation", op),
		slog.String("path", path),
		slog.String("item", item),
	)
}

// LogTransferComplete logs a finished transfer with its size and duration.
func LogTransferComplete(logger *slog.Logger, op, path, item string, sizeBytes int64, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("transfer completed",
		slog.String("operation", op),
		slog.String("path", path),
		slog.String("item", item),
		slog.Int64("size_bytes", sizeBytes),
		slog.String("size", humanize.Bytes(uint64(max(sizeBytes, 0)))),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogTransferError logs a failed transfer.
func LogTransferError(logger *slog.Logger, op, path string, err error) {
	if logger == nil {
		return
	}
	logger.Error("transfer failed",
		slog.String("operation", op),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
}

// LogRemoteDelete logs removal of a remote item.
func LogRemoteDelete(logger *slog.Logger, name, id string) {
	if logger == nil {
		return
	}
	logger.Info("remote item deleted",
		slog.String("name", name),
		slog.String("item", id),
	)
}

// LogEpochDecision logs the checkpointer's decision for one epoch.
func LogEpochDecision(logger *slog.Logger, epoch int, outcome, path string) {
	if logger == nil {
		return
	}
	logger.Info("epoch evaluated",
		slog.Int("epoch", epoch),
		slog.String("outcome", outcome),
		slog.String("path", path),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
