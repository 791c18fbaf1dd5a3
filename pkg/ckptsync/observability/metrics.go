package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records transfer and checkpoint metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordTransfer records an upload or download with its size, duration and error status.
	RecordTransfer(ctx context.Context, op string, sizeBytes int64, duration time.Duration, err error)

	// RecordDelete records a remote delete.
	RecordDelete(ctx context.Context, err error)

	// RecordEpochDecision records the checkpointer outcome for one epoch.
	RecordEpochDecision(ctx context.Context, outcome string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	transfers       metric.Int64Counter
	transferBytes   metric.Int64Counter
	transferLatency metric.Float64Histogram
	transferErrors  metric.Int64Counter
	deletes         metric.Int64Counter
	decisions       metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("ckptsync")

	transfers, err := meter.Int64Counter("ckptsync.transfer.count",
		metric.WithDescription("Number of uploads and downloads"),
	)
	if err != nil {
		return nil, err
	}

	transferBytes, err := meter.Int64Counter("ckptsync.transfer.bytes",
		metric.WithDescription("Bytes moved by completed transfers"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	transferLatency, err := meter.Float64Histogram("ckptsync.transfer.latency_ms",
		metric.WithDescription("Transfer latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	transferErrors, err := meter.Int64Counter("ckptsync.transfer.errors",
		metric.WithDescription("Number of failed transfers"),
	)
	if err != nil {
		return nil, err
	}

	deletes, err := meter.Int64Counter("ckptsync.remote.deletes",
		metric.WithDescription("Number of remote deletes"),
	)
	if err != nil {
		return nil, err
	}

	decisions, err := meter.Int64Counter("ckptsync.epoch.decisions",
		metric.WithDescription("Checkpointer decisions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		transfers:       transfers,
		transferBytes:   transferBytes,
		transferLatency: transferLatency,
		transferErrors:  transferErrors,
		deletes:         deletes,
		decisions:       decisions,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordTransfer records a transfer.
func (m *otelMetrics) RecordTransfer(ctx context.Context, op string, sizeBytes int64, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", op))

	m.transfers.Add(ctx, 1, attrs)
	m.transferLatency.Record(ctx, float64(duration.Milliseconds()), attrs)

	if err != nil {
		m.transferErrors.Add(ctx, 1, attrs)
		return
	}
	m.transferBytes.Add(ctx, sizeBytes, attrs)
}

// RecordDelete records a remote delete.
func (m *otelMetrics) RecordDelete(ctx context.Context, err error) {
	m.deletes.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", err == nil)))
}

// RecordEpochDecision records a checkpointer decision.
func (m *otelMetrics) RecordEpochDecision(ctx context.Context, outcome string) {
	m.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
