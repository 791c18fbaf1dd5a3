package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns a function to collect metrics.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	// Save the original provider
	originalProvider := otel.GetMeterProvider()

	// Set test provider
	otel.SetMeterProvider(provider)

	// Return cleanup function
	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// hasDatapoint reports whether a Sum has a datapoint with the given attribute.
func hasDatapoint(t *testing.T, m *metricdata.Metrics, key, value string) bool {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	for _, dp := range sum.DataPoints {
		for _, attr := range dp.Attributes.ToSlice() {
			if string(attr.Key) == key && attr.Value.Emit() == value && dp.Value >= 1 {
				return true
			}
		}
	}
	return false
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordTransfer(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records count, bytes and latency", func(t *testing.T) {
		m.RecordTransfer(ctx, "upload", 4096, 50*time.Millisecond, nil)

		rm := collectMetrics(t, reader)

		count := findMetric(rm, "ckptsync.transfer.count")
		require.NotNil(t, count)
		assert.True(t, hasDatapoint(t, count, "operation", "upload"))

		bytes := findMetric(rm, "ckptsync.transfer.bytes")
		require.NotNil(t, bytes)
		assert.True(t, hasDatapoint(t, bytes, "operation", "upload"))

		latency := findMetric(rm, "ckptsync.transfer.latency_ms")
		require.NotNil(t, latency)
		hist, ok := latency.Data.(metricdata.Histogram[float64])
		require.True(t, ok, "Expected Histogram type")
		require.NotEmpty(t, hist.DataPoints)
	})

	t.Run("records errors when present", func(t *testing.T) {
		m.RecordTransfer(ctx, "download", 0, 10*time.Millisecond, errors.New("reset"))

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "ckptsync.transfer.errors")
		require.NotNil(t, metric)
		assert.True(t, hasDatapoint(t, metric, "operation", "download"))
	})
}

func TestRecordDelete(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordDelete(context.Background(), nil)
	m.RecordDelete(context.Background(), errors.New("denied"))

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "ckptsync.remote.deletes")
	require.NotNil(t, metric)
	assert.True(t, hasDatapoint(t, metric, "success", "true"))
	assert.True(t, hasDatapoint(t, metric, "success", "false"))
}

func TestRecordEpochDecision(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordEpochDecision(context.Background(), "improved")
	m.RecordEpochDecision(context.Background(), "no_improvement")

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "ckptsync.epoch.decisions")
	require.NotNil(t, metric)
	assert.True(t, hasDatapoint(t, metric, "outcome", "improved"))
	assert.True(t, hasDatapoint(t, metric, "outcome", "no_improvement"))
}
