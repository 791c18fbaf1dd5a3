package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTracingTest creates a test tracer provider with an in-memory span recorder.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	// Update the package-level tracer
	tracer = otel.Tracer("ckptsync")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}

	return exporter, cleanup
}

func attrValue(attrs []attribute.KeyValue, key string) attribute.Value {
	for _, attr := range attrs {
		if string(attr.Key) == key {
			return attr.Value
		}
	}
	return attribute.Value{}
}

func TestStartEpochSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	m := NewSpanManager()
	ctx, span := m.StartEpochSpan(context.Background(), "run-123", 7)
	require.NotNil(t, span)
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "ckptsync.epoch", spans[0].Name)
	assert.Equal(t, "run-123", attrValue(spans[0].Attributes, "run.id").AsString())
	assert.Equal(t, int64(7), attrValue(spans[0].Attributes, "epoch").AsInt64())
}

func TestStartTransferSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	m := NewSpanManager()

	t.Run("is a child of the epoch span", func(t *testing.T) {
		exporter.Reset()

		ctx, epochSpan := m.StartEpochSpan(context.Background(), "run", 1)
		_, transferSpan := m.StartTransferSpan(ctx, "upload", "model_1.h5")
		transferSpan.End()
		epochSpan.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 2)

		child := spans[0]
		parent := spans[1]
		assert.Equal(t, "ckptsync.transfer.upload", child.Name)
		assert.Equal(t, "model_1.h5", attrValue(child.Attributes, "transfer.path").AsString())
		assert.Equal(t, parent.SpanContext.SpanID(), child.Parent.SpanID())
		assert.Equal(t, trace.SpanKindClient, child.SpanKind)
	})
}

func TestEndSpanWithError(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	t.Run("sets error status", func(t *testing.T) {
		exporter.Reset()

		_, span := NewSpanManager().StartTransferSpan(context.Background(), "download", "m.h5")
		EndSpanWithError(span, errors.New("truncated"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "truncated", spans[0].Status.Description)
		require.NotEmpty(t, spans[0].Events)
		assert.Equal(t, "exception", spans[0].Events[0].Name)
	})

	t.Run("sets ok status", func(t *testing.T) {
		exporter.Reset()

		_, span := NewSpanManager().StartTransferSpan(context.Background(), "delete", "m.h5")
		NewSpanManager().EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			EndSpanWithError(nil, errors.New("x"))
		})
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	t.Run("adds event to recording span", func(t *testing.T) {
		exporter.Reset()

		ctx, span := NewSpanManager().StartEpochSpan(context.Background(), "run", 0)
		AddSpanEvent(ctx, "no_improvement", attribute.Int("epoch", 0))
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		require.Len(t, spans[0].Events, 1)
		assert.Equal(t, "no_improvement", spans[0].Events[0].Name)
	})

	t.Run("no span in context does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			AddSpanEvent(context.Background(), "event")
		})
	})
}
