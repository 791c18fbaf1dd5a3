package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("ckptsync")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartEpochSpan starts a span covering one OnEpochEnd call.
	StartEpochSpan(ctx context.Context, runID string, epoch int) (context.Context, trace.Span)

	// StartTransferSpan starts a span for an upload, download or delete.
	// Inside an epoch it becomes a child of the epoch span.
	StartTransferSpan(ctx context.Context, op, path string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartEpochSpan starts a span for one epoch evaluation.
func (m *otelSpanManager) StartEpochSpan(ctx context.Context, runID string, epoch int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ckptsync.epoch",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("epoch", epoch),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartTransferSpan starts a span for a remote operation.
func (m *otelSpanManager) StartTransferSpan(ctx context.Context, op, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ckptsync.transfer."+op,
		trace.WithAttributes(
			attribute.String("transfer.operation", op),
			attribute.String("transfer.path", path),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
