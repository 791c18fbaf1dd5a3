package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}

	assert.NotPanics(t, func() {
		m.RecordTransfer(context.Background(), "upload", 10, time.Millisecond, nil)
		m.RecordTransfer(context.Background(), "download", 0, 0, errors.New("x"))
		m.RecordDelete(context.Background(), nil)
		m.RecordEpochDecision(context.Background(), "improved")
	})
}

func TestNoopSpanManager(t *testing.T) {
	m := NoopSpanManager{}

	t.Run("returns context unchanged", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ctxKey{}, "v")

		got, span := m.StartEpochSpan(ctx, "run", 1)
		assert.Equal(t, ctx, got)
		assert.False(t, span.IsRecording())

		got, span = m.StartTransferSpan(ctx, "upload", "p")
		assert.Equal(t, ctx, got)
		assert.False(t, span.IsRecording())
	})

	t.Run("end and events do not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			_, span := m.StartTransferSpan(context.Background(), "delete", "p")
			m.EndSpanWithError(span, errors.New("x"))
			m.AddSpanEvent(context.Background(), "e", attribute.String("k", "v"))
		})
	})
}

type ctxKey struct{}
