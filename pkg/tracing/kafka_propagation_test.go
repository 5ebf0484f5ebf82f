package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func withPropagator(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })
}

func remoteSpanContext(t *testing.T) trace.SpanContext {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
}

func TestKafkaHeaders_RoundTrip(t *testing.T) {
	withPropagator(t)
	sc := remoteSpanContext(t)
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := InjectKafkaHeaders(ctx, []kafka.Header{{Key: "event_type", Value: []byte("OrderPlaced")}})
	assert.Equal(t, "OrderPlaced", HeaderValue(headers, "event_type"))
	assert.NotEmpty(t, HeaderValue(headers, TraceparentHeader))

	out := trace.SpanContextFromContext(ExtractKafkaHeaders(context.Background(), headers))
	assert.Equal(t, sc.TraceID(), out.TraceID())
	assert.Equal(t, sc.SpanID(), out.SpanID())
}

func TestTraceparent(t *testing.T) {
	withPropagator(t)
	assert.Empty(t, Traceparent(context.Background()))

	ctx := trace.ContextWithSpanContext(context.Background(), remoteSpanContext(t))
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", Traceparent(ctx))
}

func TestHeaderValue_Missing(t *testing.T) {
	assert.Empty(t, HeaderValue(nil, "x"))
}
