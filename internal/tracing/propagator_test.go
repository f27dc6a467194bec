package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func spanContext(t *testing.T, state string) context.Context {
	t.Helper()
	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ts, err := trace.ParseTraceState(state)
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
		TraceState: ts,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestCurrentWithoutSpan(t *testing.T) {
	_, ok := Current(context.Background())
	assert.False(t, ok)

	h := http.Header{}
	InjectContext(context.Background(), propagation.HeaderCarrier(h))
	assert.Empty(t, h)
}

func TestInjectWritesTraceparentAndTracestate(t *testing.T) {
	ctx := spanContext(t, "vendor=abc")
	h := http.Header{}

	InjectContext(ctx, propagation.HeaderCarrier(h))

	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", h.Get(TraceparentHeader))
	assert.Equal(t, "vendor=abc", h.Get(TracestateHeader))
}

func TestInjectSkipsEmptyTracestate(t *testing.T) {
	h := http.Header{}
	InjectContext(spanContext(t, ""), propagation.HeaderCarrier(h))

	assert.NotEmpty(t, h.Get(TraceparentHeader))
	assert.Empty(t, h.Values(TracestateHeader))
}

func TestInjectNeverOverwrites(t *testing.T) {
	const callerParent = "00-11111111111111111111111111111111-2222222222222222-00"
	h := http.Header{}
	h.Set(TraceparentHeader, callerParent)
	h.Set(TracestateHeader, "caller=1")

	for i := 0; i < 3; i++ {
		InjectContext(spanContext(t, "vendor=abc"), propagation.HeaderCarrier(h))
	}

	assert.Equal(t, callerParent, h.Get(TraceparentHeader))
	assert.Equal(t, "caller=1", h.Get(TracestateHeader))
	assert.Len(t, h.Values(TraceparentHeader), 1)
}

func TestKafkaHeaderRoundTrip(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	var headers []kafka.Header
	InjectContext(ctx, NewHeaderCarrier(&headers))
	require.Len(t, headers, 1)

	got := trace.SpanContextFromContext(Extract(context.Background(), NewHeaderCarrier(&headers)))
	assert.True(t, got.IsRemote())
	assert.Equal(t, span.SpanContext().TraceID(), got.TraceID())
	assert.Equal(t, span.SpanContext().SpanID(), got.SpanID())
}

func TestHeaderCarrierIsCaseInsensitive(t *testing.T) {
	headers := []kafka.Header{{Key: "TraceParent", Value: []byte("x")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "x", c.Get("traceparent"))
	c.Set("traceparent", "y")
	assert.Len(t, headers, 1)
	assert.Equal(t, []string{"TraceParent"}, c.Keys())
}

func TestExtractIgnoresMalformedHeader(t *testing.T) {
	headers := []kafka.Header{{Key: TraceparentHeader, Value: []byte("garbage")}}
	ctx := Extract(context.Background(), NewHeaderCarrier(&headers))
	assert.False(t, trace.SpanContextFromContext(ctx).IsValid())
}
