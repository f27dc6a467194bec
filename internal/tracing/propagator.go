package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	TraceparentHeader = "traceparent"
	TracestateHeader  = "tracestate"
)

// TraceContext is the W3C view of the span that is active in a context.
type TraceContext struct {
	TraceID    trace.TraceID
	SpanID     trace.SpanID
	Flags      trace.TraceFlags
	TraceState string
}

// Traceparent renders version-traceId-spanId-flags.
func (tc TraceContext) Traceparent() string {
	return fmt.Sprintf("00-%s-%s-%s", tc.TraceID, tc.SpanID, tc.Flags)
}

// Current returns the trace context of the span carried by ctx.
// The second result is false when ctx holds no valid span.
func Current(ctx context.Context) (TraceContext, bool) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return TraceContext{}, false
	}
	return TraceContext{
		TraceID:    sc.TraceID(),
		SpanID:     sc.SpanID(),
		Flags:      sc.TraceFlags(),
		TraceState: sc.TraceState().String(),
	}, true
}

// Inject writes traceparent and, when set, tracestate into the carrier.
// A header that already has a value in the carrier is left untouched.
func Inject(tc TraceContext, carrier propagation.TextMapCarrier) {
	if carrier.Get(TraceparentHeader) == "" {
		carrier.Set(TraceparentHeader, tc.Traceparent())
	}
	if tc.TraceState != "" && carrier.Get(TracestateHeader) == "" {
		carrier.Set(TracestateHeader, tc.TraceState)
	}
}

// InjectContext injects the span of ctx, if any, into the carrier.
func InjectContext(ctx context.Context, carrier propagation.TextMapCarrier) {
	tc, ok := Current(ctx)
	if !ok {
		return
	}
	Inject(tc, carrier)
}

// Extract returns ctx with the remote span context found in the carrier.
// Missing or malformed headers leave ctx unchanged.
func Extract(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return propagation.TraceContext{}.Extract(ctx, carrier)
}
