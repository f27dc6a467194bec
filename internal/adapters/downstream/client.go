package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/checkman123/OpenTelemetry/internal/faults"
	"github.com/checkman123/OpenTelemetry/internal/logging"
	"github.com/checkman123/OpenTelemetry/internal/tracing"
)

// Client is stateless per call and safe for concurrent use.
type Client struct {
	factory ClientFactory
	tracer  trace.Tracer
}

func NewClient(factory ClientFactory, tp trace.TracerProvider) *Client {
	return &Client{factory: factory, tracer: tp.Tracer(tracing.InstrumentationName)}
}

type callOptions struct {
	headers http.Header
}

type CallOption func(*callOptions)

// WithHeader sets a request header before trace context is injected, so a
// caller-supplied traceparent wins.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) { o.headers.Set(key, value) }
}

// Call posts env to the named endpoint and decodes data into T.
//
// A non-2xx status yields (nil, nil). A reply with errors yields an
// *faults.ApplicationError wrapping faults.ErrRemoteErrors; one with null data
// and no errors wraps faults.ErrEmptyResult. Transport and decoding failures
// are *faults.TransportError.
func Call[T any](ctx context.Context, c *Client, endpoint string, env Envelope, opts ...CallOption) (*T, error) {
	ep, err := c.factory.Endpoint(endpoint)
	if err != nil {
		return nil, err
	}

	o := callOptions{headers: http.Header{}}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := c.tracer.Start(ctx, "graphql "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(tracing.DownstreamName.String(endpoint)),
	)
	defer span.End()

	fail := func(op string, err error) (*T, error) {
		terr := &faults.TransportError{Op: op, Target: endpoint, Err: err}
		span.RecordError(terr)
		span.SetStatus(codes.Error, terr.Error())
		return nil, terr
	}

	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fail("build request", err)
	}
	for k, v := range o.headers {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	tracing.InjectContext(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := ep.HTTP.Do(req)
	if err != nil {
		return fail("call", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(tracing.HTTPStatusCode.Int(resp.StatusCode))

	if Classify(resp.StatusCode, 0, true) == OutcomeUnavailable {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		span.SetAttributes(tracing.DownstreamOutcome.String(OutcomeUnavailable.String()))
		span.SetStatus(codes.Error, resp.Status)
		logging.LogWarnCtx(ctx, "downstream unavailable", nil, logrus.Fields{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
		})
		return nil, nil
	}

	var r Response[T]
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fail("decode", err)
	}

	outcome := Classify(resp.StatusCode, len(r.Errors), r.Data != nil)
	span.SetAttributes(tracing.DownstreamOutcome.String(outcome.String()))

	var aerr *faults.ApplicationError
	switch outcome {
	case OutcomeRemoteErrors:
		aerr = faults.NewRemoteErrors(endpoint, r.messages())
	case OutcomeEmptyResult:
		aerr = faults.NewEmptyResult(endpoint)
	default:
		return r.Data, nil
	}
	span.RecordError(aerr)
	span.SetStatus(codes.Error, aerr.Error())
	return nil, aerr
}
