package logging

import (
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// TraceHook copies the trace and span ids of the entry's context into the log
// fields. Entries without a context or without a valid span are left alone.
type TraceHook struct{}

func (TraceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (TraceHook) Fire(e *logrus.Entry) error {
	if e.Context == nil {
		return nil
	}
	sc := trace.SpanContextFromContext(e.Context)
	if !sc.IsValid() {
		return nil
	}
	if _, ok := e.Data["trace_id"]; !ok {
		e.Data["trace_id"] = sc.TraceID().String()
	}
	if _, ok := e.Data["span_id"]; !ok {
		e.Data["span_id"] = sc.SpanID().String()
	}
	return nil
}
