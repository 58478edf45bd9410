// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package problem

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/z5labs/outcome/internal/slogfield"
	"github.com/z5labs/outcome/internal/try"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Reporter receives every problem a [Transformer] creates.
type Reporter interface {
	Report(ctx context.Context, err error, attrs map[string]string)
}

// ReporterFunc is a func adapter for [Reporter].
type ReporterFunc func(context.Context, error, map[string]string)

// Report implements the [Reporter] interface.
func (f ReporterFunc) Report(ctx context.Context, err error, attrs map[string]string) {
	f(ctx, err, attrs)
}

// NoOpReporter discards every report.
type NoOpReporter struct{}

// Report implements the [Reporter] interface.
func (NoOpReporter) Report(context.Context, error, map[string]string) {}

// SessionBaggageKey is the baggage member used to correlate reports
// with a user session.
const SessionBaggageKey = "session.id"

// OTelReporterOption configures an [OTelReporter].
type OTelReporterOption func(*OTelReporter)

// LogHandler configures the [slog.Handler] reports are logged to.
func LogHandler(h slog.Handler) OTelReporterOption {
	return func(r *OTelReporter) {
		r.log = slog.New(h)
	}
}

// OTelReporter records problems on the active span of the report context
// and logs them.
type OTelReporter struct {
	log *slog.Logger
}

// NewOTelReporter returns an [OTelReporter] which logs nowhere unless
// [LogHandler] is given.
func NewOTelReporter(opts ...OTelReporterOption) *OTelReporter {
	r := &OTelReporter{
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report implements the [Reporter] interface. Trace, span and session
// ids are resolved best effort and never cause a report to fail.
func (r *OTelReporter) Report(ctx context.Context, err error, attrs map[string]string) {
	if err == nil {
		return
	}

	keys := slices.Sorted(maps.Keys(attrs))
	kvs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, attribute.String(k, attrs[k]))
	}

	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(kvs...))
	span.SetStatus(codes.Error, err.Error())

	ids := correlationIDs(ctx)
	r.log.ErrorContext(
		ctx,
		"reported problem",
		slogfield.Error(err),
		slogfield.StringMap("attributes", attrs),
		slogfield.StringMap("correlation", ids),
	)
}

func correlationIDs(ctx context.Context) map[string]string {
	ids := make(map[string]string, 3)
	panicked, _ := try.Call(func() {
		sc := trace.SpanContextFromContext(ctx)
		if sc.HasTraceID() {
			ids["trace_id"] = sc.TraceID().String()
		}
		if sc.HasSpanID() {
			ids["span_id"] = sc.SpanID().String()
		}
		if session := baggage.FromContext(ctx).Member(SessionBaggageKey).Value(); session != "" {
			ids["session_id"] = session
		}
	})
	if panicked {
		return map[string]string{}
	}
	return ids
}
