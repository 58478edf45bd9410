// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// TracingConfig configures the process wide tracer provider.
type TracingConfig struct {
	ServiceName string  `config:"serviceName"`
	SampleRatio float64 `config:"sampleRatio"`
}

// TracingOption
type TracingOption func(*tracingOptions)

type tracingOptions struct {
	exporter sdktrace.SpanExporter
	w        io.Writer
}

// SpanExporter overrides the default exporter, which discards spans.
func SpanExporter(e sdktrace.SpanExporter) TracingOption {
	return func(to *tracingOptions) {
		to.exporter = e
	}
}

// WriteSpans exports spans as JSON to w.
func WriteSpans(w io.Writer) TracingOption {
	return func(to *tracingOptions) {
		to.w = w
	}
}

// InitTracing installs a global tracer provider and W3C trace context
// plus baggage propagation. The returned hook flushes and shuts the
// provider down and is meant to be used as a [Lifecycle] PostRun hook.
func InitTracing(ctx context.Context, cfg TracingConfig, opts ...TracingOption) (LifecycleHook, error) {
	to := &tracingOptions{}
	for _, opt := range opts {
		opt(to)
	}

	if to.exporter == nil && to.w != nil {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(to.w))
		if err != nil {
			return nil, err
		}
		to.exporter = exp
	}

	r, err := resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, err
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(r),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}
	if to.exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(to.exporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return LifecycleHookFunc(tp.Shutdown), nil
}
