// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpserver provides a HTTP runtime which serves registered
// handlers alongside startup, liveness and readiness endpoints.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/z5labs/outcome/health"
	"github.com/z5labs/outcome/internal/slogfield"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

// Health endpoint paths.
const (
	StartupPath   = "/health/startup"
	LivenessPath  = "/health/liveness"
	ReadinessPath = "/health/readiness"
)

type runtimeOptions struct {
	port            uint
	listener        net.Listener
	mux             *http.ServeMux
	logHandler      slog.Handler
	readiness       []health.Metric
	liveness        []health.Metric
	shutdownTimeout time.Duration
}

// RuntimeOption configures a [Runtime].
type RuntimeOption func(*runtimeOptions)

// ListenOnPort will configure the HTTP server to listen on the given port.
//
// Default port is 8080.
func ListenOnPort(port uint) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.port = port
	}
}

// Listener serves on ls instead of opening a listener for the configured port.
func Listener(ls net.Listener) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.listener = ls
	}
}

// LogHandler
func LogHandler(h slog.Handler) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.logHandler = h
	}
}

// Handle registers a http.Handler for the given path pattern.
func Handle(pattern string, h http.Handler) RuntimeOption {
	return func(ro *runtimeOptions) {
		registerEndpoint(ro.mux, pattern, h)
	}
}

// HandleFunc registers a http.HandlerFunc for the given path pattern.
func HandleFunc(pattern string, f func(http.ResponseWriter, *http.Request)) RuntimeOption {
	return func(ro *runtimeOptions) {
		registerEndpoint(ro.mux, pattern, http.HandlerFunc(f))
	}
}

// Routes lets f register any number of handlers, e.g. problem.Routes.
func Routes(f func(*http.ServeMux)) RuntimeOption {
	return func(ro *runtimeOptions) {
		f(ro.mux)
	}
}

// Readiness adds metrics which must all be healthy for the readiness
// endpoint to report 200.
func Readiness(metrics ...health.Metric) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.readiness = append(ro.readiness, metrics...)
	}
}

// Liveness adds metrics which must all be healthy for the liveness
// endpoint to report 200.
func Liveness(metrics ...health.Metric) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.liveness = append(ro.liveness, metrics...)
	}
}

// ShutdownTimeout bounds how long in-flight requests are given to
// complete once the run context is cancelled.
//
// Default is 10 seconds.
func ShutdownTimeout(d time.Duration) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.shutdownTimeout = d
	}
}

// Runtime
type Runtime struct {
	port            uint
	listener        net.Listener
	listen          func(string, string) (net.Listener, error)
	shutdownTimeout time.Duration

	log *slog.Logger
	h   http.Handler

	started *health.Binary
}

// NewRuntime
func NewRuntime(opts ...RuntimeOption) *Runtime {
	ros := &runtimeOptions{
		port:            8080,
		mux:             http.NewServeMux(),
		logHandler:      slog.DiscardHandler,
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(ros)
	}

	rt := &Runtime{
		port:            ros.port,
		listener:        ros.listener,
		listen:          net.Listen,
		shutdownTimeout: ros.shutdownTimeout,
		log:             slog.New(ros.logHandler),
		h:               ros.mux,
		started:         &health.Binary{},
	}

	registerEndpoint(ros.mux, http.MethodGet+" "+StartupPath, health.Handler(rt.started))
	registerEndpoint(
		ros.mux,
		http.MethodGet+" "+LivenessPath,
		health.Handler(health.And(ros.liveness...)),
	)
	registerEndpoint(
		ros.mux,
		http.MethodGet+" "+ReadinessPath,
		health.Handler(health.And(append([]health.Metric{rt.started}, ros.readiness...)...)),
	)

	return rt
}

// Handler returns the routed handler without telemetry instrumentation.
func (rt *Runtime) Handler() http.Handler {
	return rt.h
}

// Run serves until ctx is cancelled, then gracefully shuts the server down.
func (rt *Runtime) Run(ctx context.Context) error {
	ls := rt.listener
	if ls == nil {
		var err error
		ls, err = rt.listen("tcp", fmt.Sprintf(":%d", rt.port))
		if err != nil {
			rt.log.ErrorContext(ctx, "failed to listen for connections", slogfield.Error(err))
			return err
		}
	}

	s := &http.Server{
		Handler: otelhttp.NewHandler(
			rt.h,
			"server",
			otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), rt.shutdownTimeout)
		defer cancel()
		defer rt.log.Info("shut down service")

		rt.log.Info("shutting down service")
		return s.Shutdown(ctx)
	})
	g.Go(func() error {
		rt.started.Set(true)
		defer rt.started.Set(false)

		rt.log.Info("started service", slogfield.String("addr", ls.Addr().String()))
		return s.Serve(ls)
	})

	err := g.Wait()
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	rt.log.ErrorContext(ctx, "service encountered unexpected error", slogfield.Error(err))
	return err
}

func registerEndpoint(mux *http.ServeMux, pattern string, h http.Handler) {
	mux.Handle(
		pattern,
		otelhttp.WithRouteTag(pattern, h),
	)
}
