// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package module

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/z5labs/outcome/internal/slogfield"
)

// HandlerFunc handles a request with the output of a [Module].
type HandlerFunc[Out any] func(w http.ResponseWriter, r *http.Request, out Out)

type driverOptions struct {
	log         *slog.Logger
	development bool
}

// Option configures the delivery of a [Module].
type Option func(*driverOptions)

// LogHandler configures the [slog.Handler] build failures are logged to.
func LogHandler(h slog.Handler) Option {
	return func(do *driverOptions) {
		do.log = slog.New(h)
	}
}

// Development exposes the real build error message in responses.
func Development(enabled bool) Option {
	return func(do *driverOptions) {
		do.development = enabled
	}
}

func newDriverOptions(opts []Option) driverOptions {
	do := driverOptions{
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&do)
	}
	return do
}

// ErrorResponse is the JSON body written when a module fails to build
// for an API request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// InitializationErrorMessage is the message shown in place of a build
// error outside of development.
func InitializationErrorMessage(name string) string {
	return name + " initialization error occurred"
}

// WithAPI returns a [http.Handler] which builds m for every request and
// passes the output to h. A failed build is answered with a 500 JSON
// [ErrorResponse] and never reaches h.
func WithAPI[In, Out any](m Module[In, Out], input In, h HandlerFunc[Out], opts ...Option) http.Handler {
	do := newDriverOptions(opts)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		out, err := m.Build(ctx, input)
		if err != nil {
			do.log.ErrorContext(ctx, "failed to build module for request", slogfield.Module(m.Name), slogfield.Error(err))

			msg := InitializationErrorMessage(m.Name)
			if do.development {
				msg = err.Error()
			}
			writeErrorResponse(w, ErrorResponse{
				Error:   http.StatusText(http.StatusInternalServerError),
				Message: msg,
			})
			return
		}

		h(w, r, out)
	})
}

func writeErrorResponse(w http.ResponseWriter, resp ErrorResponse) {
	b, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, resp.Message, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write(b)
}

// WithServerSide returns a function which builds m on every invocation
// and renders with its output. Build failures are returned as a
// [BuildError] for the caller to handle.
func WithServerSide[In, Out, R any](m Module[In, Out], input In, render func(context.Context, Out) (R, error)) func(context.Context) (R, error) {
	return deliver(m, input, render)
}

// WithStatic is like [WithServerSide] but for output generated ahead of
// serving, such as pre rendered documents.
func WithStatic[In, Out, R any](m Module[In, Out], input In, generate func(context.Context, Out) (R, error)) func(context.Context) (R, error) {
	return deliver(m, input, generate)
}

func deliver[In, Out, R any](m Module[In, Out], input In, f func(context.Context, Out) (R, error)) func(context.Context) (R, error) {
	return func(ctx context.Context) (R, error) {
		out, err := m.Build(ctx, input)
		if err != nil {
			var zero R
			return zero, err
		}
		return f(ctx, out)
	}
}
