// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package module

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"sync"

	"github.com/z5labs/outcome/internal/slogfield"
	"github.com/z5labs/outcome/internal/try"
	"github.com/z5labs/outcome/problem"
)

// State is the lifecycle state of a [Provider].
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Failed
)

// String implements the [fmt.Stringer] interface.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// NotReadyError is returned when a [Provider] resource is requested
// before a successful load.
type NotReadyError struct {
	Module string
	State  State
}

// Error implements the [error] interface.
func (e NotReadyError) Error() string {
	return fmt.Sprintf("module %s is not ready: %s", e.Module, e.State)
}

type attempt[In, Out any] struct {
	input In
	done  chan struct{}
	out   Out
	err   error
}

// ProviderOption configures a [Provider].
type ProviderOption func(*providerOptions)

type providerOptions struct {
	driverOptions

	transformer *problem.Transformer
}

// ProviderLogHandler configures the [slog.Handler] load failures are
// logged to.
func ProviderLogHandler(h slog.Handler) ProviderOption {
	return func(po *providerOptions) {
		po.log = slog.New(h)
	}
}

// ProviderDevelopment exposes the real load error in the error panel.
func ProviderDevelopment(enabled bool) ProviderOption {
	return func(po *providerOptions) {
		po.development = enabled
	}
}

// Transformer converts load failures into problems and reports them.
func Transformer(t *problem.Transformer) ProviderOption {
	return func(po *providerOptions) {
		po.transformer = t
	}
}

// Provider holds the output of a [Module] for as long as its input stays
// the same.
type Provider[In, Out any] struct {
	m    Module[In, Out]
	opts providerOptions

	mu  sync.Mutex
	cur *attempt[In, Out]
}

// NewProvider returns an uninitialized [Provider] for m.
func NewProvider[In, Out any](m Module[In, Out], opts ...ProviderOption) *Provider[In, Out] {
	po := providerOptions{
		driverOptions: driverOptions{
			log: slog.New(slog.DiscardHandler),
		},
	}
	for _, opt := range opts {
		opt(&po)
	}
	return &Provider[In, Out]{
		m:    m,
		opts: po,
	}
}

// Name returns the name of the provided [Module].
func (p *Provider[In, Out]) Name() string {
	return p.m.Name
}

// Load builds the module for in unless the current or in flight build
// already used an input equal to in, in which case its outcome is
// shared. A failed build is not retried for the same input.
func (p *Provider[In, Out]) Load(ctx context.Context, in In) error {
	p.mu.Lock()
	a := p.cur
	if a != nil && reflect.DeepEqual(a.input, in) {
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.done:
			return a.err
		}
	}

	a = &attempt[In, Out]{
		input: in,
		done:  make(chan struct{}),
	}
	p.cur = a
	p.mu.Unlock()

	p.build(ctx, a)
	if a.err != nil {
		p.opts.log.ErrorContext(ctx, "failed to load module", slogfield.Module(p.m.Name), slogfield.Error(a.err))
	}
	return a.err
}

// build always completes a, even when the builder panics. Modules
// declared without [New] are not wrapped in [Recover].
func (p *Provider[In, Out]) build(ctx context.Context, a *attempt[In, Out]) {
	defer close(a.done)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		a.err = BuildError{Module: p.m.Name, Cause: try.PanicError{Value: r}}
	}()

	a.out, a.err = p.m.Build(ctx, a.input)
}

func (p *Provider[In, Out]) current() *attempt[In, Out] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur
}

// State returns the current [State].
func (p *Provider[In, Out]) State() State {
	a := p.current()
	if a == nil {
		return Uninitialized
	}
	select {
	case <-a.done:
	default:
		return Loading
	}
	if a.err != nil {
		return Failed
	}
	return Ready
}

// Resource returns the built output. It fails with a [NotReadyError]
// before the first build completes and with the [BuildError] of a
// failed build.
func (p *Provider[In, Out]) Resource() (Out, error) {
	var zero Out

	a := p.current()
	if a == nil {
		return zero, NotReadyError{Module: p.m.Name, State: Uninitialized}
	}
	select {
	case <-a.done:
	default:
		return zero, NotReadyError{Module: p.m.Name, State: Loading}
	}
	if a.err != nil {
		return zero, a.err
	}
	return a.out, nil
}

// Healthy reports whether the resource is ready.
func (p *Provider[In, Out]) Healthy(context.Context) bool {
	return p.State() == Ready
}

type providerKey string

// Middleware stores the resource in the request context for [Use].
// Requests arriving while the resource is unavailable are answered with
// a 500 problem and never reach next.
func (p *Provider[In, Out]) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out, err := p.Resource()
		if err != nil {
			problem.WriteProblem(w, p.errorPanel(r, err))
			return
		}

		ctx := context.WithValue(r.Context(), providerKey(p.m.Name), out)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (p *Provider[In, Out]) errorPanel(r *http.Request, err error) problem.Problem {
	detail := InitializationErrorMessage(p.m.Name)
	if p.opts.development {
		detail = err.Error()
	}

	if p.opts.transformer == nil {
		return problem.Problem{
			Type:     "about:blank",
			Title:    http.StatusText(http.StatusInternalServerError),
			Status:   http.StatusInternalServerError,
			Detail:   detail,
			Instance: r.URL.Path,
		}
	}

	pb := p.opts.transformer.FromError(r.Context(), err, problem.WithInstance(r.URL.Path))
	if !p.opts.development {
		pb.Detail = detail
		pb.Extensions = nil
	}
	pb.Status = http.StatusInternalServerError
	return pb
}

// UsedOutsideProviderError is the panic value of [Use] when no
// [Provider] for the module stored a resource in the context.
type UsedOutsideProviderError struct {
	Module string
}

// Error implements the [error] interface.
func (e UsedOutsideProviderError) Error() string {
	return fmt.Sprintf("module %s used outside provider", e.Module)
}

// FromContext returns the resource a [Provider] for m stored in ctx.
func FromContext[In, Out any](ctx context.Context, m Module[In, Out]) (Out, bool) {
	out, ok := ctx.Value(providerKey(m.Name)).(Out)
	return out, ok
}

// Use returns the resource a [Provider] for m stored in ctx and panics
// with a [UsedOutsideProviderError] if there is none.
func Use[In, Out any](ctx context.Context, m Module[In, Out]) Out {
	out, ok := FromContext(ctx, m)
	if !ok {
		panic(UsedOutsideProviderError{Module: m.Name})
	}
	return out
}
