// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package module builds named resources from typed input and delivers
// them to request handlers, server side renderers, static renderers and
// long lived providers.
package module

import (
	"context"
	"fmt"

	"github.com/z5labs/outcome/internal/try"
)

// Builder builds an Out from an In.
type Builder[In, Out any] interface {
	Build(ctx context.Context, in In) (Out, error)
}

// BuilderFunc is a functional implementation of the [Builder] interface.
type BuilderFunc[In, Out any] func(context.Context, In) (Out, error)

// Build implements the [Builder] interface.
func (f BuilderFunc[In, Out]) Build(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}

// Map returns a [Builder] which transforms the output of b with f.
func Map[In, A, B any](b Builder[In, A], f func(A) (B, error)) Builder[In, B] {
	return BuilderFunc[In, B](func(ctx context.Context, in In) (B, error) {
		var zero B

		a, err := b.Build(ctx, in)
		if err != nil {
			return zero, err
		}

		v, err := f(a)
		if err != nil {
			return zero, err
		}
		return v, nil
	})
}

// Bind returns a [Builder] which builds with b and then with the
// [Builder] f returns for its output. Both receive the same input.
func Bind[In, A, B any](b Builder[In, A], f func(A) Builder[In, B]) Builder[In, B] {
	return BuilderFunc[In, B](func(ctx context.Context, in In) (B, error) {
		var zero B

		a, err := b.Build(ctx, in)
		if err != nil {
			return zero, err
		}

		v, err := f(a).Build(ctx, in)
		if err != nil {
			return zero, err
		}
		return v, nil
	})
}

// Recover returns a [Builder] which turns panics in b into a
// [try.PanicError].
func Recover[In, Out any](b Builder[In, Out]) Builder[In, Out] {
	return BuilderFunc[In, Out](func(ctx context.Context, in In) (out Out, err error) {
		defer try.Recover(&err)

		return b.Build(ctx, in)
	})
}

// Module is a named [Builder].
type Module[In, Out any] struct {
	Name    string
	Builder Builder[In, Out]
}

// New returns a [Module] whose builds never panic.
func New[In, Out any](name string, b Builder[In, Out]) Module[In, Out] {
	return Module[In, Out]{
		Name:    name,
		Builder: Recover(b),
	}
}

// Build builds the module output and wraps any failure in a [BuildError].
func (m Module[In, Out]) Build(ctx context.Context, in In) (Out, error) {
	out, err := m.Builder.Build(ctx, in)
	if err != nil {
		var zero Out
		return zero, BuildError{Module: m.Name, Cause: err}
	}
	return out, nil
}

// BuildError is returned when a [Module] fails to build.
type BuildError struct {
	Module string
	Cause  error
}

// Error implements the [error] interface.
func (e BuildError) Error() string {
	return fmt.Sprintf("failed to build module %s: %s", e.Module, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e BuildError) Unwrap() error {
	return e.Cause
}
