// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package result

import (
	"context"
	"errors"
	"fmt"

	"github.com/z5labs/outcome/internal/try"
	"github.com/z5labs/outcome/option"
)

type outcome[T, E any] struct {
	value  T
	err    E
	failed bool
}

type cell[T, E any] struct {
	done     chan struct{}
	out      outcome[T, E]
	panicked bool
	panicVal any
}

// Result holds either a success value of type T or an error of type E.
// The zero value is Ok with the zero value of T.
type Result[T, E any] struct {
	out     outcome[T, E]
	pending *cell[T, E]
}

// Ok returns a resolved successful [Result].
func Ok[T, E any](v T) Result[T, E] {
	return Result[T, E]{out: outcome[T, E]{value: v}}
}

// Err returns a resolved failed [Result].
func Err[T, E any](e E) Result[T, E] {
	return Result[T, E]{out: outcome[T, E]{err: e, failed: true}}
}

// FromTuple adapts the conventional (value, error) pair.
func FromTuple[T any](v T, err error) Result[T, error] {
	if err != nil {
		return Err[T](err)
	}
	return Ok[T, error](v)
}

// FromOption returns Ok for Some and otherwise the Result produced by fallback.
func FromOption[T, E any](o option.Option[T], fallback func() Result[T, E]) Result[T, E] {
	v, ok := o.Get()
	if ok {
		return Ok[T, E](v)
	}
	return fallback()
}

// Async lifts f into an in-flight [Result]. f starts running immediately
// in a new goroutine.
func Async[T, E any](f func() Result[T, E]) Result[T, E] {
	return spawn(func() outcome[T, E] {
		return f().resolve()
	})
}

// ErrClosedChannel is raised when the channel given to [FromAsync] is
// closed without delivering a Result.
var ErrClosedChannel = errors.New("result: channel closed before a result was delivered")

// FromAsync flattens a Result which will be delivered on ch.
func FromAsync[T, E any](ch <-chan Result[T, E]) Result[T, E] {
	return spawn(func() outcome[T, E] {
		r, ok := <-ch
		if !ok {
			panic(ErrClosedChannel)
		}
		return r.resolve()
	})
}

func spawn[T, E any](f func() outcome[T, E]) Result[T, E] {
	c := &cell[T, E]{
		done: make(chan struct{}),
	}
	go func() {
		defer close(c.done)

		c.panicked, c.panicVal = try.Call(func() {
			c.out = f()
		})
	}()
	return Result[T, E]{pending: c}
}

func (r Result[T, E]) resolve() outcome[T, E] {
	if r.pending == nil {
		return r.out
	}
	<-r.pending.done
	if r.pending.panicked {
		panic(try.PanicError{Value: r.pending.panicVal})
	}
	return r.pending.out
}

// then applies f once r resolves. Resolved Results are handled
// synchronously, in-flight Results produce another in-flight Result.
func then[T, E, U, F any](r Result[T, E], f func(outcome[T, E]) Result[U, F]) Result[U, F] {
	if r.pending == nil {
		return f(r.out)
	}
	return spawn(func() outcome[U, F] {
		return f(r.resolve()).resolve()
	})
}

func from[T, E any](o outcome[T, E]) Result[T, E] {
	return Result[T, E]{out: o}
}

// Resolved reports whether r has finished resolving. It never blocks.
func (r Result[T, E]) Resolved() bool {
	if r.pending == nil {
		return true
	}
	select {
	case <-r.pending.done:
		return true
	default:
		return false
	}
}

// Await waits for r to resolve or ctx to be done, whichever happens first.
// The returned Result is always resolved when the error is nil.
func (r Result[T, E]) Await(ctx context.Context) (Result[T, E], error) {
	if r.pending == nil {
		return r, nil
	}
	select {
	case <-ctx.Done():
		return Result[T, E]{}, ctx.Err()
	case <-r.pending.done:
		return from(r.resolve()), nil
	}
}

// IsOk reports whether r resolved successfully. It blocks until r resolves.
func (r Result[T, E]) IsOk() bool {
	return !r.resolve().failed
}

// IsErr reports whether r resolved to an error. It blocks until r resolves.
func (r Result[T, E]) IsErr() bool {
	return r.resolve().failed
}

// Get returns the success value, the error and whether r succeeded.
// It blocks until r resolves.
func (r Result[T, E]) Get() (T, E, bool) {
	o := r.resolve()
	return o.value, o.err, !o.failed
}

// Ok returns the success value as an [option.Option].
func (r Result[T, E]) Ok() option.Option[T] {
	o := r.resolve()
	if o.failed {
		return option.None[T]()
	}
	return option.Some(o.value)
}

// Err returns the error as an [option.Option].
func (r Result[T, E]) Err() option.Option[E] {
	o := r.resolve()
	if !o.failed {
		return option.None[E]()
	}
	return option.Some(o.err)
}

// UnwrapError is the panic value raised by [Result.Unwrap].
type UnwrapError struct {
	Value any
}

// Error implements the [error] interface.
func (e UnwrapError) Error() string {
	return fmt.Sprintf("result: unwrapped an error result: %v", e.Value)
}

// Unwrap returns the carried error if it implements [error].
func (e UnwrapError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Unwrap returns the success value or panics with an [UnwrapError]
// carrying the error.
func (r Result[T, E]) Unwrap() T {
	o := r.resolve()
	if o.failed {
		panic(UnwrapError{Value: o.err})
	}
	return o.value
}

// UnwrapOr returns the success value or fallback.
func (r Result[T, E]) UnwrapOr(fallback T) T {
	o := r.resolve()
	if o.failed {
		return fallback
	}
	return o.value
}

// Run calls f with the success value and returns a Result equal to r.
// A panic raised by f is recovered and discarded.
func (r Result[T, E]) Run(f func(T)) Result[T, E] {
	return then(r, func(o outcome[T, E]) Result[T, E] {
		if !o.failed {
			_, _ = try.Call(func() {
				f(o.value)
			})
		}
		return from(o)
	})
}

// RunErr is the error channel counterpart of [Result.Run].
func (r Result[T, E]) RunErr(f func(E)) Result[T, E] {
	return then(r, func(o outcome[T, E]) Result[T, E] {
		if o.failed {
			_, _ = try.Call(func() {
				f(o.err)
			})
		}
		return from(o)
	})
}

// Match calls exactly one of onOk or onErr once r resolves.
func Match[T, E, R any](r Result[T, E], onOk func(T) R, onErr func(E) R) R {
	o := r.resolve()
	if o.failed {
		return onErr(o.err)
	}
	return onOk(o.value)
}

// Map transforms the success value. Errors pass through untouched.
func Map[T, U, E any](r Result[T, E], f func(T) U) Result[U, E] {
	return then(r, func(o outcome[T, E]) Result[U, E] {
		if o.failed {
			return Err[U](o.err)
		}
		return Ok[U, E](f(o.value))
	})
}

// MapErr transforms the error. Success values pass through untouched.
func MapErr[T, E, F any](r Result[T, E], f func(E) F) Result[T, F] {
	return then(r, func(o outcome[T, E]) Result[T, F] {
		if o.failed {
			return Err[T](f(o.err))
		}
		return Ok[T, F](o.value)
	})
}

// AndThen chains a fallible step onto r. f is not called when r fails.
func AndThen[T, U, E any](r Result[T, E], f func(T) Result[U, E]) Result[U, E] {
	return then(r, func(o outcome[T, E]) Result[U, E] {
		if o.failed {
			return Err[U](o.err)
		}
		return f(o.value)
	})
}

// OrElse chains a recovery step onto r. f is not called when r succeeds.
func OrElse[T, E, F any](r Result[T, E], f func(E) Result[T, F]) Result[T, F] {
	return then(r, func(o outcome[T, E]) Result[T, F] {
		if !o.failed {
			return Ok[T, F](o.value)
		}
		return f(o.err)
	})
}
