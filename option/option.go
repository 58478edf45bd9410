// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package option provides a container for values which may or may not be present.
//
// An [Option] is either None or Some(v). Emptiness is always expressed
// with None, never by wrapping a nil pointer or zero value in Some.
package option

import (
	"bytes"
	"encoding/json"
)

// Option represents an optional value. The zero value is None.
type Option[T any] struct {
	value T
	some  bool
}

// Some returns an [Option] containing v.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, some: true}
}

// None returns an empty [Option].
func None[T any]() Option[T] {
	return Option[T]{}
}

// FromPtr returns None for a nil pointer and Some of the dereferenced value otherwise.
func FromPtr[T any](p *T) Option[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// IsSome reports whether a value is present.
func (o Option[T]) IsSome() bool {
	return o.some
}

// IsNone reports whether the value is absent.
func (o Option[T]) IsNone() bool {
	return !o.some
}

// Get returns the contained value and whether it was present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.some
}

// UnwrapOr returns the contained value or fallback.
func (o Option[T]) UnwrapOr(fallback T) T {
	if o.some {
		return o.value
	}
	return fallback
}

// UnwrapOrElse returns the contained value or the value computed by f.
// f is only called when o is None.
func (o Option[T]) UnwrapOrElse(f func() T) T {
	if o.some {
		return o.value
	}
	return f()
}

// Ptr returns a reference to a copy of the contained value, or nil.
func (o Option[T]) Ptr() *T {
	if !o.some {
		return nil
	}
	v := o.value
	return &v
}

// Map transforms the contained value, if present.
func Map[T, U any](o Option[T], f func(T) U) Option[U] {
	if !o.some {
		return None[U]()
	}
	return Some(f(o.value))
}

// AndThen chains an optional computation onto o.
func AndThen[T, U any](o Option[T], f func(T) Option[U]) Option[U] {
	if !o.some {
		return None[U]()
	}
	return f(o.value)
}

// Or returns o if it is Some, otherwise other.
func Or[T any](o Option[T], other Option[T]) Option[T] {
	if o.some {
		return o
	}
	return other
}

var null = []byte("null")

// MarshalJSON implements the [json.Marshaler] interface. None is encoded as null.
func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.some {
		return null, nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON implements the [json.Unmarshaler] interface. null decodes to None.
func (o *Option[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), null) {
		*o = None[T]()
		return nil
	}

	var v T
	err := json.Unmarshal(b, &v)
	if err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
