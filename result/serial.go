// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package result

import (
	"encoding/json"
	"fmt"
)

// Tag discriminates the two states of a [Serial].
type Tag string

const (
	TagOk  Tag = "ok"
	TagErr Tag = "err"
)

// Serial is the wire form of a [Result]. It is encoded as a two element
// JSON array whose first element is the literal tag.
type Serial[T, E any] struct {
	Tag   Tag
	Value T
	Err   E
}

// InvalidTagError is returned when a [Serial] carries an unknown tag.
type InvalidTagError struct {
	Tag Tag
}

// Error implements the [error] interface.
func (e InvalidTagError) Error() string {
	return fmt.Sprintf("result: invalid serial tag: %q", string(e.Tag))
}

// MalformedSerialError is returned when decoding JSON which is not a
// two element array.
type MalformedSerialError struct {
	Len int
}

// Error implements the [error] interface.
func (e MalformedSerialError) Error() string {
	return fmt.Sprintf("result: serial form must be a 2 element array, got %d elements", e.Len)
}

// MarshalJSON implements the [json.Marshaler] interface.
func (s Serial[T, E]) MarshalJSON() ([]byte, error) {
	switch s.Tag {
	case TagOk:
		return json.Marshal([2]any{TagOk, s.Value})
	case TagErr:
		return json.Marshal([2]any{TagErr, s.Err})
	default:
		return nil, InvalidTagError{Tag: s.Tag}
	}
}

// UnmarshalJSON implements the [json.Unmarshaler] interface.
func (s *Serial[T, E]) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	err := json.Unmarshal(b, &parts)
	if err != nil {
		return err
	}
	if len(parts) != 2 {
		return MalformedSerialError{Len: len(parts)}
	}

	var tag Tag
	err = json.Unmarshal(parts[0], &tag)
	if err != nil {
		return err
	}

	var out Serial[T, E]
	out.Tag = tag
	switch tag {
	case TagOk:
		err = json.Unmarshal(parts[1], &out.Value)
	case TagErr:
		err = json.Unmarshal(parts[1], &out.Err)
	default:
		return InvalidTagError{Tag: tag}
	}
	if err != nil {
		return err
	}
	*s = out
	return nil
}

// Serial returns the wire form of r. It blocks until r resolves.
func (r Result[T, E]) Serial() Serial[T, E] {
	o := r.resolve()
	if o.failed {
		return Serial[T, E]{Tag: TagErr, Err: o.err}
	}
	return Serial[T, E]{Tag: TagOk, Value: o.value}
}

// MarshalJSON implements the [json.Marshaler] interface using the [Serial] form.
func (r Result[T, E]) MarshalJSON() ([]byte, error) {
	return r.Serial().MarshalJSON()
}

// UnmarshalJSON implements the [json.Unmarshaler] interface using the [Serial] form.
func (r *Result[T, E]) UnmarshalJSON(b []byte) error {
	var s Serial[T, E]
	err := s.UnmarshalJSON(b)
	if err != nil {
		return err
	}
	*r = FromSerial(s)
	return nil
}

// FromSerial reconstructs a resolved [Result] from its wire form.
// It panics with an [InvalidTagError] if s carries an unknown tag.
func FromSerial[T, E any](s Serial[T, E]) Result[T, E] {
	switch s.Tag {
	case TagOk:
		return Ok[T, E](s.Value)
	case TagErr:
		return Err[T](s.Err)
	default:
		panic(InvalidTagError{Tag: s.Tag})
	}
}

// FromSerialAsync reconstructs a [Result] from a wire form which is
// still being fetched. Transport failures returned by f are mapped into
// the error channel with onFault.
func FromSerialAsync[T, E any](f func() (Serial[T, E], error), onFault func(error) E) Result[T, E] {
	return spawn(func() outcome[T, E] {
		s, err := f()
		if err != nil {
			return outcome[T, E]{err: onFault(err), failed: true}
		}
		return FromSerial(s).resolve()
	})
}
