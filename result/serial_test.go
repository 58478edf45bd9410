// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package result

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func TestResult_Serial(t *testing.T) {
	t.Run("ok result encodes as an ok tuple", func(t *testing.T) {
		r := Ok[string, fieldError]("Email is valid!")

		s := r.Serial()
		require.Equal(t, TagOk, s.Tag)
		require.Equal(t, "Email is valid!", s.Value)

		b, err := json.Marshal(s)
		require.NoError(t, err)
		require.JSONEq(t, `["ok","Email is valid!"]`, string(b))
	})

	t.Run("err result encodes as an err tuple", func(t *testing.T) {
		r := Err[string](fieldError{Field: "email", Message: "required"})

		b, err := json.Marshal(r)
		require.NoError(t, err)
		require.JSONEq(t, `["err",{"field":"email","message":"required"}]`, string(b))
	})

	t.Run("in-flight results are resolved before encoding", func(t *testing.T) {
		r := Async(func() Result[int, string] {
			return Ok[int, string](10)
		})

		b, err := json.Marshal(r)
		require.NoError(t, err)
		require.JSONEq(t, `["ok",10]`, string(b))
	})
}

func TestSerial_RoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		result Result[string, fieldError]
	}{
		{
			name:   "ok",
			result: Ok[string, fieldError]("Email is valid!"),
		},
		{
			name:   "ok with empty value",
			result: Ok[string, fieldError](""),
		},
		{
			name:   "err",
			result: Err[string](fieldError{Field: "email", Message: "required"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(tc.result.Serial())
			require.NoError(t, err)

			var s Serial[string, fieldError]
			err = json.Unmarshal(b, &s)
			require.NoError(t, err)

			decoded := FromSerial(s)
			expectedVal, expectedErr, expectedOk := tc.result.Get()
			val, e, ok := decoded.Get()
			require.Equal(t, expectedOk, ok)
			require.Equal(t, expectedVal, val)
			require.Equal(t, expectedErr, e)
		})
	}
}

func TestSerial_UnmarshalJSON(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the array does not have exactly 2 elements", func(t *testing.T) {
			var s Serial[int, string]
			err := json.Unmarshal([]byte(`["ok",1,2]`), &s)

			var merr MalformedSerialError
			if !assert.ErrorAs(t, err, &merr) {
				return
			}
			if !assert.Equal(t, 3, merr.Len) {
				return
			}
		})

		t.Run("if the tag is unknown", func(t *testing.T) {
			var s Serial[int, string]
			err := json.Unmarshal([]byte(`["maybe",1]`), &s)

			var terr InvalidTagError
			if !assert.ErrorAs(t, err, &terr) {
				return
			}
			if !assert.Equal(t, Tag("maybe"), terr.Tag) {
				return
			}
		})

		t.Run("if it's not an array", func(t *testing.T) {
			var s Serial[int, string]
			err := json.Unmarshal([]byte(`{"ok":1}`), &s)
			if !assert.Error(t, err) {
				return
			}
		})
	})

	t.Run("will decode into a result", func(t *testing.T) {
		var r Result[int, string]
		err := json.Unmarshal([]byte(`["err","nope"]`), &r)
		require.NoError(t, err)
		require.True(t, r.IsErr())
	})
}

func TestSerial_MarshalJSON(t *testing.T) {
	_, err := json.Marshal(Serial[int, string]{})

	var terr InvalidTagError
	require.True(t, errors.As(err, &terr))
}

func TestFromSerialAsync(t *testing.T) {
	t.Run("resolves the fetched serial form", func(t *testing.T) {
		r := FromSerialAsync(
			func() (Serial[int, string], error) {
				return Serial[int, string]{Tag: TagOk, Value: 5}, nil
			},
			func(err error) string { return err.Error() },
		)
		require.Equal(t, 5, r.Unwrap())
	})

	t.Run("maps transport faults into the error channel", func(t *testing.T) {
		r := FromSerialAsync(
			func() (Serial[int, string], error) {
				return Serial[int, string]{}, errors.New("connection reset")
			},
			func(err error) string { return "fault: " + err.Error() },
		)
		_, e, ok := r.Get()
		require.False(t, ok)
		require.Equal(t, "fault: connection reset", e)
	})
}
