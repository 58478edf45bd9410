// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package option

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOption_Get(t *testing.T) {
	testCases := []struct {
		name        string
		option      Option[int]
		expectedVal int
		expectedOk  bool
	}{
		{
			name:        "some value",
			option:      Some(42),
			expectedVal: 42,
			expectedOk:  true,
		},
		{
			name:        "some zero value",
			option:      Some(0),
			expectedVal: 0,
			expectedOk:  true,
		},
		{
			name:        "none",
			option:      None[int](),
			expectedVal: 0,
			expectedOk:  false,
		},
		{
			name:        "zero value is none",
			option:      Option[int]{},
			expectedVal: 0,
			expectedOk:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			val, ok := tc.option.Get()
			require.Equal(t, tc.expectedOk, ok)
			require.Equal(t, tc.expectedVal, val)
			require.Equal(t, tc.expectedOk, tc.option.IsSome())
			require.Equal(t, !tc.expectedOk, tc.option.IsNone())
		})
	}
}

func TestFromPtr(t *testing.T) {
	t.Run("nil pointer is none", func(t *testing.T) {
		require.True(t, FromPtr[string](nil).IsNone())
	})

	t.Run("non-nil pointer is some", func(t *testing.T) {
		s := "hello"
		o := FromPtr(&s)
		v, ok := o.Get()
		require.True(t, ok)
		require.Equal(t, "hello", v)

		p := o.Ptr()
		require.NotNil(t, p)
		require.Equal(t, "hello", *p)
	})
}

func TestMap(t *testing.T) {
	t.Run("transforms some", func(t *testing.T) {
		o := Map(Some(7), strconv.Itoa)
		require.Equal(t, Some("7"), o)
	})

	t.Run("does not call the func for none", func(t *testing.T) {
		called := false
		o := Map(None[int](), func(i int) string {
			called = true
			return strconv.Itoa(i)
		})
		require.False(t, called)
		require.True(t, o.IsNone())
	})
}

func TestAndThen(t *testing.T) {
	parse := func(s string) Option[int] {
		n, err := strconv.Atoi(s)
		if err != nil {
			return None[int]()
		}
		return Some(n)
	}

	require.Equal(t, Some(12), AndThen(Some("12"), parse))
	require.True(t, AndThen(Some("twelve"), parse).IsNone())
	require.True(t, AndThen(None[string](), parse).IsNone())
}

func TestOption_UnwrapOr(t *testing.T) {
	require.Equal(t, 1, Some(1).UnwrapOr(2))
	require.Equal(t, 2, None[int]().UnwrapOr(2))

	calls := 0
	fallback := func() int {
		calls++
		return 3
	}
	require.Equal(t, 1, Some(1).UnwrapOrElse(fallback))
	require.Equal(t, 0, calls)
	require.Equal(t, 3, None[int]().UnwrapOrElse(fallback))
	require.Equal(t, 1, calls)
}

func TestOr(t *testing.T) {
	require.Equal(t, Some(1), Or(Some(1), Some(2)))
	require.Equal(t, Some(2), Or(None[int](), Some(2)))
}

func TestOption_JSON(t *testing.T) {
	type payload struct {
		Name Option[string] `json:"name"`
	}

	t.Run("none encodes as null", func(t *testing.T) {
		b, err := json.Marshal(payload{})
		require.NoError(t, err)
		require.JSONEq(t, `{"name":null}`, string(b))
	})

	t.Run("some encodes as the value", func(t *testing.T) {
		b, err := json.Marshal(payload{Name: Some("ada")})
		require.NoError(t, err)
		require.JSONEq(t, `{"name":"ada"}`, string(b))
	})

	t.Run("null decodes as none", func(t *testing.T) {
		p := payload{Name: Some("stale")}
		err := json.Unmarshal([]byte(`{"name":null}`), &p)
		require.NoError(t, err)
		require.True(t, p.Name.IsNone())
	})

	t.Run("value decodes as some", func(t *testing.T) {
		var p payload
		err := json.Unmarshal([]byte(`{"name":"ada"}`), &p)
		require.NoError(t, err)
		require.Equal(t, Some("ada"), p.Name)
	})
}
