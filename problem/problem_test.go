// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package problem

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblem_MarshalJSON(t *testing.T) {
	t.Run("will flatten extensions beside the standard members", func(t *testing.T) {
		p := Problem{
			ID:     "validation_error",
			Type:   "https://errors.example.com/v1/accounts/errors/validation_error",
			Title:  "Validation Error",
			Status: 400,
			Detail: "Validation failed for field 'email': required",
			Extensions: map[string]any{
				"field": "email",
			},
		}

		b, err := json.Marshal(p)
		require.NoError(t, err)
		require.JSONEq(t, `{
			"type": "https://errors.example.com/v1/accounts/errors/validation_error",
			"title": "Validation Error",
			"status": 400,
			"detail": "Validation failed for field 'email': required",
			"field": "email"
		}`, string(b))
	})

	t.Run("will not let extensions override standard members", func(t *testing.T) {
		p := Problem{
			Type:   "about:blank",
			Title:  "Not Found",
			Status: 404,
			Detail: "missing",
			Extensions: map[string]any{
				"status": 200,
			},
		}

		b, err := json.Marshal(p)
		require.NoError(t, err)

		var m map[string]any
		err = json.Unmarshal(b, &m)
		require.NoError(t, err)
		require.Equal(t, float64(404), m["status"])
	})
}

func TestProblem_UnmarshalJSON(t *testing.T) {
	t.Run("will recover the id from the type uri", func(t *testing.T) {
		var p Problem
		err := json.Unmarshal([]byte(`{
			"type": "https://errors.example.com/v1/accounts/errors/unauthorized",
			"title": "Unauthorized",
			"status": 401,
			"detail": "Authentication is required to access this resource",
			"instance": "/accounts/1",
			"reason": "expired"
		}`), &p)
		require.NoError(t, err)

		require.Equal(t, "unauthorized", p.ID)
		require.Equal(t, 401, p.Status)
		require.Equal(t, "/accounts/1", p.Instance)
		require.Equal(t, map[string]any{"reason": "expired"}, p.Extensions)
	})

	t.Run("will return a MalformedProblemError", func(t *testing.T) {
		testCases := []struct {
			name string
			json string
		}{
			{name: "if status is a string", json: `{"type":"a","title":"b","status":"400","detail":"c"}`},
			{name: "if detail is missing", json: `{"type":"a","title":"b","status":400}`},
			{name: "if status is fractional", json: `{"type":"a","title":"b","status":400.5,"detail":"c"}`},
			{name: "if instance is not a string", json: `{"type":"a","title":"b","status":400,"detail":"c","instance":1}`},
			{name: "if the value is null", json: `null`},
		}

		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				var p Problem
				err := json.Unmarshal([]byte(testCase.json), &p)

				var merr MalformedProblemError
				if !assert.ErrorAs(t, err, &merr) {
					return
				}
				if !assert.NotEmpty(t, merr.Reason) {
					return
				}
			})
		}
	})
}

func TestIsWellFormed(t *testing.T) {
	testCases := []struct {
		name string
		m    map[string]any
		ok   bool
	}{
		{
			name: "standard members",
			m:    map[string]any{"type": "a", "title": "b", "status": 500, "detail": "c"},
			ok:   true,
		},
		{
			name: "decoded json status",
			m:    map[string]any{"type": "a", "title": "b", "status": float64(500), "detail": "c"},
			ok:   true,
		},
		{
			name: "json number status",
			m:    map[string]any{"type": "a", "title": "b", "status": json.Number("500"), "detail": "c"},
			ok:   true,
		},
		{
			name: "missing type",
			m:    map[string]any{"title": "b", "status": 500, "detail": "c"},
		},
		{
			name: "boolean status",
			m:    map[string]any{"type": "a", "title": "b", "status": true, "detail": "c"},
		},
		{
			name: "fractional status",
			m:    map[string]any{"type": "a", "title": "b", "status": 500.5, "detail": "c"},
		},
		{
			name: "status beyond int range",
			m:    map[string]any{"type": "a", "title": "b", "status": 1e300, "detail": "c"},
		},
		{
			name: "json number status beyond int32",
			m:    map[string]any{"type": "a", "title": "b", "status": json.Number("9999999999"), "detail": "c"},
		},
		{
			name: "uint status beyond int32",
			m:    map[string]any{"type": "a", "title": "b", "status": uint64(math.MaxUint64), "detail": "c"},
		},
		{
			name: "numeric title",
			m:    map[string]any{"type": "a", "title": 1, "status": 500, "detail": "c"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.ok, IsWellFormed(testCase.m))
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("will reject non object json", func(t *testing.T) {
		_, ok := Parse([]byte(`["ok", 1]`))
		require.False(t, ok)
	})

	t.Run("will reject invalid json", func(t *testing.T) {
		_, ok := Parse([]byte(`<html>`))
		require.False(t, ok)
	})
}

func TestProblem_Error(t *testing.T) {
	p := Problem{Title: "Unauthorized", Status: 401, Detail: "nope"}
	require.Equal(t, "Unauthorized (401): nope", p.Error())
}
