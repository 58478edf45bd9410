// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package problem

import (
	"strings"
	"testing"

	"github.com/z5labs/outcome/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{
	BaseURI: "https://errors.example.com",
	Version: "1",
	Service: "accounts",
}

func newTestRegistry(t *testing.T, opts ...RegistryOption) *Registry {
	t.Helper()

	reg, err := NewRegistry(testConfig, AppDefinitions(), opts...)
	require.NoError(t, err)
	return reg
}

func TestNewRegistry(t *testing.T) {
	t.Run("will accept the bundled definitions", func(t *testing.T) {
		testCases := []struct {
			name string
			defs Definitions
		}{
			{name: "default", defs: DefaultDefinitions()},
			{name: "app", defs: AppDefinitions()},
		}

		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				reg, err := NewRegistry(testConfig, testCase.defs)
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Len(t, reg.IDs(), len(testCase.defs)) {
					return
				}
			})
		}
	})

	t.Run("will keep bundled context fields clear of the standard members", func(t *testing.T) {
		for id, def := range AppDefinitions() {
			for _, k := range def.Schema.Keys() {
				if !assert.False(t, IsReserved(k), "%s declares reserved field %s", id, k) {
					return
				}
			}
		}
	})

	t.Run("will return an InvalidConfigError", func(t *testing.T) {
		testCases := []struct {
			name  string
			cfg   Config
			field string
		}{
			{name: "if the base uri is empty", cfg: Config{Version: "1", Service: "a"}, field: "baseUri"},
			{name: "if the base uri is relative", cfg: Config{BaseURI: "errors", Version: "1", Service: "a"}, field: "baseUri"},
			{name: "if the version is empty", cfg: Config{BaseURI: "https://e.com", Service: "a"}, field: "version"},
			{name: "if the service has a slash", cfg: Config{BaseURI: "https://e.com", Version: "1", Service: "a/b"}, field: "service"},
		}

		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				_, err := NewRegistry(testCase.cfg, AppDefinitions())

				var cerr InvalidConfigError
				if !assert.ErrorAs(t, err, &cerr) {
					return
				}
				if !assert.Equal(t, testCase.field, cerr.Field) {
					return
				}
			})
		}
	})

	t.Run("will return an InvalidDefinitionError", func(t *testing.T) {
		valid := Definition{
			ID:           "teapot",
			Title:        "Teapot",
			Status:       418,
			Schema:       schema.Object(schema.Fields{}),
			CreateDetail: func(Context) string { return "short and stout" },
		}

		testCases := []struct {
			name   string
			mutate func(*Definition)
		}{
			{name: "if the detail func is missing", mutate: func(d *Definition) { d.CreateDetail = nil }},
			{name: "if the title is missing", mutate: func(d *Definition) { d.Title = "" }},
			{name: "if the status is out of range", mutate: func(d *Definition) { d.Status = 42 }},
			{name: "if the id does not match its key", mutate: func(d *Definition) { d.ID = "kettle" }},
			{
				name: "if a schema field collides with a standard member",
				mutate: func(d *Definition) {
					d.Schema = schema.Object(schema.Fields{"status": schema.String()})
				},
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				def := valid
				testCase.mutate(&def)

				_, err := NewRegistry(testConfig, Definitions{"teapot": def})

				var derr InvalidDefinitionError
				if !assert.ErrorAs(t, err, &derr) {
					return
				}
				if !assert.Equal(t, "teapot", derr.ID) {
					return
				}
			})
		}
	})

	t.Run("will not be affected by later changes to the definitions", func(t *testing.T) {
		defs := AppDefinitions()
		reg, err := NewRegistry(testConfig, defs)
		require.NoError(t, err)

		delete(defs, UnauthorizedID)

		_, ok := reg.Definition(UnauthorizedID)
		require.True(t, ok)
	})
}

func TestRegistry_CreateProblem(t *testing.T) {
	t.Run("will derive the detail from the context", func(t *testing.T) {
		reg := newTestRegistry(t)

		p, err := reg.CreateProblem(ValidationErrorID, Context{
			"field":      "email",
			"value":      "",
			"constraint": "Email is required",
			"code":       "required",
		})
		require.NoError(t, err)

		require.Equal(t, "https://errors.example.com/v1/accounts/errors/validation_error", p.Type)
		require.Equal(t, "Validation Error", p.Title)
		require.Equal(t, 400, p.Status)
		require.Equal(t, "Validation failed for field 'email': Email is required", p.Detail)
		require.Equal(t, "email", p.Extensions["field"])
		require.Empty(t, p.Instance)
	})

	t.Run("will return a ContextValidationError", func(t *testing.T) {
		t.Run("if a required field is missing", func(t *testing.T) {
			reg := newTestRegistry(t)

			_, err := reg.CreateProblem(ValidationErrorID, Context{
				"field":      "email",
				"constraint": "required",
			})

			var cerr ContextValidationError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
			if !assert.Equal(t, ValidationErrorID, cerr.ID) {
				return
			}

			var verr *schema.ValidationError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			if !assert.Len(t, verr.Issues, 1) {
				return
			}
			if !assert.Equal(t, "code", verr.Issues[0].Path) {
				return
			}
			if !assert.Equal(t, schema.CodeRequired, verr.Issues[0].Code) {
				return
			}
		})

		t.Run("if a field has the wrong type", func(t *testing.T) {
			reg := newTestRegistry(t)

			_, err := reg.CreateProblem(EntityConflictID, Context{
				"entityType": "account",
				"entityId":   42,
			})

			var cerr ContextValidationError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
		})
	})

	t.Run("will return an UnknownProblemError", func(t *testing.T) {
		reg := newTestRegistry(t)

		_, err := reg.CreateProblem("does_not_exist", nil)

		var uerr UnknownProblemError
		if !assert.ErrorAs(t, err, &uerr) {
			return
		}
		if !assert.Equal(t, "does_not_exist", uerr.ID) {
			return
		}
	})

	t.Run("will produce identical uris across calls and registries", func(t *testing.T) {
		a := newTestRegistry(t)
		b := newTestRegistry(t)

		p1, err := a.CreateProblem(UnauthorizedID, Context{})
		require.NoError(t, err)
		p2, err := a.CreateProblem(UnauthorizedID, nil)
		require.NoError(t, err)
		p3, err := b.CreateProblem(UnauthorizedID, Context{})
		require.NoError(t, err)

		require.Equal(t, p1, p2)
		require.Equal(t, p1, p3)
		require.Equal(t, 401, p1.Status)
	})

	t.Run("will use the explicit instance", func(t *testing.T) {
		reg := newTestRegistry(t, GenerateInstances())

		p, err := reg.CreateProblem(UnauthorizedID, nil, Instance("/accounts/7"))
		require.NoError(t, err)
		require.Equal(t, "/accounts/7", p.Instance)
	})

	t.Run("will generate unique instances when configured", func(t *testing.T) {
		reg := newTestRegistry(t, GenerateInstances())

		p1 := reg.MustCreateProblem(UnauthorizedID, nil)
		p2 := reg.MustCreateProblem(UnauthorizedID, nil)

		require.True(t, strings.HasPrefix(p1.Instance, "urn:uuid:"))
		require.NotEqual(t, p1.Instance, p2.Instance)
		require.Equal(t, p1.Type, p2.Type)
	})

	t.Run("will take the status from the context for http errors", func(t *testing.T) {
		reg := newTestRegistry(t)

		p, err := reg.CreateProblem(HTTPErrorID, Context{
			"httpStatus": 503,
			"statusText": "Service Unavailable",
			"method":     "GET",
			"url":        "https://api.example.com/accounts",
		})
		require.NoError(t, err)
		require.Equal(t, 503, p.Status)
		require.Equal(t, "GET https://api.example.com/accounts failed with status 503 Service Unavailable", p.Detail)
	})
}

func TestRegistry_MustCreateProblem(t *testing.T) {
	t.Run("will panic if the context is invalid", func(t *testing.T) {
		reg := newTestRegistry(t)

		require.Panics(t, func() {
			reg.MustCreateProblem(ValidationErrorID, Context{})
		})
	})
}

func TestRegistry_IDs(t *testing.T) {
	reg := newTestRegistry(t)

	require.Equal(t, []string{
		EntityConflictID,
		HTTPErrorID,
		LocalErrorID,
		NavigationErrorID,
		UnauthorizedID,
		UnknownErrorID,
		ValidationErrorID,
	}, reg.IDs())
}

func TestRegistry_Schema(t *testing.T) {
	t.Run("will describe a registered problem", func(t *testing.T) {
		reg := newTestRegistry(t)

		info, ok := reg.Schema(ValidationErrorID)
		require.True(t, ok)
		require.Equal(t, ValidationErrorID, info.ID)
		require.Equal(t, "Validation Error", info.Title)
		require.Equal(t, 1, info.Version)
		require.NotNil(t, info.Schema)
		require.Equal(t, []string{"code", "constraint", "field"}, info.Schema.Required)
	})

	t.Run("will report unknown ids", func(t *testing.T) {
		reg := newTestRegistry(t)

		_, ok := reg.Schema("does_not_exist")
		require.False(t, ok)
	})
}
