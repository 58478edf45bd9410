// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package problem

import (
	"fmt"
	"maps"
	"net/http"

	"github.com/z5labs/outcome/schema"
)

// Context holds the problem specific parameters of a single occurrence.
// After validation it becomes the extension members of the [Problem].
type Context map[string]any

// String returns the value at key formatted as a string. Missing keys
// yield the empty string.
func (c Context) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Definition describes one kind of problem.
type Definition struct {
	ID      string
	Title   string
	Status  int
	Version int

	// Schema validates the [Context] of every occurrence.
	Schema schema.ObjectSchema

	// CreateDetail derives the human readable detail from a validated
	// [Context].
	CreateDetail func(Context) string

	// StatusOf optionally overrides Status per occurrence.
	StatusOf func(Context) int
}

func (d Definition) status(ctx Context) int {
	if d.StatusOf == nil {
		return d.Status
	}
	status := d.StatusOf(ctx)
	if status == 0 {
		return d.Status
	}
	return status
}

// Definitions maps problem ids to their [Definition].
type Definitions map[string]Definition

// With returns a copy of ds extended with defs. Later definitions
// replace earlier ones with the same id.
func (ds Definitions) With(defs ...Definition) Definitions {
	out := make(Definitions, len(ds)+len(defs))
	maps.Copy(out, ds)
	for _, def := range defs {
		out[def.ID] = def
	}
	return out
}

// Ids of the built in problems.
const (
	HTTPErrorID       = "http_error"
	LocalErrorID      = "local_error"
	UnknownErrorID    = "unknown_error"
	NavigationErrorID = "navigation_error"
	EntityConflictID  = "entity_conflict"
	UnauthorizedID    = "unauthorized"
	ValidationErrorID = "validation_error"
)

// DefaultDefinitions returns the problems every registry needs for
// converting errors with a [Transformer].
func DefaultDefinitions() Definitions {
	return Definitions{}.With(
		HTTPError,
		LocalError,
		UnknownError,
		NavigationError,
	)
}

// AppDefinitions returns [DefaultDefinitions] plus the common
// application problems.
func AppDefinitions() Definitions {
	return DefaultDefinitions().With(
		EntityConflict,
		Unauthorized,
		ValidationError,
	)
}

// HTTPError describes a failed upstream HTTP call.
var HTTPError = Definition{
	ID:      HTTPErrorID,
	Title:   "HTTP Error",
	Status:  http.StatusBadGateway,
	Version: 1,
	Schema: schema.Object(schema.Fields{
		"httpStatus": schema.Integer(),
		"statusText": schema.String(),
		"method":     schema.String(),
		"url":        schema.String(),
		"body":       schema.Optional(schema.String()),
	}),
	CreateDetail: func(c Context) string {
		return fmt.Sprintf("%s %s failed with status %s %s", c.String("method"), c.String("url"), c.String("httpStatus"), c.String("statusText"))
	},
	StatusOf: func(c Context) int {
		f, _ := c["httpStatus"].(float64)
		if f < 400 || f > 599 {
			return 0
		}
		return int(f)
	},
}

// LocalError describes a Go error raised within this process.
var LocalError = Definition{
	ID:      LocalErrorID,
	Title:   "Local Error",
	Status:  http.StatusInternalServerError,
	Version: 1,
	Schema: schema.Object(schema.Fields{
		"errorName":    schema.String(),
		"errorMessage": schema.String(),
		"stackTrace":   schema.Optional(schema.String()),
		"context":      schema.Optional(schema.String()),
	}),
	CreateDetail: func(c Context) string {
		return fmt.Sprintf("%s: %s", c.String("errorName"), c.String("errorMessage"))
	},
}

// UnknownError describes a failure whose value is not an error.
var UnknownError = Definition{
	ID:      UnknownErrorID,
	Title:   "Unknown Error",
	Status:  http.StatusInternalServerError,
	Version: 1,
	Schema: schema.Object(schema.Fields{
		"value":   schema.String(),
		"context": schema.Optional(schema.String()),
	}),
	CreateDetail: func(c Context) string {
		return "An unknown error occurred: " + c.String("value")
	},
}

// NavigationError describes a failure while changing routes.
var NavigationError = Definition{
	ID:      NavigationErrorID,
	Title:   "Navigation Error",
	Status:  http.StatusInternalServerError,
	Version: 1,
	Schema: schema.Object(schema.Fields{
		"from":         schema.String(),
		"to":           schema.String(),
		"errorMessage": schema.String(),
	}),
	CreateDetail: func(c Context) string {
		return fmt.Sprintf("Navigation from '%s' to '%s' failed: %s", c.String("from"), c.String("to"), c.String("errorMessage"))
	},
}

// EntityConflict describes a write which conflicts with existing state.
var EntityConflict = Definition{
	ID:      EntityConflictID,
	Title:   "Entity Conflict",
	Status:  http.StatusConflict,
	Version: 1,
	Schema: schema.Object(schema.Fields{
		"entityType": schema.String(),
		"entityId":   schema.String(),
		"reason":     schema.Optional(schema.String()),
	}),
	CreateDetail: func(c Context) string {
		detail := fmt.Sprintf("%s '%s' conflicts with an existing entity", c.String("entityType"), c.String("entityId"))
		if reason := c.String("reason"); reason != "" {
			detail += ": " + reason
		}
		return detail
	},
}

// Unauthorized describes a request lacking valid credentials.
var Unauthorized = Definition{
	ID:      UnauthorizedID,
	Title:   "Unauthorized",
	Status:  http.StatusUnauthorized,
	Version: 1,
	Schema: schema.Object(schema.Fields{
		"reason": schema.Optional(schema.String()),
	}),
	CreateDetail: func(c Context) string {
		if reason := c.String("reason"); reason != "" {
			return "Authentication is required: " + reason
		}
		return "Authentication is required to access this resource"
	},
}

// ValidationError describes input which failed validation.
var ValidationError = Definition{
	ID:      ValidationErrorID,
	Title:   "Validation Error",
	Status:  http.StatusBadRequest,
	Version: 1,
	Schema: schema.Object(schema.Fields{
		"field":      schema.String(),
		"constraint": schema.String(),
		"code":       schema.String(),
		"value": schema.Optional(schema.Union(
			schema.String(),
			schema.Number(),
			schema.Boolean(),
		)),
	}),
	CreateDetail: func(c Context) string {
		return fmt.Sprintf("Validation failed for field '%s': %s", c.String("field"), c.String("constraint"))
	},
}
