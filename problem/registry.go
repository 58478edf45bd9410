// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package problem

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/swaggest/jsonschema-go"
	"github.com/z5labs/outcome/schema"
)

// Config determines the type URIs stamped on problems.
type Config struct {
	BaseURI string `config:"baseUri" json:"baseUri"`
	Version string `config:"version" json:"version"`
	Service string `config:"service" json:"service"`
}

// InvalidConfigError is returned by [NewRegistry] for an unusable [Config].
type InvalidConfigError struct {
	Field  string
	Reason string
}

// Error implements the [error] interface.
func (e InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid problem config field %s: %s", e.Field, e.Reason)
}

func (cfg Config) validate() error {
	if cfg.BaseURI == "" {
		return InvalidConfigError{Field: "baseUri", Reason: "must not be empty"}
	}
	u, err := url.Parse(cfg.BaseURI)
	if err != nil || u.Scheme == "" {
		return InvalidConfigError{Field: "baseUri", Reason: "must be an absolute URI"}
	}
	if cfg.Version == "" {
		return InvalidConfigError{Field: "version", Reason: "must not be empty"}
	}
	if cfg.Service == "" || strings.Contains(cfg.Service, "/") {
		return InvalidConfigError{Field: "service", Reason: "must be a single non-empty path segment"}
	}
	return nil
}

// InvalidDefinitionError is returned by [NewRegistry] for an unusable
// [Definition].
type InvalidDefinitionError struct {
	ID     string
	Reason string
}

// Error implements the [error] interface.
func (e InvalidDefinitionError) Error() string {
	return fmt.Sprintf("invalid problem definition %q: %s", e.ID, e.Reason)
}

func validateDefinition(key string, def Definition) error {
	switch {
	case def.ID == "":
		return InvalidDefinitionError{ID: key, Reason: "missing id"}
	case def.ID != key:
		return InvalidDefinitionError{ID: key, Reason: "registered under a different id " + def.ID}
	case def.Title == "":
		return InvalidDefinitionError{ID: key, Reason: "missing title"}
	case def.Status < 100 || def.Status > 599:
		return InvalidDefinitionError{ID: key, Reason: "status must be a valid HTTP status code"}
	case def.CreateDetail == nil:
		return InvalidDefinitionError{ID: key, Reason: "missing detail function"}
	}
	for _, k := range def.Schema.Keys() {
		if IsReserved(k) {
			return InvalidDefinitionError{ID: key, Reason: "schema field " + k + " collides with a standard member"}
		}
	}
	return nil
}

// RegistryOption configures a [Registry].
type RegistryOption interface {
	ApplyRegistry(*Registry)
}

type registryOptionFunc func(*Registry)

func (f registryOptionFunc) ApplyRegistry(r *Registry) {
	f(r)
}

// GenerateInstances stamps each problem created without an explicit
// instance with a unique urn:uuid instance.
func GenerateInstances() RegistryOption {
	return registryOptionFunc(func(r *Registry) {
		r.newInstance = func() string {
			return "urn:uuid:" + uuid.NewString()
		}
	})
}

// Registry is an immutable catalog of problem definitions.
type Registry struct {
	cfg         Config
	defs        Definitions
	ids         []string
	newInstance func() string
}

// NewRegistry validates cfg and defs and returns a [Registry] owning a
// private copy of defs.
func NewRegistry(cfg Config, defs Definitions, opts ...RegistryOption) (*Registry, error) {
	err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, errors.New("problem registry requires at least one definition")
	}
	for id, def := range defs {
		err = validateDefinition(id, def)
		if err != nil {
			return nil, err
		}
	}

	r := &Registry{
		cfg:  cfg,
		defs: maps.Clone(defs),
		ids:  slices.Sorted(maps.Keys(defs)),
	}
	for _, opt := range opts {
		opt.ApplyRegistry(r)
	}
	return r, nil
}

// Config returns the registry [Config].
func (r *Registry) Config() Config {
	return r.cfg
}

// IDs returns every registered problem id in sorted order.
func (r *Registry) IDs() []string {
	return slices.Clone(r.ids)
}

// Definition returns the [Definition] registered under id.
func (r *Registry) Definition(id string) (Definition, bool) {
	def, ok := r.defs[id]
	return def, ok
}

// TypeURI returns the type URI of the problem id.
func (r *Registry) TypeURI(id string) string {
	return fmt.Sprintf(
		"%s/v%s/%s/errors/%s",
		strings.TrimRight(r.cfg.BaseURI, "/"),
		r.cfg.Version,
		r.cfg.Service,
		id,
	)
}

// UnknownProblemError is returned when no definition has the id.
type UnknownProblemError struct {
	ID string
}

// Error implements the [error] interface.
func (e UnknownProblemError) Error() string {
	return fmt.Sprintf("unknown problem id: %s", e.ID)
}

// ContextValidationError is returned when the [Context] of a problem
// does not satisfy its schema.
type ContextValidationError struct {
	ID    string
	Cause *schema.ValidationError
}

// Error implements the [error] interface.
func (e ContextValidationError) Error() string {
	return fmt.Sprintf("invalid context for problem %s: %s", e.ID, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e ContextValidationError) Unwrap() error {
	return e.Cause
}

// CreateOption configures a single [Registry.CreateProblem] call.
type CreateOption interface {
	ApplyCreate(*createOptions)
}

type createOptions struct {
	instance string
}

type createOptionFunc func(*createOptions)

func (f createOptionFunc) ApplyCreate(co *createOptions) {
	f(co)
}

// Instance sets the instance member of the created problem.
func Instance(s string) CreateOption {
	return createOptionFunc(func(co *createOptions) {
		co.instance = s
	})
}

// CreateProblem validates ctx against the schema of id and builds the
// problem. A failure is never reported as a [Problem] itself.
func (r *Registry) CreateProblem(id string, ctx Context, opts ...CreateOption) (Problem, error) {
	def, ok := r.defs[id]
	if !ok {
		return Problem{}, UnknownProblemError{ID: id}
	}

	var in any = map[string]any(ctx)
	if ctx == nil {
		in = map[string]any{}
	}
	v, err := schema.Parse(def.Schema, in)
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			return Problem{}, ContextValidationError{ID: id, Cause: verr}
		}
		return Problem{}, err
	}

	co := &createOptions{}
	for _, opt := range opts {
		opt.ApplyCreate(co)
	}
	if co.instance == "" && r.newInstance != nil {
		co.instance = r.newInstance()
	}

	ext := Context(v.(map[string]any))
	p := Problem{
		ID:       id,
		Type:     r.TypeURI(id),
		Title:    def.Title,
		Status:   def.status(ext),
		Detail:   def.CreateDetail(ext),
		Instance: co.instance,
	}
	if len(ext) > 0 {
		p.Extensions = ext
	}
	return p, nil
}

// MustCreateProblem is like [Registry.CreateProblem] but panics on error.
// It is meant for call sites whose id and context are fixed at compile time.
func (r *Registry) MustCreateProblem(id string, ctx Context, opts ...CreateOption) Problem {
	p, err := r.CreateProblem(id, ctx, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// SchemaInfo describes a registered problem for API consumers.
type SchemaInfo struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Version int                `json:"version"`
	Schema  *jsonschema.Schema `json:"schema"`
}

// Schema returns the [SchemaInfo] of id.
func (r *Registry) Schema(id string) (SchemaInfo, bool) {
	def, ok := r.defs[id]
	if !ok {
		return SchemaInfo{}, false
	}
	js := schema.ToJSONSchema(def.Schema)
	title := def.Title
	js.Title = &title
	return SchemaInfo{
		ID:      def.ID,
		Title:   def.Title,
		Version: def.Version,
		Schema:  &js,
	}, true
}
