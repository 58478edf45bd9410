// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package schema provides a small, closed set of composable value validators.
//
// Validators are built from nine node kinds: [String], [Number] (and
// [Integer]), [Boolean], [Array], [Object], [Enum], [Optional], [Nullable]
// and [Union]. Every node can validate and normalize a decoded value and
// can be rendered as a JSON Schema with [ToJSONSchema].
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies a schema node.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindArray
	KindObject
	KindEnum
	KindOptional
	KindNullable
	KindUnion
)

var kindNames = map[Kind]string{
	KindString:   "string",
	KindNumber:   "number",
	KindBoolean:  "boolean",
	KindArray:    "array",
	KindObject:   "object",
	KindEnum:     "enum",
	KindOptional: "optional",
	KindNullable: "nullable",
	KindUnion:    "union",
}

// String implements the [fmt.Stringer] interface.
func (k Kind) String() string {
	s, ok := kindNames[k]
	if !ok {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return s
}

// Schema is implemented only by the node types in this package.
type Schema interface {
	Kind() Kind

	parse(p path, v any, issues *[]Issue) any
}

// Parse validates v against s and returns the normalized value.
// Numbers are normalized to float64, objects to map[string]any and
// arrays to []any. A failed validation returns a *[ValidationError].
func Parse(s Schema, v any) (any, error) {
	var issues []Issue
	out := s.parse(nil, v, &issues)
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return out, nil
}

// ParseResult is returned by [SafeParse].
type ParseResult struct {
	Success bool
	Value   any
	Issues  []Issue
}

// SafeParse is like [Parse] but reports the outcome as a value.
func SafeParse(s Schema, v any) ParseResult {
	var issues []Issue
	out := s.parse(nil, v, &issues)
	if len(issues) > 0 {
		return ParseResult{Issues: issues}
	}
	return ParseResult{Success: true, Value: out}
}

// IssueCode categorizes an [Issue].
type IssueCode string

const (
	CodeInvalidType      IssueCode = "invalid_type"
	CodeRequired         IssueCode = "required"
	CodeInvalidEnumValue IssueCode = "invalid_enum_value"
	CodeUnrecognizedKeys IssueCode = "unrecognized_keys"
	CodeInvalidUnion     IssueCode = "invalid_union"
)

// Issue describes a single validation failure.
type Issue struct {
	Path    string    `json:"path"`
	Code    IssueCode `json:"code"`
	Message string    `json:"message"`
}

// ValidationError is returned when a value does not satisfy a [Schema].
type ValidationError struct {
	Issues []Issue
}

// Error implements the [error] interface.
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		p := issue.Path
		if p == "" {
			p = "(root)"
		}
		msgs[i] = p + ": " + issue.Message
	}
	return fmt.Sprintf("schema: %d validation issue(s): %s", len(e.Issues), strings.Join(msgs, "; "))
}

type path []string

func (p path) key(k string) path {
	next := make(path, len(p), len(p)+1)
	copy(next, p)
	return append(next, k)
}

func (p path) index(i int) path {
	return p.key("[" + strconv.Itoa(i) + "]")
}

func (p path) String() string {
	var sb strings.Builder
	for _, seg := range p {
		if sb.Len() > 0 && !strings.HasPrefix(seg, "[") {
			sb.WriteByte('.')
		}
		sb.WriteString(seg)
	}
	return sb.String()
}

func addIssue(issues *[]Issue, p path, code IssueCode, format string, args ...any) {
	*issues = append(*issues, Issue{
		Path:    p.String(),
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

// StringSchema validates strings.
type StringSchema struct{}

// String returns a [Schema] accepting any string.
func String() StringSchema {
	return StringSchema{}
}

// Kind implements the [Schema] interface.
func (StringSchema) Kind() Kind { return KindString }

func (StringSchema) parse(p path, v any, issues *[]Issue) any {
	s, ok := v.(string)
	if !ok {
		addIssue(issues, p, CodeInvalidType, "expected string, received %s", typeName(v))
		return nil
	}
	return s
}

// NumberSchema validates numbers.
type NumberSchema struct {
	integer bool
}

// Number returns a [Schema] accepting any Go numeric value or [json.Number].
func Number() NumberSchema {
	return NumberSchema{}
}

// Integer returns a [Schema] accepting numbers without a fractional part.
func Integer() NumberSchema {
	return NumberSchema{integer: true}
}

// Kind implements the [Schema] interface.
func (NumberSchema) Kind() Kind { return KindNumber }

// IsInteger reports whether fractional values are rejected.
func (s NumberSchema) IsInteger() bool { return s.integer }

func (s NumberSchema) parse(p path, v any, issues *[]Issue) any {
	f, ok := toFloat(v)
	if !ok {
		addIssue(issues, p, CodeInvalidType, "expected number, received %s", typeName(v))
		return nil
	}
	if s.integer && !isInteger(f) {
		addIssue(issues, p, CodeInvalidType, "expected integer, received %v", f)
		return nil
	}
	return f
}

// isInteger accepts whole numbers within 32 bits.
func isInteger(f float64) bool {
	return !math.IsNaN(f) && f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case nil, bool, string:
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// BooleanSchema validates booleans.
type BooleanSchema struct{}

// Boolean returns a [Schema] accepting true or false.
func Boolean() BooleanSchema {
	return BooleanSchema{}
}

// Kind implements the [Schema] interface.
func (BooleanSchema) Kind() Kind { return KindBoolean }

func (BooleanSchema) parse(p path, v any, issues *[]Issue) any {
	b, ok := v.(bool)
	if !ok {
		addIssue(issues, p, CodeInvalidType, "expected boolean, received %s", typeName(v))
		return nil
	}
	return b
}

// ArraySchema validates slices whose elements all satisfy Elem.
type ArraySchema struct {
	Elem Schema
}

// Array returns a [Schema] accepting slices or arrays of elem.
func Array(elem Schema) ArraySchema {
	return ArraySchema{Elem: elem}
}

// Kind implements the [Schema] interface.
func (ArraySchema) Kind() Kind { return KindArray }

func (s ArraySchema) parse(p path, v any, issues *[]Issue) any {
	if v == nil {
		addIssue(issues, p, CodeInvalidType, "expected array, received null")
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		addIssue(issues, p, CodeInvalidType, "expected array, received %s", typeName(v))
		return nil
	}

	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = s.Elem.parse(p.index(i), rv.Index(i).Interface(), issues)
	}
	return out
}

// ObjectSchema validates string keyed maps.
type ObjectSchema struct {
	fields map[string]Schema
	strict bool
}

// Fields maps property names to their schemas.
type Fields map[string]Schema

// Object returns a [Schema] accepting maps with the given fields.
// Every field not wrapped in [Optional] is required. Unknown keys are
// dropped from the parsed value unless [ObjectSchema.Strict] is used.
func Object(fields Fields) ObjectSchema {
	fs := make(map[string]Schema, len(fields))
	for k, v := range fields {
		fs[k] = v
	}
	return ObjectSchema{fields: fs}
}

// Strict returns a copy of s which rejects unknown keys.
func (s ObjectSchema) Strict() ObjectSchema {
	s.strict = true
	return s
}

// Kind implements the [Schema] interface.
func (ObjectSchema) Kind() Kind { return KindObject }

// IsStrict reports whether unknown keys are rejected.
func (s ObjectSchema) IsStrict() bool { return s.strict }

// Keys returns the field names in sorted order.
func (s ObjectSchema) Keys() []string {
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Field returns the schema of the named field.
func (s ObjectSchema) Field(name string) (Schema, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Required returns the sorted names of fields which must be present.
func (s ObjectSchema) Required() []string {
	var req []string
	for _, k := range s.Keys() {
		if s.fields[k].Kind() != KindOptional {
			req = append(req, k)
		}
	}
	return req
}

func (s ObjectSchema) parse(p path, v any, issues *[]Issue) any {
	m, ok := toMap(v)
	if !ok {
		addIssue(issues, p, CodeInvalidType, "expected object, received %s", typeName(v))
		return nil
	}

	out := make(map[string]any, len(s.fields))
	for _, k := range s.Keys() {
		field := s.fields[k]
		fv, present := m[k]
		if !present {
			if field.Kind() != KindOptional {
				addIssue(issues, p.key(k), CodeRequired, "required")
			}
			continue
		}
		parsed := field.parse(p.key(k), fv, issues)
		if parsed == nil && field.Kind() == KindOptional {
			continue
		}
		out[k] = parsed
	}

	if s.strict {
		var unknown []string
		for k := range m {
			if _, ok := s.fields[k]; !ok {
				unknown = append(unknown, k)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			addIssue(issues, p, CodeUnrecognizedKeys, "unrecognized key(s): %s", strings.Join(unknown, ", "))
		}
	}
	return out
}

func toMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

// EnumSchema validates that a string is one of a fixed set.
type EnumSchema struct {
	values []string
}

// Enum returns a [Schema] accepting exactly one of values.
func Enum(values ...string) EnumSchema {
	vs := make([]string, len(values))
	copy(vs, values)
	return EnumSchema{values: vs}
}

// Kind implements the [Schema] interface.
func (EnumSchema) Kind() Kind { return KindEnum }

// Values returns the accepted values in declaration order.
func (s EnumSchema) Values() []string {
	vs := make([]string, len(s.values))
	copy(vs, s.values)
	return vs
}

func (s EnumSchema) parse(p path, v any, issues *[]Issue) any {
	str, ok := v.(string)
	if !ok {
		addIssue(issues, p, CodeInvalidType, "expected string, received %s", typeName(v))
		return nil
	}
	for _, allowed := range s.values {
		if str == allowed {
			return str
		}
	}
	addIssue(issues, p, CodeInvalidEnumValue, "expected one of [%s], received %q", strings.Join(s.values, ", "), str)
	return nil
}

// OptionalSchema allows a value to be absent.
type OptionalSchema struct {
	Inner Schema
}

// Optional marks inner as not required. Absent object fields and nil
// values are accepted.
func Optional(inner Schema) OptionalSchema {
	return OptionalSchema{Inner: inner}
}

// Kind implements the [Schema] interface.
func (OptionalSchema) Kind() Kind { return KindOptional }

func (s OptionalSchema) parse(p path, v any, issues *[]Issue) any {
	if v == nil {
		return nil
	}
	return s.Inner.parse(p, v, issues)
}

// NullableSchema allows a value to be null.
type NullableSchema struct {
	Inner Schema
}

// Nullable accepts nil in addition to values satisfying inner.
func Nullable(inner Schema) NullableSchema {
	return NullableSchema{Inner: inner}
}

// Kind implements the [Schema] interface.
func (NullableSchema) Kind() Kind { return KindNullable }

func (s NullableSchema) parse(p path, v any, issues *[]Issue) any {
	if v == nil {
		return nil
	}
	return s.Inner.parse(p, v, issues)
}

// UnionSchema accepts values satisfying any of its options.
type UnionSchema struct {
	Options []Schema
}

// Union returns a [Schema] accepting values which satisfy at least one
// option. The first satisfied option, in order, determines the parsed value.
func Union(options ...Schema) UnionSchema {
	os := make([]Schema, len(options))
	copy(os, options)
	return UnionSchema{Options: os}
}

// Kind implements the [Schema] interface.
func (UnionSchema) Kind() Kind { return KindUnion }

func (s UnionSchema) parse(p path, v any, issues *[]Issue) any {
	for _, option := range s.Options {
		var optIssues []Issue
		out := option.parse(p, v, &optIssues)
		if len(optIssues) == 0 {
			return out
		}
	}
	kinds := make([]string, len(s.Options))
	for i, option := range s.Options {
		kinds[i] = option.Kind().String()
	}
	addIssue(issues, p, CodeInvalidUnion, "expected one of [%s], received %s", strings.Join(kinds, ", "), typeName(v))
	return nil
}
