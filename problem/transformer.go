// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package problem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/z5labs/outcome/option"
)

// MaxBodySize bounds how much of a response body is read while
// converting it to a problem.
const MaxBodySize = 1 << 20

// MissingDefinitionError is returned by [NewTransformer] when the
// registry lacks a definition the transformer depends on.
type MissingDefinitionError struct {
	ID string
}

// Error implements the [error] interface.
func (e MissingDefinitionError) Error() string {
	return "problem registry is missing definition: " + e.ID
}

// TransformerOption configures a [Transformer].
type TransformerOption func(*Transformer)

// IncludeStackTrace attaches the stack of the converting goroutine to
// local_error problems.
func IncludeStackTrace(include bool) TransformerOption {
	return func(t *Transformer) {
		t.stackTrace = include
	}
}

// Transformer converts failures into problems.
type Transformer struct {
	reg        *Registry
	reporter   Reporter
	stackTrace bool
}

// NewTransformer returns a [Transformer] creating problems with reg and
// reporting them to reporter. A nil reporter is replaced by [NoOpReporter].
func NewTransformer(reg *Registry, reporter Reporter, opts ...TransformerOption) (*Transformer, error) {
	if reg == nil {
		return nil, errors.New("problem transformer requires a registry")
	}
	for _, id := range []string{HTTPErrorID, LocalErrorID, UnknownErrorID} {
		if _, ok := reg.Definition(id); !ok {
			return nil, MissingDefinitionError{ID: id}
		}
	}
	if reporter == nil {
		reporter = NoOpReporter{}
	}

	t := &Transformer{
		reg:      reg,
		reporter: reporter,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Registry returns the [Registry] problems are created with.
func (t *Transformer) Registry() *Registry {
	return t.reg
}

// ConvertOption configures a single conversion.
type ConvertOption interface {
	ApplyConvert(*convertOptions)
}

type convertOptions struct {
	instance string
	context  string
}

type convertOptionFunc func(*convertOptions)

func (f convertOptionFunc) ApplyConvert(co *convertOptions) {
	f(co)
}

// ErrorContext attaches a free form description of what was being done
// when the failure happened.
func ErrorContext(s string) ConvertOption {
	return convertOptionFunc(func(co *convertOptions) {
		co.context = s
	})
}

// WithInstance sets the instance of the converted problem.
func WithInstance(s string) ConvertOption {
	return convertOptionFunc(func(co *convertOptions) {
		co.instance = s
	})
}

func newConvertOptions(opts []ConvertOption) *convertOptions {
	co := &convertOptions{}
	for _, opt := range opts {
		opt.ApplyConvert(co)
	}
	return co
}

// FromError converts err into a problem. A [Problem] anywhere in the
// chain of err is returned unchanged and is not reported.
func (t *Transformer) FromError(ctx context.Context, err error, opts ...ConvertOption) Problem {
	if err == nil {
		return t.FromValue(ctx, nil, opts...)
	}

	var p Problem
	if errors.As(err, &p) {
		return p
	}
	var pp *Problem
	if errors.As(err, &pp) && pp != nil {
		return *pp
	}

	co := newConvertOptions(opts)
	pctx := Context{
		"errorName":    errorName(err),
		"errorMessage": err.Error(),
	}
	if t.stackTrace {
		pctx["stackTrace"] = string(debug.Stack())
	}
	if co.context != "" {
		pctx["context"] = co.context
	}
	return t.create(ctx, LocalErrorID, pctx, co.instance, err)
}

func errorName(err error) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}

// FromValue converts an arbitrary value, typically recovered from a
// panic, into a problem. Errors are handled by [Transformer.FromError]
// and well formed problem maps pass through unchanged.
func (t *Transformer) FromValue(ctx context.Context, v any, opts ...ConvertOption) Problem {
	switch x := v.(type) {
	case Problem:
		return x
	case *Problem:
		if x != nil {
			return *x
		}
	case error:
		return t.FromError(ctx, x, opts...)
	case map[string]any:
		if IsWellFormed(x) {
			return fromMap(x)
		}
	}

	co := newConvertOptions(opts)
	pctx := Context{
		"value": fmt.Sprint(v),
	}
	if co.context != "" {
		pctx["context"] = co.context
	}
	return t.create(ctx, UnknownErrorID, pctx, co.instance, unknownValueError{value: v})
}

type unknownValueError struct {
	value any
}

func (e unknownValueError) Error() string {
	return fmt.Sprintf("unknown error value: %v", e.value)
}

// FromHTTPResponse returns a body which already is a well formed problem
// unchanged and unreported, whatever the status. Otherwise a successful
// response yields None and any other response becomes an http_error
// problem.
//
// The body is read up to [MaxBodySize] and then restored, so callers can
// still consume resp.Body.
func (t *Transformer) FromHTTPResponse(ctx context.Context, resp *http.Response, instance string) option.Option[Problem] {
	if resp == nil {
		return option.None[Problem]()
	}

	body := peekBody(resp)
	if p, ok := Parse(body); ok {
		return option.Some(p)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return option.None[Problem]()
	}

	statusText := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if statusText == "" {
		statusText = http.StatusText(resp.StatusCode)
	}
	pctx := Context{
		"httpStatus": resp.StatusCode,
		"statusText": statusText,
		"method":     "",
		"url":        "",
	}
	if req := resp.Request; req != nil {
		pctx["method"] = req.Method
		if req.URL != nil {
			pctx["url"] = req.URL.String()
		}
	}
	if len(body) > 0 {
		pctx["body"] = string(body)
	}
	return option.Some(t.create(ctx, HTTPErrorID, pctx, instance, nil))
}

type readCloser struct {
	io.Reader
	io.Closer
}

func peekBody(resp *http.Response) []byte {
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	resp.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(b), resp.Body),
		Closer: resp.Body,
	}
	return b
}

// ClientError is implemented by errors returned from HTTP API clients
// which carry the failed response.
type ClientError interface {
	error
	Response() *http.Response
	Body() []byte
}

// FromClientError converts an API client error into a problem. A well
// formed problem body is passed through, a failed response becomes an
// http_error problem and anything else falls back to [Transformer.FromError].
func (t *Transformer) FromClientError(ctx context.Context, err error, instance string) Problem {
	var cerr ClientError
	if err == nil || !errors.As(err, &cerr) {
		return t.FromError(ctx, err, WithInstance(instance))
	}

	if p, ok := Parse(cerr.Body()); ok {
		return p
	}

	resp := cerr.Response()
	if resp != nil {
		if body := cerr.Body(); len(body) > 0 {
			resp.Body = io.NopCloser(bytes.NewReader(body))
		}
		if p, ok := t.FromHTTPResponse(ctx, resp, instance).Get(); ok {
			return p
		}
	}
	return t.FromError(ctx, err, WithInstance(instance))
}

func (t *Transformer) create(ctx context.Context, id string, pctx Context, instance string, cause error) Problem {
	var opts []CreateOption
	if instance != "" {
		opts = append(opts, Instance(instance))
	}
	p, err := t.reg.CreateProblem(id, pctx, opts...)
	if err != nil {
		p = fallbackProblem(id, err, instance)
	}

	reported := error(p)
	if cause != nil {
		reported = convertedError{problem: p, cause: cause}
	}
	t.reporter.Report(ctx, reported, reportAttrs(p))
	return p
}

func fallbackProblem(id string, err error, instance string) Problem {
	return Problem{
		ID:       id,
		Type:     "about:blank",
		Title:    http.StatusText(http.StatusInternalServerError),
		Status:   http.StatusInternalServerError,
		Detail:   err.Error(),
		Instance: instance,
	}
}

type convertedError struct {
	problem Problem
	cause   error
}

func (e convertedError) Error() string {
	return e.cause.Error()
}

func (e convertedError) Unwrap() []error {
	return []error{e.cause, e.problem}
}

func reportAttrs(p Problem) map[string]string {
	attrs := map[string]string{
		"problem.id":     p.ID,
		"problem.type":   p.Type,
		"problem.status": strconv.Itoa(p.Status),
	}
	if p.Instance != "" {
		attrs["problem.instance"] = p.Instance
	}
	return attrs
}
