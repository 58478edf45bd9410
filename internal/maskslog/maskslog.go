// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package maskslog provides a [slog.Handler] which masks sensitive
// attribute values before they reach the wrapped handler.
package maskslog

import (
	"context"
	"log/slog"
	"strings"
)

// Option helps configure the Handler.
type Option func(map[string]func(slog.Attr) slog.Attr)

// Attr registers a function for masking a slog.Attr given its key.
// Keys are matched case insensitively.
func Attr(key string, f func(slog.Attr) slog.Attr) Option {
	return func(m map[string]func(slog.Attr) slog.Attr) {
		m[strings.ToLower(key)] = f
	}
}

// AnonymousStringAttr replaces any non empty value with "****".
func AnonymousStringAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
		return a
	}
	return slog.String(a.Key, "****")
}

// Handler is an slog.Handler.
type Handler struct {
	slog  slog.Handler
	masks map[string]func(slog.Attr) slog.Attr
}

// NewHandler returns a new Handler.
func NewHandler(h slog.Handler, opts ...Option) *Handler {
	masks := make(map[string]func(slog.Attr) slog.Attr)
	for _, opt := range opts {
		opt(masks)
	}
	return &Handler{
		slog:  h,
		masks: masks,
	}
}

func (h *Handler) mask(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		masked := make([]any, len(group))
		for i, ga := range group {
			masked[i] = h.mask(ga)
		}
		return slog.Group(a.Key, masked...)
	}
	f, ok := h.masks[strings.ToLower(a.Key)]
	if !ok {
		return a
	}
	return f(a)
}

// Enabled implements the slog.Handler interface.
func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.slog.Enabled(ctx, lvl)
}

// Handle implements the slog.Handler interface.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	nr := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		nr.AddAttrs(h.mask(a))
		return true
	})
	return h.slog.Handle(ctx, nr)
}

// WithAttrs implements the slog.Handler interface.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.mask(a)
	}
	return &Handler{
		slog:  h.slog.WithAttrs(masked),
		masks: h.masks,
	}
}

// WithGroup implements the slog.Handler interface.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		slog:  h.slog.WithGroup(name),
		masks: h.masks,
	}
}
