// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/mediabatch/internal/color"
)

var (
	// ErrMarshalAttribute is returned when the attributes of a record cannot be rendered.
	ErrMarshalAttribute = errors.New("error when marshaling attribute")
	// ErrIoWrite is returned when the destination writer fails.
	ErrIoWrite = errors.New("error when writing to output")
)

const (
	// TimeFormat is the format used for timestamps in log lines.
	TimeFormat = "[15:04:05.000]"
	// TaskKey is lifted out of the attributes and printed as a prefix.
	TaskKey = "task"
)

// PrettyHandler renders records as a single line:
//
//	[15:04:05.000] WARN  [task-id] message {"key":"value"}
type PrettyHandler struct {
	opts   slog.HandlerOptions
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
	writer io.Writer
	colour bool
}

// Option configures a PrettyHandler.
type Option func(h *PrettyHandler)

// NewPrettyHandler returns a handler writing to stderr unless WithDestinationWriter is given.
func NewPrettyHandler(handlerOptions *slog.HandlerOptions, options ...Option) *PrettyHandler {
	h := &PrettyHandler{
		mu:     &sync.Mutex{},
		writer: os.Stderr,
	}

	if handlerOptions != nil {
		h.opts = *handlerOptions
	}

	for _, opt := range options {
		opt(h)
	}

	return h
}

// WithDestinationWriter sets the writer.
func WithDestinationWriter(w io.Writer) Option {
	return func(h *PrettyHandler) {
		h.writer = w
	}
}

// WithColour forces colour on.
func WithColour() Option {
	return func(h *PrettyHandler) {
		h.colour = true
	}
}

// WithAutoColour enables colour when the color package says the terminal supports it.
func WithAutoColour() Option {
	return func(h *PrettyHandler) {
		h.colour = color.Enabled()
	}
}

// Enabled implements slog.Handler.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}

	return level >= threshold
}

// WithAttrs implements slog.Handler.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	h2 := h.clone()

	for _, a := range attrs {
		h2.attrs = append(h2.attrs, h.nest(a))
	}

	return h2
}

// WithGroup implements slog.Handler.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	h2 := h.clone()
	h2.groups = append(h2.groups, name)

	return h2
}

// Handle implements slog.Handler.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]any, len(h.attrs)+r.NumAttrs())

	var task string

	collect := func(a slog.Attr) {
		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(h.groups, a)
		}

		a.Value = a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			return
		}

		if a.Key == TaskKey && a.Value.Kind() == slog.KindString {
			task = a.Value.String()
			return
		}

		fields[a.Key] = attrValue(a.Value)
	}

	for _, a := range h.attrs {
		collect(a)
	}

	r.Attrs(func(a slog.Attr) bool {
		collect(h.nest(a))
		return true
	})

	var out strings.Builder

	out.WriteString(h.paint(r.Time.Format(TimeFormat), color.FgWhite))
	out.WriteByte(' ')
	out.WriteString(h.paint(padLevel(r.Level), levelColour(r.Level)))
	out.WriteByte(' ')

	if task != "" {
		out.WriteString(h.paint("["+task+"]", color.FgMagenta))
		out.WriteByte(' ')
	}

	out.WriteString(r.Message)

	if len(fields) > 0 {
		f := colorjson.NewFormatter()
		f.Indent = 0
		f.DisabledColor = !h.colour

		b, err := f.Marshal(fields)
		if err != nil {
			return errors.Join(ErrMarshalAttribute, err)
		}

		out.WriteByte(' ')
		out.Write(b)
	}

	out.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := io.WriteString(h.writer, out.String()); err != nil {
		return errors.Join(ErrIoWrite, err)
	}

	return nil
}

func (h *PrettyHandler) clone() *PrettyHandler {
	h2 := *h
	h2.attrs = append([]slog.Attr(nil), h.attrs...)
	h2.groups = append([]string(nil), h.groups...)

	return &h2
}

// nest wraps a in the handler's open groups, innermost last.
func (h *PrettyHandler) nest(a slog.Attr) slog.Attr {
	for i := len(h.groups) - 1; i >= 0; i-- {
		a = slog.Group(h.groups[i], a)
	}

	return a
}

func (h *PrettyHandler) paint(s string, c color.Code) string {
	if !h.colour {
		return s
	}

	return color.Wrap(s, c)
}

func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindGroup:
		m := make(map[string]any, len(v.Group()))
		for _, a := range v.Group() {
			m[a.Key] = attrValue(a.Value.Resolve())
		}

		return m
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(TimeFormat)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}

		return v.Any()
	default:
		return v.Any()
	}
}

func padLevel(l slog.Level) string {
	s := l.String()
	if len(s) < 5 {
		s += strings.Repeat(" ", 5-len(s))
	}

	return s
}

func levelColour(l slog.Level) color.Code {
	switch {
	case l < slog.LevelInfo:
		return color.FgWhite
	case l < slog.LevelWarn:
		return color.FgCyan
	case l < slog.LevelError:
		return color.FgYellow
	default:
		return color.FgRed
	}
}
