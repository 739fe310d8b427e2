// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slogrotate

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Attribute keys the Handler lifts out of a record instead of rendering.
const (
	ErrorKey   = "error"
	ErrKey     = "err"
	EventIDKey = "event_id"
)

// Handler adapts a Sink to slog. Records become entries with the message
// followed by key=value pairs. An error attribute named "error" or "err"
// becomes the entry exception and an integer "event_id" attribute its event
// id.
type Handler struct {
	sink   *Sink
	attrs  string
	groups string
	err    error
	event  EventID
}

// NewHandler returns a Handler logging to sink.
func NewHandler(sink *Sink) *Handler {
	return &Handler{sink: sink}
}

// Enabled implements [slog.Handler].
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.sink.IsEnabled(LevelFromSlog(level))
}

// Handle implements [slog.Handler].
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	c := collector{prefix: h.groups, err: h.err, event: h.event}
	r.Attrs(func(a slog.Attr) bool {
		c.add(a, h.groups)
		return true
	})

	var b strings.Builder
	b.WriteString(r.Message)
	for _, part := range []string{h.attrs, c.b.String()} {
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(part)
	}
	h.sink.log(LevelFromSlog(r.Level), c.event, b.String(), c.err, nil, handlerCallerSkip)
	return nil
}

// WithAttrs implements [slog.Handler].
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := collector{prefix: h.groups, err: h.err, event: h.event}
	c.b.WriteString(h.attrs)
	for _, a := range attrs {
		c.add(a, h.groups)
	}
	clone := *h
	clone.attrs = c.b.String()
	clone.err = c.err
	clone.event = c.event
	return &clone
}

// WithGroup implements [slog.Handler].
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = h.groups + name + "."
	return &clone
}

var _ slog.Handler = (*Handler)(nil)

// collector renders attributes and captures the reserved ones.
type collector struct {
	b      strings.Builder
	prefix string
	err    error
	event  EventID
}

func (c *collector) add(a slog.Attr, groups string) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if groups == c.prefix && c.capture(a) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := groups
		if a.Key != "" {
			inner = groups + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			c.add(ga, inner)
		}
		return
	}
	if c.b.Len() > 0 {
		c.b.WriteByte(' ')
	}
	c.b.WriteString(groups)
	c.b.WriteString(a.Key)
	c.b.WriteByte('=')
	c.b.WriteString(formatValue(a.Value))
}

// capture consumes the reserved attributes at the handler's own group level.
func (c *collector) capture(a slog.Attr) bool {
	switch a.Key {
	case ErrorKey, ErrKey:
		if a.Value.Kind() != slog.KindAny {
			return false
		}
		err, ok := a.Value.Any().(error)
		if !ok {
			return false
		}
		if c.err == nil {
			c.err = err
		} else {
			c.err = errors.Join(c.err, err)
		}
		return true
	case EventIDKey:
		switch a.Value.Kind() {
		case slog.KindInt64:
			c.event = EventID{ID: int(a.Value.Int64())}
			return true
		case slog.KindUint64:
			c.event = EventID{ID: int(a.Value.Uint64())}
			return true
		case slog.KindString:
			c.event = EventID{Name: a.Value.String()}
			return true
		}
	}
	return false
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return quoteIfNeeded(err.Error())
		}
		return quoteIfNeeded(v.String())
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
