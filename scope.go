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
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const scopeSeparator = ":"

// Scope is a contextual tag active on its sink until Close is called. While
// open, its ID is included in the "[id:id]" prefix of every line logged
// through the sink, from any goroutine.
type Scope struct {
	id            string
	correlationID string
	sink          *Sink
	closed        atomic.Bool
}

// ID returns the display identifier taken from the scope state.
func (s *Scope) ID() string { return s.id }

// CorrelationID returns the caller supplied identifier, which may be empty.
func (s *Scope) CorrelationID() string { return s.correlationID }

// Close removes the scope from its sink. Closing twice is a no-op.
func (s *Scope) Close() error {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.sink.scopes.remove(s)
	return nil
}

// Log forwards an entry to the owning sink. A scope with a correlation ID
// prefixes the formatted message with "[Scope, <id>]"; the message is then
// handed to the sink as a preformatted string.
func (s *Scope) Log(level Level, eventID EventID, state any, err error, formatter Formatter) {
	if s == nil || s.sink == nil {
		return
	}
	if s.correlationID == "" {
		s.sink.log(level, eventID, state, err, formatter, scopeCallerSkip)
		return
	}
	if !s.sink.IsEnabled(level) {
		return
	}
	msg := "[Scope, " + s.correlationID + "] " + formatState(state, err, formatter)
	s.sink.log(level, eventID, msg, err, nil, scopeCallerSkip)
}

var _ io.Closer = (*Scope)(nil)

// scopeChain is the set of open scopes of one sink. The set is shared by all
// goroutines using the sink.
type scopeChain struct {
	mu     sync.Mutex
	scopes []*Scope
}

func (c *scopeChain) add(s *Scope) {
	c.mu.Lock()
	c.scopes = append(c.scopes, s)
	c.mu.Unlock()
}

func (c *scopeChain) remove(s *Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, open := range c.scopes {
		if open == s {
			c.scopes = append(c.scopes[:i], c.scopes[i+1:]...)
			return
		}
	}
}

// prefix returns "[a:b] " for the open scopes, with duplicate ids collapsed in
// first-opened order, or "" when none are open.
func (c *scopeChain) prefix() string {
	c.mu.Lock()
	if len(c.scopes) == 0 {
		c.mu.Unlock()
		return ""
	}
	ids := make([]string, 0, len(c.scopes))
	seen := make(map[string]struct{}, len(c.scopes))
	for _, s := range c.scopes {
		if _, dup := seen[s.id]; dup {
			continue
		}
		seen[s.id] = struct{}{}
		ids = append(ids, s.id)
	}
	c.mu.Unlock()

	joined := strings.Join(ids, scopeSeparator)
	if strings.TrimSpace(joined) == "" {
		return ""
	}
	return "[" + joined + "] "
}

// closeAll marks every open scope closed and empties the set.
func (c *scopeChain) closeAll() {
	c.mu.Lock()
	open := c.scopes
	c.scopes = nil
	c.mu.Unlock()
	for _, s := range open {
		s.closed.Store(true)
	}
}

// BeginScope opens a scope tagged with the string form of state.
func (s *Sink) BeginScope(state any) *Scope {
	return s.BeginScopeWithID(state, "")
}

// BeginScopeWithID opens a scope tagged with the string form of state and
// carrying correlationID. An empty string form of state is replaced by a
// random UUID.
func (s *Sink) BeginScopeWithID(state any, correlationID string) *Scope {
	id := stringifyState(state)
	if id == "" {
		id = uuid.NewString()
	}
	scope := &Scope{
		id:            id,
		correlationID: correlationID,
		sink:          s,
	}
	s.scopes.add(scope)
	return scope
}

// BeginScopeContext opens a scope whose correlation ID is the trace ID of the
// span active in ctx. Without a valid span it behaves like BeginScope.
func (s *Sink) BeginScopeContext(ctx context.Context, state any) *Scope {
	var correlationID string
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			correlationID = sc.TraceID().String()
		}
	}
	return s.BeginScopeWithID(state, correlationID)
}

// stringifyState returns the display form of a scope or log state.
func stringifyState(state any) string {
	switch v := state.(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
