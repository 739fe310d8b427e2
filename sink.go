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
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrFlushTimeout reports that Close gave up before every queued entry
	// reached the file.
	ErrFlushTimeout = errors.New("slogrotate: flush timeout exceeded")

	// ErrClosed is returned by operations on a closed Provider.
	ErrClosed = errors.New("slogrotate: closed")
)

// Formatter renders the message of a log call from its state and error.
type Formatter func(state any, err error) string

// State is the lifecycle phase of a sink's writer.
type State int32

const (
	// StateInitializing is the phase before the first output stream is opened.
	StateInitializing State = iota
	// StateIdle waits for entries.
	StateIdle
	// StateDraining processes queued entries one at a time.
	StateDraining
	// StateShuttingDown drains the queue after Close.
	StateShuttingDown
	// StateStopped is terminal.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats is a point-in-time view of a sink's counters.
type Stats struct {
	Enqueued    uint64
	Written     uint64
	WriteErrors uint64
	Rotations   uint64
	Purged      uint64
	Dropped     uint64
	Pending     int
	State       State
	// Path is the file currently open, which differs from the configured
	// Filename after an automatic rename.
	Path string
}

// Sink writes the entries of one configuration name to a rotating file
// through a dedicated background writer. All methods are safe for concurrent
// use; entries logged to one Sink reach the file in the order Log was
// called.
//
// Expired rotated files are purged after every rotation and open, and
// otherwise at most once per purge interval (one minute unless changed with
// WithPurgeInterval).
type Sink struct {
	name   string
	source ConfigSource
	opts   *options
	logger *slog.Logger

	queue   *entryQueue
	scopes  *scopeChain
	out     outputFile
	console *console

	watch       <-chan struct{}
	cancelWatch func()

	state  atomic.Int32
	closed atomic.Bool

	// admit is held shared from the closed check to the enqueue in log, so
	// no entry reaches the queue after markClosed returns.
	admit sync.RWMutex

	enqueued    atomic.Uint64
	written     atomic.Uint64
	writeErrors atomic.Uint64
	rotations   atomic.Uint64
	purged      atomic.Uint64
	dropped     atomic.Uint64

	stop      chan struct{}
	abort     chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	abortOnce sync.Once
	closeErr  error

	// Owned by the writer goroutine.
	openedFor   string
	lastPurge   time.Time
	purgeDue    bool
	mirroredSeq uint64
}

// NewSink starts a sink for the configuration called name in source. A nil
// source behaves as an empty Registry, so the sink stays disabled.
func NewSink(name string, source ConfigSource, opts ...Option) *Sink {
	if source == nil {
		source = NewRegistry()
	}
	_, display := normalizeName(name)
	o := applyOptions(opts)

	s := &Sink{
		name:    display,
		source:  source,
		opts:    o,
		logger:  o.internalLogger.With(slog.String("sink", display)),
		queue:   newEntryQueue(),
		scopes:  &scopeChain{},
		console: newConsole(o.consoleWriter),
		stop:    make(chan struct{}),
		abort:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.watch, s.cancelWatch = source.Watch(display)
	go s.run()
	return s
}

// Name returns the configuration name the sink is bound to.
func (s *Sink) Name() string { return s.name }

// Configuration returns the sink's current configuration.
func (s *Sink) Configuration() SinkConfiguration {
	cfg, _ := s.source.Configuration(s.name)
	return cfg
}

// IsEnabled reports whether an entry at level would be written: level is not
// LevelNone and meets the configured minimum.
func (s *Sink) IsEnabled(level Level) bool {
	if s == nil || s.closed.Load() {
		return false
	}
	return enabledFor(level, s.Configuration().LogLevel)
}

// Log formats and enqueues an entry. The message is built by formatter, or
// from the string form of state when formatter is nil. A non-nil err is
// appended with its stack trace on the following lines. Log never blocks on
// I/O and never fails.
func (s *Sink) Log(level Level, eventID EventID, state any, err error, formatter Formatter) {
	s.log(level, eventID, state, err, formatter, sinkCallerSkip)
}

func (s *Sink) log(level Level, eventID EventID, state any, err error, formatter Formatter, skip int) {
	if s == nil {
		return
	}
	cfg := s.Configuration()
	if !enabledFor(level, cfg.LogLevel) {
		return
	}
	if s.closed.Load() {
		s.dropped.Add(1)
		return
	}
	msg, ok := s.render(state, err, formatter)
	if !ok {
		return
	}

	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(eventID.String())
	b.WriteString(", ")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(s.scopes.prefix())
	b.WriteString(msg)
	if err != nil {
		b.WriteByte('\n')
		b.WriteString(formatException(err, skip))
	}

	entry := &queuedEntry{
		message:     b.String(),
		level:       level,
		includeTime: cfg.IncludeDateTime,
		utc:         cfg.IsUTCTime,
		created:     s.opts.now(),
	}

	s.admit.RLock()
	defer s.admit.RUnlock()
	if s.closed.Load() {
		s.dropped.Add(1)
		return
	}
	s.queue.enqueue(entry)
	s.enqueued.Add(1)
}

// markClosed stops admission of new entries. Once it returns, the queue only
// shrinks.
func (s *Sink) markClosed() {
	s.admit.Lock()
	s.closed.Store(true)
	s.admit.Unlock()
}

// render runs the formatter, converting a panic into a dropped entry.
func (s *Sink) render(state any, err error, formatter Formatter) (msg string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.dropped.Add(1)
			s.logger.Error("slogrotate: formatter panicked", slog.Any("panic", r))
			msg, ok = "", false
		}
	}()
	return formatState(state, err, formatter), true
}

// formatState returns the message for state, using formatter when set.
func formatState(state any, err error, formatter Formatter) string {
	if formatter != nil {
		return formatter(state, err)
	}
	return stringifyState(state)
}

// Stats returns the sink counters.
func (s *Sink) Stats() Stats {
	return Stats{
		Enqueued:    s.enqueued.Load(),
		Written:     s.written.Load(),
		WriteErrors: s.writeErrors.Load(),
		Rotations:   s.rotations.Load(),
		Purged:      s.purged.Load(),
		Dropped:     s.dropped.Load(),
		Pending:     s.queue.len(),
		State:       State(s.state.Load()),
		Path:        s.out.currentPath(),
	}
}

// Close stops the sink. Queued entries keep draining until the queue is
// empty, the flush timeout elapses or ctx is done; the file and every open
// scope are then closed. Entries not written by then are lost and reported
// through ErrFlushTimeout. Close is idempotent and returns the same result
// on every call.
func (s *Sink) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.stopOnce.Do(func() {
		s.markClosed()
		close(s.stop)
	})
	select {
	case <-s.done:
	case <-ctx.Done():
		s.abortOnce.Do(func() { close(s.abort) })
		<-s.done
	}
	return s.closeErr
}
