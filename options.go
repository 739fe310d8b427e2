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
	"io"
	"log/slog"
	"time"
)

const (
	defaultIdleInterval  = 100 * time.Millisecond
	defaultRetryInterval = 100 * time.Millisecond
	defaultFlushTimeout  = 5 * time.Minute
	defaultPurgeInterval = time.Minute
)

// Option configures a Sink or Provider during construction.
type Option func(*options)

// options holds the tunables shared by every sink a Provider creates.
type options struct {
	internalLogger *slog.Logger
	consoleWriter  io.Writer
	idleInterval   time.Duration
	retryInterval  time.Duration
	flushTimeout   time.Duration
	purgeInterval  time.Duration
	now            func() time.Time
}

func defaultOptions() *options {
	return &options{
		internalLogger: slog.New(slog.DiscardHandler),
		idleInterval:   defaultIdleInterval,
		retryInterval:  defaultRetryInterval,
		flushTimeout:   defaultFlushTimeout,
		purgeInterval:  defaultPurgeInterval,
		now:            time.Now,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithInternalLogger routes diagnostics about I/O failures, rotation and
// purge to logger. Diagnostics are discarded by default.
func WithInternalLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.internalLogger = logger
		}
	}
}

// WithConsoleWriter replaces standard output as the console mirror. An
// injected writer is always treated as interactive.
func WithConsoleWriter(w io.Writer) Option {
	return func(o *options) {
		o.consoleWriter = w
	}
}

// WithIdleInterval sets how long the writer waits for new entries before
// re-checking the queue.
func WithIdleInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idleInterval = d
		}
	}
}

// WithRetryInterval sets the delay before a failed file write is retried.
func WithRetryInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retryInterval = d
		}
	}
}

// WithFlushTimeout bounds how long Close keeps draining queued entries.
func WithFlushTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.flushTimeout = d
		}
	}
}

// WithPurgeInterval throttles the purge of rotated files. Purge always runs
// after a rotation and when a file is opened; otherwise at most once per
// interval. The default interval is one minute, so while a sink runs without
// rotating, a rotated file that ages past PurgeAfterDays can outlive its
// retention by up to a minute. Zero checks on every processed entry.
func WithPurgeInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.purgeInterval = d
		}
	}
}

// WithClock replaces time.Now for entry timestamps and purge age checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
