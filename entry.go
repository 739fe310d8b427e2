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
	"strconv"
	"strings"
	"time"
)

const (
	utcTimestampLayout   = "2006-01-02T15:04:05Z"
	localTimestampLayout = "2006-01-02T15:04:05 (-07)"
)

// EventID identifies a class of log event. It renders as Name when set and
// as the numeric ID otherwise.
type EventID struct {
	ID   int
	Name string
}

// String returns the rendered event identifier.
func (e EventID) String() string {
	if e.Name != "" {
		return e.Name
	}
	return strconv.Itoa(e.ID)
}

// queuedEntry is an immutable, fully formatted record waiting for the writer.
// The timestamp flags are taken from the configuration at enqueue time.
type queuedEntry struct {
	seq         uint64
	message     string
	level       Level
	includeTime bool
	utc         bool
	created     time.Time
}

// line renders the display line without the trailing newline.
func (e *queuedEntry) line() string {
	msg := strings.TrimRight(e.message, " \t\r\n")
	if !e.includeTime {
		return msg
	}
	var b strings.Builder
	b.Grow(len(msg) + 32)
	if e.utc {
		b.WriteString(e.created.UTC().Format(utcTimestampLayout))
	} else {
		b.WriteString(e.created.Local().Format(localTimestampLayout))
	}
	b.WriteString(" - ")
	b.WriteString(msg)
	return b.String()
}
