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

package slogrotate_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pjscruggs/slogrotate"
)

func TestSinkMirrorsToConsole(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "console")
	cfg.ConsoleLoggingEnabled = true
	cfg.ConsoleMinLevel = slogrotate.LevelWarning
	var buf bytes.Buffer
	sink, _ := newTestSink(t, cfg, slogrotate.WithConsoleWriter(&buf))

	sink.Log(slogrotate.LevelInformation, slogrotate.EventID{}, "file only", nil, nil)
	sink.Log(slogrotate.LevelError, slogrotate.EventID{ID: 5}, "both", nil, nil)
	closeSink(t, sink)

	out := buf.String()
	if !strings.Contains(out, "[5, Error] both") {
		t.Fatalf("console output %q is missing the error entry", out)
	}
	if strings.Contains(out, "file only") {
		t.Fatalf("console output %q contains an entry below the console minimum", out)
	}
	if got := len(readLines(t, cfg.Filename)); got != 2 {
		t.Fatalf("file has %d lines, want 2", got)
	}
}

func TestSinkConsoleDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "quiet")
	cfg.ConsoleLoggingEnabled = false
	cfg.ConsoleMinLevel = slogrotate.LevelTrace
	var buf bytes.Buffer
	sink, _ := newTestSink(t, cfg, slogrotate.WithConsoleWriter(&buf))

	sink.Log(slogrotate.LevelCritical, slogrotate.EventID{}, "silent", nil, nil)
	closeSink(t, sink)

	if buf.Len() != 0 {
		t.Fatalf("console output = %q, want none", buf.String())
	}
}

func TestSinkConsoleMirrorsOnceDespiteRetries(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "retry")
	cfg.ConsoleLoggingEnabled = true
	cfg.ConsoleMinLevel = slogrotate.LevelTrace
	path := cfg.Filename
	cfg.Filename = t.TempDir() // unopenable until the path changes
	var buf bytes.Buffer
	sink, reg := newTestSink(t, cfg, slogrotate.WithConsoleWriter(&buf))

	sink.Log(slogrotate.LevelWarning, slogrotate.EventID{}, "once", nil, nil)
	// Let the writer retry the failed open a few times.
	time.Sleep(50 * time.Millisecond)

	reg.Override(cfg.Name, func(c *slogrotate.SinkConfiguration) { c.Filename = path })
	closeSink(t, sink)

	if got := strings.Count(buf.String(), "once"); got != 1 {
		t.Fatalf("console shows the entry %d times, want 1", got)
	}
	if got := len(readLines(t, path)); got != 1 {
		t.Fatalf("file has %d lines, want 1", got)
	}
}
