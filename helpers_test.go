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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pjscruggs/slogrotate"
)

var fixedTime = time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

// testConfig returns an enabled configuration writing to a file in a fresh
// temporary directory, without timestamps.
func testConfig(t *testing.T, name string) slogrotate.SinkConfiguration {
	t.Helper()
	cfg := slogrotate.DefaultConfiguration()
	cfg.Name = name
	cfg.LogLevel = slogrotate.LevelTrace
	cfg.Filename = filepath.Join(t.TempDir(), name+".log")
	cfg.IncludeDateTime = false
	return cfg
}

// fastOptions keeps writer waits short so tests finish quickly.
func fastOptions(extra ...slogrotate.Option) []slogrotate.Option {
	opts := []slogrotate.Option{
		slogrotate.WithIdleInterval(5 * time.Millisecond),
		slogrotate.WithRetryInterval(5 * time.Millisecond),
		slogrotate.WithFlushTimeout(10 * time.Second),
		slogrotate.WithClock(fixedClock),
	}
	return append(opts, extra...)
}

// newTestSink registers cfg and starts a sink for it. The sink is closed when
// the test ends.
func newTestSink(t *testing.T, cfg slogrotate.SinkConfiguration, opts ...slogrotate.Option) (*slogrotate.Sink, *slogrotate.Registry) {
	t.Helper()
	reg := slogrotate.NewRegistry()
	if err := reg.Add(cfg, slogrotate.PolicyOverwrite); err != nil {
		t.Fatalf("Add() returned %v", err)
	}
	sink := slogrotate.NewSink(cfg.Name, reg, fastOptions(opts...)...)
	t.Cleanup(func() { _ = sink.Close(context.Background()) })
	return sink, reg
}

func closeSink(t *testing.T, sink *slogrotate.Sink) {
	t.Helper()
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close() returned %v", err)
	}
}

// readLines returns the lines of path without the trailing empty line.
func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%q) returned %v", path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// rotatedFiles lists the rotated siblings of path.
func rotatedFiles(t *testing.T, path string) []string {
	t.Helper()
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), base+"_*"))
	if err != nil {
		t.Fatalf("Glob returned %v", err)
	}
	var out []string
	for _, m := range matches {
		if strings.Contains(filepath.Base(m), "_[ROT-") {
			out = append(out, m)
		}
	}
	return out
}
