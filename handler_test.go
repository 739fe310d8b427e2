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
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pjscruggs/slogrotate"
)

func TestHandlerWritesRecords(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "slog")
	cfg.LogLevel = slogrotate.LevelInformation
	sink, _ := newTestSink(t, cfg)
	logger := slog.New(slogrotate.NewHandler(sink))

	logger.Debug("hidden")
	logger.Info("started", slog.String("addr", ":8080"), slog.Int("workers", 4))
	logger.With(slog.String("component", "db")).WithGroup("query").Warn("slow",
		slog.Duration("took", 1500*time.Millisecond),
		slog.Group("plan", slog.String("kind", "seq scan")),
	)
	logger.Info("event", slog.Int(slogrotate.EventIDKey, 17))
	logger.Log(context.Background(), slog.Level(slogrotate.LevelCritical), "halt")
	closeSink(t, sink)

	want := []string{
		"[0, Information] started addr=:8080 workers=4",
		`[0, Warning] slow component=db query.took=1.5s query.plan.kind="seq scan"`,
		"[17, Information] event",
		"[0, Critical] halt",
	}
	if diff := cmp.Diff(want, readLines(t, cfg.Filename)); diff != "" {
		t.Fatalf("file lines mismatch (-want +got):\n%s", diff)
	}
}

func TestHandlerLiftsErrorAttribute(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "slogerr")
	sink, _ := newTestSink(t, cfg)
	logger := slog.New(slogrotate.NewHandler(sink))

	logger.Error("query failed", slog.Any("error", errors.New("timeout")), slog.String("table", "users"))
	closeSink(t, sink)

	lines := readLines(t, cfg.Filename)
	if len(lines) < 3 {
		t.Fatalf("got %q, want message, exception and stack", lines)
	}
	if lines[0] != "[0, Error] query failed table=users" {
		t.Errorf("lines[0] = %q", lines[0])
	}
	if lines[1] != "Exception: timeout" {
		t.Errorf("lines[1] = %q", lines[1])
	}
	if !strings.Contains(lines[2], "TestHandlerLiftsErrorAttribute") {
		t.Errorf("stack starts at %q, want the slog caller", lines[2])
	}
}

func TestHandlerEnabledFollowsConfiguration(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "slogenabled")
	cfg.LogLevel = slogrotate.LevelWarning
	sink, reg := newTestSink(t, cfg)
	h := slogrotate.NewHandler(sink)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("Enabled(Info) = true with a Warning minimum")
	}
	reg.Override(cfg.Name, func(c *slogrotate.SinkConfiguration) { c.LogLevel = slogrotate.LevelDebug })
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("Enabled(Info) = false after lowering the minimum")
	}
}

func TestHandlerEventName(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "slogname")
	sink, _ := newTestSink(t, cfg)
	logger := slog.New(slogrotate.NewHandler(sink)).With(slog.String(slogrotate.EventIDKey, "boot"))

	logger.Info("ready", slog.String("note", ""))
	closeSink(t, sink)

	if diff := cmp.Diff([]string{`[boot, Information] ready note=""`}, readLines(t, cfg.Filename)); diff != "" {
		t.Fatalf("file lines mismatch (-want +got):\n%s", diff)
	}
}
