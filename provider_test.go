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
	"strings"
	"testing"
	"time"

	"github.com/pjscruggs/slogrotate"
)

func TestProviderResolvesSinks(t *testing.T) {
	t.Parallel()

	reg := slogrotate.NewRegistry()
	cfg := testConfig(t, "Orders")
	if err := reg.Add(cfg, slogrotate.PolicyThrow); err != nil {
		t.Fatalf("Add() returned %v", err)
	}
	p := slogrotate.NewProvider(reg, fastOptions()...)
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	a, err := p.Sink("orders")
	if err != nil {
		t.Fatalf("Sink() returned %v", err)
	}
	b, _ := p.Sink("ORDERS")
	if a != b {
		t.Fatalf("Sink() returned different sinks for the same name")
	}
	if a.Name() != "Orders" {
		t.Fatalf("Name() = %q, want the registered display name", a.Name())
	}

	fallback, _ := p.Sink("unconfigured")
	if fallback.Name() != slogrotate.DefaultSinkName {
		t.Fatalf("unconfigured name resolved to %q, want %q", fallback.Name(), slogrotate.DefaultSinkName)
	}
	other, _ := p.Sink("also-unconfigured")
	if other != fallback {
		t.Fatalf("unconfigured names resolved to different sinks")
	}
}

func TestProviderLogger(t *testing.T) {
	t.Parallel()

	reg := slogrotate.NewRegistry()
	cfg := testConfig(t, "api")
	_ = reg.Add(cfg, slogrotate.PolicyThrow)
	p := slogrotate.NewProvider(reg, fastOptions()...)

	logger, err := p.Logger("api")
	if err != nil {
		t.Fatalf("Logger() returned %v", err)
	}
	logger.Info("hello")
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close() returned %v", err)
	}

	if got := readLines(t, cfg.Filename); len(got) != 1 || got[0] != "[0, Information] hello" {
		t.Fatalf("file lines = %q", got)
	}
}

func TestProviderCloseAggregatesFailures(t *testing.T) {
	t.Parallel()

	reg := slogrotate.NewRegistry()
	good := testConfig(t, "good")
	bad := testConfig(t, "bad")
	bad.Filename = t.TempDir() // a directory never opens
	for _, cfg := range []slogrotate.SinkConfiguration{good, bad} {
		if err := reg.Add(cfg, slogrotate.PolicyThrow); err != nil {
			t.Fatalf("Add() returned %v", err)
		}
	}
	p := slogrotate.NewProvider(reg, fastOptions(slogrotate.WithFlushTimeout(50*time.Millisecond))...)

	for _, name := range []string{"good", "bad"} {
		s, err := p.Sink(name)
		if err != nil {
			t.Fatalf("Sink(%q) returned %v", name, err)
		}
		s.Log(slogrotate.LevelInformation, slogrotate.EventID{}, "entry", nil, nil)
	}

	err := p.Close(context.Background())
	if !errors.Is(err, slogrotate.ErrFlushTimeout) {
		t.Fatalf("Close() = %v, want ErrFlushTimeout", err)
	}
	if !strings.Contains(err.Error(), `sink "bad"`) || strings.Contains(err.Error(), `sink "good"`) {
		t.Fatalf("Close() error %q should name only the failing sink", err)
	}
	if got := readLines(t, good.Filename); len(got) != 1 {
		t.Fatalf("good sink wrote %q, want one line", got)
	}

	if _, err := p.Sink("good"); !errors.Is(err, slogrotate.ErrClosed) {
		t.Fatalf("Sink() after Close = %v, want ErrClosed", err)
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("second Close() returned %v", err)
	}
}

func TestProviderWithoutSource(t *testing.T) {
	t.Parallel()

	p := slogrotate.NewProvider(nil)
	s, err := p.Sink("")
	if err != nil {
		t.Fatalf("Sink() returned %v", err)
	}
	if s.IsEnabled(slogrotate.LevelCritical) {
		t.Fatalf("sink without configuration is enabled")
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close() returned %v", err)
	}
}
