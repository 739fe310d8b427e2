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

package slogrotateconfig_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"

	"github.com/pjscruggs/slogrotate"
	"github.com/pjscruggs/slogrotate/slogrotateconfig"
)

const sampleTOML = `
[[sinks]]
name = "api"
log_level = "information"
filename = "/var/log/api.log"
maximum_log_file_size_kb = 10240
purge_after_days = 14

[[sinks]]
name = "audit"
log_level = "warning"
console_logging_enabled = true
console_min_level = "error"
is_utc_time = false
`

const sampleJSON = `{
  "sinks": [
    {"name": "api", "log_level": "information", "filename": "/var/log/api.log",
     "maximum_log_file_size_kb": 10240, "purge_after_days": 14},
    {"name": "audit", "log_level": "warning", "console_logging_enabled": true,
     "console_min_level": "error", "is_utc_time": false}
  ]
}`

func wantSample() []slogrotate.SinkConfiguration {
	api := slogrotate.DefaultConfiguration()
	api.Name = "api"
	api.LogLevel = slogrotate.LevelInformation
	api.Filename = "/var/log/api.log"
	api.MaximumLogFileSizeKB = 10240
	api.PurgeAfterDays = 14

	audit := slogrotate.DefaultConfiguration()
	audit.Name = "audit"
	audit.LogLevel = slogrotate.LevelWarning
	audit.ConsoleLoggingEnabled = true
	audit.ConsoleMinLevel = slogrotate.LevelError
	audit.IsUTCTime = false
	return []slogrotate.SinkConfiguration{api, audit}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile returned %v", err)
	}
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ name, content string }{
		{"sinks.toml", sampleTOML},
		{"sinks.json", sampleJSON},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := slogrotateconfig.Load(writeFile(t, tc.name, tc.content))
			if err != nil {
				t.Fatalf("Load() returned %v", err)
			}
			if diff := cmp.Diff(wantSample(), got); diff != "" {
				t.Fatalf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, file, content string
	}{
		{"unknown key", "bad.toml", "[[sinks]]\nname = \"x\"\ncolour = true\n"},
		{"bad level", "bad.json", `{"sinks":[{"name":"x","log_level":"loud"}]}`},
		{"syntax", "bad.toml", "[[sinks]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := slogrotateconfig.Load(writeFile(t, tt.file, tt.content)); err == nil {
				t.Fatalf("Load() returned nil error")
			}
		})
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	t.Parallel()

	_, err := slogrotateconfig.Load(writeFile(t, "sinks.yaml", "sinks: []"))
	if !errors.Is(err, slogrotateconfig.ErrUnsupportedFormat) {
		t.Fatalf("Load() = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := slogrotateconfig.Load(filepath.Join(t.TempDir(), "absent.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load() = %v, want a not-exist error", err)
	}
}

func TestApplyToJoinsFailures(t *testing.T) {
	t.Parallel()

	reg := slogrotate.NewRegistry()
	cfgs := wantSample()
	if err := slogrotateconfig.ApplyTo(reg, cfgs, slogrotate.PolicyThrow); err != nil {
		t.Fatalf("first ApplyTo() returned %v", err)
	}
	err := slogrotateconfig.ApplyTo(reg, cfgs, slogrotate.PolicyThrow)
	if !errors.Is(err, slogrotate.ErrDuplicateName) {
		t.Fatalf("ApplyTo() = %v, want ErrDuplicateName", err)
	}
	if diff := cmp.Diff([]string{"api", "audit"}, reg.Names()); diff != "" {
		t.Fatalf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilenameSurvivesRoundTrip(t *testing.T) {
	t.Parallel()

	paths := []string{
		"/var/log/api.log",
		`C:\Logs\My App\api.log`,
		"relative/dir with spaces/ünïcode-日志.log",
		"./trailing.dot.",
	}

	type document struct {
		Sinks []slogrotate.SinkConfiguration `json:"sinks" toml:"sinks"`
	}

	for _, path := range paths {
		cfg := slogrotate.DefaultConfiguration()
		cfg.Name = "api"
		cfg.Filename = path
		doc := document{Sinks: []slogrotate.SinkConfiguration{cfg}}

		jsonData, err := json.Marshal(doc)
		if err != nil {
			t.Fatalf("json.Marshal returned %v", err)
		}
		fromJSON, err := slogrotateconfig.ParseJSON(jsonData)
		if err != nil {
			t.Fatalf("ParseJSON(%q) returned %v", path, err)
		}

		tomlData, err := toml.Marshal(doc)
		if err != nil {
			t.Fatalf("toml.Marshal returned %v", err)
		}
		fromTOML, err := slogrotateconfig.ParseTOML(tomlData)
		if err != nil {
			t.Fatalf("ParseTOML(%q) returned %v", path, err)
		}

		for codec, got := range map[string][]slogrotate.SinkConfiguration{"json": fromJSON, "toml": fromTOML} {
			if len(got) != 1 || got[0].Filename != path {
				t.Fatalf("%s round trip of %q = %+v", codec, path, got)
			}
		}
	}
}
