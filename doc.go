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

// Package slogrotate writes log entries from any number of goroutines to a
// size-rotated file through one background writer per named sink. It also
// mirrors entries to a color console and purges rotated files past a
// retention window.
//
// Configuration lives in a [Registry] keyed by case-insensitive sink name.
// A [Sink] is bound to one name and re-reads the configuration on every
// call, so level changes apply immediately and a new Filename makes the
// writer reopen its file:
//
//	reg := slogrotate.NewRegistry()
//	_ = reg.Add(slogrotate.SinkConfiguration{
//		Name:     "api",
//		LogLevel: slogrotate.LevelInformation,
//		Filename: "/var/log/api/api.log",
//	}, slogrotate.PolicyOverwrite)
//
//	provider := slogrotate.NewProvider(reg)
//	defer provider.Close(context.Background())
//
//	sink, _ := provider.Sink("api")
//	sink.Log(slogrotate.LevelWarning, slogrotate.EventID{ID: 7}, "disk almost full", nil, nil)
//
// Each line has the form
//
//	2025-01-02T03:04:05Z - [7, Warning] [scope:ids] message
//
// When appending a line would make the file reach MaximumLogFileSizeKB, the
// file is renamed to "<base>_[ROT-<timestamp>]<ext>" and a fresh one is
// opened. Rotated files older than PurgeAfterDays are deleted.
//
// Scopes opened with [Sink.BeginScope] tag every line written through the
// sink until they are closed. [NewHandler] adapts a sink to [log/slog].
//
// # Subpackages
//
//   - [github.com/pjscruggs/slogrotate/slogrotateconfig] loads sink
//     configuration from TOML or JSON files and reloads it on change.
//   - cmd/slogrotate is a small command line tool for exercising a sink.
package slogrotate
