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

import "strings"

// DefaultSinkName is used when a configuration or sink is requested with an
// empty name.
const DefaultSinkName = "default"

// SinkConfiguration holds the settings of one named sink. Values are copied
// into and out of a Registry, so a SinkConfiguration held by a caller is a
// snapshot and mutating it has no effect on running sinks.
type SinkConfiguration struct {
	// Name identifies the sink. Names compare case-insensitively.
	Name string `json:"name" toml:"name"`

	// LogLevel is the minimum level written to the file. LevelNone
	// suppresses all output.
	LogLevel Level `json:"log_level" toml:"log_level"`

	// ConsoleLoggingEnabled mirrors entries to the console.
	ConsoleLoggingEnabled bool `json:"console_logging_enabled" toml:"console_logging_enabled"`

	// ConsoleMinLevel is the minimum level mirrored to the console.
	ConsoleMinLevel Level `json:"console_min_level" toml:"console_min_level"`

	// Filename is the active log file path. Rotated files are created in the
	// same directory.
	Filename string `json:"filename" toml:"filename"`

	// IncludeDateTime prefixes each line with a timestamp.
	IncludeDateTime bool `json:"include_date_time" toml:"include_date_time"`

	// IsUTCTime selects UTC timestamps instead of local time with an offset.
	IsUTCTime bool `json:"is_utc_time" toml:"is_utc_time"`

	// PurgeAfterDays deletes rotated files older than this many days. Zero or
	// less disables purging.
	PurgeAfterDays int `json:"purge_after_days" toml:"purge_after_days"`

	// MaximumLogFileSizeKB is the size that triggers rotation.
	MaximumLogFileSizeKB int `json:"maximum_log_file_size_kb" toml:"maximum_log_file_size_kb"`

	// AutoGenerateDirectory creates the parent directory of Filename.
	AutoGenerateDirectory bool `json:"auto_generate_directory" toml:"auto_generate_directory"`

	// AttemptAutoFileRenameOnIOError writes to an alternate file name when
	// the configured file cannot be opened.
	AttemptAutoFileRenameOnIOError bool `json:"attempt_auto_file_rename_on_io_error" toml:"attempt_auto_file_rename_on_io_error"`
}

// DefaultConfiguration returns the settings applied to names that were never
// configured. Output is disabled until a level and file name are set.
func DefaultConfiguration() SinkConfiguration {
	return SinkConfiguration{
		LogLevel:             LevelNone,
		ConsoleMinLevel:      LevelError,
		IncludeDateTime:      true,
		IsUTCTime:            true,
		PurgeAfterDays:       90,
		MaximumLogFileSizeKB: 4096,
	}
}

// normalizeName returns the registry key and display name for name.
func normalizeName(name string) (key, display string) {
	display = strings.TrimSpace(name)
	if display == "" {
		display = DefaultSinkName
	}
	return strings.ToLower(display), display
}

// maxFileBytes converts MaximumLogFileSizeKB to bytes. Non-positive values
// disable rotation.
func (c SinkConfiguration) maxFileBytes() int64 {
	if c.MaximumLogFileSizeKB <= 0 {
		return 0
	}
	return int64(c.MaximumLogFileSizeKB) * 1024
}
