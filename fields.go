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
	"fmt"
	"strings"
)

// Field selects one SinkConfiguration setting for a selective merge.
type Field int

const (
	FieldLogLevel Field = iota + 1
	FieldConsoleLoggingEnabled
	FieldConsoleMinLevel
	FieldFilename
	FieldIncludeDateTime
	FieldIsUTCTime
	FieldPurgeAfterDays
	FieldMaximumLogFileSizeKB
	FieldAutoGenerateDirectory
	FieldAttemptAutoFileRenameOnIOError
)

// fieldAccessor copies and compares one field between configurations.
type fieldAccessor struct {
	name  string
	tag   string
	copy  func(dst, src *SinkConfiguration)
	equal func(a, b *SinkConfiguration) bool
}

var fieldAccessors = map[Field]fieldAccessor{
	FieldLogLevel: {
		name:  "LogLevel",
		tag:   "log_level",
		copy:  func(dst, src *SinkConfiguration) { dst.LogLevel = src.LogLevel },
		equal: func(a, b *SinkConfiguration) bool { return a.LogLevel == b.LogLevel },
	},
	FieldConsoleLoggingEnabled: {
		name:  "ConsoleLoggingEnabled",
		tag:   "console_logging_enabled",
		copy:  func(dst, src *SinkConfiguration) { dst.ConsoleLoggingEnabled = src.ConsoleLoggingEnabled },
		equal: func(a, b *SinkConfiguration) bool { return a.ConsoleLoggingEnabled == b.ConsoleLoggingEnabled },
	},
	FieldConsoleMinLevel: {
		name:  "ConsoleMinLevel",
		tag:   "console_min_level",
		copy:  func(dst, src *SinkConfiguration) { dst.ConsoleMinLevel = src.ConsoleMinLevel },
		equal: func(a, b *SinkConfiguration) bool { return a.ConsoleMinLevel == b.ConsoleMinLevel },
	},
	FieldFilename: {
		name:  "Filename",
		tag:   "filename",
		copy:  func(dst, src *SinkConfiguration) { dst.Filename = src.Filename },
		equal: func(a, b *SinkConfiguration) bool { return a.Filename == b.Filename },
	},
	FieldIncludeDateTime: {
		name:  "IncludeDateTime",
		tag:   "include_date_time",
		copy:  func(dst, src *SinkConfiguration) { dst.IncludeDateTime = src.IncludeDateTime },
		equal: func(a, b *SinkConfiguration) bool { return a.IncludeDateTime == b.IncludeDateTime },
	},
	FieldIsUTCTime: {
		name:  "IsUTCTime",
		tag:   "is_utc_time",
		copy:  func(dst, src *SinkConfiguration) { dst.IsUTCTime = src.IsUTCTime },
		equal: func(a, b *SinkConfiguration) bool { return a.IsUTCTime == b.IsUTCTime },
	},
	FieldPurgeAfterDays: {
		name:  "PurgeAfterDays",
		tag:   "purge_after_days",
		copy:  func(dst, src *SinkConfiguration) { dst.PurgeAfterDays = src.PurgeAfterDays },
		equal: func(a, b *SinkConfiguration) bool { return a.PurgeAfterDays == b.PurgeAfterDays },
	},
	FieldMaximumLogFileSizeKB: {
		name:  "MaximumLogFileSizeKB",
		tag:   "maximum_log_file_size_kb",
		copy:  func(dst, src *SinkConfiguration) { dst.MaximumLogFileSizeKB = src.MaximumLogFileSizeKB },
		equal: func(a, b *SinkConfiguration) bool { return a.MaximumLogFileSizeKB == b.MaximumLogFileSizeKB },
	},
	FieldAutoGenerateDirectory: {
		name:  "AutoGenerateDirectory",
		tag:   "auto_generate_directory",
		copy:  func(dst, src *SinkConfiguration) { dst.AutoGenerateDirectory = src.AutoGenerateDirectory },
		equal: func(a, b *SinkConfiguration) bool { return a.AutoGenerateDirectory == b.AutoGenerateDirectory },
	},
	FieldAttemptAutoFileRenameOnIOError: {
		name: "AttemptAutoFileRenameOnIOError",
		tag:  "attempt_auto_file_rename_on_io_error",
		copy: func(dst, src *SinkConfiguration) {
			dst.AttemptAutoFileRenameOnIOError = src.AttemptAutoFileRenameOnIOError
		},
		equal: func(a, b *SinkConfiguration) bool {
			return a.AttemptAutoFileRenameOnIOError == b.AttemptAutoFileRenameOnIOError
		},
	},
}

// AllFields lists every mergeable field in declaration order.
func AllFields() []Field {
	return []Field{
		FieldLogLevel,
		FieldConsoleLoggingEnabled,
		FieldConsoleMinLevel,
		FieldFilename,
		FieldIncludeDateTime,
		FieldIsUTCTime,
		FieldPurgeAfterDays,
		FieldMaximumLogFileSizeKB,
		FieldAutoGenerateDirectory,
		FieldAttemptAutoFileRenameOnIOError,
	}
}

// String returns the Go field name.
func (f Field) String() string {
	if acc, ok := fieldAccessors[f]; ok {
		return acc.name
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField resolves a field by its Go name or its configuration tag, case
// insensitively.
func ParseField(name string) (Field, error) {
	trimmed := strings.TrimSpace(name)
	for _, f := range AllFields() {
		acc := fieldAccessors[f]
		if strings.EqualFold(acc.name, trimmed) || strings.EqualFold(acc.tag, trimmed) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("slogrotate: unknown configuration field %q", name)
}

// mergeFields copies the selected fields from src onto dst. Unless enforce is
// set, a field is only copied while dst still holds the default value for it.
func mergeFields(dst, src *SinkConfiguration, enforce bool, fields []Field) {
	defaults := DefaultConfiguration()
	for _, f := range fields {
		acc, ok := fieldAccessors[f]
		if !ok {
			continue
		}
		if enforce || acc.equal(dst, &defaults) {
			acc.copy(dst, src)
		}
	}
}

// changedFields returns the fields of c that differ from base.
func changedFields(c, base *SinkConfiguration) []Field {
	var out []Field
	for _, f := range AllFields() {
		if !fieldAccessors[f].equal(c, base) {
			out = append(out, f)
		}
	}
	return out
}
