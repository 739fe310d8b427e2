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
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const envPrefix = "SLOGROTATE_"

const (
	envLevel        = "LEVEL"
	envConsole      = "CONSOLE"
	envConsoleLevel = "CONSOLE_LEVEL"
	envFile         = "FILE"
	envTimestamp    = "TIMESTAMP"
	envUTC          = "UTC"
	envPurgeDays    = "PURGE_DAYS"
	envMaxKB        = "MAX_KB"
	envAutoDir      = "AUTO_DIR"
	envAutoRename   = "AUTO_RENAME"
)

// ApplyEnv overlays SLOGROTATE_* environment variables onto cfg. For every
// key, SLOGROTATE_<NAME>_<KEY> (NAME upper-cased, non-alphanumerics replaced
// by underscores) takes precedence over SLOGROTATE_<KEY>. Invalid values keep
// the current setting and are reported to logger, which may be nil.
func ApplyEnv(cfg *SinkConfiguration, logger *slog.Logger) {
	if cfg == nil {
		return
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	_, display := normalizeName(cfg.Name)
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(envPrefix + envName(display) + "_" + key); ok {
			return v
		}
		return os.Getenv(envPrefix + key)
	}

	cfg.LogLevel = parseLevelEnv(lookup(envLevel), cfg.LogLevel, logger)
	cfg.ConsoleLoggingEnabled = parseBoolEnv(lookup(envConsole), cfg.ConsoleLoggingEnabled, logger)
	cfg.ConsoleMinLevel = parseLevelEnv(lookup(envConsoleLevel), cfg.ConsoleMinLevel, logger)
	if file := strings.TrimSpace(lookup(envFile)); file != "" {
		cfg.Filename = file
	}
	cfg.IncludeDateTime = parseBoolEnv(lookup(envTimestamp), cfg.IncludeDateTime, logger)
	cfg.IsUTCTime = parseBoolEnv(lookup(envUTC), cfg.IsUTCTime, logger)
	cfg.PurgeAfterDays = parseIntEnv(lookup(envPurgeDays), cfg.PurgeAfterDays, logger)
	cfg.MaximumLogFileSizeKB = parseIntEnv(lookup(envMaxKB), cfg.MaximumLogFileSizeKB, logger)
	cfg.AutoGenerateDirectory = parseBoolEnv(lookup(envAutoDir), cfg.AutoGenerateDirectory, logger)
	cfg.AttemptAutoFileRenameOnIOError = parseBoolEnv(lookup(envAutoRename), cfg.AttemptAutoFileRenameOnIOError, logger)
}

// envName converts a sink name to its environment variable form.
func envName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

// parseBoolEnv parses boolean environment variables, retaining the current
// value on failure.
func parseBoolEnv(value string, current bool, logger *slog.Logger) bool {
	if strings.TrimSpace(value) == "" {
		return current
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		logDiagnostic(logger, slog.LevelWarn, "invalid boolean environment variable", slog.String("value", value), slog.Any("error", err))
		return current
	}
	return b
}

// parseLevelEnv parses level names or numbers, retaining the current level on
// failure.
func parseLevelEnv(value string, current Level, logger *slog.Logger) Level {
	if strings.TrimSpace(value) == "" {
		return current
	}
	level, err := ParseLevel(value)
	if err != nil {
		logDiagnostic(logger, slog.LevelWarn, "invalid level environment variable", slog.String("value", value), slog.Any("error", err))
		return current
	}
	return level
}

func parseIntEnv(value string, current int, logger *slog.Logger) int {
	if strings.TrimSpace(value) == "" {
		return current
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logDiagnostic(logger, slog.LevelWarn, "invalid integer environment variable", slog.String("value", value), slog.Any("error", err))
		return current
	}
	return n
}

func logDiagnostic(logger *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	logger.LogAttrs(context.Background(), level, "slogrotate: "+msg, attrs...)
}
