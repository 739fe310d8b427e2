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
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Level represents the severity of a log entry. It keeps the integer
// representation of slog.Level so the standard slog levels map onto it
// directly, and adds Trace, Critical and None.
type Level slog.Level

const (
	// LevelTrace is the most verbose level, below slog's Debug.
	LevelTrace Level = -8

	// LevelDebug matches slog.LevelDebug.
	LevelDebug Level = Level(slog.LevelDebug) // -4

	// LevelInformation matches slog.LevelInfo.
	LevelInformation Level = Level(slog.LevelInfo) // 0

	// LevelWarning matches slog.LevelWarn.
	LevelWarning Level = Level(slog.LevelWarn) // 4

	// LevelError matches slog.LevelError.
	LevelError Level = Level(slog.LevelError) // 8

	// LevelCritical sits above Error.
	LevelCritical Level = 12

	// LevelNone suppresses all output. A sink whose minimum level is None
	// writes nothing, and an entry logged at None is never written.
	LevelNone Level = math.MaxInt32
)

// String returns the level name used in the "[eventId, level]" prefix.
// Values between defined levels render as the nearest lower name plus an
// offset, for example "Warning+2".
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "Trace"
	case LevelDebug:
		return "Debug"
	case LevelInformation:
		return "Information"
	case LevelWarning:
		return "Warning"
	case LevelError:
		return "Error"
	case LevelCritical:
		return "Critical"
	case LevelNone:
		return "None"
	}

	var base Level
	switch {
	case l < LevelTrace:
		return slog.Level(l).String()
	case l < LevelDebug:
		base = LevelTrace
	case l < LevelInformation:
		base = LevelDebug
	case l < LevelWarning:
		base = LevelInformation
	case l < LevelError:
		base = LevelWarning
	case l < LevelCritical:
		base = LevelError
	default:
		base = LevelCritical
	}
	return fmt.Sprintf("%s+%d", base, int(l-base))
}

// Level returns the underlying slog.Level, satisfying slog.Leveler.
func (l Level) Level() slog.Level {
	return slog.Level(l)
}

// MarshalText encodes the level by name so configuration files stay readable.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name or integer produced by MarshalText.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel converts a level name into a Level. Matching is
// case-insensitive and accepts the slog spellings "info" and "warn" as well
// as bare integers.
func ParseLevel(s string) (Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	switch trimmed {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "information", "info":
		return LevelInformation, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "critical", "fatal":
		return LevelCritical, nil
	case "none", "off":
		return LevelNone, nil
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		return Level(n), nil
	}
	if i := strings.LastIndexAny(trimmed, "+-"); i > 0 {
		offset, err := strconv.Atoi(trimmed[i:])
		if err == nil {
			if base, err := ParseLevel(trimmed[:i]); err == nil && base != LevelNone {
				return base + Level(offset), nil
			}
		}
	}
	return 0, fmt.Errorf("slogrotate: unknown level %q", s)
}

// LevelFromSlog maps any slog.Level to a Level. The integer value is kept,
// so slog levels between named levels render with an offset.
func LevelFromSlog(level slog.Level) Level {
	return Level(level)
}

// enabledFor reports whether an entry at level passes the minimum. None on
// either side disables output.
func enabledFor(level, minimum Level) bool {
	if level == LevelNone || minimum == LevelNone {
		return false
	}
	return level >= minimum
}
