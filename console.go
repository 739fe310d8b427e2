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
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// consoleMu serializes console writes from every sink in the process so
// colored lines never interleave.
var consoleMu sync.Mutex

// console mirrors entries to a terminal with level-based colors.
type console struct {
	out         io.Writer
	interactive bool
	styles      map[Level]lipgloss.Style
}

// newConsole wraps w, or standard output when w is nil. Standard output is
// only mirrored when it is a terminal.
func newConsole(w io.Writer) *console {
	interactive := true
	if w == nil {
		w = os.Stdout
		fd := os.Stdout.Fd()
		interactive = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	r := lipgloss.NewRenderer(w)
	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return &console{
		out:         w,
		interactive: interactive,
		styles: map[Level]lipgloss.Style{
			LevelTrace:       base.Faint(true).Foreground(lipgloss.Color("8")),
			LevelDebug:       base.Foreground(lipgloss.Color("7")),
			LevelInformation: base.Foreground(lipgloss.Color("6")),
			LevelWarning:     base.Foreground(lipgloss.Color("3")),
			LevelError:       base.Foreground(lipgloss.Color("1")),
			LevelCritical:    base.Foreground(lipgloss.Color("9")),
		},
	}
}

// style returns the style of the nearest named level at or below level.
func (c *console) style(level Level) lipgloss.Style {
	switch {
	case level >= LevelCritical:
		return c.styles[LevelCritical]
	case level >= LevelError:
		return c.styles[LevelError]
	case level >= LevelWarning:
		return c.styles[LevelWarning]
	case level >= LevelInformation:
		return c.styles[LevelInformation]
	case level >= LevelDebug:
		return c.styles[LevelDebug]
	default:
		return c.styles[LevelTrace]
	}
}

// shouldMirror reports whether an entry at level is written to the console
// under cfg.
func (c *console) shouldMirror(cfg SinkConfiguration, level Level) bool {
	if c == nil || !c.interactive || !cfg.ConsoleLoggingEnabled {
		return false
	}
	return enabledFor(level, cfg.ConsoleMinLevel)
}

// write renders line in the color of level. Lines are styled one at a time
// so multi-line exceptions are not padded to a common width.
func (c *console) write(level Level, line string) error {
	style := c.style(level)
	parts := strings.Split(strings.TrimRight(line, " \t\r\n"), "\n")
	for i, part := range parts {
		if part != "" {
			parts[i] = style.Render(part)
		}
	}
	out := strings.Join(parts, "\n") + "\n"

	consoleMu.Lock()
	defer consoleMu.Unlock()
	_, err := io.WriteString(c.out, out)
	return err
}
