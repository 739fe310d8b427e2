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
	"errors"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// Frames skipped when capturing a stack from inside Log: runtime.Callers,
// captureCallerStack, formatException, Sink.log and the exported entry point.
const (
	maxStackFrames    = 64
	sinkCallerSkip    = 5
	scopeCallerSkip   = sinkCallerSkip
	handlerCallerSkip = sinkCallerSkip
)

var stackPCPool = sync.Pool{
	New: func() any {
		buf := make([]uintptr, maxStackFrames)
		return &buf
	},
}

// stackTracer is implemented by errors that carry the program counters of
// their origin. Compatible with github.com/pkg/errors.
type stackTracer interface {
	StackTrace() []uintptr
}

// formatException renders the exception block appended to an entry:
// "Exception: <message>" followed by the stack on the next lines. The stack
// comes from the error when it records one, otherwise from the Log caller.
func formatException(err error, skip int) string {
	if err == nil {
		return ""
	}
	stack := extractOriginStack(err)
	if stack == "" {
		stack = captureCallerStack(skip)
	}
	var b strings.Builder
	b.WriteString("Exception: ")
	b.WriteString(err.Error())
	if stack != "" {
		b.WriteByte('\n')
		b.WriteString(strings.TrimRight(stack, "\n"))
	}
	return b.String()
}

// extractOriginStack returns the stack recorded by err or any error it wraps.
func extractOriginStack(err error) string {
	var st stackTracer
	if errors.As(err, &st) {
		pcs := st.StackTrace()
		if len(pcs) > maxStackFrames {
			pcs = pcs[:maxStackFrames]
		}
		return formatPCs(pcs)
	}
	return ""
}

// captureCallerStack captures the current goroutine stack starting skip
// frames above runtime.Callers.
func captureCallerStack(skip int) string {
	bufPtr := stackPCPool.Get().(*[]uintptr)
	defer stackPCPool.Put(bufPtr)
	pcs := (*bufPtr)[:cap(*bufPtr)]

	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return ""
	}
	trimmed := trimStackPCs(pcs[:n], isSlogFrame)
	if len(trimmed) == 0 {
		trimmed = pcs[:n]
	}
	return formatPCs(trimmed)
}

// trimStackPCs removes leading frames that match skipFn.
func trimStackPCs(pcs []uintptr, skipFn func(string) bool) []uintptr {
	frames := runtime.CallersFrames(pcs)
	skip := 0
	for {
		frame, more := frames.Next()
		if !skipFn(frame.Function) {
			break
		}
		skip++
		if !more {
			return nil
		}
	}
	if skip >= len(pcs) {
		return nil
	}
	return pcs[skip:]
}

// isSlogFrame reports whether a frame belongs to log/slog, which sits between
// the caller and Handler.Handle.
func isSlogFrame(funcName string) bool {
	return strings.HasPrefix(funcName, "log/slog.")
}

// formatPCs formats program counters the way runtime/debug.Stack does,
// omitting the goroutine header and the runtime exit frame.
func formatPCs(pcs []uintptr) string {
	if len(pcs) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(pcs) * 64)

	var intBuf [20]byte
	frames := runtime.CallersFrames(pcs)
	count := 0
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if frame.Function == "" || frame.Function == "runtime.goexit" {
			if !more {
				break
			}
			continue
		}

		sb.WriteString(frame.Function)
		sb.WriteString("\n\t")
		sb.WriteString(frame.File)
		sb.WriteByte(':')
		sb.Write(strconv.AppendInt(intBuf[:0], int64(frame.Line), 10))
		sb.WriteByte('\n')

		count++
		if !more || count >= maxStackFrames {
			break
		}
	}
	return sb.String()
}
