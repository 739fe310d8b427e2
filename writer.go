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
	"fmt"
	"log/slog"
	"time"
)

// run is the writer goroutine. It is the only code that touches the output
// file or consumes the queue.
func (s *Sink) run() {
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("slogrotate: writer panicked: %v", r)
			s.logger.Error("slogrotate: writer stopped", slog.Any("error", err))
			s.markClosed()
			s.finish(err)
		}
	}()

	s.setState(StateInitializing)
	s.reopen()

	timer := time.NewTimer(s.opts.idleInterval)
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			s.shutdown()
			return
		case <-s.watch:
			s.reopen()
		default:
		}

		next, err := s.processNext(StateDraining)
		if err != nil {
			s.logger.Error("slogrotate: writer stopped", slog.Any("error", err))
			s.markClosed()
			s.finish(err)
			return
		}
		if next == stepWritten {
			continue
		}

		// A pending retry waits out its interval even when new entries
		// arrive, so the queue signal is only honoured while idle.
		ready := s.queue.ready
		if next == stepRetry {
			ready = nil
		}
		resetTimer(timer, s.wait(next))
		select {
		case <-s.stop:
			s.shutdown()
			return
		case <-s.watch:
			s.reopen()
		case <-ready:
		case <-timer.C:
		}
	}
}

// step is the outcome of one writer iteration.
type step int

const (
	stepWritten step = iota
	stepIdle
	stepRetry
)

func (s *Sink) wait(next step) time.Duration {
	if next == stepRetry {
		return s.opts.retryInterval
	}
	return s.opts.idleInterval
}

// processNext handles the oldest entry and commits it once written. A
// non-nil error is fatal to the writer.
func (s *Sink) processNext(busy State) (step, error) {
	entry, ok := s.queue.peek()
	if !ok {
		if busy == StateDraining {
			s.setState(StateIdle)
		}
		return stepIdle, nil
	}
	s.setState(busy)

	cfg := s.Configuration()
	line := entry.line()

	if entry.seq > s.mirroredSeq {
		s.mirroredSeq = entry.seq
		if entry.level != LevelNone && s.console.shouldMirror(cfg, entry.level) {
			if err := s.console.write(entry.level, line); err != nil {
				s.logger.Warn("slogrotate: console write failed", slog.Any("error", err))
			}
		}
	}

	if s.out.currentPath() == "" {
		if cfg.Filename == "" {
			return stepIdle, nil
		}
		if !s.reopen() {
			return stepRetry, nil
		}
	}

	data := make([]byte, 0, len(line)+1)
	data = append(data, line...)
	data = append(data, '\n')

	rotated := s.rotateIfNeeded(cfg, int64(len(data)))
	s.purgeIfDue(cfg, rotated)

	if err := s.out.write(data); err != nil {
		s.writeErrors.Add(1)
		s.logger.Warn("slogrotate: write failed, will retry",
			slog.String("path", s.out.currentPath()),
			slog.Any("error", err),
		)
		return stepRetry, nil
	}
	if err := s.queue.commit(entry); err != nil {
		return stepRetry, err
	}
	s.written.Add(1)
	return stepWritten, nil
}

// reopen opens the configured file unless it is already open. On failure it
// tries an alternate name when the configuration asks for it. It reports
// whether a file is open afterwards.
func (s *Sink) reopen() bool {
	cfg := s.Configuration()
	if cfg.Filename == "" {
		if err := s.out.close(); err != nil {
			s.logger.Warn("slogrotate: close failed", slog.Any("error", err))
		}
		s.openedFor = ""
		return false
	}
	if cfg.Filename == s.openedFor && s.out.currentPath() != "" {
		return true
	}

	err := s.out.open(cfg.Filename, cfg.AutoGenerateDirectory)
	path := cfg.Filename
	if err != nil && cfg.AttemptAutoFileRenameOnIOError {
		alt := alternatePath(cfg.Filename)
		s.logger.Warn("slogrotate: open failed, using alternate file",
			slog.String("path", cfg.Filename),
			slog.String("alternate", alt),
			slog.Any("error", err),
		)
		if altErr := s.out.open(alt, cfg.AutoGenerateDirectory); altErr != nil {
			err = errors.Join(err, altErr)
		} else {
			err = nil
			path = alt
		}
	}
	if err != nil {
		s.openedFor = ""
		s.logger.Error("slogrotate: open failed", slog.String("path", cfg.Filename), slog.Any("error", err))
		return false
	}
	s.openedFor = cfg.Filename
	s.purgeDue = true
	s.logger.Debug("slogrotate: opened log file", slog.String("path", path))
	return true
}

// rotateIfNeeded rotates the file when it is non-empty and appending n bytes
// would reach the configured maximum.
func (s *Sink) rotateIfNeeded(cfg SinkConfiguration, n int64) bool {
	limit := cfg.maxFileBytes()
	if limit <= 0 {
		return false
	}
	size, err := s.out.size()
	if err != nil {
		s.logger.Warn("slogrotate: size check failed", slog.Any("error", err))
		return false
	}
	if size == 0 || size+n < limit {
		return false
	}

	current := s.out.currentPath()
	target := rotatedPath(current, s.opts.now())
	if err := s.out.rotate(target); err != nil {
		s.logger.Error("slogrotate: rotation failed",
			slog.String("path", current),
			slog.String("rotated", target),
			slog.Any("error", err),
		)
		return false
	}
	s.rotations.Add(1)
	s.logger.Debug("slogrotate: rotated log file", slog.String("path", current), slog.String("rotated", target))
	return true
}

// purgeIfDue removes expired rotated files. It runs after a rotation or an
// open, and otherwise at most once per purge interval.
func (s *Sink) purgeIfDue(cfg SinkConfiguration, rotated bool) {
	if cfg.PurgeAfterDays <= 0 {
		return
	}
	now := s.opts.now()
	if !rotated && !s.purgeDue && s.opts.purgeInterval > 0 && now.Sub(s.lastPurge) < s.opts.purgeInterval {
		return
	}
	s.lastPurge = now
	s.purgeDue = false

	n, err := purgeRotated(s.out.currentPath(), cfg.PurgeAfterDays, now)
	if n > 0 {
		s.purged.Add(uint64(n))
		s.logger.Debug("slogrotate: purged rotated files", slog.Int("count", n))
	}
	if err != nil {
		s.logger.Warn("slogrotate: purge failed", slog.Any("error", err))
	}
}

// shutdown drains the queue within the flush timeout, or until Close's
// context is done, and releases every resource.
func (s *Sink) shutdown() {
	s.setState(StateShuttingDown)

	deadline := time.NewTimer(s.opts.flushTimeout)
	defer deadline.Stop()
	wait := time.NewTimer(s.opts.retryInterval)
	defer wait.Stop()

	var fatal error
drain:
	for s.queue.len() > 0 {
		select {
		case <-s.abort:
			break drain
		case <-deadline.C:
			break drain
		case <-s.watch:
			s.reopen()
		default:
		}
		if s.Configuration().Filename == "" {
			break
		}
		next, err := s.processNext(StateShuttingDown)
		if err != nil {
			fatal = err
			break
		}
		if next == stepWritten {
			continue
		}
		resetTimer(wait, s.wait(next))
		select {
		case <-s.abort:
			break drain
		case <-deadline.C:
			break drain
		case <-wait.C:
		}
	}
	s.finish(fatal)
}

// finish closes the stream and scopes and records the result returned by
// Close. Entries still queued are counted as dropped.
func (s *Sink) finish(fatal error) {
	s.cancelWatch()
	s.scopes.closeAll()

	errs := []error{fatal}
	if err := s.out.close(); err != nil {
		errs = append(errs, err)
	}
	s.markClosed()
	left := s.queue.drain()
	if n := len(left); n > 0 {
		s.dropped.Add(uint64(n))
		if s.Configuration().Filename == "" {
			s.logger.Warn("slogrotate: no file configured, entries discarded", slog.Int("count", n))
		} else if fatal == nil {
			errs = append(errs, fmt.Errorf("%w: %d entries not written", ErrFlushTimeout, n))
		}
	}
	s.closeErr = errors.Join(errs...)
	s.setState(StateStopped)
}

func (s *Sink) setState(state State) {
	s.state.Store(int32(state))
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
