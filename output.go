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
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrFileLocked reports that another process or sink holds the log file.
var ErrFileLocked = errors.New("slogrotate: log file locked by another writer")

// outputFile owns the open log file of one sink. All methods are safe for
// concurrent use; the lock exists so Close can race with an in-flight write
// during shutdown.
type outputFile struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// open closes any current file and opens path for appending, taking an
// exclusive advisory lock. The parent directory is created when mkdir is set.
func (o *outputFile) open(path string, mkdir bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closeLocked()

	if mkdir {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("slogrotate: create log directory %q: %w", dir, err)
			}
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("slogrotate: open log file %q: %w", path, err)
	}
	if err := lockFile(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("slogrotate: lock log file %q: %w", path, err)
	}
	o.file = file
	o.path = path
	return nil
}

// write appends p to the current file.
func (o *outputFile) write(p []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.file == nil {
		return os.ErrClosed
	}
	if _, err := o.file.Write(p); err != nil {
		return fmt.Errorf("slogrotate: write log file %q: %w", o.path, err)
	}
	return nil
}

// size returns the size of the current file on disk.
func (o *outputFile) size() (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.file == nil {
		return 0, os.ErrClosed
	}
	fi, err := o.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("slogrotate: stat log file %q: %w", o.path, err)
	}
	return fi.Size(), nil
}

// currentPath returns the path of the open file, or "" when closed.
func (o *outputFile) currentPath() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.file == nil {
		return ""
	}
	return o.path
}

// rotate closes the file, renames it to a rotated name and reopens a fresh
// file at the original path. It returns the rotated file path.
func (o *outputFile) rotate(rotatedPath string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.file == nil {
		return os.ErrClosed
	}
	path := o.path
	if err := o.closeLocked(); err != nil {
		return err
	}
	renameErr := os.Rename(path, rotatedPath)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Join(renameErr, fmt.Errorf("slogrotate: reopen log file %q: %w", path, err))
	}
	if err := lockFile(file); err != nil {
		_ = file.Close()
		return errors.Join(renameErr, fmt.Errorf("slogrotate: lock log file %q: %w", path, err))
	}
	o.file = file
	o.path = path
	if renameErr != nil {
		return fmt.Errorf("slogrotate: rename log file %q: %w", path, renameErr)
	}
	return nil
}

// close closes the current file. It is idempotent.
func (o *outputFile) close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closeLocked()
}

func (o *outputFile) closeLocked() error {
	if o.file == nil {
		return nil
	}
	file := o.file
	o.file = nil
	_ = unlockFile(file)
	if err := file.Close(); err != nil {
		return fmt.Errorf("slogrotate: close log file %q: %w", o.path, err)
	}
	return nil
}

// alternatePath derives a unique sibling of path used when path cannot be
// opened: "<base>_[<uuid>]<ext>" with characters invalid in file names
// removed.
func alternatePath(path string) string {
	dir, name := filepath.Split(path)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := sanitizeFileName(base+"_["+uuid.NewString()+"]") + sanitizeFileName(ext)
	return filepath.Join(dir, candidate)
}

// sanitizeFileName strips characters that are invalid in a file name on any
// supported platform.
func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 {
			return -1
		}
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return -1
		}
		return r
	}, name)
}
