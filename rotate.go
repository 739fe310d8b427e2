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
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// rotationMarker separates the base name of a rotated file from its
// rotation timestamp.
const rotationMarker = "_[ROT-"

// rotatedPath returns the name path is renamed to on rotation:
// "<base>_[ROT-<unix nanoseconds>]<ext>". A counter is appended to the
// timestamp when that name already exists.
func rotatedPath(path string, now time.Time) string {
	dir, name := filepath.Split(path)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	stamp := strconv.FormatInt(now.UTC().UnixNano(), 10)

	candidate := filepath.Join(dir, base+rotationMarker+stamp+"]"+ext)
	for i := 1; fileExists(candidate); i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s%s%s-%d]%s", base, rotationMarker, stamp, i, ext))
	}
	return candidate
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// purgeRotated deletes rotated siblings of path whose modification time is
// more than days old at now. It returns the number of files removed. Errors
// removing individual files are collected and do not stop the sweep.
func purgeRotated(path string, days int, now time.Time) (int, error) {
	if days <= 0 || path == "" {
		return 0, nil
	}
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	prefix := strings.TrimSuffix(name, filepath.Ext(name)) + rotationMarker
	retention := time.Duration(days) * 24 * time.Hour

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("slogrotate: list rotated files in %q: %w", dir, err)
	}

	var (
		removed int
		errs    []string
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= retention {
			continue
		}
		target := filepath.Join(dir, entry.Name())
		if err := os.Remove(target); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		removed++
	}
	if len(errs) > 0 {
		return removed, fmt.Errorf("slogrotate: purge rotated files: %s", strings.Join(errs, "; "))
	}
	return removed, nil
}

// Purge deletes the rotated siblings of the log file path that are more than
// days old. It returns the number of files removed.
func Purge(path string, days int) (int, error) {
	return purgeRotated(path, days, time.Now())
}
