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

package slogrotateconfig

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pjscruggs/slogrotate"
)

const defaultSettleDelay = 100 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

type watchOptions struct {
	logger      *slog.Logger
	policy      slogrotate.OverwritePolicy
	settleDelay time.Duration
}

// WithLogger reports reload results and watcher errors to logger.
func WithLogger(logger *slog.Logger) WatchOption {
	return func(o *watchOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPolicy sets the policy used to apply reloaded entries. The default is
// slogrotate.PolicyOverwrite.
func WithPolicy(policy slogrotate.OverwritePolicy) WatchOption {
	return func(o *watchOptions) {
		o.policy = policy
	}
}

// WithSettleDelay sets how long Watch waits after a change event before
// reading the file, so editors finish writing.
func WithSettleDelay(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d >= 0 {
			o.settleDelay = d
		}
	}
}

// Watch loads path into reg and reloads it whenever the file changes, until
// ctx is done. The parent directory is watched, so atomic replacements by
// editors and a file that is deleted and created again are both picked up.
// A file that fails to parse leaves reg untouched.
func Watch(ctx context.Context, path string, reg *slogrotate.Registry, opts ...WatchOption) error {
	o := &watchOptions{
		logger:      slog.New(slog.DiscardHandler),
		policy:      slogrotate.PolicyOverwrite,
		settleDelay: defaultSettleDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	if err := reload(path, reg, o.policy); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("slogrotateconfig: create watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			o.logger.Warn("slogrotateconfig: close watcher failed", slog.Any("error", err))
		}
	}()
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("slogrotateconfig: watch %q: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				o.logger.Warn("slogrotateconfig: config file removed", slog.String("path", path))
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !sleepCtx(ctx, o.settleDelay) {
				return nil
			}
			if err := reload(path, reg, o.policy); err != nil {
				o.logger.Error("slogrotateconfig: reload failed", slog.String("path", path), slog.Any("error", err))
				continue
			}
			o.logger.Info("slogrotateconfig: configuration reloaded", slog.String("path", path), slog.String("op", event.Op.String()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.logger.Warn("slogrotateconfig: watcher error", slog.Any("error", err))
		}
	}
}

func reload(path string, reg *slogrotate.Registry, policy slogrotate.OverwritePolicy) error {
	cfgs, err := Load(path)
	if err != nil {
		return err
	}
	return ApplyTo(reg, cfgs, policy)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
