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

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pjscruggs/slogrotate"
	"github.com/pjscruggs/slogrotate/slogrotateconfig"
)

// diagnostics returns the internal logger selected by --debug.
func diagnostics(c *cli.Command) *slog.Logger {
	if !c.Bool("debug") {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// buildRegistry loads --config when set and overlays the environment on the
// selected sink.
func buildRegistry(c *cli.Command, sink string, logger *slog.Logger) (*slogrotate.Registry, error) {
	reg := slogrotate.NewRegistry()
	if path := c.String("config"); path != "" {
		cfgs, err := slogrotateconfig.Load(path)
		if err != nil {
			return nil, err
		}
		if err := slogrotateconfig.ApplyTo(reg, cfgs, slogrotate.PolicyOverwrite); err != nil {
			return nil, err
		}
	}
	reg.Override(sink, func(cfg *slogrotate.SinkConfiguration) {
		slogrotate.ApplyEnv(cfg, logger)
	})
	return reg, nil
}

func burstCommand() *cli.Command {
	return &cli.Command{
		Name:  "burst",
		Usage: "Write a number of entries to a sink and report its counters",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sink", Value: slogrotate.DefaultSinkName, Usage: "Sink name"},
			&cli.StringFlag{Name: "file", Usage: "Log file, overriding the configured one"},
			&cli.StringFlag{Name: "level", Value: "information", Usage: "Entry level"},
			&cli.IntFlag{Name: "count", Value: 1000, Usage: "Number of entries"},
			&cli.IntFlag{Name: "size", Value: 80, Usage: "Message size in bytes"},
			&cli.DurationFlag{Name: "timeout", Value: time.Minute, Usage: "Drain timeout on close"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := diagnostics(c)
			level, err := slogrotate.ParseLevel(c.String("level"))
			if err != nil {
				return err
			}
			reg, err := buildRegistry(c, c.String("sink"), logger)
			if err != nil {
				return err
			}
			reg.Override(c.String("sink"), func(cfg *slogrotate.SinkConfiguration) {
				if file := c.String("file"); file != "" {
					cfg.Filename = file
				}
				if cfg.LogLevel == slogrotate.LevelNone {
					cfg.LogLevel = level
				}
			})
			return burst(ctx, reg, c.String("sink"), level, c.Int("count"), c.Int("size"), c.Duration("timeout"), logger, os.Stdout)
		},
	}
}

func burst(ctx context.Context, reg *slogrotate.Registry, name string, level slogrotate.Level, count, size int, timeout time.Duration, logger *slog.Logger, out io.Writer) error {
	provider := slogrotate.NewProvider(reg, slogrotate.WithInternalLogger(logger), slogrotate.WithFlushTimeout(timeout))
	sink, err := provider.Sink(name)
	if err != nil {
		return err
	}

	payload := strings.Repeat("x", max(size, 0))
	scope := sink.BeginScope("burst")
	for i := range count {
		sink.Log(level, slogrotate.EventID{ID: i}, payload, nil, nil)
	}
	_ = scope.Close()

	closeErr := provider.Close(ctx)
	st := sink.Stats()
	fmt.Fprintf(out, "sink=%s written=%d rotations=%d purged=%d dropped=%d write_errors=%d\n",
		sink.Name(), st.Written, st.Rotations, st.Purged, st.Dropped, st.WriteErrors)
	return closeErr
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Follow --config and log a heartbeat to a sink until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sink", Value: slogrotate.DefaultSinkName, Usage: "Sink name"},
			&cli.DurationFlag{Name: "interval", Value: time.Second, Usage: "Heartbeat interval"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.String("config")
			if path == "" {
				return fmt.Errorf("watch requires --config")
			}
			logger := diagnostics(c)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := slogrotate.NewRegistry()
			errCh := make(chan error, 1)
			go func() {
				errCh <- slogrotateconfig.Watch(ctx, path, reg, slogrotateconfig.WithLogger(logger))
			}()

			provider := slogrotate.NewProvider(reg, slogrotate.WithInternalLogger(logger))
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := provider.Close(closeCtx); err != nil {
					logger.Warn("slogrotate: close failed", slog.Any("error", err))
				}
			}()

			ticker := time.NewTicker(c.Duration("interval"))
			defer ticker.Stop()
			for beat := 1; ; beat++ {
				select {
				case <-ctx.Done():
					return nil
				case err := <-errCh:
					return err
				case <-ticker.C:
					hb, err := provider.Logger(c.String("sink"))
					if err != nil {
						return err
					}
					hb.Info("heartbeat", slog.Int("beat", beat), slog.Int("event_id", beat))
				}
			}
		},
	}
}

func purgeCommand() *cli.Command {
	return &cli.Command{
		Name:      "purge",
		Usage:     "Delete rotated files of a log file older than --days",
		ArgsUsage: "<log file>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Value: 90, Usage: "Retention in days"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("purge requires a log file argument")
			}
			n, err := slogrotate.Purge(path, c.Int("days"))
			fmt.Fprintf(os.Stdout, "purged %d file(s)\n", n)
			return err
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(ctx context.Context, c *cli.Command) error {
			fmt.Println(slogrotate.GetVersion())
			return nil
		},
	}
}
