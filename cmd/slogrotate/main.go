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

// Command slogrotate drives slogrotate sinks from the command line: it can
// write bursts of entries, follow a configuration file while logging a
// heartbeat, and purge rotated files.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "slogrotate",
		Usage: "Write, rotate and purge log files",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Print sink diagnostics to stderr",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Sink configuration file (.toml or .json)",
			},
		},
		Commands: []*cli.Command{
			burstCommand(),
			watchCommand(),
			purgeCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("slogrotate failed", slog.Any("error", err))
		os.Exit(1)
	}
}
