// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the mediabatch command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/mediabatch"
	"github.com/matt-FFFFFF/mediabatch/cmd/mediabatch/config"
	"github.com/matt-FFFFFF/mediabatch/cmd/mediabatch/run"
	"github.com/matt-FFFFFF/mediabatch/cmd/mediabatch/show"
	"github.com/matt-FFFFFF/mediabatch/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		config.ConfigCmd,
		run.RunCmd,
		show.ShowCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "mediabatch",
	Description: `mediabatch runs a batch of media transcodes described by a YAML manifest.
Tasks run as child processes with bounded concurrency, live progress and a batch ETA.
An interrupt stops the batch cleanly: running processes are killed, queued tasks are
never started and partial outputs are moved to the trash.`,
	Usage:     "mediabatch run batch.yaml",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", mediabatch.Version, mediabatch.Commit)

	// The run command installs its own signal handling; an exit code travels in a cli.ExitCoder.
	if err := rootCmd.Run(ctx, os.Args); err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
