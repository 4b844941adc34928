// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config implements the config command, which prints the effective settings.
package config

import (
	"context"
	"errors"
	"io"

	"github.com/goccy/go-yaml"
	settings "github.com/matt-FFFFFF/mediabatch/internal/config"
	"github.com/matt-FFFFFF/mediabatch/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const fileFlag = "config"

// ErrWriteConfig is returned when the settings cannot be written.
var ErrWriteConfig = errors.New("failed to write config")

// ConfigCmd prints the configuration after defaults, file and environment are applied.
var ConfigCmd = &cli.Command{
	Name:  "config",
	Usage: "Print the effective configuration",
	Description: `Print the configuration mediabatch would run with.
Settings come from defaults, then mediabatch.yaml, then MEDIABATCH_* environment variables.
Flags given to run override them further.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      fileFlag,
			Aliases:   []string{"c"},
			Usage:     "Configuration file. Defaults to mediabatch.yaml in . or the user config directory",
			TakesFile: true,
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := settings.Load(cmd.String(fileFlag))
		if err != nil {
			ctxlog.Error(ctx, err.Error())
			return cli.Exit("", 1)
		}

		if err := write(cmd.Writer, cfg); err != nil {
			ctxlog.Error(ctx, err.Error())
			return cli.Exit("", 1)
		}

		return nil
	},
}

func write(w io.Writer, cfg *settings.Config) error {
	doc := yaml.MapSlice{
		{Key: "concurrency", Value: cfg.Concurrency},
		{Key: "overwrite", Value: cfg.Overwrite},
		{Key: "display", Value: string(cfg.Display)},
		{Key: "cleanup", Value: string(cfg.Cleanup)},
		{Key: "trash_dir", Value: cfg.TrashDir},
		{Key: "tail_lines", Value: cfg.TailLines},
		{Key: "read_timeout", Value: cfg.ReadTimeout.String()},
		{Key: "read_buffer", Value: cfg.ReadBuffer.HumanReadable()},
		{Key: "drain_timeout", Value: cfg.DrainTimeout.String()},
		{Key: "min_free_disk", Value: cfg.MinFreeDisk.HumanReadable()},
		{Key: "fail_fast", Value: cfg.FailFast},
		{Key: "log_level", Value: cfg.LogLevel},
		{Key: "log_format", Value: string(cfg.LogFormat)},
	}

	b, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Join(ErrWriteConfig, err)
	}

	if _, err := w.Write(b); err != nil {
		return errors.Join(ErrWriteConfig, err)
	}

	return nil
}
