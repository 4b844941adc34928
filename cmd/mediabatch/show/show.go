// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show implements the show command, which prints the tasks a manifest expands to.
package show

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/mediabatch/internal/ctxlog"
	"github.com/matt-FFFFFF/mediabatch/internal/estimator"
	"github.com/matt-FFFFFF/mediabatch/internal/manifest"
	"github.com/matt-FFFFFF/mediabatch/internal/orchestrator"
	"github.com/matt-FFFFFF/mediabatch/internal/probe"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	manifestArg = "manifest"
	formatFlag  = "format"
	formatText  = "text"
	formatYAML  = "yaml"
	cliExitStr  = ""
)

var (
	// ErrFormat is returned for an unknown output format.
	ErrFormat = errors.New("unknown output format")
	// ErrWriteTasks is returned when the task list cannot be written.
	ErrWriteTasks = errors.New("failed to write tasks")
)

// FS is the filesystem sources are expanded against.
var FS = afero.NewOsFs()

// ShowCmd prints the tasks of a manifest without running them.
var ShowCmd = &cli.Command{
	Name:        "show",
	Usage:       "Print the tasks a manifest expands to",
	Description: "Load a manifest, expand its sources and print every task with its command line and the total workload.",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      manifestArg,
			UsageText: "MANIFEST",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    formatFlag,
			Aliases: []string{"o"},
			Usage:   "Output format: text or yaml",
			Value:   formatText,
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		src := cmd.StringArg(manifestArg)
		if src == "" {
			ctxlog.Error(ctx, "please specify a manifest")
			return cli.Exit(cliExitStr, 1)
		}

		if err := show(ctx, cmd.Writer, src, cmd.String(formatFlag)); err != nil {
			ctxlog.Error(ctx, err.Error())
			return cli.Exit(cliExitStr, 1)
		}

		return nil
	},
}

// taskView is the YAML shape of one task.
type taskView struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Input    string   `yaml:"input"`
	Output   string   `yaml:"output"`
	Workload float64  `yaml:"workload"`
	Command  []string `yaml:"command"`
}

type listView struct {
	Tasks         []taskView `yaml:"tasks"`
	TotalWorkload float64    `yaml:"total_workload"`
}

func show(ctx context.Context, w io.Writer, src, format string) error {
	if format != formatText && format != formatYAML {
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}

	m, err := manifest.Load(ctx, src)
	if err != nil {
		return err
	}

	tasks, err := m.Build(ctx, FS, manifest.BuildOptions{Probe: probe.Duration})
	if err != nil {
		return err
	}

	if format == formatYAML {
		return writeYAML(w, tasks)
	}

	return writeText(w, tasks)
}

func toView(tasks []orchestrator.Task) listView {
	v := listView{Tasks: make([]taskView, len(tasks))}

	for i, t := range tasks {
		v.Tasks[i] = taskView{
			ID:       t.ID,
			Name:     t.Label(),
			Input:    t.InputPath,
			Output:   t.OutputPath,
			Workload: t.Workload,
			Command:  t.Command,
		}
		v.TotalWorkload += t.Workload
	}

	return v
}

func writeYAML(w io.Writer, tasks []orchestrator.Task) error {
	b, err := yaml.Marshal(toView(tasks))
	if err != nil {
		return errors.Join(ErrWriteTasks, err)
	}

	if _, err := w.Write(b); err != nil {
		return errors.Join(ErrWriteTasks, err)
	}

	return nil
}

func writeText(w io.Writer, tasks []orchestrator.Task) error {
	v := toView(tasks)

	var b strings.Builder

	for i, t := range v.Tasks {
		fmt.Fprintf(&b, "[%d/%d] %s (%s)\n", i+1, len(v.Tasks), t.Name, t.ID)
		fmt.Fprintf(&b, "  %s → %s\n", t.Input, t.Output)
		fmt.Fprintf(&b, "  workload: %s\n", workload(t.Workload))
		fmt.Fprintf(&b, "  command:  %s\n", strings.Join(t.Command, " "))
	}

	fmt.Fprintf(&b, "%d task(s), total workload %s\n", len(v.Tasks), workload(v.TotalWorkload))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Join(ErrWriteTasks, err)
	}

	return nil
}

func workload(seconds float64) string {
	if seconds <= 0 {
		return "unknown"
	}

	return estimator.FormatDuration(time.Duration(seconds * float64(time.Second)))
}
