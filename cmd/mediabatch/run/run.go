// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run command, which executes every task of a manifest.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matt-FFFFFF/mediabatch/internal/cancellation"
	"github.com/matt-FFFFFF/mediabatch/internal/config"
	"github.com/matt-FFFFFF/mediabatch/internal/ctxlog"
	"github.com/matt-FFFFFF/mediabatch/internal/display"
	"github.com/matt-FFFFFF/mediabatch/internal/manifest"
	"github.com/matt-FFFFFF/mediabatch/internal/orchestrator"
	"github.com/matt-FFFFFF/mediabatch/internal/probe"
	"github.com/matt-FFFFFF/mediabatch/internal/progress"
	"github.com/matt-FFFFFF/mediabatch/internal/runbatch"
	"github.com/matt-FFFFFF/mediabatch/internal/signalbroker"
	"github.com/matt-FFFFFF/mediabatch/internal/stats"
	"github.com/matt-FFFFFF/mediabatch/internal/trash"
	"github.com/matt-FFFFFF/mediabatch/internal/tui"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

const (
	manifestArg   = "manifest"
	jobsFlag      = "jobs"
	overwriteFlag = "overwrite"
	displayFlag   = "display"
	tuiFlag       = "tui"
	cleanupFlag   = "cleanup"
	trashDirFlag  = "trash-dir"
	failFastFlag  = "fail-fast"
	configFlag    = "config"
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
	cliExitStr    = ""

	eventBufferSize = 256
)

var (
	// ErrNoManifest is returned when no manifest argument is given.
	ErrNoManifest = errors.New("no manifest given")
	// ErrBuildTasks is returned when the manifest cannot be turned into tasks.
	ErrBuildTasks = errors.New("could not build tasks from manifest")
)

// FS is the filesystem manifests are expanded against and outputs are checked on.
var FS = afero.NewOsFs()

// osExit ends the process when a second signal forces the exit.
var osExit = os.Exit

// isTerminal reports whether the TUI can take over the screen.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec
}

// RunCmd is the command that runs the tasks of a manifest.
var RunCmd = &cli.Command{
	Name:  "run",
	Usage: "Run every task of a manifest",
	Description: `Run every task of a manifest with bounded concurrency.

The manifest is a YAML file listing tasks and source directories. Its location uses
Hashicorp's go-getter syntax, so it can be a local path or a remote URL.
See https://github.com/hashicorp/go-getter.

Press Ctrl+C once to stop the batch: running processes are terminated, queued tasks are
never started and partial outputs are cleaned up. Press it again to exit at once.`,
	Arguments: arguments(),
	Flags:     flags(),
	Action:    actionFunc,
}

// arguments and flags return fresh values so every parse starts from the defaults.
func arguments() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{
			Name:      manifestArg,
			UsageText: "MANIFEST",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    jobsFlag,
			Aliases: []string{"j"},
			Usage:   "Maximum number of tasks running at once. 0 means max(cpu/3, 2)",
		},
		&cli.BoolFlag{
			Name:    overwriteFlag,
			Aliases: []string{"y"},
			Usage:   "Run tasks whose output already exists instead of skipping them",
		},
		&cli.StringFlag{
			Name:    displayFlag,
			Aliases: []string{"d"},
			Usage:   "Progress display: quiet, normal, verbose or tui",
		},
		&cli.BoolFlag{
			Name:    tuiFlag,
			Aliases: []string{"t", "interactive"},
			Usage:   "Run with the interactive terminal user interface. Same as --display tui",
		},
		&cli.StringFlag{
			Name:  cleanupFlag,
			Usage: "What to do with partial outputs of failed or cancelled tasks: trash, delete or keep",
		},
		&cli.StringFlag{
			Name:      trashDirFlag,
			Usage:     "Trash directory used by --cleanup trash",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:  failFastFlag,
			Usage: "Stop the batch at the first failed task",
		},
		&cli.StringFlag{
			Name:      configFlag,
			Aliases:   []string{"c"},
			Usage:     "Configuration file. Defaults to mediabatch.yaml in . or the user config directory",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:  logLevelFlag,
			Usage: "Log level: debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:  logFormatFlag,
			Usage: "Log format: pretty or json",
		},
	}
}

// options is everything the run command takes from the command line.
type options struct {
	Manifest   string
	ConfigFile string
	Overrides  config.Overrides
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("running run command")

	opts, err := optionsFromCommand(cmd)
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, orchestrator.ExitFailure)
	}

	code, err := execute(ctx, cmd.Writer, opts)
	if err != nil {
		logger.Error(err.Error())
	}

	if code != orchestrator.ExitSuccess {
		return cli.Exit(cliExitStr, code)
	}

	return nil
}

func optionsFromCommand(cmd *cli.Command) (options, error) {
	opts := options{
		Manifest:   cmd.StringArg(manifestArg),
		ConfigFile: cmd.String(configFlag),
	}

	if opts.Manifest == "" {
		return opts, ErrNoManifest
	}

	o := &opts.Overrides

	if cmd.IsSet(jobsFlag) {
		n := cmd.Int(jobsFlag)
		o.Concurrency = &n
	}

	if cmd.IsSet(overwriteFlag) {
		v := cmd.Bool(overwriteFlag)
		o.Overwrite = &v
	}

	if cmd.IsSet(failFastFlag) {
		v := cmd.Bool(failFastFlag)
		o.FailFast = &v
	}

	if cmd.IsSet(displayFlag) {
		d, err := config.ParseDisplayMode(cmd.String(displayFlag))
		if err != nil {
			return opts, err
		}

		o.Display = &d
	}

	if cmd.Bool(tuiFlag) {
		d := config.DisplayTUI
		o.Display = &d
	}

	if cmd.IsSet(cleanupFlag) {
		c, err := config.ParseCleanupMode(cmd.String(cleanupFlag))
		if err != nil {
			return opts, err
		}

		o.Cleanup = &c
	}

	if cmd.IsSet(trashDirFlag) {
		v := cmd.String(trashDirFlag)
		o.TrashDir = &v
	}

	if cmd.IsSet(logLevelFlag) {
		v := cmd.String(logLevelFlag)
		o.LogLevel = &v
	}

	if cmd.IsSet(logFormatFlag) {
		f, err := config.ParseLogFormat(cmd.String(logFormatFlag))
		if err != nil {
			return opts, err
		}

		o.LogFormat = &f
	}

	return opts, nil
}

// execute runs the batch described by opts, writing progress and the summary to w.
// It returns the process exit code.
func execute(ctx context.Context, w io.Writer, opts options) (int, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return orchestrator.ExitFailure, err
	}

	if err := cfg.ApplyOverrides(opts.Overrides); err != nil {
		return orchestrator.ExitFailure, err
	}

	if cfg.LogLevel != "" {
		if err := ctxlog.SetLevel(cfg.LogLevel); err != nil {
			return orchestrator.ExitFailure, err
		}
	}

	if cfg.LogFormat == config.LogJSON {
		ctx = ctxlog.New(ctx, ctxlog.JSONLogger)
	}

	if cfg.Display == config.DisplayTUI && !isTerminal() {
		ctxlog.Warn(ctx, "stdout is not a terminal, falling back to the normal display")
		cfg.Display = config.DisplayNormal
	}

	m, err := manifest.Load(ctx, opts.Manifest)
	if err != nil {
		return orchestrator.ExitFailure, err
	}

	tasks, err := m.Build(ctx, FS, manifest.BuildOptions{Probe: probe.Duration})
	if err != nil {
		return orchestrator.ExitFailure, errors.Join(ErrBuildTasks, err)
	}

	remover, err := newRemover(cfg)
	if err != nil {
		return orchestrator.ExitFailure, err
	}

	bopts := orchestrator.Options{
		Concurrency: cfg.Concurrency,
		Overwrite:   cfg.Overwrite,
		Verbose:     cfg.Display == config.DisplayVerbose,
		FailFast:    cfg.FailFast,
		MinFreeDisk: cfg.MinFreeDisk.Bytes(),
		Runner: runbatch.Options{
			TailLines:      cfg.TailLines,
			ReadTimeout:    cfg.ReadTimeout,
			ReadBufferSize: int(cfg.ReadBuffer.Bytes()), //nolint:gosec
			DrainTimeout:   cfg.DrainTimeout,
		},
		Remover: remover,
		Fs:      FS,
	}

	ctxlog.Info(ctx, "starting batch", "tasks", len(tasks), "manifest", opts.Manifest)

	if cfg.Display == config.DisplayTUI {
		return runWithTUI(ctx, w, tasks, bopts)
	}

	return runPlain(ctx, w, tasks, bopts, displayMode(cfg.Display))
}

func newRemover(cfg *config.Config) (stats.Remover, error) {
	switch cfg.Cleanup {
	case config.CleanupKeep:
		return nil, nil //nolint:nilnil
	case config.CleanupDelete:
		return trash.NewDeleter(FS), nil
	default:
		t, err := trash.New(FS, cfg.TrashDir)
		if err != nil {
			return nil, err
		}

		return t, nil
	}
}

func displayMode(d config.DisplayMode) display.Mode {
	switch d {
	case config.DisplayQuiet:
		return display.Quiet
	case config.DisplayVerbose:
		return display.Verbose
	default:
		return display.Normal
	}
}

func runPlain(ctx context.Context, w io.Writer, tasks []orchestrator.Task, bopts orchestrator.Options, mode display.Mode) (int, error) {
	reporter := progress.NewChannelReporter(ctx, eventBufferSize)
	d := display.New(w, mode)
	d.SetTotal(len(tasks))
	reporter.Listen(d)

	bopts.Reporter = reporter

	bc := orchestrator.NewBatchContext(ctx, bopts)
	defer bc.Controller.Release()

	stopSignals := watchSignals(ctx, bc)
	report, err := orchestrator.New(bc).Run(ctx, tasks)
	stopSignals()

	reporter.Close()
	d.Finish()

	return finish(w, report, err)
}

func runWithTUI(ctx context.Context, w io.Writer, tasks []orchestrator.Task, bopts orchestrator.Options) (int, error) {
	buf := new(bytes.Buffer)
	tuiCtx := ctxlog.NewForTUI(ctx, buf)

	rows := make([]tui.Task, len(tasks))
	for i, t := range tasks {
		rows[i] = tui.Task{ID: t.ID, Name: t.Label(), Workload: t.Workload}
	}

	var bc *orchestrator.BatchContext

	runner := tui.NewRunner(tuiCtx, rows, func() { bc.Stop() })
	bopts.Reporter = runner.Reporter()

	bc = orchestrator.NewBatchContext(tuiCtx, bopts)
	defer bc.Controller.Release()

	stopSignals := watchSignals(tuiCtx, bc)

	report, err := runner.Run(tuiCtx, func() (*orchestrator.Report, error) {
		return orchestrator.New(bc).Run(tuiCtx, tasks)
	})

	stopSignals()

	buf.WriteTo(w) //nolint:errcheck

	return finish(w, report, err)
}

// watchSignals stops the batch on the first signal and kills every process and exits on
// a repeated one. The returned function uninstalls the handlers.
func watchSignals(ctx context.Context, bc *orchestrator.BatchContext) func() {
	watchCtx, cancel := context.WithCancel(ctx)
	sigCh := signalbroker.New(watchCtx)

	done := make(chan struct{})

	go func() {
		defer close(done)

		signalbroker.Watch(watchCtx, sigCh, signalbroker.Handlers{
			Stop: func(os.Signal) { bc.Stop() },
			Force: func(os.Signal) {
				cancellation.KillAll(bc.Registry.Snapshot())
				osExit(orchestrator.ExitInterrupt)
			},
		})
	}()

	return func() {
		cancel()
		<-done
		signalbroker.Stop(sigCh)
	}
}

func finish(w io.Writer, report *orchestrator.Report, err error) (int, error) {
	if report == nil {
		return orchestrator.ExitFailure, err
	}

	if werr := display.WriteSummary(w, report.Summary, report.Results); werr != nil {
		err = errors.Join(err, fmt.Errorf("writing summary: %w", werr))
	}

	code := report.ExitCode()
	if err != nil && code == orchestrator.ExitSuccess {
		code = orchestrator.ExitFailure
	}

	return code, err
}
