// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"context"
	"time"

	"github.com/matt-FFFFFF/mediabatch/internal/cancellation"
	"github.com/matt-FFFFFF/mediabatch/internal/estimator"
	"github.com/matt-FFFFFF/mediabatch/internal/limiter"
	"github.com/matt-FFFFFF/mediabatch/internal/progress"
	"github.com/matt-FFFFFF/mediabatch/internal/runbatch"
	"github.com/matt-FFFFFF/mediabatch/internal/stats"
	"github.com/spf13/afero"
)

// ProcessRunner runs one command to completion. runbatch.Runner implements it.
type ProcessRunner interface {
	Run(ctx context.Context, cmd runbatch.Command, onLine func(string)) *runbatch.Result
}

// Options configures a BatchContext.
type Options struct {
	Concurrency int // 0 picks limiter.DefaultLimit
	Overwrite   bool
	Verbose     bool // Forward raw diagnostic lines as EventOutput
	FailFast    bool
	MinFreeDisk uint64 // Bytes required in each output directory, 0 disables the check

	Runner   runbatch.Options
	Remover  stats.Remover     // nil keeps partial outputs
	Reporter progress.Reporter // nil discards events
	Fs       afero.Fs          // nil uses the OS filesystem
	OnStop   func(reason cancellation.Reason, active int)
}

// BatchContext owns the per-batch state. Build one per Run.
type BatchContext struct {
	Registry   *runbatch.Registry
	Stats      *stats.Collector
	Controller *cancellation.Controller
	Estimator  *estimator.Estimator
	Limiter    *limiter.Limiter
	Reporter   progress.Reporter
	Runner     ProcessRunner
	Fs         afero.Fs
	Options    Options
}

// NewBatchContext wires the components of a batch. Cancelling ctx stops the batch
// as an interrupt.
func NewBatchContext(ctx context.Context, opts Options) *BatchContext {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	if opts.Reporter == nil {
		opts.Reporter = progress.NewNullReporter()
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = limiter.DefaultLimit()
	}

	registry := runbatch.NewRegistry()

	statOpts := []stats.Option{stats.WithFs(opts.Fs)}
	if opts.Remover != nil {
		statOpts = append(statOpts, stats.WithRemover(opts.Remover))
	}

	collector := stats.New(statOpts...)

	bc := &BatchContext{
		Registry:  registry,
		Stats:     collector,
		Estimator: estimator.New(),
		Limiter:   limiter.New(opts.Concurrency),
		Reporter:  opts.Reporter,
		Runner:    runbatch.NewRunner(registry, opts.Runner),
		Fs:        opts.Fs,
		Options:   opts,
	}

	bc.Controller = cancellation.New(ctx, registry, collector, cancellation.WithOnStop(bc.onStop))

	return bc
}

func (bc *BatchContext) onStop(reason cancellation.Reason, active int) {
	bc.report(progress.Event{
		Type:    progress.EventStopping,
		Message: "stopping " + reason.String(),
		Data:    progress.EventData{Active: active},
	})

	if bc.Options.OnStop != nil {
		bc.Options.OnStop(reason, active)
	}
}

// Stop requests an interrupt stop. It is what signal handlers and the TUI call.
func (bc *BatchContext) Stop() bool {
	return bc.Controller.Stop(cancellation.ReasonInterrupt)
}

func (bc *BatchContext) report(e progress.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	bc.Reporter.Report(e)
}
