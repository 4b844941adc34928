// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/matt-FFFFFF/mediabatch/internal/cancellation"
	"github.com/matt-FFFFFF/mediabatch/internal/ctxlog"
	"github.com/matt-FFFFFF/mediabatch/internal/limiter"
	"github.com/matt-FFFFFF/mediabatch/internal/progress"
	"github.com/matt-FFFFFF/mediabatch/internal/runbatch"
	"github.com/matt-FFFFFF/mediabatch/internal/stats"
	"github.com/spf13/afero"
)

// Orchestrator runs batches against a BatchContext.
type Orchestrator struct {
	bc *BatchContext
}

// New returns an orchestrator for bc.
func New(bc *BatchContext) *Orchestrator {
	return &Orchestrator{bc: bc}
}

// BatchContext returns the context the orchestrator runs against.
func (o *Orchestrator) BatchContext() *BatchContext {
	return o.bc
}

// Run executes tasks and blocks until every scheduled task has returned.
//
// Task failures are reported in the Report, not as an error. The returned error is a
// validation error or wraps ErrFatal.
func (o *Orchestrator) Run(ctx context.Context, tasks []Task) (*Report, error) {
	bc := o.bc

	if len(tasks) == 0 {
		return &Report{Summary: bc.Stats.Summary()}, nil
	}

	if err := ValidateTasks(tasks); err != nil {
		return nil, err
	}

	if err := bc.preflight(ctx, tasks); err != nil {
		ctxlog.Error(ctx, "preflight failed", "error", err)
		bc.Controller.Stop(cancellation.ReasonError)
		bc.Controller.Settle()

		return &Report{Summary: bc.Stats.Summary(), Reason: bc.Controller.Reason()}, err
	}

	skip := o.existingOutputs(tasks)

	bc.Stats.SetTotal(len(tasks))

	for i, t := range tasks {
		if !skip[i] {
			bc.Estimator.AddItem(t.Workload)
		}
	}

	bc.Estimator.Start()

	stopCtx := bc.Controller.Context()
	results := make(runbatch.Results, len(tasks))

	var wg sync.WaitGroup

	for i, t := range tasks {
		pos := i + 1

		if skip[i] {
			bc.Stats.Inc(stats.Skipped)
			results[i] = &runbatch.Result{
				TaskID:     t.ID,
				Label:      t.Label(),
				OutputPath: t.OutputPath,
				Outcome:    runbatch.OutcomeSkipped,
				ExitCode:   runbatch.NoExitCode,
			}

			bc.report(progress.Event{
				TaskID:   t.ID,
				Label:    t.Label(),
				Position: pos,
				Type:     progress.EventSkipped,
				Message:  "output exists",
				Data:     progress.EventData{Path: t.OutputPath},
			})

			continue
		}

		permit, err := bc.Limiter.Acquire(stopCtx)
		if err != nil {
			if !errors.Is(err, limiter.ErrStopped) {
				ctxlog.Error(ctx, "permit acquisition failed", "error", err)
			}

			ctxlog.Info(ctx, "stop requested, not scheduling remaining tasks", "remaining", len(tasks)-i)

			break
		}

		wg.Add(1)

		go func(i int, t Task) {
			defer wg.Done()
			defer permit.Release()

			results[i] = o.runTask(stopCtx, pos, t)
		}(i, t)
	}

	wg.Wait()

	for _, cr := range bc.Stats.CleanupPartialOutputs(ctx) {
		bc.report(cleanupEvent(progress.Event{}, cr))
	}

	state := bc.Controller.Settle()
	ctxlog.Debug(ctx, "batch finished", "state", state.String(), "summary", bc.Stats.Summary().String())

	report := &Report{
		Summary: bc.Stats.Summary(),
		Reason:  bc.Controller.Reason(),
	}

	for _, r := range results {
		if r != nil {
			report.Results = append(report.Results, r)
		}
	}

	return report, nil
}

// existingOutputs marks the tasks whose output exists and must not be overwritten.
func (o *Orchestrator) existingOutputs(tasks []Task) []bool {
	skip := make([]bool, len(tasks))

	if o.bc.Options.Overwrite {
		return skip
	}

	for i, t := range tasks {
		if ok, err := afero.Exists(o.bc.Fs, t.OutputPath); err == nil && ok {
			skip[i] = true
		}
	}

	return skip
}

func (o *Orchestrator) runTask(ctx context.Context, pos int, t Task) *runbatch.Result {
	bc := o.bc
	base := progress.Event{TaskID: t.ID, Label: t.Label(), Position: pos}

	started := base
	started.Type = progress.EventStarted
	started.Message = strings.Join(t.Command, " ")
	started.Data.Workload = t.Workload
	bc.report(started)

	onLine := func(line string) {
		if bc.Options.Verbose {
			e := base
			e.Type = progress.EventOutput
			e.Data.OutputLine = line
			bc.report(e)
		}

		sample, ok := progress.Parse(line)
		if !ok {
			return
		}

		e := base
		e.Type = progress.EventProgress
		e.Data.Sample = sample
		e.Data.Workload = t.Workload
		e.Data.BatchETA = bc.Estimator.ETAString()
		bc.report(e)
	}

	res := bc.Runner.Run(ctx, runbatch.Command{
		ID:         t.ID,
		Label:      t.Label(),
		Args:       t.Command,
		OutputPath: t.OutputPath,
	}, onLine)

	done := base
	done.Data.ExitCode = res.ExitCode
	done.Data.Error = res.Err
	done.Data.Tail = res.Tail
	done.Data.Duration = res.Duration

	switch res.Outcome {
	case runbatch.OutcomeSuccess:
		bc.Stats.Inc(stats.Processed)
		bc.Estimator.Update(t.Workload)

		done.Type = progress.EventCompleted
		done.Data.BatchETA = bc.Estimator.ETAString()
		bc.report(done)

	case runbatch.OutcomeCancelled:
		bc.Stats.Inc(stats.Cancelled)

		done.Type = progress.EventCancelled
		done.Message = "cancelled"
		bc.report(done)
		o.cleanup(ctx, t)

	default:
		bc.Stats.Inc(stats.Errors)

		done.Type = progress.EventFailed
		if res.Err != nil {
			done.Message = res.Err.Error()
		}

		bc.report(done)
		o.cleanup(ctx, t)

		if bc.Options.FailFast {
			bc.Controller.Stop(cancellation.ReasonError)
		}
	}

	return res
}

func (o *Orchestrator) cleanup(ctx context.Context, t Task) {
	bc := o.bc

	if !bc.Stats.RecordPartialOutput(t.OutputPath) {
		return
	}

	cr, ok := bc.Stats.CleanupPartialOutput(ctx, t.OutputPath)
	if !ok {
		return
	}

	bc.report(cleanupEvent(progress.Event{TaskID: t.ID, Label: t.Label()}, cr))
}

func cleanupEvent(e progress.Event, cr stats.CleanupResult) progress.Event {
	e.Type = progress.EventCleanup
	e.Message = "partial output removed"
	e.Data = progress.EventData{
		Path:        cr.Path,
		Destination: cr.Destination,
		Kept:        cr.Kept,
		Error:       cr.Err,
	}

	switch {
	case cr.Err != nil:
		e.Message = "partial output cleanup failed"
	case cr.Kept:
		e.Message = "partial output kept"
	}

	return e
}
