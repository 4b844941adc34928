// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/mediabatch/internal/orchestrator"
	"github.com/matt-FFFFFF/mediabatch/internal/progress"
)

// Runner manages the TUI application and progress event integration.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *TUIReporter
	mutex    sync.Mutex
}

// TUIReporter implements progress.Reporter and forwards events to the TUI.
type TUIReporter struct {
	program *tea.Program
	closed  bool
	mutex   sync.RWMutex
}

// NewTUIReporter creates a new TUI progress reporter.
func NewTUIReporter(program *tea.Program) *TUIReporter {
	return &TUIReporter{
		program: program,
	}
}

// Report implements progress.Reporter.
func (tr *TUIReporter) Report(event progress.Event) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	tr.program.Send(ProgressEventMsg{Event: event})
}

// Close implements progress.Reporter.
func (tr *TUIReporter) Close() {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	tr.closed = true
}

// NewRunner creates a TUI runner listing tasks. stop is called when the user asks to
// stop the batch from the interface.
func NewRunner(ctx context.Context, tasks []Task, stop func(), opts ...tea.ProgramOption) *Runner {
	model := NewModel(ctx, tasks, stop)
	program := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)...)

	return &Runner{
		model:    model,
		program:  program,
		reporter: NewTUIReporter(program),
	}
}

// Reporter returns the progress reporter feeding this TUI.
func (r *Runner) Reporter() progress.Reporter {
	return r.reporter
}

// Model returns the model driven by the runner.
func (r *Runner) Model() *Model {
	return r.model
}

type batchResult struct {
	report *orchestrator.Report
	err    error
}

// Run starts the TUI and executes fn, which runs the batch reporting to Reporter.
//
// When the batch finishes the TUI stays up until the user quits. If the TUI exits
// first, the batch is stopped and Run waits for it so that no process outlives the call.
func (r *Runner) Run(ctx context.Context, fn func() (*orchestrator.Report, error)) (*orchestrator.Report, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	resultChan := make(chan batchResult, 1)

	go func() {
		rep, err := fn()
		resultChan <- batchResult{report: rep, err: err}
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var (
		res    batchResult
		tuiErr error
	)

	select {
	case res = <-resultChan:
		msg := BatchCompletedMsg{}
		if res.report != nil {
			msg.Summary = res.report.Summary
			msg.ExitCode = res.report.ExitCode()
		}

		// Send returns at once if the program has already gone.
		r.program.Send(msg)

		tuiErr = <-tuiDone

		r.reporter.Close()

	case tuiErr = <-tuiDone:
		r.reporter.Close()
		r.model.requestStop()

		res = <-resultChan

	case <-ctx.Done():
		r.reporter.Close()
		r.model.requestStop()
		r.program.Quit()

		res = <-resultChan
		<-tuiDone
	}

	if res.err != nil {
		return res.report, res.err
	}

	if ctx.Err() != nil && errors.Is(tuiErr, tea.ErrProgramKilled) {
		tuiErr = nil
	}

	return res.report, tuiErr
}
