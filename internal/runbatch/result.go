// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"slices"
	"time"
)

var (
	// ErrSpawn means the child could not be started. The Result has no exit code.
	ErrSpawn = errors.New("could not start process")
	// ErrChildExit means the child ran and exited nonzero.
	ErrChildExit = errors.New("process exited with non-zero status")
	// ErrCancelled means a stop was requested while the task was pending or running.
	ErrCancelled = errors.New("task cancelled")
	// ErrWait means waiting on the child failed.
	ErrWait = errors.New("could not wait for process")
	// ErrCreatePipe means the diagnostic pipe could not be created.
	ErrCreatePipe = errors.New("could not create pipe")
	// ErrKill means forced termination did not succeed.
	ErrKill = errors.New("could not kill process")
)

// NoExitCode is the ExitCode of a Result whose process never exited normally.
const NoExitCode = -1

// Outcome is how a task ended.
type Outcome int

const (
	// OutcomeSuccess means exit code 0.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure means a spawn error or a nonzero exit.
	OutcomeFailure
	// OutcomeCancelled means a stop was observed before or during the run.
	OutcomeCancelled
	// OutcomeSkipped means the task was never run because its output already exists.
	OutcomeSkipped
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result is the terminal report for one task.
type Result struct {
	TaskID     string
	Label      string
	OutputPath string
	Outcome    Outcome
	ExitCode   int      // NoExitCode when the process did not exit on its own
	Err        error    // nil on success
	Tail       []string // Last diagnostic lines, kept for failures
	PID        int
	Duration   time.Duration
}

// HasExitCode reports whether the process exited with a status of its own.
func (r *Result) HasExitCode() bool {
	return r.ExitCode != NoExitCode
}

// Results keeps submission order.
type Results []*Result

// Count returns how many results have outcome o.
func (rs Results) Count(o Outcome) int {
	n := 0

	for r := range slices.Values(rs) {
		if r != nil && r.Outcome == o {
			n++
		}
	}

	return n
}

// HasFailure reports whether any result failed.
func (rs Results) HasFailure() bool {
	return rs.Count(OutcomeFailure) > 0
}
