// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"github.com/matt-FFFFFF/mediabatch/internal/cancellation"
	"github.com/matt-FFFFFF/mediabatch/internal/runbatch"
	"github.com/matt-FFFFFF/mediabatch/internal/stats"
)

// Process exit codes.
const (
	ExitSuccess   = 0
	ExitFailure   = 1
	ExitInterrupt = 130
)

// Report is the outcome of a batch.
type Report struct {
	Results runbatch.Results // Submission order; tasks never scheduled are absent
	Summary stats.Summary
	Reason  cancellation.Reason
}

// ExitCode maps the report to a process exit code.
func (r *Report) ExitCode() int {
	if r == nil {
		return ExitSuccess
	}

	switch {
	case r.Summary.WasCancelled && r.Reason == cancellation.ReasonInterrupt:
		return ExitInterrupt
	case r.Summary.WasCancelled, r.Summary.Errors > 0, r.Results.HasFailure():
		return ExitFailure
	case r.Summary.Cancelled > 0, r.Summary.Pending() > 0:
		// Tasks were stopped without a recorded stop request.
		return ExitFailure
	default:
		return ExitSuccess
	}
}
