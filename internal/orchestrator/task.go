// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
)

// ErrInvalidTask is returned for a task that cannot be scheduled.
var ErrInvalidTask = errors.New("invalid task")

// Task is one unit of work. It is not modified after submission.
type Task struct {
	ID         string
	Name       string // Display label, defaults to ID
	InputPath  string
	OutputPath string
	Command    []string // Executable followed by its arguments
	Workload   float64  // Seconds of media, 0 if unknown
}

// Label returns the display name.
func (t Task) Label() string {
	if t.Name != "" {
		return t.Name
	}

	return t.ID
}

// Validate checks the fields the orchestrator depends on.
func (t Task) Validate() error {
	var result error

	if t.ID == "" {
		result = multierror.Append(result, fmt.Errorf("%w: empty id", ErrInvalidTask))
	}

	if len(t.Command) == 0 || t.Command[0] == "" {
		result = multierror.Append(result, fmt.Errorf("%w %q: empty command", ErrInvalidTask, t.ID))
	}

	if t.OutputPath == "" {
		result = multierror.Append(result, fmt.Errorf("%w %q: empty output path", ErrInvalidTask, t.ID))
	}

	if t.Workload < 0 || math.IsNaN(t.Workload) || math.IsInf(t.Workload, 0) {
		result = multierror.Append(result, fmt.Errorf("%w %q: workload %v", ErrInvalidTask, t.ID, t.Workload))
	}

	return result
}

// ValidateTasks validates every task and rejects duplicate IDs.
func ValidateTasks(tasks []Task) error {
	var result error

	seen := make(map[string]struct{}, len(tasks))

	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			result = multierror.Append(result, err)
		}

		if t.ID == "" {
			continue
		}

		if _, dup := seen[t.ID]; dup {
			result = multierror.Append(result, fmt.Errorf("%w %q: duplicate id", ErrInvalidTask, t.ID))
		}

		seen[t.ID] = struct{}{}
	}

	return result
}
