// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matt-FFFFFF/mediabatch/internal/color"
)

// OutputOptions controls what WriteResults prints.
type OutputOptions struct {
	ShowSuccess bool // Include successful and skipped tasks
	ShowTail    bool // Include the diagnostic tail of failed tasks
}

// DefaultOutputOptions prints only problems, with their tails.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{ShowTail: true}
}

// StatusLine renders the one-line status of a finished task.
func StatusLine(r *Result) string {
	icon, code := outcomeStyle(r.Outcome)

	label := r.Label
	if label == "" {
		label = r.TaskID
	}

	var sb strings.Builder

	sb.WriteString(color.Colorize(icon, code))
	sb.WriteByte(' ')
	sb.WriteString(color.Colorize(label, color.Bold, code))

	switch r.Outcome {
	case OutcomeFailure:
		switch {
		case r.HasExitCode():
			fmt.Fprintf(&sb, " (exit code: %d)", r.ExitCode)
		case errors.Is(r.Err, ErrSpawn):
			sb.WriteString(" (not started)")
		default:
			sb.WriteString(" (killed)")
		}
	case OutcomeSkipped:
		sb.WriteString(" (output exists)")
	}

	if r.Duration > 0 && r.Outcome != OutcomeSkipped {
		fmt.Fprintf(&sb, " [%s]", r.Duration.Round(100*time.Millisecond))
	}

	return sb.String()
}

// WriteResults writes one status line per result, followed by the error and tail of failures.
func WriteResults(w io.Writer, results Results, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	for _, r := range results {
		if r == nil {
			continue
		}

		if !options.ShowSuccess && (r.Outcome == OutcomeSuccess || r.Outcome == OutcomeSkipped) {
			continue
		}

		if _, err := fmt.Fprintln(w, StatusLine(r)); err != nil {
			return err
		}

		if r.Err != nil && !errors.Is(r.Err, ErrCancelled) {
			if _, err := fmt.Fprintf(w, "  %s %s\n", color.Colorize("➜ Error:", color.FgRed), r.Err); err != nil {
				return err
			}
		}

		if options.ShowTail && r.Outcome == OutcomeFailure && len(r.Tail) > 0 {
			if _, err := fmt.Fprintf(w, "  %s\n", color.Colorize("➜ Last output:", color.FgHiRed)); err != nil {
				return err
			}

			for _, line := range r.Tail {
				if _, err := fmt.Fprintf(w, "     %s\n", line); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func outcomeStyle(o Outcome) (string, color.Code) {
	switch o {
	case OutcomeSuccess:
		return "✓", color.FgGreen
	case OutcomeFailure:
		return "✗", color.FgRed
	case OutcomeCancelled:
		return "⊘", color.FgYellow
	case OutcomeSkipped:
		return "~", color.FgCyan
	default:
		return "?", color.FgWhite
	}
}
