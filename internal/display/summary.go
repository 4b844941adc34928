// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package display

import (
	"fmt"
	"io"
	"time"

	"github.com/matt-FFFFFF/mediabatch/internal/color"
	"github.com/matt-FFFFFF/mediabatch/internal/estimator"
	"github.com/matt-FFFFFF/mediabatch/internal/runbatch"
	"github.com/matt-FFFFFF/mediabatch/internal/stats"
)

// WriteSummary prints the failures with their tails, then the batch counters.
func WriteSummary(w io.Writer, s stats.Summary, results runbatch.Results) error {
	if results.HasFailure() {
		if _, err := fmt.Fprintln(w, color.Colorize("\nFailed tasks:", color.Bold, color.FgRed)); err != nil {
			return err
		}

		failed := make(runbatch.Results, 0, len(results))
		for _, r := range results {
			if r != nil && r.Outcome == runbatch.OutcomeFailure {
				failed = append(failed, r)
			}
		}

		if err := runbatch.WriteResults(w, failed, runbatch.DefaultOutputOptions()); err != nil {
			return err
		}
	}

	title := color.Colorize("Batch complete", color.Bold, color.FgGreen)

	switch {
	case s.WasCancelled:
		title = color.Colorize("Batch cancelled", color.Bold, color.FgYellow)
	case s.Errors > 0:
		title = color.Colorize("Batch finished with errors", color.Bold, color.FgRed)
	}

	lines := []string{
		"",
		title,
		fmt.Sprintf("  Total:     %d", s.Total),
		fmt.Sprintf("  Processed: %d", s.Processed),
		fmt.Sprintf("  Skipped:   %d", s.Skipped),
		fmt.Sprintf("  Errors:    %d", s.Errors),
	}

	if s.Cancelled > 0 || s.WasCancelled {
		lines = append(lines,
			fmt.Sprintf("  Cancelled: %d", s.Cancelled),
			fmt.Sprintf("  Not run:   %d", s.Pending()))
	}

	lines = append(lines, "  Elapsed:   "+estimator.FormatDuration(s.Elapsed.Round(time.Second)))

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}

	return nil
}
