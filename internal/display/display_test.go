// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/mediabatch/internal/color"
	"github.com/matt-FFFFFF/mediabatch/internal/progress"
	"github.com/matt-FFFFFF/mediabatch/internal/runbatch"
	"github.com/matt-FFFFFF/mediabatch/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noColour(t *testing.T) {
	t.Helper()

	prev := color.SetEnabled(false)
	t.Cleanup(func() { color.SetEnabled(prev) })
}

func TestBar(t *testing.T) {
	tests := []struct {
		fraction float64
		want     string
	}{
		{fraction: 0, want: strings.Repeat("-", 10)},
		{fraction: 0.5, want: "█████-----"},
		{fraction: 1, want: strings.Repeat("█", 10)},
		{fraction: 1.7, want: strings.Repeat("█", 10)},
		{fraction: -1, want: strings.Repeat("-", 10)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Bar(tt.fraction, 10))
	}
}

func TestSingleLine(t *testing.T) {
	got := SingleLine(2, 5, "holiday.mkv", 0.5, "1.50x", "03:10")

	assert.Equal(t, "[2/5] holiday.mkv ["+strings.Repeat("█", 15)+strings.Repeat("-", 15)+"]  50% | Speed: 1.50x | ETA: 03:10", got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a very…", truncate("a very long name", 7))
}

func events() []progress.Event {
	return []progress.Event{
		{TaskID: "a", Label: "a.mkv", Position: 1, Type: progress.EventStarted, Data: progress.EventData{Workload: 10}},
		{TaskID: "a", Label: "a.mkv", Position: 1, Type: progress.EventOutput, Data: progress.EventData{OutputLine: "Stream #0:0: Video: h264"}},
		{TaskID: "a", Label: "a.mkv", Position: 1, Type: progress.EventProgress, Data: progress.EventData{
			Sample: progress.Sample{Elapsed: 5, Speed: 2}, BatchETA: "00:05",
		}},
		{TaskID: "a", Label: "a.mkv", Position: 1, Type: progress.EventCompleted, Data: progress.EventData{ExitCode: 0, Duration: 2 * time.Second}},
		{TaskID: "b", Label: "b.mkv", Position: 2, Type: progress.EventStarted},
		{TaskID: "b", Label: "b.mkv", Position: 2, Type: progress.EventFailed, Data: progress.EventData{ExitCode: 1, Error: runbatch.ErrChildExit}},
		{TaskID: "b", Label: "b.mkv", Type: progress.EventCleanup, Data: progress.EventData{Path: "/out/b.mp4", Destination: "/trash/files/b.mp4"}},
		{TaskID: "c", Label: "c.mkv", Position: 3, Type: progress.EventSkipped},
	}
}

func run(mode Mode) string {
	var buf bytes.Buffer

	d := New(&buf, mode)
	d.refresh = 0
	d.SetTotal(3)

	for _, e := range events() {
		d.OnEvent(e)
	}

	d.Finish()

	return buf.String()
}

func TestDisplay_Quiet(t *testing.T) {
	noColour(t)

	out := run(Quiet)

	assert.NotContains(t, out, "\r", "quiet mode has no live line")
	assert.Equal(t, strings.Join([]string{
		"✓ a.mkv [2s]",
		"✗ b.mkv (exit code: 1)",
		"  moved partial output to trash: /out/b.mp4 → /trash/files/b.mp4",
		"~ c.mkv (output exists)",
		"",
	}, "\n"), out)
}

func TestDisplay_Normal(t *testing.T) {
	noColour(t)

	out := run(Normal)

	assert.Contains(t, out, clearLine+"[1/3] a.mkv ["+strings.Repeat("█", 15)+strings.Repeat("-", 15)+"]  50% | Speed: 2.00x | ETA: 00:05")
	assert.Contains(t, out, "✓ a.mkv [2s]\n")
	assert.NotContains(t, out, "Stream #0:0")
	assert.True(t, strings.HasSuffix(out, "~ c.mkv (output exists)\n"), "no live line left after the last task")
}

func TestDisplay_Verbose(t *testing.T) {
	noColour(t)

	out := run(Verbose)

	assert.Contains(t, out, "  [a.mkv] Stream #0:0: Video: h264\n")
}

func TestDisplay_MultipleRunning(t *testing.T) {
	noColour(t)

	var buf bytes.Buffer

	d := New(&buf, Normal)
	d.refresh = 0

	d.OnEvent(progress.Event{TaskID: "a", Label: "a.mkv", Position: 1, Type: progress.EventStarted, Data: progress.EventData{Workload: 4}})
	d.OnEvent(progress.Event{TaskID: "b", Label: "b.mkv", Position: 2, Type: progress.EventStarted})
	d.OnEvent(progress.Event{TaskID: "a", Type: progress.EventProgress, Data: progress.EventData{
		Sample: progress.Sample{Elapsed: 1, Speed: 1}, BatchETA: "01:00",
	}})

	lines := strings.Split(buf.String(), clearLine)
	assert.Equal(t, "a.mkv  25% 1.00x · b.mkv   0% - | ETA: 01:00", lines[len(lines)-1])
}

func TestDisplay_StoppingAndCleanup(t *testing.T) {
	noColour(t)

	var buf bytes.Buffer

	d := New(&buf, Quiet)
	d.OnEvent(progress.Event{Type: progress.EventStopping, Data: progress.EventData{Active: 2}})
	d.OnEvent(progress.Event{Type: progress.EventCleanup, Data: progress.EventData{Path: "/o/x.mp4", Kept: true}})
	d.OnEvent(progress.Event{Type: progress.EventCleanup, Data: progress.EventData{Path: "/o/y.mp4"}})
	d.OnEvent(progress.Event{Type: progress.EventCleanup, Data: progress.EventData{Path: "/o/z.mp4", Error: errors.New("busy")}})

	assert.Equal(t, strings.Join([]string{
		"⊘ Stopping 2 running task(s)…",
		"  kept partial output /o/x.mp4",
		"  deleted partial output /o/y.mp4",
		"  could not remove partial output /o/z.mp4: busy",
		"",
	}, "\n"), buf.String())
}

func TestWriteSummary(t *testing.T) {
	noColour(t)

	results := runbatch.Results{
		{TaskID: "a", Label: "a.mkv", Outcome: runbatch.OutcomeSuccess},
		{TaskID: "b", Label: "b.mkv", Outcome: runbatch.OutcomeFailure, ExitCode: 1, Err: runbatch.ErrChildExit, Tail: []string{"Invalid data found"}},
	}

	var buf bytes.Buffer

	require.NoError(t, WriteSummary(&buf, stats.Summary{
		Total: 2, Processed: 1, Errors: 1, Elapsed: 75 * time.Second,
	}, results))

	out := buf.String()
	assert.Contains(t, out, "Failed tasks:")
	assert.Contains(t, out, "✗ b.mkv (exit code: 1)")
	assert.Contains(t, out, "Invalid data found")
	assert.NotContains(t, out, "✓ a.mkv")
	assert.Contains(t, out, "Batch finished with errors")
	assert.Contains(t, out, "  Processed: 1\n")
	assert.Contains(t, out, "  Elapsed:   01:15\n")
	assert.NotContains(t, out, "Cancelled:")
}

func TestWriteSummary_Cancelled(t *testing.T) {
	noColour(t)

	var buf bytes.Buffer

	require.NoError(t, WriteSummary(&buf, stats.Summary{Total: 5, Cancelled: 2, WasCancelled: true}, nil))

	out := buf.String()
	assert.Contains(t, out, "Batch cancelled")
	assert.Contains(t, out, "  Cancelled: 2\n")
	assert.Contains(t, out, "  Not run:   3\n")
}
