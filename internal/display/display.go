// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package display renders batch events as plain terminal output.
package display

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matt-FFFFFF/mediabatch/internal/color"
	"github.com/matt-FFFFFF/mediabatch/internal/estimator"
	"github.com/matt-FFFFFF/mediabatch/internal/progress"
	"github.com/matt-FFFFFF/mediabatch/internal/runbatch"
)

// BarWidth is the number of cells in the single-task progress bar.
const BarWidth = 30

const (
	defaultRefresh = 100 * time.Millisecond
	maxLabelWidth  = 32
	clearLine      = "\r\033[K"
)

// Mode selects how much is printed.
type Mode int

// Modes.
const (
	// Quiet prints completion lines only.
	Quiet Mode = iota
	// Normal adds a live progress line.
	Normal
	// Verbose also prints every diagnostic line.
	Verbose
)

type taskState struct {
	id       string
	label    string
	position int
	workload float64
	sample   progress.Sample
	sampled  bool
}

// Display is a progress.Listener. It is safe for concurrent use.
type Display struct {
	w       io.Writer
	mode    Mode
	refresh time.Duration
	now     func() time.Time

	mu         sync.Mutex
	total      int
	running    map[string]*taskState
	batchETA   string
	liveShown  bool
	lastRender time.Time
}

// New returns a display writing to w.
func New(w io.Writer, mode Mode) *Display {
	return &Display{
		w:        w,
		mode:     mode,
		refresh:  defaultRefresh,
		now:      time.Now,
		running:  make(map[string]*taskState),
		batchETA: estimator.NotAvailable,
	}
}

// SetTotal sets the batch size shown in the live line.
func (d *Display) SetTotal(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.total = n
}

// OnEvent implements progress.Listener.
func (d *Display) OnEvent(e progress.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch e.Type {
	case progress.EventStarted:
		d.running[e.TaskID] = &taskState{id: e.TaskID, label: e.Label, position: e.Position, workload: e.Data.Workload}
		d.renderLive(true)

	case progress.EventProgress:
		if ts, ok := d.running[e.TaskID]; ok {
			ts.sample = e.Data.Sample
			ts.sampled = true
		}

		if e.Data.BatchETA != "" {
			d.batchETA = e.Data.BatchETA
		}

		d.renderLive(false)

	case progress.EventOutput:
		if d.mode == Verbose {
			d.println(color.Colorize(fmt.Sprintf("  [%s] %s", e.Label, e.Data.OutputLine), color.Faint))
			d.renderLive(true)
		}

	case progress.EventCompleted, progress.EventFailed, progress.EventCancelled, progress.EventSkipped:
		delete(d.running, e.TaskID)

		if e.Data.BatchETA != "" {
			d.batchETA = e.Data.BatchETA
		}

		d.println(runbatch.StatusLine(resultOf(e)))
		d.renderLive(true)

	case progress.EventStopping:
		d.println(color.Colorize(fmt.Sprintf("⊘ Stopping %d running task(s)…", e.Data.Active), color.Bold, color.FgYellow))

	case progress.EventCleanup:
		d.println(cleanupLine(e))
		d.renderLive(true)
	}
}

// Finish clears the live line.
func (d *Display) Finish() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.clearLive()
}

func resultOf(e progress.Event) *runbatch.Result {
	r := &runbatch.Result{
		TaskID:   e.TaskID,
		Label:    e.Label,
		ExitCode: e.Data.ExitCode,
		Err:      e.Data.Error,
		Tail:     e.Data.Tail,
		Duration: e.Data.Duration,
	}

	switch e.Type {
	case progress.EventCompleted:
		r.Outcome = runbatch.OutcomeSuccess
	case progress.EventCancelled:
		r.Outcome = runbatch.OutcomeCancelled
	case progress.EventSkipped:
		r.Outcome = runbatch.OutcomeSkipped
	default:
		r.Outcome = runbatch.OutcomeFailure
	}

	return r
}

func cleanupLine(e progress.Event) string {
	switch {
	case e.Data.Error != nil:
		return color.Colorize(fmt.Sprintf("  could not remove partial output %s: %v", e.Data.Path, e.Data.Error), color.FgRed)
	case e.Data.Kept:
		return color.Colorize("  kept partial output "+e.Data.Path, color.Faint)
	case e.Data.Destination != "":
		return color.Colorize(fmt.Sprintf("  moved partial output to trash: %s → %s", e.Data.Path, e.Data.Destination), color.FgYellow)
	default:
		return color.Colorize("  deleted partial output "+e.Data.Path, color.FgYellow)
	}
}

// println writes a full line, clearing the live line first.
func (d *Display) println(s string) {
	d.clearLive()
	fmt.Fprintln(d.w, s) //nolint:errcheck
}

func (d *Display) clearLive() {
	if d.liveShown {
		io.WriteString(d.w, clearLine) //nolint:errcheck
		d.liveShown = false
	}
}

// renderLive redraws the live line, at most once per refresh interval unless forced.
func (d *Display) renderLive(force bool) {
	if d.mode == Quiet {
		return
	}

	now := d.now()
	if !force && now.Sub(d.lastRender) < d.refresh {
		return
	}

	d.lastRender = now

	if len(d.running) == 0 {
		d.clearLive()
		return
	}

	io.WriteString(d.w, clearLine+d.liveLine()) //nolint:errcheck
	d.liveShown = true
}

func (d *Display) liveLine() string {
	tasks := make([]*taskState, 0, len(d.running))
	for _, ts := range d.running {
		tasks = append(tasks, ts)
	}

	slices.SortFunc(tasks, func(a, b *taskState) int { return a.position - b.position })

	if len(tasks) == 1 {
		return SingleLine(tasks[0].position, d.total, tasks[0].label, tasks[0].sample.Fraction(tasks[0].workload),
			speedOf(tasks[0]), d.batchETA)
	}

	parts := make([]string, len(tasks))
	for i, ts := range tasks {
		parts[i] = fmt.Sprintf("%s %3.0f%% %s", truncate(ts.label, 16), 100*ts.sample.Fraction(ts.workload), speedOf(ts))
	}

	return fmt.Sprintf("%s | ETA: %s", strings.Join(parts, " · "), d.batchETA)
}

func speedOf(ts *taskState) string {
	if !ts.sampled {
		return "-"
	}

	return fmt.Sprintf("%.2fx", ts.sample.Speed)
}

// SingleLine renders "[pos/count] name [bar] pct% | Speed: x | ETA: t".
func SingleLine(pos, count int, label string, fraction float64, speed, eta string) string {
	return fmt.Sprintf("[%d/%d] %s [%s] %3.0f%% | Speed: %s | ETA: %s",
		pos, count, truncate(label, maxLabelWidth), Bar(fraction, BarWidth), 100*fraction, speed, eta)
}

// Bar renders fraction as width cells of █ and -.
func Bar(fraction float64, width int) string {
	fraction = min(max(fraction, 0), 1)
	filled := int(fraction * float64(width))

	return strings.Repeat("█", filled) + strings.Repeat("-", width-filled)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}
