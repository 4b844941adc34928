// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/mediabatch/internal/estimator"
	"github.com/matt-FFFFFF/mediabatch/internal/progress"
	"github.com/matt-FFFFFF/mediabatch/internal/stats"
)

const (
	defaultWidth                = 100
	defaultHeight               = 20
	barWidth                    = 24
	nameWidth                   = 28
	minStatusBarAvailableHeight = 10
	durationRounding            = 100 * time.Millisecond
	chromeHeight                = 7 // Title, border and footer lines around the viewport
)

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// BatchCompletedMsg indicates that the batch has finished and carries its final counters.
type BatchCompletedMsg struct {
	Summary  stats.Summary
	ExitCode int
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.EnableMouseCellMotion,
	)
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewportSize()
		m.mutex.Unlock()

		return m, cmd

	case ProgressEventMsg:
		m.processProgressEvent(msg.Event)
		return m, cmd

	case BatchCompletedMsg:
		m.mutex.Lock()
		m.completed = true
		m.summary = msg.Summary
		m.mutex.Unlock()

		return m, cmd
	}

	return m, cmd
}

// handleKeyPress processes keyboard input. While the batch runs, q asks it to stop;
// the interface stays up to show the cancellation and cleanup.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.mutex.Lock()
		completed := m.completed
		if completed {
			m.quitting = true
		} else {
			m.stopping = true
		}
		m.mutex.Unlock()

		if completed {
			return m, tea.Quit
		}

		// Stopping reports events back through the program, so it cannot run inside Update.
		return m, func() tea.Msg {
			m.requestStop()
			return nil
		}
	}

	return m, nil
}

func (m *Model) updateViewportSize() {
	w := m.width - 2
	if w < 20 {
		w = 20
	}

	h := m.height - chromeHeight
	if h < 3 {
		h = 3
	}

	m.viewport.Width = w
	m.viewport.Height = h
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.quitting {
		return ""
	}

	var content strings.Builder

	now := m.now()
	for _, r := range m.rows {
		m.renderRow(&content, r.info(now))
	}

	for _, n := range m.notices {
		content.WriteString(m.styles.Notice.Render(n))
		content.WriteString("\n")
	}

	if m.completed {
		content.WriteString("\n")
		content.WriteString(m.completionLine())
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())

	var view strings.Builder

	view.WriteString(m.styles.Title.Render("🎞  mediabatch"))
	view.WriteString("  ")
	view.WriteString(m.styles.Header.Render(m.renderStatusBar()))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))

	if m.height == 0 || m.height > minStatusBarAvailableHeight {
		view.WriteString("\n")
		view.WriteString(m.styles.Help.Render(m.helpText()))
	}

	return view.String()
}

func (m *Model) helpText() string {
	switch {
	case m.completed:
		return "↑/↓ or j/k to scroll, 'q' to quit and return to terminal"
	case m.stopping:
		return "stopping, waiting for running tasks to terminate..."
	default:
		return "↑/↓ or j/k to scroll, PgUp/PgDn for pages, 'q' or ctrl+c to stop the batch"
	}
}

func (m *Model) completionLine() string {
	s := m.summary

	switch {
	case s.WasCancelled:
		return m.styles.Cancelled.Render(fmt.Sprintf("⏹  Batch stopped: %d processed, %d not finished", s.Processed, s.Cancelled+s.Pending()))
	case s.Errors > 0:
		return m.styles.Failed.Render(fmt.Sprintf("⚠️  Batch completed with %d error(s)", s.Errors))
	default:
		return m.styles.Success.Render("✅ Batch completed successfully")
	}
}

// renderStatusBar renders the batch counters and ETA.
func (m *Model) renderStatusBar() string {
	s := m.summary

	running := 0

	for _, r := range m.rows {
		r.mutex.RLock()
		if r.Status == StatusRunning {
			running++
		}
		r.mutex.RUnlock()
	}

	eta := m.batchETA
	if m.completed {
		eta = estimator.FormatDuration(0)
	}

	return fmt.Sprintf("%d/%d done · %d running · %d skipped · %d failed · %d cancelled · ETA %s",
		s.Processed, s.Total, running, s.Skipped, s.Errors, s.Cancelled, eta)
}

// renderRow renders one task and, below it, its last diagnostic line or error.
func (m *Model) renderRow(b *strings.Builder, ri rowInfo) {
	icon, style := m.statusLook(ri.status)
	name := style.Render(pad(ri.name, nameWidth))

	fraction := ri.sample.Fraction(ri.workload)

	switch ri.status {
	case StatusSuccess:
		fraction = 1
	case StatusPending, StatusSkipped:
		fraction = 0
	}

	fmt.Fprintf(b, "%s %s %s %3.0f%%", icon, name, m.bar.ViewAs(fraction), 100*fraction)

	if ri.status == StatusRunning {
		speed, eta := "-", estimator.NotAvailable
		if ri.sampled {
			speed = fmt.Sprintf("%.2fx", ri.sample.Speed)

			if ri.workload > 0 {
				eta = estimator.FormatDuration(time.Duration(ri.sample.Remaining(ri.workload) * float64(time.Second)))
			}
		}

		fmt.Fprintf(b, "  %s  ETA %s", speed, eta)
	}

	if ri.elapsed > 0 {
		b.WriteString(m.styles.Output.Render(fmt.Sprintf("  (%v)", ri.elapsed.Round(durationRounding))))
	}

	b.WriteString("\n")

	switch {
	case ri.errorMsg != "":
		b.WriteString("   ")
		b.WriteString(m.styles.Error.Render(truncate(ri.errorMsg, m.lineWidth())))
		b.WriteString("\n")
	case ri.lastOutput != "" && ri.status == StatusRunning:
		b.WriteString("   ")
		b.WriteString(m.styles.Output.Render(truncate(ri.lastOutput, m.lineWidth())))
		b.WriteString("\n")
	}
}

func (m *Model) lineWidth() int {
	w := m.viewport.Width - 4
	if w < 10 {
		return 10
	}

	return w
}

func (m *Model) statusLook(s TaskStatus) (string, lipgloss.Style) {
	switch s {
	case StatusRunning:
		return "⚡", m.styles.Running
	case StatusSuccess:
		return "✅", m.styles.Success
	case StatusFailed:
		return "❌", m.styles.Failed
	case StatusCancelled:
		return "⏹ ", m.styles.Cancelled
	case StatusSkipped:
		return "⏭ ", m.styles.Skipped
	default:
		return "⏳", m.styles.Pending
	}
}

func stoppingNotice(active int) string {
	return fmt.Sprintf("Stopping: terminating %d running process(es)...", active)
}

func cleanupNotice(e progress.Event) string {
	switch {
	case e.Data.Error != nil:
		return fmt.Sprintf("could not remove partial output %s: %v", e.Data.Path, e.Data.Error)
	case e.Data.Kept:
		return "kept partial output " + e.Data.Path
	case e.Data.Destination != "":
		return fmt.Sprintf("moved partial output to trash: %s → %s", e.Data.Path, e.Data.Destination)
	default:
		return "deleted partial output " + e.Data.Path
	}
}

func pad(s string, n int) string {
	s = truncate(s, n)

	if l := len([]rune(s)); l < n {
		return s + strings.Repeat(" ", n-l)
	}

	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	if n <= 1 {
		return string(r[:n])
	}

	return string(r[:n-1]) + "…"
}
