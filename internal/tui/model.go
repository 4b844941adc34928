// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"
	"time"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/mediabatch/internal/estimator"
	"github.com/matt-FFFFFF/mediabatch/internal/progress"
	"github.com/matt-FFFFFF/mediabatch/internal/stats"
)

// TaskStatus represents the current state of a task in the TUI.
type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusCancelled
	StatusSkipped
)

// String returns a string representation of the task status.
func (s TaskStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Task describes one row before the batch starts.
type Task struct {
	ID       string
	Name     string
	Workload float64
}

// TaskRow is one task in the list.
type TaskRow struct {
	ID         string
	Name       string
	Workload   float64
	Status     TaskStatus
	StartTime  *time.Time
	EndTime    *time.Time
	Sample     progress.Sample
	Sampled    bool
	LastOutput string
	ErrorMsg   string
	mutex      sync.RWMutex
}

// NewTaskRow creates a pending row.
func NewTaskRow(t Task) *TaskRow {
	name := t.Name
	if name == "" {
		name = t.ID
	}

	return &TaskRow{ID: t.ID, Name: name, Workload: t.Workload}
}

// UpdateStatus safely updates the status and records start and end times.
func (tr *TaskRow) UpdateStatus(status TaskStatus, at time.Time) {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	tr.Status = status

	switch status {
	case StatusRunning:
		if tr.StartTime == nil {
			tr.StartTime = &at
		}
	case StatusSuccess, StatusFailed, StatusCancelled:
		if tr.EndTime == nil {
			tr.EndTime = &at
		}
	}
}

// UpdateSample safely records the latest progress sample.
func (tr *TaskRow) UpdateSample(s progress.Sample) {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	tr.Sample = s
	tr.Sampled = true
}

// UpdateOutput safely updates the last output line.
func (tr *TaskRow) UpdateOutput(line string) {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	if line != "" {
		tr.LastOutput = line
	}
}

// UpdateError safely updates the error message.
func (tr *TaskRow) UpdateError(msg string) {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	tr.ErrorMsg = msg
}

// rowInfo is a copy of a row taken under its lock.
type rowInfo struct {
	name       string
	status     TaskStatus
	workload   float64
	sample     progress.Sample
	sampled    bool
	lastOutput string
	errorMsg   string
	elapsed    time.Duration
}

func (tr *TaskRow) info(now time.Time) rowInfo {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	ri := rowInfo{
		name:       tr.Name,
		status:     tr.Status,
		workload:   tr.Workload,
		sample:     tr.Sample,
		sampled:    tr.Sampled,
		lastOutput: tr.LastOutput,
		errorMsg:   tr.ErrorMsg,
	}

	if tr.StartTime != nil {
		end := now
		if tr.EndTime != nil {
			end = *tr.EndTime
		}

		ri.elapsed = end.Sub(*tr.StartTime)
	}

	return ri
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	stop      func()
	stopOnce  sync.Once
	rows      []*TaskRow
	index     map[string]*TaskRow
	width     int
	height    int
	quitting  bool
	stopping  bool
	completed bool
	summary   stats.Summary
	batchETA  string
	notices   []string // Stop acknowledgements and cleanup lines
	mutex     sync.RWMutex

	viewport viewport.Model
	bar      progressbar.Model
	styles   *Styles
	now      func() time.Time
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title     lipgloss.Style
	Header    lipgloss.Style
	Pending   lipgloss.Style
	Running   lipgloss.Style
	Success   lipgloss.Style
	Failed    lipgloss.Style
	Cancelled lipgloss.Style
	Skipped   lipgloss.Style
	Output    lipgloss.Style
	Error     lipgloss.Style
	Notice    lipgloss.Style
	Help      lipgloss.Style
	Border    lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Cancelled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")),
		Skipped: lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Notice: lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// NewModel creates a model listing tasks in submission order. stop is called at most
// once, when the user asks to stop a running batch.
func NewModel(ctx context.Context, tasks []Task, stop func()) *Model {
	m := &Model{
		ctx:      ctx,
		stop:     stop,
		index:    make(map[string]*TaskRow, len(tasks)),
		batchETA: estimator.NotAvailable,
		viewport: viewport.New(defaultWidth, defaultHeight),
		bar: progressbar.New(
			progressbar.WithDefaultGradient(),
			progressbar.WithWidth(barWidth),
			progressbar.WithoutPercentage(),
		),
		styles: NewStyles(),
		now:    time.Now,
	}

	m.summary.Total = len(tasks)

	for _, t := range tasks {
		row := NewTaskRow(t)
		m.rows = append(m.rows, row)
		m.index[t.ID] = row
	}

	return m
}

// row returns the row for id, adding one for tasks the model was not told about.
func (m *Model) row(id, name string) *TaskRow {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if r, ok := m.index[id]; ok {
		return r
	}

	r := NewTaskRow(Task{ID: id, Name: name})
	m.rows = append(m.rows, r)
	m.index[id] = r
	m.summary.Total = len(m.rows)

	return r
}

// processProgressEvent applies one event to the model.
func (m *Model) processProgressEvent(e progress.Event) {
	at := e.Timestamp
	if at.IsZero() {
		at = m.now()
	}

	switch e.Type {
	case progress.EventStopping:
		m.mutex.Lock()
		m.stopping = true
		m.notices = append(m.notices, stoppingNotice(e.Data.Active))
		m.mutex.Unlock()

		return

	case progress.EventCleanup:
		m.mutex.Lock()
		m.notices = append(m.notices, cleanupNotice(e))
		m.mutex.Unlock()

		return
	}

	if e.TaskID == "" {
		return
	}

	r := m.row(e.TaskID, e.Label)

	switch e.Type {
	case progress.EventStarted:
		r.UpdateStatus(StatusRunning, at)

	case progress.EventProgress:
		r.UpdateSample(e.Data.Sample)
		m.setETA(e.Data.BatchETA)

	case progress.EventOutput:
		r.UpdateOutput(e.Data.OutputLine)

	case progress.EventCompleted:
		r.UpdateStatus(StatusSuccess, at)
		m.count(func(s *stats.Summary) { s.Processed++ })
		m.setETA(e.Data.BatchETA)

	case progress.EventFailed:
		r.UpdateStatus(StatusFailed, at)

		if e.Data.Error != nil {
			r.UpdateError(e.Data.Error.Error())
		}

		if n := len(e.Data.Tail); n > 0 {
			r.UpdateOutput(e.Data.Tail[n-1])
		}

		m.count(func(s *stats.Summary) { s.Errors++ })

	case progress.EventCancelled:
		r.UpdateStatus(StatusCancelled, at)
		m.count(func(s *stats.Summary) { s.Cancelled++ })

	case progress.EventSkipped:
		r.UpdateStatus(StatusSkipped, at)
		m.count(func(s *stats.Summary) { s.Skipped++ })
	}
}

func (m *Model) setETA(eta string) {
	if eta == "" {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.batchETA = eta
}

func (m *Model) count(fn func(*stats.Summary)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	fn(&m.summary)
}

// requestStop calls the stop function once.
func (m *Model) requestStop() {
	m.stopOnce.Do(func() {
		if m.stop != nil {
			m.stop()
		}
	})
}
