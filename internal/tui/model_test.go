// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/mediabatch/internal/progress"
	"github.com/matt-FFFFFF/mediabatch/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTasks() []Task {
	return []Task{
		{ID: "t1", Name: "intro.mkv", Workload: 100},
		{ID: "t2", Name: "trailer.mkv", Workload: 50},
		{ID: "t3", Workload: 10},
	}
}

func TestNewTaskRow(t *testing.T) {
	row := NewTaskRow(Task{ID: "t3"})

	require.NotNil(t, row)
	assert.Equal(t, "t3", row.Name, "name falls back to the id")
	assert.Equal(t, StatusPending, row.Status)
	assert.Nil(t, row.StartTime)
	assert.Nil(t, row.EndTime)
}

func TestTaskRow_UpdateStatus(t *testing.T) {
	row := NewTaskRow(Task{ID: "t1"})
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	row.UpdateStatus(StatusRunning, start)
	require.NotNil(t, row.StartTime)
	assert.Nil(t, row.EndTime)

	row.UpdateStatus(StatusSuccess, start.Add(3*time.Second))
	require.NotNil(t, row.EndTime)

	info := row.info(start.Add(time.Hour))
	assert.Equal(t, StatusSuccess, info.status)
	assert.Equal(t, 3*time.Second, info.elapsed)
}

func TestTaskRow_UpdateOutputKeepsLastNonEmpty(t *testing.T) {
	row := NewTaskRow(Task{ID: "t1"})

	row.UpdateOutput("first")
	row.UpdateOutput("")

	assert.Equal(t, "first", row.LastOutput)
}

func TestModel_ProcessEvents(t *testing.T) {
	m := NewModel(context.Background(), testTasks(), nil)

	m.processProgressEvent(progress.Event{TaskID: "t1", Type: progress.EventStarted})
	m.processProgressEvent(progress.Event{
		TaskID: "t1",
		Type:   progress.EventProgress,
		Data:   progress.EventData{Sample: progress.Sample{Elapsed: 25, Speed: 2}, BatchETA: "01:05"},
	})
	m.processProgressEvent(progress.Event{TaskID: "t2", Type: progress.EventSkipped})
	m.processProgressEvent(progress.Event{
		TaskID: "t3",
		Type:   progress.EventFailed,
		Data:   progress.EventData{Error: errors.New("exit code 1"), Tail: []string{"a", "Invalid argument"}},
	})

	assert.Equal(t, StatusRunning, m.index["t1"].Status)
	assert.InDelta(t, 25.0, m.index["t1"].Sample.Elapsed, 1e-9)
	assert.Equal(t, StatusSkipped, m.index["t2"].Status)
	assert.Equal(t, StatusFailed, m.index["t3"].Status)
	assert.Equal(t, "exit code 1", m.index["t3"].ErrorMsg)
	assert.Equal(t, "Invalid argument", m.index["t3"].LastOutput)
	assert.Equal(t, "01:05", m.batchETA)
	assert.Equal(t, 1, m.summary.Skipped)
	assert.Equal(t, 1, m.summary.Errors)

	m.processProgressEvent(progress.Event{TaskID: "t1", Type: progress.EventCompleted, Data: progress.EventData{BatchETA: "00:00"}})
	assert.Equal(t, StatusSuccess, m.index["t1"].Status)
	assert.Equal(t, 1, m.summary.Processed)
	assert.Equal(t, 0, m.summary.Pending())
}

func TestModel_UnknownTaskAddsRow(t *testing.T) {
	m := NewModel(context.Background(), nil, nil)

	m.processProgressEvent(progress.Event{TaskID: "x", Label: "extra.mkv", Type: progress.EventStarted})

	require.Len(t, m.rows, 1)
	assert.Equal(t, "extra.mkv", m.rows[0].Name)
	assert.Equal(t, 1, m.summary.Total)
}

func TestModel_BatchEvents(t *testing.T) {
	m := NewModel(context.Background(), testTasks(), nil)

	m.processProgressEvent(progress.Event{Type: progress.EventStopping, Data: progress.EventData{Active: 2}})
	m.processProgressEvent(progress.Event{Type: progress.EventCleanup, Data: progress.EventData{Path: "out/a.mp4", Destination: "/trash/a.mp4"}})

	assert.True(t, m.stopping)
	assert.Equal(t, []string{
		"Stopping: terminating 2 running process(es)...",
		"moved partial output to trash: out/a.mp4 → /trash/a.mp4",
	}, m.notices)
}

func TestModel_QuitWhileRunningRequestsStopOnce(t *testing.T) {
	var calls atomic.Int32

	m := NewModel(context.Background(), testTasks(), func() { calls.Add(1) })

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(key)
		require.NotNil(t, cmd)
		assert.Nil(t, cmd())
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, m.stopping)
	assert.False(t, m.quitting)
}

func TestModel_QuitAfterCompletion(t *testing.T) {
	stopped := false
	m := NewModel(context.Background(), testTasks(), func() { stopped = true })

	m.Update(BatchCompletedMsg{Summary: stats.Summary{Total: 3, Processed: 3}})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
	assert.False(t, stopped)
}

func TestModel_View(t *testing.T) {
	m := NewModel(context.Background(), testTasks(), nil)
	m.Update(tea.WindowSizeMsg{Width: 140, Height: 30})

	m.processProgressEvent(progress.Event{TaskID: "t1", Type: progress.EventStarted})
	m.processProgressEvent(progress.Event{
		TaskID: "t1",
		Type:   progress.EventProgress,
		Data:   progress.EventData{Sample: progress.Sample{Elapsed: 50, Speed: 2}, BatchETA: "00:40"},
	})
	m.processProgressEvent(progress.Event{TaskID: "t1", Type: progress.EventOutput, Data: progress.EventData{OutputLine: "frame=1200"}})

	view := m.View()

	assert.Contains(t, view, "mediabatch")
	assert.Contains(t, view, "0/3 done · 1 running")
	assert.Contains(t, view, "ETA 00:40")
	assert.Contains(t, view, "intro.mkv")
	assert.Contains(t, view, " 50%")
	assert.Contains(t, view, "2.00x  ETA 00:25")
	assert.Contains(t, view, "frame=1200")
	assert.Contains(t, view, "'q' or ctrl+c to stop the batch")
}

func TestModel_ViewCompleted(t *testing.T) {
	tests := []struct {
		name    string
		summary stats.Summary
		want    string
	}{
		{name: "success", summary: stats.Summary{Total: 3, Processed: 3}, want: "Batch completed successfully"},
		{name: "errors", summary: stats.Summary{Total: 3, Processed: 2, Errors: 1}, want: "Batch completed with 1 error(s)"},
		{
			name:    "stopped",
			summary: stats.Summary{Total: 3, Processed: 1, Cancelled: 1, WasCancelled: true},
			want:    "Batch stopped: 1 processed, 2 not finished",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(context.Background(), testTasks(), nil)
			m.Update(BatchCompletedMsg{Summary: tt.summary})

			view := m.View()
			assert.Contains(t, view, tt.want)
			assert.Contains(t, view, "'q' to quit")
		})
	}
}

func TestTUIReporter_ClosedIgnoresEvents(t *testing.T) {
	r := NewTUIReporter(nil)
	r.Report(progress.Event{TaskID: "t1"})

	r.Close()
	assert.True(t, r.closed)
	r.Report(progress.Event{TaskID: "t1"})
}

func TestTruncateAndPad(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abc…", truncate("abcdef", 4))
	assert.Equal(t, "ab   ", pad("ab", 5))
	assert.Equal(t, "abcd…", pad("abcdefgh", 5))
}
