// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a live update about one task, or about the batch when TaskID is empty.
type Event struct {
	TaskID    string    // Empty for batch-level events
	Label     string    // Display name of the task
	Position  int       // 1-based submission position, 0 for batch-level events
	Type      EventType // What happened
	Message   string    // Human-readable status message
	Timestamp time.Time // When the event occurred
	Data      EventData // Type-specific data
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates the task's process has been spawned.
	EventStarted EventType = iota
	// EventProgress carries a parsed progress sample.
	EventProgress
	// EventOutput carries a raw diagnostic line (verbose display only).
	EventOutput
	// EventCompleted indicates successful completion.
	EventCompleted
	// EventFailed indicates the task failed.
	EventFailed
	// EventCancelled indicates the task was stopped by a cancellation.
	EventCancelled
	// EventSkipped indicates the task was not run because its output exists.
	EventSkipped
	// EventStopping is a batch-level acknowledgement that a stop was requested.
	EventStopping
	// EventCleanup is a batch-level report of one partial output being removed.
	EventCleanup
)

// String implements fmt.Stringer.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventCancelled:
		return "cancelled"
	case EventSkipped:
		return "skipped"
	case EventStopping:
		return "stopping"
	case EventCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events follow for the task.
func (et EventType) Terminal() bool {
	return et == EventCompleted || et == EventFailed || et == EventCancelled || et == EventSkipped
}

// EventData contains type-specific information for progress events.
type EventData struct {
	// For EventOutput
	OutputLine string

	// For EventProgress
	Sample   Sample
	Workload float64 // Task workload in seconds, 0 if unknown
	BatchETA string  // Formatted batch ETA at the time of the event

	// For EventCompleted/EventFailed/EventCancelled
	ExitCode int
	Error    error
	Tail     []string
	Duration time.Duration

	// For EventStopping
	Active int // Processes being terminated

	// For EventCleanup
	Path        string
	Destination string // Where the file went, empty when deleted or kept
	Kept        bool
}

// Reporter receives events. Implementations must not block the caller for long.
type Reporter interface {
	Report(event Event)
	Close()
}

// Listener consumes events delivered by a ChannelReporter.
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(e Event) {
	f(e)
}

// NullReporter discards every event.
type NullReporter struct{}

// Report implements Reporter.
func (NullReporter) Report(Event) {}

// Close implements Reporter.
func (NullReporter) Close() {}

// NewNullReporter returns a Reporter that does nothing.
func NewNullReporter() Reporter {
	return NullReporter{}
}
