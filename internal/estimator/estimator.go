// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package estimator computes the whole-batch ETA from per-task workloads.
//
// The aggregate advances only when a task finishes successfully. In-flight progress
// feeds the per-task displays, never this estimate.
package estimator

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// NotAvailable is returned by ETAString when no estimate can be made yet.
const NotAvailable = "N/A"

// Estimator is safe for concurrent use.
type Estimator struct {
	mu                sync.Mutex
	now               func() time.Time
	totalWorkload     float64
	workloadCompleted float64
	itemsCompleted    int
	start             time.Time
	started           bool
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) {
		e.now = now
	}
}

// New returns an empty estimator.
func New(opts ...Option) *Estimator {
	e := &Estimator{now: time.Now}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// AddItem registers a task's workload. Non-positive and non-finite values are ignored.
func (e *Estimator) AddItem(workload float64) {
	if !usable(workload) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.totalWorkload += workload
}

// Start records the wall-clock start. Only the first call has an effect.
func (e *Estimator) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return
	}

	e.start = e.now()
	e.started = true
}

// Update records one successfully finished task and its full workload.
// A task with an unknown workload still counts as a completed item.
func (e *Estimator) Update(workloadDone float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if usable(workloadDone) {
		e.workloadCompleted += workloadDone
	}

	e.itemsCompleted++
}

// ETA returns the estimated time left, or false when there is nothing to base it on.
func (e *Estimator) ETA() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.itemsCompleted == 0 || !e.started {
		return 0, false
	}

	elapsed := e.now().Sub(e.start).Seconds()
	if elapsed <= 0 {
		return 0, false
	}

	rate := e.workloadCompleted / elapsed
	if rate <= 0 {
		return 0, false
	}

	remaining := math.Max(e.totalWorkload-e.workloadCompleted, 0)

	return time.Duration(remaining / rate * float64(time.Second)), true
}

// ETAString formats ETA, or returns NotAvailable.
func (e *Estimator) ETAString() string {
	eta, ok := e.ETA()
	if !ok {
		return NotAvailable
	}

	return FormatDuration(eta)
}

// Snapshot is a point-in-time copy of the estimator state.
type Snapshot struct {
	TotalWorkload     float64
	WorkloadCompleted float64
	ItemsCompleted    int
	Elapsed           time.Duration
}

// Snapshot returns the current state. Elapsed is zero before Start.
func (e *Estimator) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		TotalWorkload:     e.totalWorkload,
		WorkloadCompleted: e.workloadCompleted,
		ItemsCompleted:    e.itemsCompleted,
	}

	if e.started {
		s.Elapsed = e.now().Sub(e.start)
	}

	return s
}

// FormatDuration renders d as HH:MM:SS from one hour upwards, MM:SS below.
// Negative durations are shown as zero.
func FormatDuration(d time.Duration) string {
	total := int64(math.Round(math.Max(d.Seconds(), 0)))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%02d:%02d", m, s)
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
