// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cancellation owns the stop signal of a batch.
//
// A Controller moves through Active, Stopping and Stopped. Entering Stopping cancels the
// stop context that every runner and permit acquisition observes, and force-kills every
// process tree in the registry.
package cancellation

import (
	"context"
	"sync"

	"github.com/matt-FFFFFF/mediabatch/internal/runbatch"
)

// State is the lifecycle state of a Controller.
type State int32

const (
	// StateActive means no stop was requested.
	StateActive State = iota
	// StateStopping means a stop was requested and tasks are winding down.
	StateStopping
	// StateStopped means the stop completed. It is terminal.
	StateStopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Reason records why a stop was requested.
type Reason int

const (
	// ReasonNone is reported while the controller is active.
	ReasonNone Reason = iota
	// ReasonInterrupt is a user interrupt.
	ReasonInterrupt
	// ReasonError is an unrecoverable error.
	ReasonError
)

// String implements fmt.Stringer.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInterrupt:
		return "interrupt"
	case ReasonError:
		return "error"
	default:
		return "unknown"
	}
}

// CancelMarker is the part of the stats collector the controller flags.
type CancelMarker interface {
	MarkCancelled()
}

// Controller is safe for concurrent use.
type Controller struct {
	ctx      context.Context
	cancel   context.CancelFunc
	detach   func() bool
	registry *runbatch.Registry
	stats    CancelMarker
	onStop   func(reason Reason, active int)

	mu     sync.Mutex
	state  State
	reason Reason
}

// Option configures a Controller.
type Option func(*Controller)

// WithOnStop sets a hook called once, on the transition to Stopping, with the number of
// live processes about to be killed.
func WithOnStop(fn func(reason Reason, active int)) Option {
	return func(c *Controller) {
		c.onStop = fn
	}
}

// New returns an active controller whose stop context carries the values of parent.
// Cancelling parent is an interrupt stop. registry and stats may be nil.
func New(parent context.Context, registry *runbatch.Registry, stats CancelMarker, opts ...Option) *Controller {
	// Only Stop and Release cancel ctx.
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))

	c := &Controller{
		ctx:      ctx,
		cancel:   cancel,
		registry: registry,
		stats:    stats,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.detach = context.AfterFunc(parent, func() {
		c.Stop(ReasonInterrupt)
	})

	return c
}

// Context returns the stop context. It is done once the controller leaves Active.
func (c *Controller) Context() context.Context {
	return c.ctx
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Reason returns the reason given to the stop that won, or ReasonNone.
func (c *Controller) Reason() Reason {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.reason
}

// Stopping reports whether a stop has been requested.
func (c *Controller) Stopping() bool {
	return c.State() != StateActive
}

// Stop requests a stop. Only the call that moves the controller out of Active returns
// true; every other call does nothing.
func (c *Controller) Stop(reason Reason) bool {
	c.mu.Lock()

	if c.state != StateActive {
		c.mu.Unlock()
		return false
	}

	c.state = StateStopping
	c.reason = reason
	c.mu.Unlock()

	// The batch is flagged and the stop reported before any task observes ctx.
	if c.stats != nil {
		c.stats.MarkCancelled()
	}

	var handles []runbatch.Handle
	if c.registry != nil {
		handles = c.registry.Snapshot()
	}

	if c.onStop != nil {
		c.onStop(reason, len(handles))
	}

	c.cancel()
	KillAll(handles)

	return true
}

// Settle completes a stop once every task has returned. It does nothing while Active.
func (c *Controller) Settle() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateStopping {
		c.state = StateStopped
	}

	return c.state
}

// Release frees the stop context. Call it when the batch is over; a later
// cancellation of the parent no longer stops the controller.
func (c *Controller) Release() {
	c.detach()
	c.cancel()
}

// KillAll kills every handle concurrently and waits for the kills to be issued.
func KillAll(handles []runbatch.Handle) {
	var wg sync.WaitGroup

	for _, h := range handles {
		wg.Add(1)

		go func(h runbatch.Handle) {
			defer wg.Done()

			_ = h.Kill()
		}(h)
	}

	wg.Wait()
}
