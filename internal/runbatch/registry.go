// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"slices"
	"sync"
)

// Handle is what the registry knows about a live process: enough to find and kill it.
type Handle interface {
	PID() int
	Kill() error
}

// Registry is the set of live processes in a batch. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	handles map[Handle]struct{}
	changed chan struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[Handle]struct{}),
		changed: make(chan struct{}),
	}
}

// Add registers h.
func (r *Registry) Add(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handles[h] = struct{}{}
	r.notify()
}

// Remove deregisters h. Removing an unknown handle is a no-op.
func (r *Registry) Remove(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[h]; !ok {
		return
	}

	delete(r.handles, h)
	r.notify()
}

// Len returns the number of live processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.handles)
}

// Snapshot returns the registered handles ordered by PID.
func (r *Registry) Snapshot() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Handle, 0, len(r.handles))
	for h := range r.handles {
		out = append(out, h)
	}

	slices.SortFunc(out, func(a, b Handle) int { return a.PID() - b.PID() })

	return out
}

// Changed returns a channel closed at the next Add or Remove.
func (r *Registry) Changed() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.changed
}

// notify must be called with mu held.
func (r *Registry) notify() {
	close(r.changed)
	r.changed = make(chan struct{})
}
