// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package stats counts task outcomes for a batch and cleans up partial outputs.
package stats

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matt-FFFFFF/mediabatch/internal/ctxlog"
	"github.com/spf13/afero"
)

// FS is the filesystem partial outputs are checked against.
var FS = afero.NewOsFs()

// Counter names one of the monotonic outcome counters.
type Counter int

const (
	// Processed counts successful tasks.
	Processed Counter = iota
	// Skipped counts tasks whose output already existed.
	Skipped
	// Errors counts failed tasks.
	Errors
	// Cancelled counts tasks stopped by a cancellation.
	Cancelled

	numCounters
)

// String implements fmt.Stringer.
func (c Counter) String() string {
	switch c {
	case Processed:
		return "processed"
	case Skipped:
		return "skipped"
	case Errors:
		return "errors"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Remover disposes of a partial output and reports where it went.
type Remover interface {
	Remove(path string) (string, error)
}

// CleanupResult describes one partial output handled by CleanupPartialOutputs.
type CleanupResult struct {
	Path        string
	Destination string // Empty when the file was deleted or kept
	Kept        bool
	Err         error
}

// Collector is safe for concurrent use.
type Collector struct {
	fs        afero.Fs
	remover   Remover
	now       func() time.Time
	start     time.Time
	total     atomic.Int64
	totalSet  sync.Once
	counters  [numCounters]atomic.Int64
	cancelled atomic.Bool

	mu      sync.Mutex
	partial []string
	seen    map[string]struct{}
}

// Option configures a Collector.
type Option func(*Collector)

// WithRemover sets how partial outputs are disposed of. Without one they are kept.
func WithRemover(r Remover) Option {
	return func(c *Collector) {
		c.remover = r
	}
}

// WithFs overrides FS.
func WithFs(fs afero.Fs) Option {
	return func(c *Collector) {
		c.fs = fs
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		c.now = now
	}
}

// New returns a collector whose elapsed time starts now.
func New(opts ...Option) *Collector {
	c := &Collector{
		fs:   FS,
		now:  time.Now,
		seen: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.start = c.now()

	return c
}

// SetTotal records the batch size. Only the first call has an effect.
func (c *Collector) SetTotal(n int) {
	c.totalSet.Do(func() {
		c.total.Store(int64(n))
	})
}

// Inc adds one to counter.
func (c *Collector) Inc(counter Counter) {
	if counter < 0 || counter >= numCounters {
		return
	}

	c.counters[counter].Add(1)
}

// Get returns the current value of counter.
func (c *Collector) Get(counter Counter) int {
	if counter < 0 || counter >= numCounters {
		return 0
	}

	return int(c.counters[counter].Load())
}

// MarkCancelled flags the batch as cancelled.
func (c *Collector) MarkCancelled() {
	c.cancelled.Store(true)
}

// IsCancelled reports whether MarkCancelled was called.
func (c *Collector) IsCancelled() bool {
	return c.cancelled.Load()
}

// RecordPartialOutput queues path for cleanup if it exists. It reports whether it was queued.
func (c *Collector) RecordPartialOutput(path string) bool {
	if path == "" {
		return false
	}

	exists, err := afero.Exists(c.fs, path)
	if err != nil || !exists {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.seen[path]; dup {
		return false
	}

	c.seen[path] = struct{}{}
	c.partial = append(c.partial, path)

	return true
}

// PendingCleanup returns the queued paths not yet cleaned up.
func (c *Collector) PendingCleanup() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.partial...)
}

// CleanupPartialOutput takes path off the queue and disposes of it. It reports false
// when path was not queued, for instance because another cleanup already took it.
func (c *Collector) CleanupPartialOutput(ctx context.Context, path string) (CleanupResult, bool) {
	c.mu.Lock()

	i := slices.Index(c.partial, path)
	if i < 0 {
		c.mu.Unlock()
		return CleanupResult{}, false
	}

	c.partial = slices.Delete(c.partial, i, i+1)
	c.mu.Unlock()

	return c.dispose(ctx, path), true
}

// CleanupPartialOutputs drains the queue through the remover.
// With no remover the paths are dropped from the queue and left on disk.
func (c *Collector) CleanupPartialOutputs(ctx context.Context) []CleanupResult {
	c.mu.Lock()
	paths := c.partial
	c.partial = nil
	c.mu.Unlock()

	if len(paths) == 0 {
		return nil
	}

	results := make([]CleanupResult, 0, len(paths))

	for _, p := range paths {
		results = append(results, c.dispose(ctx, p))
	}

	return results
}

func (c *Collector) dispose(ctx context.Context, path string) CleanupResult {
	if c.remover == nil {
		ctxlog.Info(ctx, "keeping partial output", "path", path)
		return CleanupResult{Path: path, Kept: true}
	}

	dest, err := c.remover.Remove(path)
	if err != nil {
		ctxlog.Error(ctx, "partial output cleanup failed", "path", path, "error", err)
	} else {
		ctxlog.Info(ctx, "partial output removed", "path", path, "destination", dest)
	}

	return CleanupResult{Path: path, Destination: dest, Err: err}
}

// Summary is the batch-level report.
type Summary struct {
	Total        int
	Processed    int
	Skipped      int
	Errors       int
	Cancelled    int
	Elapsed      time.Duration
	WasCancelled bool
}

// Summary returns the current counters and the time since New.
func (c *Collector) Summary() Summary {
	return Summary{
		Total:        int(c.total.Load()),
		Processed:    c.Get(Processed),
		Skipped:      c.Get(Skipped),
		Errors:       c.Get(Errors),
		Cancelled:    c.Get(Cancelled),
		Elapsed:      c.now().Sub(c.start),
		WasCancelled: c.IsCancelled(),
	}
}

// Pending is the number of tasks that never reached a terminal outcome.
func (s Summary) Pending() int {
	return max(s.Total-s.Processed-s.Skipped-s.Errors-s.Cancelled, 0)
}

// String implements fmt.Stringer.
func (s Summary) String() string {
	return fmt.Sprintf("total=%d processed=%d skipped=%d errors=%d cancelled=%d pending=%d elapsed=%s",
		s.Total, s.Processed, s.Skipped, s.Errors, s.Cancelled, s.Pending(), s.Elapsed.Round(time.Second))
}
