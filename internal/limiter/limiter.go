// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package limiter bounds how many tasks run at once.
package limiter

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/semaphore"
)

const (
	// MinLimit is the floor applied to the CPU-derived default.
	MinLimit = 2
	// CPUDivisor divides the logical CPU count for the default limit.
	CPUDivisor = 3
)

// ErrStopped is returned by Acquire once the stop context is done.
var ErrStopped = errors.New("limiter: stop requested, no permits handed out")

// cpuCount is swapped in tests.
var cpuCount = func() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}

	return n
}

// DefaultLimit is max(logicalCPUs/3, 2).
func DefaultLimit() int {
	return max(cpuCount()/CPUDivisor, MinLimit)
}

// Limiter is a counting semaphore handing out Permits.
type Limiter struct {
	sem   *semaphore.Weighted
	max   int
	inUse atomic.Int64
}

// New returns a limiter with n permits. n <= 0 means DefaultLimit.
func New(n int) *Limiter {
	if n <= 0 {
		n = DefaultLimit()
	}

	return &Limiter{
		sem: semaphore.NewWeighted(int64(n)),
		max: n,
	}
}

// Max returns the number of permits.
func (l *Limiter) Max() int {
	return l.max
}

// InUse returns the number of permits currently held.
func (l *Limiter) InUse() int {
	return int(l.inUse.Load())
}

// Acquire blocks until a permit is free or ctx is done. A done ctx never yields a permit.
func (l *Limiter) Acquire(ctx context.Context) (*Permit, error) {
	if ctx.Err() != nil {
		return nil, ErrStopped
	}

	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Join(ErrStopped, err)
	}

	// The semaphore may grant a free slot even when ctx is already done.
	if ctx.Err() != nil {
		l.sem.Release(1)
		return nil, ErrStopped
	}

	l.inUse.Add(1)

	return &Permit{l: l}, nil
}

// Permit authorises one task to run. Release it exactly where the task ends,
// usually with defer. Extra Release calls are ignored.
type Permit struct {
	l    *Limiter
	once sync.Once
}

// Release returns the permit to the limiter.
func (p *Permit) Release() {
	if p == nil {
		return
	}

	p.once.Do(func() {
		p.l.inUse.Add(-1)
		p.l.sem.Release(1)
	})
}
