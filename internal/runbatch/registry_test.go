// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeHandle struct {
	pid int
}

func (f *fakeHandle) PID() int    { return f.pid }
func (f *fakeHandle) Kill() error { return nil }

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	a, b := &fakeHandle{pid: 20}, &fakeHandle{pid: 10}

	changed := reg.Changed()

	reg.Add(a)

	select {
	case <-changed:
	default:
		t.Fatal("Add must signal a change")
	}

	reg.Add(b)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []Handle{b, a}, reg.Snapshot())

	reg.Remove(a)
	reg.Remove(a)
	assert.Equal(t, []Handle{b}, reg.Snapshot())

	changed = reg.Changed()
	reg.Remove(&fakeHandle{pid: 99})

	select {
	case <-changed:
		t.Fatal("removing an unknown handle is not a change")
	default:
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup

	for i := range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			h := &fakeHandle{pid: i}
			reg.Add(h)
			reg.Remove(h)
		}()
	}

	wg.Wait()
	assert.Zero(t, reg.Len())
}

func TestResults_Count(t *testing.T) {
	rs := Results{
		{Outcome: OutcomeSuccess},
		{Outcome: OutcomeFailure},
		nil,
		{Outcome: OutcomeCancelled},
		{Outcome: OutcomeFailure},
	}

	assert.Equal(t, 2, rs.Count(OutcomeFailure))
	assert.Equal(t, 1, rs.Count(OutcomeSuccess))
	assert.True(t, rs.HasFailure())
	assert.False(t, Results{{Outcome: OutcomeSkipped}}.HasFailure())
}
