// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package runbatch

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func shell(id, script string) Command {
	return Command{
		ID:    id,
		Label: id,
		Args:  []string{"/bin/sh", "-c", script},
	}
}

type lineSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *lineSink) add(l string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = append(s.lines, l)
}

func (s *lineSink) get() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.lines)
}

func fastOptions() Options {
	return Options{ReadTimeout: 50 * time.Millisecond, DrainTimeout: 100 * time.Millisecond}
}

func TestRunner_Success(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &lineSink{}
	r := NewRunner(nil, fastOptions())

	res := r.Run(context.Background(), shell("ok", `printf 'time=00:00:01.00 speed=1x\rtime=00:00:02.00 speed=2x\r' >&2; echo done >&2`), sink.add)

	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, 0, res.ExitCode)
	require.NoError(t, res.Err)
	assert.Nil(t, res.Tail)
	assert.Equal(t, []string{"time=00:00:01.00 speed=1x", "time=00:00:02.00 speed=2x", "done"}, sink.get())
	assert.Zero(t, r.Registry().Len())
}

func TestRunner_FailureKeepsTail(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRunner(nil, Options{TailLines: 2, ReadTimeout: 50 * time.Millisecond})

	res := r.Run(context.Background(), shell("fail", `echo one >&2; echo two >&2; echo three >&2; exit 3`), nil)

	assert.Equal(t, OutcomeFailure, res.Outcome)
	assert.Equal(t, 3, res.ExitCode)
	require.ErrorIs(t, res.Err, ErrChildExit)
	assert.Equal(t, []string{"two", "three"}, res.Tail)
	assert.Zero(t, r.Registry().Len())
}

func TestRunner_SpawnError(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRunner(nil, Options{})

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing executable", args: []string{"/definitely/not/here/ffmpeg"}},
		{name: "empty command", args: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Run(context.Background(), Command{ID: tt.name, Args: tt.args}, nil)

			assert.Equal(t, OutcomeFailure, res.Outcome)
			assert.False(t, res.HasExitCode())
			require.ErrorIs(t, res.Err, ErrSpawn)
		})
	}
}

func TestRunner_StoppedBeforeSpawn(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(nil, Options{})
	res := r.Run(ctx, shell("never", "echo should-not-run >&2"), func(string) {
		t.Error("no output expected from a task that never spawned")
	})

	assert.Equal(t, OutcomeCancelled, res.Outcome)
	require.ErrorIs(t, res.Err, ErrCancelled)
	assert.Zero(t, res.PID)
}

func TestRunner_CancelSilentChild(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRunner(nil, fastOptions())
	done := make(chan *Result, 1)

	go func() {
		done <- r.Run(ctx, shell("silent", "sleep 30"), nil)
	}()

	require.Eventually(t, func() bool { return r.Registry().Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancelled := time.Now()
	cancel()

	select {
	case res := <-done:
		assert.Equal(t, OutcomeCancelled, res.Outcome)
		require.ErrorIs(t, res.Err, ErrCancelled)
		assert.Less(t, time.Since(cancelled), 2*time.Second)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not observe cancellation")
	}

	assert.Zero(t, r.Registry().Len())
}

func TestRunner_ExternallyKilledIsFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRunner(nil, fastOptions())
	done := make(chan *Result, 1)

	go func() {
		done <- r.Run(context.Background(), shell("victim", "echo started >&2; exec sleep 30"), nil)
	}()

	require.Eventually(t, func() bool { return r.Registry().Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	pid := r.Registry().Snapshot()[0].PID()
	require.NoError(t, syscall.Kill(pid, syscall.SIGKILL))

	select {
	case res := <-done:
		assert.Equal(t, OutcomeFailure, res.Outcome)
		require.ErrorIs(t, res.Err, ErrChildExit)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not return after external kill")
	}
}

func TestRunner_CancelKillsGrandchildren(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &lineSink{}
	r := NewRunner(nil, fastOptions())
	done := make(chan *Result, 1)

	go func() {
		done <- r.Run(ctx, shell("tree", `sleep 30 & echo $! >&2; wait`), sink.add)
	}()

	require.Eventually(t, func() bool { return len(sink.get()) == 1 }, 2*time.Second, 5*time.Millisecond)

	grandchild, err := strconv.Atoi(sink.get()[0])
	require.NoError(t, err)

	cancel()

	res := <-done
	assert.Equal(t, OutcomeCancelled, res.Outcome)

	assert.Eventually(t, func() bool {
		p, err := process.NewProcess(int32(grandchild))
		if err != nil {
			return true
		}

		status, err := p.Status()
		if err != nil {
			return true
		}

		return slices.Contains(status, process.Zombie)
	}, 2*time.Second, 20*time.Millisecond, "grandchild %d survived", grandchild)
}

func TestRunner_OrphanHoldingPipeDoesNotHang(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRunner(nil, fastOptions())

	start := time.Now()
	res := r.Run(context.Background(), shell("orphan", `(sleep 3 &); echo bye >&2; exit 0`), nil)

	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Less(t, time.Since(start), 2*time.Second)
}
