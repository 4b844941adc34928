// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"os"
	"sync/atomic"
)

// ProcessHandle is the runner's reference to a spawned child.
type ProcessHandle struct {
	ps       *os.Process
	exited   atomic.Bool
	killed   atomic.Bool
	exitCode atomic.Int64
}

func newProcessHandle(ps *os.Process) *ProcessHandle {
	h := &ProcessHandle{ps: ps}
	h.exitCode.Store(NoExitCode)

	return h
}

// PID implements Handle.
func (h *ProcessHandle) PID() int {
	return h.ps.Pid
}

// Exited reports whether the child has been reaped.
func (h *ProcessHandle) Exited() bool {
	return h.exited.Load()
}

// ExitCode is NoExitCode until the child has exited on its own.
func (h *ProcessHandle) ExitCode() int {
	return int(h.exitCode.Load())
}

// Killed reports whether Kill reached the process while it was still running.
func (h *ProcessHandle) Killed() bool {
	return h.killed.Load()
}

// Kill implements Handle. It force-kills the child and its descendants.
// Calling it after the child exited is a no-op.
func (h *ProcessHandle) Kill() error {
	if h.exited.Load() {
		return nil
	}

	h.killed.Store(true)

	return KillTree(h.ps)
}

func (h *ProcessHandle) markExited(state *os.ProcessState) {
	if state != nil {
		h.exitCode.Store(int64(state.ExitCode()))
	}

	h.exited.Store(true)
}
