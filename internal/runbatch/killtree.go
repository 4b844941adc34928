// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// KillTree force-kills ps and every descendant it can find.
//
// Descendants are enumerated before anything is killed so that reparented
// grandchildren are not lost. An already finished root is not an error.
func KillTree(ps *os.Process) error {
	descendants := descendantsOf(int32(ps.Pid))

	// The child leads its own process group; on Unix this reaches most of the tree at once.
	killGroup(ps.Pid)

	var errs error

	if err := ps.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		errs = errors.Join(ErrKill, err)
	}

	for _, d := range descendants {
		// Descendants may already be gone with the group.
		_ = d.Kill()
	}

	return errs
}

// descendantsOf walks the process table below pid, deepest first.
func descendantsOf(pid int32) []*process.Process {
	root, err := process.NewProcess(pid)
	if err != nil {
		return nil
	}

	var out []*process.Process

	var walk func(p *process.Process)

	walk = func(p *process.Process) {
		children, err := p.Children()
		if err != nil {
			return
		}

		for _, c := range children {
			walk(c)
			out = append(out, c)
		}
	}

	walk(root)

	return out
}
