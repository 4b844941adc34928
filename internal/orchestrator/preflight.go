// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/c2h5oh/datasize"
	"github.com/matt-FFFFFF/mediabatch/internal/ctxlog"
	"github.com/shirou/gopsutil/v3/disk"
)

var (
	// ErrFatal wraps errors that stop the whole batch before or while it runs.
	ErrFatal = errors.New("fatal batch error")
	// ErrOutputDir means an output directory could not be created.
	ErrOutputDir = errors.New("could not create output directory")
	// ErrDiskSpace means an output directory has less free space than required.
	ErrDiskSpace = errors.New("insufficient disk space")
)

// diskUsage is replaced in tests.
var diskUsage = disk.UsageWithContext

// outputDirs returns the distinct output directories of tasks, sorted.
func outputDirs(tasks []Task) []string {
	dirs := make([]string, 0, len(tasks))

	for _, t := range tasks {
		dirs = append(dirs, filepath.Dir(t.OutputPath))
	}

	slices.Sort(dirs)

	return slices.Compact(dirs)
}

// preflight creates output directories and checks free space.
func (bc *BatchContext) preflight(ctx context.Context, tasks []Task) error {
	for _, dir := range outputDirs(tasks) {
		if err := bc.Fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w: %s: %w", ErrFatal, ErrOutputDir, dir, err)
		}

		if bc.Options.MinFreeDisk == 0 {
			continue
		}

		usage, err := diskUsage(ctx, dir)
		if err != nil {
			ctxlog.Warn(ctx, "could not read free disk space", "dir", dir, "error", err)
			continue
		}

		if usage.Free < bc.Options.MinFreeDisk {
			return fmt.Errorf("%w: %w: %s has %s free, need %s", ErrFatal, ErrDiskSpace, dir,
				datasize.ByteSize(usage.Free).HumanReadable(),
				datasize.ByteSize(bc.Options.MinFreeDisk).HumanReadable())
		}

		ctxlog.Debug(ctx, "disk space ok", "dir", dir, "free", datasize.ByteSize(usage.Free).HumanReadable())
	}

	return nil
}
