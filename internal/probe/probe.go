// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package probe reads media durations with ffprobe.
package probe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultFFprobe is the executable used when none is configured.
const DefaultFFprobe = "ffprobe"

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 30 * time.Second

var (
	// ErrProbe means ffprobe could not be run or failed.
	ErrProbe = errors.New("ffprobe failed")
	// ErrNoDuration means ffprobe ran but printed no usable duration.
	ErrNoDuration = errors.New("no duration in ffprobe output")
)

// output runs a command and returns its stdout. Replaced in tests.
var output = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Args returns the ffprobe argv for input.
func Args(ffprobeBin, input string) []string {
	if ffprobeBin == "" {
		ffprobeBin = DefaultFFprobe
	}

	return []string{
		ffprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	}
}

// Duration returns the container duration of input in seconds.
func Duration(ctx context.Context, ffprobeBin, input string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	args := Args(ffprobeBin, input)

	out, err := output(ctx, args[0], args[1:]...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return 0, fmt.Errorf("%w: %s: %s", ErrProbe, input, strings.TrimSpace(string(exitErr.Stderr)))
		}

		return 0, fmt.Errorf("%w: %s: %w", ErrProbe, input, err)
	}

	return ParseDuration(string(out))
}

// ParseDuration parses the first line of ffprobe's duration output.
func ParseDuration(s string) (float64, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	line = strings.TrimSpace(line)

	if line == "" || line == "N/A" {
		return 0, ErrNoDuration
	}

	d, err := strconv.ParseFloat(line, 64)
	if err != nil || d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNoDuration, line)
	}

	return d, nil
}
