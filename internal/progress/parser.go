// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"math"
	"regexp"
	"strconv"
)

// DefaultSpeed is used when a status line has no usable speed field.
const DefaultSpeed = 1.0

var (
	timeRe  = regexp.MustCompile(`(?:^|\s)time=\s*(?:(\d+):)?(\d{1,2}):(\d{1,2}(?:\.\d+)?)(?:\s|$)`)
	speedRe = regexp.MustCompile(`(?:^|\s)speed=\s*(\d+(?:\.\d*)?|\.\d+)x`)
)

// Sample is the progress of one task at one instant.
type Sample struct {
	Elapsed float64 // Seconds of media processed so far
	Speed   float64 // Throughput relative to realtime, always > 0
}

// Parse extracts a Sample from an encoder status line such as
//
//	frame=100 fps=25 q=28.0 size=1024kB time=00:01:23.45 bitrate=100kbits/s speed=2.0x
//
// The hours group is optional. Lines without a usable time field give ok == false.
func Parse(line string) (Sample, bool) {
	m := timeRe.FindStringSubmatch(line)
	if m == nil {
		return Sample{}, false
	}

	var hours float64

	if m[1] != "" {
		h, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Sample{}, false
		}

		hours = h
	}

	minutes, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Sample{}, false
	}

	seconds, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Sample{}, false
	}

	elapsed := hours*3600 + minutes*60 + seconds
	if math.IsInf(elapsed, 0) || math.IsNaN(elapsed) {
		return Sample{}, false
	}

	return Sample{Elapsed: elapsed, Speed: parseSpeed(line)}, true
}

func parseSpeed(line string) float64 {
	m := speedRe.FindStringSubmatch(line)
	if m == nil {
		return DefaultSpeed
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) {
		return DefaultSpeed
	}

	return v
}

// Fraction is the share of workload done, clamped to [0, 1]. It is 0 when workload is unknown.
func (s Sample) Fraction(workload float64) float64 {
	if workload <= 0 {
		return 0
	}

	return math.Min(math.Max(s.Elapsed/workload, 0), 1)
}

// Remaining estimates the wall-clock seconds left for the task at the current speed.
func (s Sample) Remaining(workload float64) float64 {
	if workload <= 0 {
		return 0
	}

	speed := s.Speed
	if speed <= 0 {
		speed = DefaultSpeed
	}

	return math.Max(workload-s.Elapsed, 0) / speed
}
