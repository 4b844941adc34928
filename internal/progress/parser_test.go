// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		ok      bool
		elapsed float64
		speed   float64
	}{
		{
			name:    "full status line",
			line:    "frame=100 fps=25 q=28.0 size=1024kB time=00:01:23.45 bitrate=100kbits/s speed=2.0x",
			ok:      true,
			elapsed: 83.45,
			speed:   2.0,
		},
		{
			name:    "hours omitted",
			line:    "size=10kB time=01:02.50 speed=0.5x",
			ok:      true,
			elapsed: 62.5,
			speed:   0.5,
		},
		{
			name:    "long hours",
			line:    "time=12:00:00.00 speed=10x",
			ok:      true,
			elapsed: 43200,
			speed:   10,
		},
		{
			name:    "padded fields",
			line:    "frame=  12 fps=0.0 q=0.0 size=       0kB time=   00:00:04.00 bitrate=N/A speed=   8.1x",
			ok:      true,
			elapsed: 4,
			speed:   8.1,
		},
		{
			name:    "speed missing defaults to realtime",
			line:    "time=00:00:10.00 bitrate=1k",
			ok:      true,
			elapsed: 10,
			speed:   1,
		},
		{
			name:    "speed N/A defaults to realtime",
			line:    "time=00:00:10.00 speed=N/A",
			ok:      true,
			elapsed: 10,
			speed:   1,
		},
		{
			name:    "zero speed defaults to realtime",
			line:    "time=00:00:10.00 speed=0x",
			ok:      true,
			elapsed: 10,
			speed:   1,
		},
		{
			name: "time N/A",
			line: "frame=0 time=N/A bitrate=N/A speed=N/A",
		},
		{
			name: "out_time is not a status marker",
			line: "out_time=00:00:01.000000",
		},
		{
			name: "plain diagnostic line",
			line: "Input #0, matroska,webm, from 'in.mkv':",
		},
		{
			name: "malformed clock",
			line: "time=00:0a:01.00 speed=1x",
		},
		{
			name: "empty",
			line: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.line)
			assert.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.InDelta(t, tt.elapsed, got.Elapsed, 1e-9)
				assert.InDelta(t, tt.speed, got.Speed, 1e-9)
			}
		})
	}
}

func TestSample_FractionAndRemaining(t *testing.T) {
	s := Sample{Elapsed: 30, Speed: 2}

	assert.InDelta(t, 0.25, s.Fraction(120), 1e-9)
	assert.InDelta(t, 45, s.Remaining(120), 1e-9)

	assert.Zero(t, s.Fraction(0))
	assert.Zero(t, s.Remaining(0))

	over := Sample{Elapsed: 130, Speed: 1}
	assert.InDelta(t, 1, over.Fraction(120), 1e-9)
	assert.Zero(t, over.Remaining(120))
}
