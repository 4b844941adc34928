// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(s *LineSplitter, chunks ...string) []string {
	var got []string

	for _, c := range chunks {
		s.Feed([]byte(c), func(l string) { got = append(got, l) })
	}

	return got
}

func TestLineSplitter_Feed(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []string
		want    []string
		pending string
	}{
		{
			name:   "newline terminated",
			chunks: []string{"a\nb\n"},
			want:   []string{"a", "b"},
		},
		{
			name:   "carriage return status redraws",
			chunks: []string{"frame=1 time=00:00:01.00\rframe=2 time=00:00:02.00\r"},
			want:   []string{"frame=1 time=00:00:01.00", "frame=2 time=00:00:02.00"},
		},
		{
			name:   "crlf does not produce empty lines",
			chunks: []string{"one\r\ntwo\r\n"},
			want:   []string{"one", "two"},
		},
		{
			name:    "partial line carried across reads",
			chunks:  []string{"fra", "me=10 ti", "me=00:00:01.00\rnext"},
			want:    []string{"frame=10 time=00:00:01.00"},
			pending: "next",
		},
		{
			name:   "delimiter alone in a chunk",
			chunks: []string{"abc", "\n", "def", "\r"},
			want:   []string{"abc", "def"},
		},
		{
			name:    "no delimiter at all",
			chunks:  []string{"abc", "def"},
			want:    nil,
			pending: "abcdef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &LineSplitter{}
			assert.Equal(t, tt.want, collect(s, tt.chunks...))
			assert.Equal(t, tt.pending, s.Pending())
		})
	}
}

func TestLineSplitter_Flush(t *testing.T) {
	s := &LineSplitter{}
	got := collect(s, "done\nresidual")

	s.Flush(func(l string) { got = append(got, l) })
	s.Flush(func(l string) { got = append(got, l) })

	assert.Equal(t, []string{"done", "residual"}, got)
	assert.Empty(t, s.Pending())
}

func TestLineSplitter_MaxLineLength(t *testing.T) {
	s := &LineSplitter{MaxLineLength: 8}
	got := collect(s, strings.Repeat("x", 5), strings.Repeat("y", 5), "z\n")

	assert.Equal(t, []string{"xxxxxyyyyy", "z"}, got)
}
