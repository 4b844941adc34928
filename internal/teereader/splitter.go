// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import "bytes"

// DefaultMaxLineLength bounds the residual buffer. A longer run without a delimiter is
// emitted as a line of its own.
const DefaultMaxLineLength = 64 * 1024

// LineSplitter is the residual carry-over state between chunks.
// The zero value is ready to use. It is not safe for concurrent use.
type LineSplitter struct {
	// MaxLineLength overrides DefaultMaxLineLength when > 0.
	MaxLineLength int

	partial []byte
}

// Feed splits chunk, prefixed by any residual from the previous call, and calls emit for
// every complete non-empty line. The trailing partial line is kept for the next call.
func (s *LineSplitter) Feed(chunk []byte, emit func(string)) {
	maxLen := s.MaxLineLength
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLength
	}

	for len(chunk) > 0 {
		i := bytes.IndexAny(chunk, "\r\n")
		if i < 0 {
			s.partial = append(s.partial, chunk...)

			if len(s.partial) >= maxLen {
				s.emitPartial(emit)
			}

			return
		}

		s.partial = append(s.partial, chunk[:i]...)
		s.emitPartial(emit)
		chunk = chunk[i+1:]
	}
}

// Flush emits the residual partial line, if any.
func (s *LineSplitter) Flush(emit func(string)) {
	s.emitPartial(emit)
}

// Pending returns the residual partial line.
func (s *LineSplitter) Pending() string {
	return string(s.partial)
}

func (s *LineSplitter) emitPartial(emit func(string)) {
	if len(s.partial) == 0 {
		return
	}

	line := string(s.partial)
	s.partial = s.partial[:0]

	emit(line)
}
